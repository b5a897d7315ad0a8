package messages_test

import (
	"testing"

	"github.com/okian/pumpcurve/internal/adapters/messages"
	"github.com/okian/pumpcurve/internal/domain/operating"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParseLang(t *testing.T) {
	Convey("Given language hints", t, func() {
		So(messages.ParseLang("pt", messages.English), ShouldEqual, messages.Portuguese)
		So(messages.ParseLang("pt-BR,pt;q=0.9,en;q=0.8", messages.English), ShouldEqual, messages.Portuguese)
		So(messages.ParseLang("de-DE, en-US;q=0.7", messages.Portuguese), ShouldEqual, messages.English)
		So(messages.ParseLang("", messages.Portuguese), ShouldEqual, messages.Portuguese)
		So(messages.ParseLang("fr", messages.English), ShouldEqual, messages.English)
	})
}

func TestVerdict(t *testing.T) {
	Convey("Given a warning verdict", t, func() {
		v := operating.Warned(
			operating.Warning{Code: operating.WarnFlowAboveRange, Actual: 50, Reference: 42},
			operating.Warning{Code: operating.WarnShutoff, Reference: 32},
		)

		Convey("When rendered in English", func() {
			lines := messages.Verdict(messages.English, v)

			Convey("Then every advisory becomes one line in order", func() {
				So(lines, ShouldResemble, []string{
					"Flow 50.0 m³/h is above the curve range (max 42.0 m³/h)",
					"Shutoff: zero flow at 32.0 m head",
				})
			})
		})

		Convey("When rendered in Portuguese", func() {
			lines := messages.Verdict(messages.Portuguese, v)

			Convey("Then the Portuguese wording is used", func() {
				So(lines[0], ShouldEqual, "Vazão 50.0 m³/h acima da faixa da curva (máx. 42.0 m³/h)")
			})
		})
	})

	Convey("Given an ok verdict", t, func() {
		So(messages.Verdict(messages.English, operating.Ok()), ShouldResemble, []string{"Operating point within the curve"})
	})

	Convey("Given every warning code", t, func() {
		codes := []operating.WarningCode{
			operating.WarnFlowFarAboveRange, operating.WarnFlowAboveRange, operating.WarnFlowUnusuallyLow,
			operating.WarnHeadAboveRange, operating.WarnHeadUnusuallyLow, operating.WarnFarFromCurve, operating.WarnPumpStopped,
			operating.WarnShutoff, operating.WarnFreeDischarge, operating.WarnNegativeHeadSuction,
			operating.WarnLowEfficiency,
		}

		Convey("Then each has wording in both languages", func() {
			for _, c := range codes {
				w := operating.Warning{Code: c, Actual: 1, Reference: 2}
				So(messages.Warning(messages.English, w), ShouldNotEqual, string(c))
				So(messages.Warning(messages.Portuguese, w), ShouldNotEqual, string(c))
				So(messages.Warning(messages.English, w), ShouldNotContainSubstring, "%!")
			}
		})
	})
}

func TestRejection(t *testing.T) {
	Convey("Given a negative flow rejection", t, func() {
		So(messages.Rejection(messages.English, operating.RejectNegativeFlow), ShouldEqual, "Flow must not be negative")
		So(messages.Rejection(messages.Portuguese, operating.RejectNegativeFlow), ShouldEqual, "A vazão não pode ser negativa")
		So(messages.Verdict(messages.English, operating.Rejected(operating.RejectNonNumeric)), ShouldResemble,
			[]string{"Flow and head must be finite numbers"})
	})

	Convey("Given an unknown pump", t, func() {
		So(messages.NotFound(messages.English, "X"), ShouldEqual, `Pump "X" not found`)
	})
}
