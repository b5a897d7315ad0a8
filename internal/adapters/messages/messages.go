// Package messages renders verdicts and rejections as human-readable text in
// English or Portuguese. Codes stay the contract; these strings are display only.
package messages

import (
	"fmt"
	"strings"

	"github.com/okian/pumpcurve/internal/domain/operating"
)

// Lang is a presentation language.
type Lang string

// Supported languages.
const (
	English    Lang = "en"
	Portuguese Lang = "pt"
)

// ParseLang picks a supported language from a query value or an
// Accept-Language header, falling back to def.
func ParseLang(value string, def Lang) Lang {
	for _, part := range strings.Split(value, ",") {
		tag := strings.ToLower(strings.TrimSpace(part))
		if i := strings.IndexAny(tag, ";-_"); i >= 0 {
			tag = tag[:i]
		}
		switch Lang(tag) {
		case English, Portuguese:
			return Lang(tag)
		}
	}
	return def
}

type template struct {
	en, pt string
	// args selects the warning values formatted into the template.
	args func(w operating.Warning) []any
}

func actual(w operating.Warning) []any       { return []any{w.Actual} }
func reference(w operating.Warning) []any    { return []any{w.Reference} }
func actualAndRef(w operating.Warning) []any { return []any{w.Actual, w.Reference} }
func none(operating.Warning) []any           { return nil }

var warnings = map[operating.WarningCode]template{
	operating.WarnFlowFarAboveRange: {
		en:   "Flow %.1f m³/h is far above the curve range (max %.1f m³/h)",
		pt:   "Vazão %.1f m³/h muito acima da faixa da curva (máx. %.1f m³/h)",
		args: actualAndRef,
	},
	operating.WarnFlowAboveRange: {
		en:   "Flow %.1f m³/h is above the curve range (max %.1f m³/h)",
		pt:   "Vazão %.1f m³/h acima da faixa da curva (máx. %.1f m³/h)",
		args: actualAndRef,
	},
	operating.WarnFlowUnusuallyLow: {
		en:   "Flow %.2f m³/h is unusually low (below %.2f m³/h)",
		pt:   "Vazão %.2f m³/h muito baixa (abaixo de %.2f m³/h)",
		args: actualAndRef,
	},
	operating.WarnHeadAboveRange: {
		en:   "Head %.1f m is above the curve maximum (%.1f m)",
		pt:   "Altura %.1f m acima do máximo da curva (%.1f m)",
		args: actualAndRef,
	},
	operating.WarnHeadUnusuallyLow: {
		en:   "Head %.2f m is unusually low (below %.2f m)",
		pt:   "Altura %.2f m muito baixa (abaixo de %.2f m)",
		args: actualAndRef,
	},
	operating.WarnFarFromCurve: {
		en:   "Specified head %.1f m is far from the curve (expected %.1f m)",
		pt:   "Altura informada %.1f m distante da curva (esperado %.1f m)",
		args: actualAndRef,
	},
	operating.WarnPumpStopped: {
		en:   "Pump stopped: zero flow and zero head",
		pt:   "Bomba parada: vazão e altura nulas",
		args: none,
	},
	operating.WarnShutoff: {
		en:   "Shutoff: zero flow at %.1f m head",
		pt:   "Shutoff: vazão nula com altura de %.1f m",
		args: reference,
	},
	operating.WarnFreeDischarge: {
		en:   "Free discharge: zero head at %.1f m³/h",
		pt:   "Descarga livre: altura nula com %.1f m³/h",
		args: actual,
	},
	operating.WarnNegativeHeadSuction: {
		en:   "Negative head %.1f m: suction-side operation",
		pt:   "Altura negativa %.1f m: operação em sucção",
		args: actual,
	},
	operating.WarnLowEfficiency: {
		en:   "Efficiency %.1f %% is below %.1f %%",
		pt:   "Rendimento %.1f %% abaixo de %.1f %%",
		args: actualAndRef,
	},
}

var rejections = map[operating.RejectReason][2]string{
	operating.RejectNegativeFlow: {"Flow must not be negative", "A vazão não pode ser negativa"},
	operating.RejectNegativeHead: {"Head must not be negative for this pump", "A altura não pode ser negativa para esta bomba"},
	operating.RejectNonNumeric:   {"Flow and head must be finite numbers", "Vazão e altura devem ser números finitos"},
}

func pick(lang Lang, en, pt string) string {
	if lang == Portuguese {
		return pt
	}
	return en
}

// Warning renders one advisory.
func Warning(lang Lang, w operating.Warning) string {
	t, ok := warnings[w.Code]
	if !ok {
		return string(w.Code)
	}
	return fmt.Sprintf(pick(lang, t.en, t.pt), t.args(w)...)
}

// Verdict renders every advisory of v in order. An ok verdict yields a single
// confirmation line.
func Verdict(lang Lang, v operating.Verdict) []string {
	if v.Status == operating.StatusOK {
		return []string{pick(lang, "Operating point within the curve", "Ponto de operação dentro da curva")}
	}
	if v.Status == operating.StatusRejected {
		return []string{Rejection(lang, v.Reason)}
	}
	out := make([]string, len(v.Warnings))
	for i, w := range v.Warnings {
		out[i] = Warning(lang, w)
	}
	return out
}

// Rejection renders why a query was refused.
func Rejection(lang Lang, reason operating.RejectReason) string {
	t, ok := rejections[reason]
	if !ok {
		return string(reason)
	}
	return pick(lang, t[0], t[1])
}

// NotFound renders an unknown pump name.
func NotFound(lang Lang, name string) string {
	return fmt.Sprintf(pick(lang, "Pump %q not found", "Bomba %q não encontrada"), name)
}

// Status renders a verdict status.
func Status(lang Lang, s operating.Status) string {
	switch s {
	case operating.StatusOK:
		return pick(lang, "OK", "OK")
	case operating.StatusWarning:
		return pick(lang, "Warning", "Atenção")
	case operating.StatusRejected:
		return pick(lang, "Rejected", "Rejeitado")
	}
	return s.String()
}
