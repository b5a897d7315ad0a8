package catalog_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/pumpcurve/internal/adapters/catalog"
	"github.com/okian/pumpcurve/internal/domain/pump"
	. "github.com/smartystreets/goconvey/convey"
)

const singlePump = `
pumps:
  - name: "Test Pump"
    rated_power_cv: 5
    rated_rpm: 1750
    rated_npsh_m: 3
    rated_efficiency_percent: 60
    curves:
      max_flow: 60
      samples: 90
      bep_flow: 35
      head: {shutoff_m: 40, ref_head_m: 5, ref_flow: 60, exponent: 2}
      power: {base: 1, linear: 3, quadratic: 1}
      npsh: {base: 2, rise1: 1, rise2: 1}
    policy:
      head_min_tolerance: 2
`

func TestDecode(t *testing.T) {
	Convey("Given a catalog document", t, func() {
		Convey("When it describes one valid pump", func() {
			specs, err := catalog.Decode(strings.NewReader(singlePump))

			Convey("Then the spec is decoded with its curves and policy", func() {
				So(err, ShouldBeNil)
				So(specs, ShouldHaveLength, 1)
				s := specs[0]
				So(s.Name, ShouldEqual, "Test Pump")
				So(s.RatedEfficiencyPercent, ShouldEqual, 60.0)
				So(s.Curves.Samples, ShouldEqual, 90)
				So(s.Curves.Head.RefHeadM, ShouldEqual, 5.0)
				So(s.Curves.NPSH.Rise2, ShouldEqual, 1.0)
				So(s.Policy.HeadMinTolerance, ShouldEqual, 2.0)
				So(s.Policy.AllowNegativeHead, ShouldBeFalse)
			})
		})

		Convey("When it contains an unknown key", func() {
			doc := strings.Replace(singlePump, "rise2: 1", "rise3: 1", 1)
			_, err := catalog.Decode(strings.NewReader(doc))

			Convey("Then decoding fails", func() {
				So(errors.Is(err, catalog.ErrDecode), ShouldBeTrue)
			})
		})

		Convey("When it is empty", func() {
			_, err := catalog.Decode(strings.NewReader(""))

			Convey("Then decoding fails", func() {
				So(errors.Is(err, catalog.ErrDecode), ShouldBeTrue)
			})
		})

		Convey("When it lists no pumps", func() {
			_, err := catalog.Decode(strings.NewReader("pumps: []\n"))

			Convey("Then decoding fails", func() {
				So(errors.Is(err, catalog.ErrDecode), ShouldBeTrue)
			})
		})

		Convey("When a pump has an invalid shape", func() {
			doc := strings.Replace(singlePump, "max_flow: 60", "max_flow: -60", 1)
			_, err := catalog.Decode(strings.NewReader(doc))

			Convey("Then the spec error is returned", func() {
				So(errors.Is(err, pump.ErrInvalidSpec), ShouldBeTrue)
			})
		})
	})
}

func TestEncodeRoundTrip(t *testing.T) {
	Convey("Given the built-in catalog written to a file", t, func() {
		var buf bytes.Buffer
		So(catalog.Encode(&buf, pump.DefaultCatalog()), ShouldBeNil)

		path := filepath.Join(t.TempDir(), "catalog.yaml")
		So(os.WriteFile(path, buf.Bytes(), 0o600), ShouldBeNil)

		Convey("When the file is loaded", func() {
			specs, err := catalog.LoadFile(path)

			Convey("Then the same catalog comes back in order", func() {
				So(err, ShouldBeNil)
				So(specs, ShouldResemble, pump.DefaultCatalog())
			})
		})
	})

	Convey("Given a path that does not exist", t, func() {
		_, err := catalog.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))

		Convey("Then loading fails with the os error", func() {
			So(errors.Is(err, os.ErrNotExist), ShouldBeTrue)
		})
	})
}
