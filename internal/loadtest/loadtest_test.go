package loadtest_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/pumpcurve/internal/adapters/export"
	"github.com/okian/pumpcurve/internal/adapters/http/api"
	service "github.com/okian/pumpcurve/internal/app"
	"github.com/okian/pumpcurve/internal/domain/pump"
	"github.com/okian/pumpcurve/internal/loadtest"
	"github.com/okian/pumpcurve/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

var testPumps = []loadtest.PumpInfo{
	{Name: pump.BC21ThreeCV, MaxFlow: 42},
	{Name: pump.WorkPump, MaxFlow: 500, AllowNegativeHead: true},
}

func newServiceServer() *httptest.Server {
	svc := service.New(service.WithLogger(logger.Nop()))
	convey.So(svc.Start(context.Background()), convey.ShouldBeNil)

	server := api.NewServer(svc, svc)
	mux := http.NewServeMux()
	server.Register(context.Background(), mux)
	return httptest.NewServer(server.Handler(mux))
}

func TestGenerate(t *testing.T) {
	convey.Convey("Given a catalog of two pumps", t, func() {
		convey.Convey("When generating with the same seed twice", func() {
			a, errA := loadtest.Generate(testPumps, 300, 7)
			b, errB := loadtest.Generate(testPumps, 300, 7)

			convey.Convey("Then the cases are identical", func() {
				convey.So(errA, convey.ShouldBeNil)
				convey.So(errB, convey.ShouldBeNil)
				convey.So(a, convey.ShouldResemble, b)
			})
		})

		convey.Convey("When generating many cases", func() {
			cases, err := loadtest.Generate(testPumps, 2000, 1)

			convey.Convey("Then every expectation class occurs", func() {
				convey.So(err, convey.ShouldBeNil)
				seen := map[loadtest.Expectation]int{}
				for _, c := range cases {
					seen[c.Expect]++
				}
				convey.So(seen[loadtest.ExpectResolved], convey.ShouldBeGreaterThan, 0)
				convey.So(seen[loadtest.ExpectRejected], convey.ShouldBeGreaterThan, 0)
				convey.So(seen[loadtest.ExpectNotFound], convey.ShouldBeGreaterThan, 0)
			})

			convey.Convey("Then negative heads are only expected to resolve where allowed", func() {
				for _, c := range cases {
					if c.Query.Head == nil || *c.Query.Head >= 0 {
						continue
					}
					want := loadtest.ExpectRejected
					if c.Query.Pump == pump.WorkPump {
						want = loadtest.ExpectResolved
					}
					convey.So(c.Expect, convey.ShouldEqual, want)
				}
			})
		})
	})

	convey.Convey("Given an empty catalog", t, func() {
		_, err := loadtest.Generate(nil, 10, 1)

		convey.Convey("Then generation fails", func() {
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestRun(t *testing.T) {
	convey.Convey("Given a running service", t, func() {
		ts := newServiceServer()
		defer ts.Close()
		out := filepath.Join(t.TempDir(), "runs", "queries.xlsx")

		convey.Convey("When a load run is executed", func() {
			stats, err := loadtest.Run(context.Background(), &loadtest.Config{
				BaseURL:    ts.URL,
				Queries:    200,
				Workers:    4,
				Seed:       42,
				OutputFile: out,
			}, logger.Nop())

			convey.Convey("Then every response matches its query", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(stats.Generated, convey.ShouldEqual, 200)
				convey.So(stats.Submitted, convey.ShouldEqual, 200)
				convey.So(stats.Failed, convey.ShouldEqual, 0)
				convey.So(stats.Mismatches, convey.ShouldEqual, 0)
				convey.So(stats.Resolved+stats.Rejected+stats.NotFound, convey.ShouldEqual, 200)
				convey.So(stats.QueriesPerSecond(), convey.ShouldBeGreaterThan, 0)
			})

			convey.Convey("Then the queries are saved as a replayable batch", func() {
				body, err := os.ReadFile(out)
				convey.So(err, convey.ShouldBeNil)
				rows, err := export.ReadQueriesXLSX(bytes.NewReader(body))
				convey.So(err, convey.ShouldBeNil)
				convey.So(rows, convey.ShouldHaveLength, 200)
			})
		})
	})

	convey.Convey("Given a service that answers every query with an error", t, func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
		mux.HandleFunc("/pumps", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`[{"name":"P","max_flow":10}]`))
		})
		mux.HandleFunc("/stats", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(`{}`)) })
		mux.HandleFunc("/operating-point", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
		ts := httptest.NewServer(mux)
		defer ts.Close()

		convey.Convey("When a load run is executed", func() {
			stats, err := loadtest.Run(context.Background(), &loadtest.Config{BaseURL: ts.URL, Queries: 20, Workers: 2}, nil)

			convey.Convey("Then the run fails with mismatches", func() {
				convey.So(errors.Is(err, loadtest.ErrMismatch), convey.ShouldBeTrue)
				convey.So(stats.Failed, convey.ShouldEqual, 20)
				convey.So(stats.Mismatches, convey.ShouldEqual, 20)
			})
		})
	})

	convey.Convey("Given no service", t, func() {
		_, err := loadtest.Run(context.Background(), &loadtest.Config{BaseURL: "http://127.0.0.1:1", Queries: 1}, nil)

		convey.Convey("Then the health check fails", func() {
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}
