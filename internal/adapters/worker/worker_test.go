package worker_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	worker "github.com/okian/pumpcurve/internal/adapters/worker"
	"github.com/okian/pumpcurve/internal/domain/operating"
	"github.com/smartystreets/goconvey/convey"
)

var errUnknownPump = errors.New("unknown pump")

// mockResolver echoes the flow as head and fails for pump "bad".
type mockResolver struct {
	delay    time.Duration
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (m *mockResolver) Resolve(ctx context.Context, q operating.Query) (operating.Result, error) {
	n := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		p := m.peak.Load()
		if n <= p || m.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	if q.Pump == "bad" {
		return operating.Result{}, errUnknownPump
	}
	return operating.Result{Pump: q.Pump, Flow: q.Flow, ResolvedHead: q.Flow}, nil
}

func queries(n int) []operating.Query {
	out := make([]operating.Query, n)
	for i := range out {
		out[i] = operating.Query{Pump: "p", Flow: float64(i)}
	}
	return out
}

func TestPool_Run(t *testing.T) {
	convey.Convey("Given a pool of four workers", t, func() {
		resolver := &mockResolver{delay: time.Millisecond}
		pool := worker.NewPool(resolver, worker.WithWorkers(4), worker.WithName("test"))

		convey.So(pool.Workers(), convey.ShouldEqual, 4)

		convey.Convey("When resolving a batch", func() {
			qs := queries(40)
			out, err := pool.Run(context.Background(), qs)

			convey.Convey("Then outcomes keep query order", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(out), convey.ShouldEqual, len(qs))
				for i, o := range out {
					convey.So(o.Index, convey.ShouldEqual, i)
					convey.So(o.Err, convey.ShouldBeNil)
					convey.So(o.Result.Flow, convey.ShouldEqual, float64(i))
				}
			})

			convey.Convey("Then no more than four run at once", func() {
				convey.So(resolver.peak.Load(), convey.ShouldBeBetweenOrEqual, 1, 4)
			})
		})

		convey.Convey("When one query fails", func() {
			qs := queries(5)
			qs[2].Pump = "bad"
			out, err := pool.Run(context.Background(), qs)

			convey.Convey("Then only its outcome carries the error", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(errors.Is(out[2].Err, errUnknownPump), convey.ShouldBeTrue)
				convey.So(out[1].Err, convey.ShouldBeNil)
				convey.So(out[3].Err, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the batch is empty", func() {
			out, err := pool.Run(context.Background(), nil)
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldBeEmpty)
		})

		convey.Convey("When the context is already cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			out, err := pool.Run(ctx, queries(3))

			convey.Convey("Then nothing is resolved", func() {
				convey.So(errors.Is(err, context.Canceled), convey.ShouldBeTrue)
				convey.So(out, convey.ShouldBeNil)
				convey.So(resolver.peak.Load(), convey.ShouldEqual, 0)
			})
		})
	})
}

func TestPool_Defaults(t *testing.T) {
	convey.Convey("Given a pool built without options", t, func() {
		pool := worker.NewPool(&mockResolver{}, worker.WithWorkers(0), worker.WithLogger(nil))

		convey.Convey("Then it uses at least one worker", func() {
			convey.So(pool.Workers(), convey.ShouldBeGreaterThanOrEqualTo, 1)
		})
	})
}
