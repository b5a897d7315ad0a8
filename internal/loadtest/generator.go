package loadtest

import (
	"fmt"
	"math/rand"

	"github.com/okian/pumpcurve/internal/domain/operating"
)

// Mix of generated queries, in percent.
const (
	unknownPumpPercent  = 3
	negativeFlowPercent = 3
	headPercent         = 40
	suctionPercent      = 10
)

// Flows are drawn up to this multiple of a pump's maximum flow so that the
// above-range rules fire as well.
const flowSpan = 1.4

// maxHead bounds generated heads in metres.
const maxHead = 60.0

// Generate builds n cases over pumps. The same seed yields the same cases.
func Generate(pumps []PumpInfo, n int, seed int64) ([]Case, error) {
	if len(pumps) == 0 {
		return nil, fmt.Errorf("no pumps to generate queries for")
	}
	rng := rand.New(rand.NewSource(seed))

	cases := make([]Case, n)
	for i := range cases {
		cases[i] = generateCase(rng, pumps, i)
	}
	return cases, nil
}

func generateCase(rng *rand.Rand, pumps []PumpInfo, index int) Case {
	p := pumps[rng.Intn(len(pumps))]
	roll := rng.Intn(100)

	switch {
	case roll < unknownPumpPercent:
		return Case{
			Query:  operating.Query{Pump: fmt.Sprintf("unknown-pump-%d", index), Flow: rng.Float64() * 10},
			Expect: ExpectNotFound,
		}
	case roll < unknownPumpPercent+negativeFlowPercent:
		return Case{
			Query:  operating.Query{Pump: p.Name, Flow: -(1 + rng.Float64()*10)},
			Expect: ExpectRejected,
		}
	}

	q := operating.Query{Pump: p.Name, Flow: round2(rng.Float64() * p.MaxFlow * flowSpan)}
	if rng.Intn(100) >= headPercent {
		return Case{Query: q, Expect: ExpectResolved}
	}
	if rng.Intn(100) < suctionPercent {
		q.Head = operating.HeadOf(-round2(1 + rng.Float64()*10))
		if p.AllowNegativeHead {
			return Case{Query: q, Expect: ExpectResolved}
		}
		return Case{Query: q, Expect: ExpectRejected}
	}
	q.Head = operating.HeadOf(round2(rng.Float64() * maxHead))
	return Case{Query: q, Expect: ExpectResolved}
}

func round2(v float64) float64 {
	return float64(int64(v*100)) / 100
}

// Queries returns the queries of cases in order.
func Queries(cases []Case) []operating.Query {
	out := make([]operating.Query, len(cases))
	for i, c := range cases {
		out[i] = c.Query
	}
	return out
}
