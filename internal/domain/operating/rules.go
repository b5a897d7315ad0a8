package operating

import (
	"math"

	"github.com/okian/pumpcurve/internal/domain/curve"
	"github.com/okian/pumpcurve/internal/domain/pump"
)

// point is everything a rule may inspect.
type point struct {
	query  Query
	result Result
	spec   pump.Spec
	set    curve.Set
	policy pump.Policy
}

// rule appends the advisories it finds to ws.
type rule func(p point, ws []Warning) []Warning

// rules run in this order; the verdict lists warnings in the same order.
var rules = []rule{
	flowRange,
	lowFlow,
	headRange,
	lowHead,
	curveDeviation,
	operatingCondition,
	suction,
	lowEfficiency,
}

func evaluate(p point) Verdict {
	var ws []Warning
	for _, r := range rules {
		ws = r(p, ws)
	}
	return Warned(ws...)
}

func flowRange(p point, ws []Warning) []Warning {
	maxFlow := p.set.MaxFlow()
	switch q := p.query.Flow; {
	case q > maxFlow*(1+p.policy.FarAboveMargin):
		return append(ws, Warning{Code: WarnFlowFarAboveRange, Severity: SeverityAdvisory, Actual: q, Reference: maxFlow})
	case q > maxFlow:
		return append(ws, Warning{Code: WarnFlowAboveRange, Severity: SeverityAdvisory, Actual: q, Reference: maxFlow})
	}
	return ws
}

func lowFlow(p point, ws []Warning) []Warning {
	limit := p.set.MaxFlow() * p.policy.LowFlowFraction
	if q := p.query.Flow; q > 0 && q < limit {
		return append(ws, Warning{Code: WarnFlowUnusuallyLow, Severity: SeverityAdvisory, Actual: q, Reference: limit})
	}
	return ws
}

func headRange(p point, ws []Warning) []Warning {
	if !p.query.HasHead() {
		return ws
	}
	_, maxHead := p.set.HeadRange()
	if h := *p.query.Head; h > maxHead {
		return append(ws, Warning{Code: WarnHeadAboveRange, Severity: SeverityAdvisory, Actual: h, Reference: maxHead})
	}
	return ws
}

// lowHead flags a positive specified head below a fraction of the curve's
// largest head magnitude.
func lowHead(p point, ws []Warning) []Warning {
	if !p.query.HasHead() || *p.query.Head <= 0 {
		return ws
	}
	lo, hi := p.set.HeadRange()
	limit := math.Max(math.Abs(lo), math.Abs(hi)) * p.policy.LowHeadFraction
	if h := *p.query.Head; h < limit {
		return append(ws, Warning{Code: WarnHeadUnusuallyLow, Severity: SeverityAdvisory, Actual: h, Reference: limit})
	}
	return ws
}

// curveDeviation flags a specified head further from the curve than
// max(|curve head|·fraction, minimum tolerance).
func curveDeviation(p point, ws []Warning) []Warning {
	if !p.query.HasHead() || *p.query.Head <= 0 {
		return ws
	}
	h, expected := *p.query.Head, p.result.ResolvedHead
	tolerance := math.Max(math.Abs(expected)*p.policy.HeadToleranceFraction, p.policy.HeadMinTolerance)
	if math.Abs(h-expected) > tolerance {
		return append(ws, Warning{Code: WarnFarFromCurve, Severity: SeverityAdvisory, Actual: h, Reference: expected})
	}
	return ws
}

func operatingCondition(p point, ws []Warning) []Warning {
	zeroFlow := p.query.Flow == 0
	zeroHead := p.query.HasHead() && *p.query.Head == 0
	switch {
	case zeroFlow && zeroHead:
		return append(ws, Warning{Code: WarnPumpStopped, Severity: SeverityInfo})
	case zeroFlow:
		return append(ws, Warning{Code: WarnShutoff, Severity: SeverityInfo, Reference: p.result.ResolvedHead})
	case zeroHead:
		return append(ws, Warning{Code: WarnFreeDischarge, Severity: SeverityInfo, Actual: p.query.Flow})
	}
	return ws
}

func suction(p point, ws []Warning) []Warning {
	if p.query.HasHead() && *p.query.Head < 0 {
		return append(ws, Warning{Code: WarnNegativeHeadSuction, Severity: SeverityInfo, Actual: *p.query.Head})
	}
	return ws
}

// lowEfficiency is skipped at zero flow, where zero efficiency is by
// definition and the shutoff condition is already reported.
func lowEfficiency(p point, ws []Warning) []Warning {
	if p.query.Flow == 0 {
		return ws
	}
	limit := p.spec.RatedEfficiencyPercent * p.policy.LowEfficiencyFraction
	if e := p.result.Efficiency; e < limit {
		return append(ws, Warning{Code: WarnLowEfficiency, Severity: SeverityInfo, Actual: e, Reference: limit})
	}
	return ws
}
