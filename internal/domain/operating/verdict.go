package operating

// Status is the outcome class of a resolution.
type Status int

// Verdict statuses.
const (
	StatusOK Status = iota
	StatusWarning
	StatusRejected
)

// String returns the wire name of the status.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusWarning:
		return "warning"
	case StatusRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// WarningCode identifies an advisory condition. Codes are the data contract;
// wording is left to the presentation layer.
type WarningCode string

// Warning codes in the order the rules emit them.
const (
	WarnFlowFarAboveRange   WarningCode = "flow_far_above_range"
	WarnFlowAboveRange      WarningCode = "flow_above_range"
	WarnFlowUnusuallyLow    WarningCode = "flow_unusually_low"
	WarnHeadAboveRange      WarningCode = "head_above_range"
	WarnHeadUnusuallyLow    WarningCode = "head_unusually_low"
	WarnFarFromCurve        WarningCode = "far_from_curve"
	WarnPumpStopped         WarningCode = "pump_stopped"
	WarnShutoff             WarningCode = "shutoff"
	WarnFreeDischarge       WarningCode = "free_discharge"
	WarnNegativeHeadSuction WarningCode = "negative_head_suction"
	WarnLowEfficiency       WarningCode = "low_efficiency"
)

// Severity grades a warning.
type Severity string

// Severities.
const (
	SeverityAdvisory Severity = "advisory"
	SeverityInfo     Severity = "info"
)

// Warning is one advisory produced while validating a resolved point.
// Actual is the offending quantity and Reference the value it was judged
// against (range limit, expected head or efficiency threshold).
type Warning struct {
	Code      WarningCode `json:"code"`
	Severity  Severity    `json:"severity"`
	Actual    float64     `json:"actual"`
	Reference float64     `json:"reference"`
}

// RejectReason identifies why a query was refused.
type RejectReason string

// Reject reasons.
const (
	RejectNegativeFlow RejectReason = "negative_flow"
	RejectNegativeHead RejectReason = "negative_head"
	RejectNonNumeric   RejectReason = "non_numeric"
)

// Verdict is the structured validation outcome of a query.
type Verdict struct {
	Status   Status       `json:"status"`
	Warnings []Warning    `json:"warnings,omitempty"`
	Reason   RejectReason `json:"reason,omitempty"`
}

// Ok returns a verdict without advisories.
func Ok() Verdict { return Verdict{Status: StatusOK} }

// Warned returns an OK verdict when ws is empty and a warning verdict otherwise.
func Warned(ws ...Warning) Verdict {
	if len(ws) == 0 {
		return Ok()
	}
	return Verdict{Status: StatusWarning, Warnings: ws}
}

// Rejected returns a verdict for a refused query.
func Rejected(reason RejectReason) Verdict {
	return Verdict{Status: StatusRejected, Reason: reason}
}

// Has reports whether the verdict carries a warning with the given code.
func (v Verdict) Has(code WarningCode) bool {
	for _, w := range v.Warnings {
		if w.Code == code {
			return true
		}
	}
	return false
}

// Codes lists the warning codes in emission order.
func (v Verdict) Codes() []WarningCode {
	codes := make([]WarningCode, len(v.Warnings))
	for i, w := range v.Warnings {
		codes[i] = w.Code
	}
	return codes
}
