package operating

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is the kind of every query refused before resolution.
var ErrInvalidInput = errors.New("invalid operating point input")

// RejectionError carries the reason a query was refused. It matches
// ErrInvalidInput with errors.Is.
type RejectionError struct {
	Reason RejectReason
	Value  float64
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("%s: %s (%g)", ErrInvalidInput, e.Reason, e.Value)
}

func (e *RejectionError) Unwrap() error { return ErrInvalidInput }

// Verdict converts the error to a Rejected verdict.
func (e *RejectionError) Verdict() Verdict { return Rejected(e.Reason) }

// AsRejection extracts a RejectionError from err.
func AsRejection(err error) (*RejectionError, bool) {
	var re *RejectionError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}
