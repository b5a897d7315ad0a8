package pump

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrNotFound    = errors.New("pump not found")
	ErrInvalidSpec = errors.New("invalid pump spec")
	ErrDuplicate   = errors.New("duplicate pump name")
)
