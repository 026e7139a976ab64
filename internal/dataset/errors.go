package dataset

import (
	"errors"
	"fmt"
)

// ErrDataUnavailable is matched by every load failure that leaves a query without data.
var ErrDataUnavailable = errors.New("data unavailable")

var errNoSource = errors.New("no source configured")

// UnavailableError reports that a resource (and its fallback, if any) could not be loaded.
type UnavailableError struct {
	Source string
	Err    error
}

func (e *UnavailableError) Error() string {
	if e == nil {
		return ErrDataUnavailable.Error()
	}
	if e.Source != "" {
		return fmt.Sprintf("data unavailable from %s: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("data unavailable: %v", e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrDataUnavailable) match.
func (e *UnavailableError) Is(target error) bool { return target == ErrDataUnavailable }

// ParseAnomaly describes a row that was skipped or defaulted during parsing.
// Anomalies are never returned as errors.
type ParseAnomaly struct {
	Line   int
	Reason string
}

func (a ParseAnomaly) String() string {
	return fmt.Sprintf("line %d: %s", a.Line, a.Reason)
}
