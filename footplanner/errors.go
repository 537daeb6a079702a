package footplanner

import "fmt"

// OutOfRangeError is returned when a spline or phase is queried outside the time interval it
// was constructed for. Queries are never clamped.
type OutOfRangeError struct {
	Time  float64
	Start float64
	End   float64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("query time %v outside of valid interval [%v, %v]", e.Time, e.Start, e.End)
}

func newOutOfRangeError(t, start, end float64) error {
	return &OutOfRangeError{Time: t, Start: start, End: end}
}

// InvalidInputError is returned at construction time for degenerate node sets, profiles or
// events. Err holds the underlying failure, if any.
type InvalidInputError struct {
	Reason string
	Err    error
}

func (e *InvalidInputError) Error() string {
	if e.Err != nil {
		return "invalid input: " + e.Reason + ": " + e.Err.Error()
	}
	return "invalid input: " + e.Reason
}

func (e *InvalidInputError) Unwrap() error {
	return e.Err
}

func newInvalidInputError(format string, args ...interface{}) error {
	return &InvalidInputError{Reason: fmt.Sprintf(format, args...)}
}

func wrapInvalidInputError(err error, reason string) error {
	return &InvalidInputError{Reason: reason, Err: err}
}
