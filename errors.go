package mtdesign

import (
	"errors"
	"fmt"
)

// Causes of a ModelingError. A modeling error means the inputs drove the
// model outside its domain; it aborts the affected solve and is never
// clamped away.
var (
	// ErrNonPositiveDistance is raised when a heliocentric distance is zero
	// or negative.
	ErrNonPositiveDistance = errors.New("non-positive heliocentric distance")
	// ErrNonPositiveMass is raised when the dynamic spacecraft mass reaches
	// zero or below.
	ErrNonPositiveMass = errors.New("non-positive dynamic mass")
	// ErrFuelBudgetExceeded is raised when cumulative fuel consumption
	// exceeds the onboard budget.
	ErrFuelBudgetExceeded = errors.New("fuel consumption exceeds onboard budget")
)

// ModelingError wraps a model-domain violation with the offending value.
type ModelingError struct {
	Cause    error
	Quantity string
	Value    float64
}

func (e ModelingError) Error() string {
	return fmt.Sprintf("modeling error: %s (%s=%g)", e.Cause, e.Quantity, e.Value)
}

// Unwrap lets errors.Is match the sentinel cause.
func (e ModelingError) Unwrap() error {
	return e.Cause
}

func newModelingError(cause error, quantity string, value float64) ModelingError {
	return ModelingError{Cause: cause, Quantity: quantity, Value: value}
}
