package sim

import (
	"errors"
	"fmt"
)

// Error classes. Every error returned by this package and by the model
// constructors matches exactly one of them with errors.Is.
var (
	// ErrConstruction indicates invalid model parameters.
	ErrConstruction = errors.New("sim: invalid model parameters")

	// ErrState indicates an operation not valid in the current phase.
	ErrState = errors.New("sim: invalid state")

	// ErrShape indicates a malformed driver series.
	ErrShape = errors.New("sim: malformed drivers")
)

var (
	ErrDriversNotSet = fmt.Errorf("%w: drivers not set", ErrState)
	ErrRunComplete   = fmt.Errorf("%w: run already complete, call Reset first", ErrState)
	ErrDriversBound  = fmt.Errorf("%w: drivers already bound to a run in progress, call Reset first", ErrState)

	ErrEmptyDrivers     = fmt.Errorf("%w: driver series is empty", ErrShape)
	ErrNonFiniteDrivers = fmt.Errorf("%w: driver series contains NaN or Inf", ErrShape)
	ErrDriverUnits      = fmt.Errorf("%w: drivers must be a radiative flux", ErrShape)
)

// ConstructionError names the parameter that made a model invalid.
type ConstructionError struct {
	Field string
	Err   error
}

func NewConstructionError(field string, err error) *ConstructionError {
	return &ConstructionError{Field: field, Err: err}
}

func (e *ConstructionError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%v: %v", ErrConstruction, e.Err)
	}
	return fmt.Sprintf("%v: %s: %v", ErrConstruction, e.Field, e.Err)
}

func (e *ConstructionError) Unwrap() []error {
	return []error{ErrConstruction, e.Err}
}

// StepError wraps an error with the timestep it occurred at.
type StepError struct {
	Step    int
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d: %v", e.Step, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
