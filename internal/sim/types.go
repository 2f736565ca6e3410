package sim

import "math"

// Units of the engine's drivers and outputs.
const (
	UnitFlux        = "W/m^2"
	UnitTemperature = "delta_degC"
	UnitTime        = "yr"
)

// Coefficients are the impulse-response quantities the stepping loop needs,
// as magnitudes in canonical units (q in delta_degC/(W/m^2), d and DeltaT in
// yr).
type Coefficients struct {
	Q1, Q2   float64
	D1, D2   float64
	Efficacy float64
	DeltaT   float64
}

// Recurrence is the per-variant capability driven by the Engine.
type Recurrence interface {
	Coefficients() Coefficients
	// NextTemperature advances one mode by one timestep using the
	// previous step's temperature and forcing.
	NextTemperature(dt, prevTemp, q, d, prevForcing float64) float64
	// NextHeatUptake returns the top-of-atmosphere imbalance at the new
	// step from the previous step's mode temperatures and forcing.
	NextHeatUptake(prevT1, prevT2, prevForcing, efficacy float64) float64
}

// NextTemperature is the exponential integrator shared by both variants.
// It is exact for forcing held constant over the step.
func NextTemperature(dt, prevTemp, q, d, prevForcing float64) float64 {
	return prevTemp*math.Exp(-dt/d) + prevForcing*q*(1-math.Exp(-dt/d))
}

// Observer is notified after every completed step.
type Observer interface {
	OnStep(idx int, temp1, temp2, rndt float64)
}

// Phase is the lifecycle state of an Engine.
type Phase int

const (
	PhaseUninitialized Phase = iota // no drivers bound
	PhaseReset                      // drivers bound, outputs all NaN
	PhaseStepping                   // entries 0..idx computed
	PhaseComplete                   // last index computed
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseReset:
		return "reset"
	case PhaseStepping:
		return "stepping"
	case PhaseComplete:
		return "complete"
	}
	return "unknown"
}
