package sim

import (
	"errors"
	"io"
	"math"

	"github.com/san-kum/twolayer/internal/quantity"
	"github.com/sirupsen/logrus"
)

// Engine owns the driver series, the three output series and the stepping
// state machine shared by both model variants.
//
//	Uninitialized --SetDrivers--> Reset --Step--> Stepping --Step...--> Complete
//	     any phase with drivers --Reset--> Reset
//
// A failed call leaves the engine exactly as it was.
type Engine struct {
	rec  Recurrence
	coef Coefficients

	drivers []float64 // UnitFlux
	temp1   []float64
	temp2   []float64
	rndt    []float64

	// filled counts computed entries; the current index is filled-1.
	filled int
	phase  Phase

	observers []Observer
	log       logrus.FieldLogger
}

func NewEngine(rec Recurrence) *Engine {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &Engine{
		rec:  rec,
		coef: rec.Coefficients(),
		log:  l,
	}
}

// SetLogger routes lifecycle events to l.
func (e *Engine) SetLogger(l logrus.FieldLogger) {
	if l != nil {
		e.log = l
	}
}

func (e *Engine) AddObserver(o Observer) { e.observers = append(e.observers, o) }

// SetDrivers binds the forcing series and leaves the engine in PhaseReset.
// Rebinding is allowed until the first Step after a Reset.
func (e *Engine) SetDrivers(s quantity.Series) error {
	if e.phase == PhaseStepping || e.phase == PhaseComplete {
		return ErrDriversBound
	}
	if s.Len() == 0 {
		return ErrEmptyDrivers
	}
	flux, err := s.To(UnitFlux)
	if err != nil {
		return errors.Join(ErrDriverUnits, err)
	}
	if !flux.AllFinite() {
		return ErrNonFiniteDrivers
	}

	e.drivers = flux.Magnitudes
	e.allocate()
	e.log.WithFields(logrus.Fields{
		"timesteps": len(e.drivers),
		"unit":      s.Unit,
	}).Debug("drivers bound")
	return nil
}

// Reset clears all outputs to NaN and unsets the timestep index.
func (e *Engine) Reset() error {
	if e.phase == PhaseUninitialized {
		return ErrDriversNotSet
	}
	e.allocate()
	e.log.Debug("reset")
	return nil
}

func (e *Engine) allocate() {
	n := len(e.drivers)
	e.temp1 = nanSlice(n)
	e.temp2 = nanSlice(n)
	e.rndt = nanSlice(n)
	e.filled = 0
	e.phase = PhaseReset
}

// Step computes the outputs at the next timestep. The first step after a
// Reset writes the pre-industrial equilibrium: zero warming and zero
// heat uptake.
func (e *Engine) Step() error {
	switch e.phase {
	case PhaseUninitialized:
		return ErrDriversNotSet
	case PhaseComplete:
		return &StepError{Step: e.filled, Wrapped: ErrRunComplete}
	}

	i := e.filled
	if i == 0 {
		e.temp1[0], e.temp2[0], e.rndt[0] = 0, 0, 0
	} else {
		c := e.coef
		prevT1, prevT2, prevF := e.temp1[i-1], e.temp2[i-1], e.drivers[i-1]
		e.temp1[i] = e.rec.NextTemperature(c.DeltaT, prevT1, c.Q1, c.D1, prevF)
		e.temp2[i] = e.rec.NextTemperature(c.DeltaT, prevT2, c.Q2, c.D2, prevF)
		e.rndt[i] = e.rec.NextHeatUptake(prevT1, prevT2, prevF, c.Efficacy)
	}

	e.filled++
	e.phase = PhaseStepping
	if e.filled == len(e.drivers) {
		e.phase = PhaseComplete
		e.log.WithField("timesteps", e.filled).Debug("run complete")
	}

	for _, o := range e.observers {
		o.OnStep(i, e.temp1[i], e.temp2[i], e.rndt[i])
	}
	return nil
}

// Run steps until the run is complete. It is equivalent to calling Step
// until it reports ErrRunComplete.
func (e *Engine) Run() error {
	if e.phase == PhaseComplete {
		return &StepError{Step: e.filled, Wrapped: ErrRunComplete}
	}
	for e.phase != PhaseComplete {
		if err := e.Step(); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) Phase() Phase { return e.phase }

// Index returns the current timestep index, or ok=false when no step has
// been taken since the last Reset.
func (e *Engine) Index() (idx int, ok bool) {
	if e.filled == 0 {
		return 0, false
	}
	return e.filled - 1, true
}

// Len is the number of timesteps in the bound driver series.
func (e *Engine) Len() int { return len(e.drivers) }

func (e *Engine) Coefficients() Coefficients { return e.coef }

func (e *Engine) DeltaT() quantity.Quantity {
	return quantity.New(e.coef.DeltaT, UnitTime)
}

// Drivers returns a copy of the bound forcing in UnitFlux.
func (e *Engine) Drivers() quantity.Series { return quantity.NewSeries(e.drivers, UnitFlux) }

// Temp1 returns a copy of the fast-mode temperature series; entries not yet
// computed are NaN.
func (e *Engine) Temp1() quantity.Series { return quantity.NewSeries(e.temp1, UnitTemperature) }

// Temp2 returns a copy of the slow-mode temperature series.
func (e *Engine) Temp2() quantity.Series { return quantity.NewSeries(e.temp2, UnitTemperature) }

// Rndt returns a copy of the net downward top-of-atmosphere flux series.
func (e *Engine) Rndt() quantity.Series { return quantity.NewSeries(e.rndt, UnitFlux) }

// Times returns the model time of every driver index, starting at zero.
func (e *Engine) Times() quantity.Series {
	t := make([]float64, len(e.drivers))
	for i := range t {
		t[i] = float64(i) * e.coef.DeltaT
	}
	return quantity.Series{Magnitudes: t, Unit: UnitTime}
}

func nanSlice(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = math.NaN()
	}
	return s
}
