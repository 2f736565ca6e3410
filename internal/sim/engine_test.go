package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/twolayer/internal/quantity"
)

type testRecurrence struct {
	coef Coefficients
}

func (r *testRecurrence) Coefficients() Coefficients { return r.coef }

func (r *testRecurrence) NextTemperature(dt, prevTemp, q, d, prevForcing float64) float64 {
	return NextTemperature(dt, prevTemp, q, d, prevForcing)
}

func (r *testRecurrence) NextHeatUptake(prevT1, prevT2, prevForcing, efficacy float64) float64 {
	return prevForcing - (prevT1+prevT2)/(r.coef.Q1+r.coef.Q2)
}

func newTestEngine() *Engine {
	return NewEngine(&testRecurrence{coef: Coefficients{
		Q1: 0.33, Q2: 0.41, D1: 4.1, D2: 239, Efficacy: 1, DeltaT: 1,
	}})
}

func flux(v ...float64) quantity.Series {
	return quantity.NewSeries(v, "W/m^2")
}

func TestNextTemperature(t *testing.T) {
	dt, temp, q, d, f := 30.0*24*60*60, 0.1, 0.4, 35.0, 1.2

	got := NextTemperature(dt, temp, q, d, f)
	want := temp*math.Exp(-dt/d) + f*q*(1-math.Exp(-dt/d))
	if got != want {
		t.Errorf("expected %v, got %v", want, got)
	}

	// relaxes to q*f
	if got := NextTemperature(1e9, 0, 0.5, 1, 2); math.Abs(got-1) > 1e-12 {
		t.Errorf("expected equilibrium 1, got %v", got)
	}
}

func TestStepWithoutDrivers(t *testing.T) {
	e := newTestEngine()

	if err := e.Step(); !errors.Is(err, ErrDriversNotSet) || !errors.Is(err, ErrState) {
		t.Errorf("expected drivers-not-set state error, got %v", err)
	}
	if err := e.Reset(); !errors.Is(err, ErrDriversNotSet) {
		t.Errorf("expected drivers-not-set on reset, got %v", err)
	}
	if err := e.Run(); !errors.Is(err, ErrDriversNotSet) {
		t.Errorf("expected drivers-not-set on run, got %v", err)
	}
	if e.Phase() != PhaseUninitialized {
		t.Errorf("expected phase uninitialized, got %s", e.Phase())
	}
}

func TestSetDriversValidation(t *testing.T) {
	tests := []struct {
		name   string
		series quantity.Series
		want   error
	}{
		{"empty", flux(), ErrEmptyDrivers},
		{"nan", flux(1, math.NaN()), ErrNonFiniteDrivers},
		{"inf", flux(math.Inf(1)), ErrNonFiniteDrivers},
		{"wrong unit", quantity.NewSeries([]float64{1, 2}, "yr"), ErrDriverUnits},
		{"unknown unit", quantity.NewSeries([]float64{1, 2}, "parsec"), ErrDriverUnits},
	}

	for _, tt := range tests {
		tt := tt // per-iteration copy (go directive < 1.22)
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine()
			err := e.SetDrivers(tt.series)
			if !errors.Is(err, tt.want) || !errors.Is(err, ErrShape) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			if e.Phase() != PhaseUninitialized {
				t.Errorf("failed SetDrivers changed phase to %s", e.Phase())
			}
		})
	}
}

func TestSetDriversConvertsUnits(t *testing.T) {
	e := newTestEngine()
	if err := e.SetDrivers(quantity.NewSeries([]float64{2, 4}, "W*m^-2")); err != nil {
		t.Fatalf("set drivers: %v", err)
	}
	d := e.Drivers()
	if d.Unit != UnitFlux || d.Magnitudes[1] != 4 {
		t.Errorf("unexpected drivers %v", d)
	}
}

func TestResetFillsNaN(t *testing.T) {
	e := newTestEngine()
	if err := e.SetDrivers(flux(0, 1, 2)); err != nil {
		t.Fatalf("set drivers: %v", err)
	}
	if err := e.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}

	if _, ok := e.Index(); ok {
		t.Error("expected index unset after reset")
	}
	for _, s := range []quantity.Series{e.Temp1(), e.Temp2(), e.Rndt()} {
		if s.Len() != 3 {
			t.Errorf("expected length 3, got %d", s.Len())
		}
		for i, v := range s.Magnitudes {
			if !math.IsNaN(v) {
				t.Errorf("expected NaN at %d, got %v", i, v)
			}
		}
	}
}

func TestFirstStepIsEquilibrium(t *testing.T) {
	e := newTestEngine()
	if err := e.SetDrivers(flux(3, 4, 5)); err != nil {
		t.Fatalf("set drivers: %v", err)
	}
	if err := e.Step(); err != nil {
		t.Fatalf("step: %v", err)
	}

	idx, ok := e.Index()
	if !ok || idx != 0 {
		t.Fatalf("expected index 0, got %d (%v)", idx, ok)
	}
	if e.Temp1().Magnitudes[0] != 0 || e.Temp2().Magnitudes[0] != 0 || e.Rndt().Magnitudes[0] != 0 {
		t.Error("expected exact zeros at index 0")
	}
	if !math.IsNaN(e.Temp1().Magnitudes[1]) {
		t.Error("expected NaN beyond the current index")
	}
}

func TestStepPastCompletion(t *testing.T) {
	e := newTestEngine()
	if err := e.SetDrivers(flux(1, 2)); err != nil {
		t.Fatalf("set drivers: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := e.Step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	if e.Phase() != PhaseComplete {
		t.Fatalf("expected complete, got %s", e.Phase())
	}

	before := e.Temp1()
	err := e.Step()
	if !errors.Is(err, ErrRunComplete) || !errors.Is(err, ErrState) {
		t.Errorf("expected run-complete state error, got %v", err)
	}
	var se *StepError
	if !errors.As(err, &se) || se.Step != 2 {
		t.Errorf("expected StepError at step 2, got %v", err)
	}
	if after := e.Temp1(); after.Magnitudes[1] != before.Magnitudes[1] {
		t.Error("failed step mutated outputs")
	}
	if err := e.Run(); !errors.Is(err, ErrRunComplete) {
		t.Errorf("expected run-complete from Run, got %v", err)
	}
}

func TestRebindDrivers(t *testing.T) {
	e := newTestEngine()
	if err := e.SetDrivers(flux(1, 2, 3)); err != nil {
		t.Fatalf("set drivers: %v", err)
	}
	if err := e.SetDrivers(flux(1, 2)); err != nil {
		t.Fatalf("rebinding before stepping should be allowed: %v", err)
	}
	if e.Len() != 2 {
		t.Errorf("expected 2 timesteps, got %d", e.Len())
	}

	if err := e.Step(); err != nil {
		t.Fatalf("step: %v", err)
	}
	if err := e.SetDrivers(flux(5, 5, 5)); !errors.Is(err, ErrDriversBound) {
		t.Errorf("expected drivers-bound error, got %v", err)
	}
	if e.Len() != 2 {
		t.Error("failed rebind changed drivers")
	}

	if err := e.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if err := e.SetDrivers(flux(5, 5, 5)); err != nil {
		t.Errorf("rebinding after reset should be allowed: %v", err)
	}
	if e.Temp1().Len() != 3 {
		t.Error("outputs not reallocated to the new driver length")
	}
}

func TestRunMatchesManualStepping(t *testing.T) {
	forcing := flux(0, 1, 2, 3, 4, 5, 6, 7, 8, 9)

	a := newTestEngine()
	if err := a.SetDrivers(forcing); err != nil {
		t.Fatalf("set drivers: %v", err)
	}
	if err := a.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}

	b := newTestEngine()
	if err := b.SetDrivers(forcing); err != nil {
		t.Fatalf("set drivers: %v", err)
	}
	for i := 0; i < forcing.Len(); i++ {
		if err := b.Step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}

	for i := 0; i < forcing.Len(); i++ {
		if a.Temp1().Magnitudes[i] != b.Temp1().Magnitudes[i] ||
			a.Temp2().Magnitudes[i] != b.Temp2().Magnitudes[i] ||
			a.Rndt().Magnitudes[i] != b.Rndt().Magnitudes[i] {
			t.Errorf("run and manual stepping differ at %d", i)
		}
	}
}

type countingObserver struct {
	steps []int
}

func (o *countingObserver) OnStep(idx int, temp1, temp2, rndt float64) {
	o.steps = append(o.steps, idx)
}

func TestObserversAndTimes(t *testing.T) {
	e := newTestEngine()
	obs := &countingObserver{}
	e.AddObserver(obs)

	if err := e.SetDrivers(flux(1, 1, 1, 1)); err != nil {
		t.Fatalf("set drivers: %v", err)
	}
	if err := e.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(obs.steps) != 4 || obs.steps[3] != 3 {
		t.Errorf("expected 4 observed steps, got %v", obs.steps)
	}

	times := e.Times()
	if times.Unit != UnitTime || times.Magnitudes[3] != 3 {
		t.Errorf("unexpected times %v", times)
	}
}

func TestEnsemble(t *testing.T) {
	ens := NewEnsemble(func() (*Engine, error) { return newTestEngine(), nil }, 2)

	scenarios := []quantity.Series{flux(1, 1, 1), flux(2, 2, 2, 2), flux(3, 3)}
	engines, err := ens.Run(context.Background(), scenarios)
	if err != nil {
		t.Fatalf("ensemble: %v", err)
	}
	if len(engines) != 3 {
		t.Fatalf("expected 3 engines, got %d", len(engines))
	}
	for i, e := range engines {
		if e.Phase() != PhaseComplete || e.Len() != scenarios[i].Len() {
			t.Errorf("scenario %d not run to completion", i)
		}
	}

	_, err = ens.Run(context.Background(), []quantity.Series{flux(1), flux()})
	if !errors.Is(err, ErrEmptyDrivers) {
		t.Errorf("expected empty-drivers error, got %v", err)
	}
}

func TestConstructionError(t *testing.T) {
	inner := errors.New("boom")
	err := error(NewConstructionError("d1", inner))
	if !errors.Is(err, ErrConstruction) || !errors.Is(err, inner) {
		t.Errorf("construction error does not match its classes: %v", err)
	}
	if err.Error() != "sim: invalid model parameters: d1: boom" {
		t.Errorf("unexpected message %q", err.Error())
	}
}
