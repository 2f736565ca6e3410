package conversion

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/twolayer/internal/quantity"
)

// Canonical units of the parameter sets. Conversions return quantities in
// these units; callers may supply any compatible unit.
const (
	UnitFeedback     = "W/m^2/delta_degC"
	UnitSensitivity  = "delta_degC/(W/m^2)"
	UnitDepth        = "m"
	UnitTime         = "yr"
	UnitHeatCapacity = "W*yr/m^2/delta_degC"
	UnitFlux         = "W/m^2"
	UnitTemperature  = "delta_degC"
)

// Physical constants of sea water.
var (
	DensityWater      = quantity.New(1000, "kg/m^3")
	HeatCapacityWater = quantity.New(4181, "J/delta_degC/kg")

	// ForcingDoubling is the ERF of a doubling of CO2.
	ForcingDoubling = quantity.New(3.74, UnitFlux)
)

// rhoC is the volumetric heat capacity of water in W yr m^-3 K^-1: a layer
// depth times rhoC is an areal heat capacity in UnitHeatCapacity.
var rhoC = mustIn(DensityWater.Mul(HeatCapacityWater), "W*yr/m^3/delta_degC")

func mustIn(q quantity.Quantity, u string) float64 {
	v, err := q.In(u)
	if err != nil {
		panic(err)
	}
	return v
}

var (
	ErrInvalidParameter = errors.New("conversion: invalid parameter")
	ErrTimescaleOrder   = errors.New("the short-timescale must be d1")
	ErrNoRealModes      = errors.New("conversion: system has no real decay modes")
)

// ParameterError names the parameter that failed validation.
type ParameterError struct {
	Field string
	Err   error
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ParameterError) Unwrap() error { return e.Err }

// TwoLayerParameters is the physical parameterization.
type TwoLayerParameters struct {
	Lambda0  quantity.Quantity `yaml:"lambda0" json:"lambda0"`
	Du       quantity.Quantity `yaml:"du" json:"du"`
	Dl       quantity.Quantity `yaml:"dl" json:"dl"`
	Eta      quantity.Quantity `yaml:"eta" json:"eta"`
	Efficacy quantity.Quantity `yaml:"efficacy" json:"efficacy"`
}

// ImpulseResponseParameters is the two-exponential-mode parameterization.
type ImpulseResponseParameters struct {
	Q1       quantity.Quantity `yaml:"q1" json:"q1"`
	Q2       quantity.Quantity `yaml:"q2" json:"q2"`
	D1       quantity.Quantity `yaml:"d1" json:"d1"`
	D2       quantity.Quantity `yaml:"d2" json:"d2"`
	Efficacy quantity.Quantity `yaml:"efficacy" json:"efficacy"`
}

// TwoLayerValues holds two-layer parameters as magnitudes in canonical units.
type TwoLayerValues struct {
	Lambda0, Du, Dl, Eta, Efficacy float64
}

// ImpulseResponseValues holds impulse-response parameters as magnitudes in
// canonical units.
type ImpulseResponseValues struct {
	Q1, Q2, D1, D2, Efficacy float64
}

type field struct {
	name string
	q    quantity.Quantity
	unit string
	dst  *float64
}

func resolve(fields []field) error {
	for _, f := range fields {
		v, err := f.q.In(f.unit)
		if err != nil {
			return &ParameterError{Field: f.name, Err: err}
		}
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return &ParameterError{Field: f.name, Err: fmt.Errorf("%w: must be positive and finite, got %g", ErrInvalidParameter, v)}
		}
		*f.dst = v
	}
	return nil
}

// Values converts p into canonical magnitudes, validating units and signs.
func (p TwoLayerParameters) Values() (TwoLayerValues, error) {
	var v TwoLayerValues
	err := resolve([]field{
		{"lambda0", p.Lambda0, UnitFeedback, &v.Lambda0},
		{"du", p.Du, UnitDepth, &v.Du},
		{"dl", p.Dl, UnitDepth, &v.Dl},
		{"eta", p.Eta, UnitFeedback, &v.Eta},
		{"efficacy", p.Efficacy, quantity.Dimensionless, &v.Efficacy},
	})
	return v, err
}

func (p TwoLayerParameters) Validate() error {
	_, err := p.Values()
	return err
}

// Values converts p into canonical magnitudes, validating units, signs and
// the d1 < d2 ordering.
func (p ImpulseResponseParameters) Values() (ImpulseResponseValues, error) {
	var v ImpulseResponseValues
	err := resolve([]field{
		{"q1", p.Q1, UnitSensitivity, &v.Q1},
		{"q2", p.Q2, UnitSensitivity, &v.Q2},
		{"d1", p.D1, UnitTime, &v.D1},
		{"d2", p.D2, UnitTime, &v.D2},
		{"efficacy", p.Efficacy, quantity.Dimensionless, &v.Efficacy},
	})
	if err != nil {
		return v, err
	}
	if v.D1 >= v.D2 {
		return v, &ParameterError{Field: "d1", Err: fmt.Errorf("%w (d1=%g yr, d2=%g yr)", ErrTimescaleOrder, v.D1, v.D2)}
	}
	return v, nil
}

func (p ImpulseResponseParameters) Validate() error {
	_, err := p.Values()
	return err
}

// Quantities tags canonical magnitudes with their units.
func (v TwoLayerValues) Quantities() TwoLayerParameters {
	return TwoLayerParameters{
		Lambda0:  quantity.New(v.Lambda0, UnitFeedback),
		Du:       quantity.New(v.Du, UnitDepth),
		Dl:       quantity.New(v.Dl, UnitDepth),
		Eta:      quantity.New(v.Eta, UnitFeedback),
		Efficacy: quantity.New(v.Efficacy, quantity.Dimensionless),
	}
}

func (v ImpulseResponseValues) Quantities() ImpulseResponseParameters {
	return ImpulseResponseParameters{
		Q1:       quantity.New(v.Q1, UnitSensitivity),
		Q2:       quantity.New(v.Q2, UnitSensitivity),
		D1:       quantity.New(v.D1, UnitTime),
		D2:       quantity.New(v.D2, UnitTime),
		Efficacy: quantity.New(v.Efficacy, quantity.Dimensionless),
	}
}
