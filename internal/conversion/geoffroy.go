// Package conversion converts between the two-layer and impulse-response
// parameterizations of the two-layer energy balance model.
//
// The two-layer system
//
//	C   dT/dt   = F - lambda0 T - efficacy eta (T - T_D)
//	C_D dT_D/dt = eta (T - T_D)
//
// is diagonalized analytically following Geoffroy et al. (2013). The
// resulting decay timescales and modal weights ("Geoffroy helpers") give the
// impulse-response amplitudes and timescales, and the map is inverted in
// closed form. All functions are pure.
package conversion

import (
	"fmt"
	"math"
)

// Helpers are the Geoffroy helper parameters of a two-layer system.
// Capacities are in UnitHeatCapacity and timescales in UnitTime.
type Helpers struct {
	C, CD      float64 // upper and deep layer heat capacities
	B, BStar   float64
	Delta      float64 // discriminant, always positive for a valid system
	Tau1, Tau2 float64 // fast and slow decay timescales, Tau1 < Tau2
	Phi1, Phi2 float64 // deep-layer weights of each mode
	A1, A2     float64 // equilibrium response fraction of each mode, A1+A2 = 1
}

// GeoffroyHelpers derives the helper parameters of p.
func GeoffroyHelpers(p TwoLayerParameters) (Helpers, error) {
	v, err := p.Values()
	if err != nil {
		return Helpers{}, err
	}
	return helpers(v)
}

func helpers(v TwoLayerValues) (Helpers, error) {
	h := Helpers{
		C:  v.Du * rhoC,
		CD: v.Dl * rhoC,
	}
	upper := (v.Lambda0 + v.Efficacy*v.Eta) / h.C
	deep := v.Eta / h.CD
	h.B = upper + deep
	h.BStar = upper - deep
	h.Delta = h.B*h.B - 4*v.Lambda0*v.Eta/(h.C*h.CD)
	if !(h.Delta > 0) {
		return Helpers{}, fmt.Errorf("%w: discriminant %g", ErrNoRealModes, h.Delta)
	}
	sqrtDelta := math.Sqrt(h.Delta)

	tauCoeff := h.C * h.CD / (2 * v.Lambda0 * v.Eta)
	h.Tau1 = tauCoeff * (h.B - sqrtDelta)
	h.Tau2 = tauCoeff * (h.B + sqrtDelta)

	phiCoeff := h.C / (2 * v.Efficacy * v.Eta)
	h.Phi1 = phiCoeff * (h.BStar - sqrtDelta)
	h.Phi2 = phiCoeff * (h.BStar + sqrtDelta)

	h.A1 = h.Tau1 * h.Phi2 * v.Lambda0 / (h.C * (h.Phi2 - h.Phi1))
	h.A2 = -h.Tau2 * h.Phi1 * v.Lambda0 / (h.C * (h.Phi2 - h.Phi1))
	return h, nil
}

// ToImpulseResponse converts physical parameters into the equivalent
// impulse-response parameters.
func ToImpulseResponse(p TwoLayerParameters) (ImpulseResponseParameters, error) {
	v, err := p.Values()
	if err != nil {
		return ImpulseResponseParameters{}, err
	}
	ir, err := ImpulseResponseFromValues(v)
	if err != nil {
		return ImpulseResponseParameters{}, err
	}
	return ir.Quantities(), nil
}

// ImpulseResponseFromValues is ToImpulseResponse on canonical magnitudes.
func ImpulseResponseFromValues(v TwoLayerValues) (ImpulseResponseValues, error) {
	h, err := helpers(v)
	if err != nil {
		return ImpulseResponseValues{}, err
	}
	return ImpulseResponseValues{
		Q1:       h.A1 / v.Lambda0,
		Q2:       h.A2 / v.Lambda0,
		D1:       h.Tau1,
		D2:       h.Tau2,
		Efficacy: v.Efficacy,
	}, nil
}

// ToTwoLayer converts impulse-response parameters into the equivalent
// physical parameters.
func ToTwoLayer(p ImpulseResponseParameters) (TwoLayerParameters, error) {
	v, err := p.Values()
	if err != nil {
		return TwoLayerParameters{}, err
	}
	return TwoLayerFromValues(v).Quantities(), nil
}

// TwoLayerFromValues is ToTwoLayer on canonical magnitudes. v must satisfy
// the ImpulseResponseParameters invariants.
func TwoLayerFromValues(v ImpulseResponseValues) TwoLayerValues {
	lambda0 := 1 / (v.Q1 + v.Q2)
	c := (v.D1 * v.D2) / (v.Q1*v.D2 + v.Q2*v.D1)

	a1 := lambda0 * v.Q1
	a2 := lambda0 * v.Q2

	cd := (lambda0*(v.D1*a1+v.D2*a2) - c) / v.Efficacy
	eta := cd / (v.D1*a2 + v.D2*a1)

	return TwoLayerValues{
		Lambda0:  lambda0,
		Du:       c / rhoC,
		Dl:       cd / rhoC,
		Eta:      eta,
		Efficacy: v.Efficacy,
	}
}
