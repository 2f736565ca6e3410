package conversion

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/twolayer/internal/quantity"
	"github.com/stretchr/testify/require"
)

const rtol = 1e-10

func twoLayer(lambda0, du, dl, eta, efficacy float64) TwoLayerParameters {
	return TwoLayerValues{Lambda0: lambda0, Du: du, Dl: dl, Eta: eta, Efficacy: efficacy}.Quantities()
}

func impulseResponse(q1, q2, d1, d2, efficacy float64) ImpulseResponseParameters {
	return ImpulseResponseValues{Q1: q1, Q2: q2, D1: d1, D2: d2, Efficacy: efficacy}.Quantities()
}

func requireClose(t *testing.T, want, got quantity.Quantity, name string) {
	t.Helper()
	require.True(t, want.ApproxEqual(got, rtol), "%s: want %v, got %v", name, want, got)
}

func TestToTwoLayerClosedForm(t *testing.T) {
	tq1, tq2, td1, td2, teff := 0.3, 0.4, 3.0, 300.0, 1.2

	res, err := ToTwoLayer(impulseResponse(tq1, tq2, td1, td2, teff))
	require.NoError(t, err)

	lambda0 := 1 / (tq1 + tq2)
	c := (td1 * td2) / (tq1*td2 + tq2*td1)
	a1 := lambda0 * tq1
	a2 := lambda0 * tq2
	cd := (lambda0*(td1*a1+td2*a2) - c) / teff
	eta := cd / (td1*a2 + td2*a1)

	requireClose(t, quantity.New(lambda0, UnitFeedback), res.Lambda0, "lambda0")
	requireClose(t, quantity.New(c/rhoC, UnitDepth), res.Du, "du")
	requireClose(t, quantity.New(cd/rhoC, UnitDepth), res.Dl, "dl")
	requireClose(t, quantity.New(eta, UnitFeedback), res.Eta, "eta")
	requireClose(t, quantity.New(teff, quantity.Dimensionless), res.Efficacy, "efficacy")

	// reference values computed independently
	requireClose(t, quantity.New(74.4854542479135, "m"), res.Du, "du reference")
	requireClose(t, quantity.New(1489.8610960893882, "m"), res.Dl, "dl reference")
	requireClose(t, quantity.New(1.5150437772061733, UnitFeedback), res.Eta, "eta reference")
}

func TestToImpulseResponseReference(t *testing.T) {
	res, err := ToImpulseResponse(twoLayer(1.2, 50, 1200, 0.8, 1.1))
	require.NoError(t, err)

	requireClose(t, quantity.New(0.47422655955515064, UnitSensitivity), res.Q1, "q1")
	requireClose(t, quantity.New(0.3591067737781804, UnitSensitivity), res.Q2, "q2")
	requireClose(t, quantity.New(3.163159935700333, UnitTime), res.D1, "d1")
	requireClose(t, quantity.New(346.8256964200851, UnitTime), res.D2, "d2")
}

func TestRoundTripFromTwoLayer(t *testing.T) {
	tests := []struct {
		name string
		p    TwoLayerParameters
	}{
		{"defaults", twoLayer(3.74/3, 50, 1200, 0.8, 1)},
		{"efficacy", twoLayer(1.2, 50, 1200, 0.8, 1.1)},
		{"shallow", twoLayer(0.9, 20, 500, 0.5, 1.5)},
		{"strong feedback", twoLayer(2.5, 100, 3000, 1.3, 0.8)},
	}

	for _, tt := range tests {
		tt := tt // per-iteration copy (go directive < 1.22)
		t.Run(tt.name, func(t *testing.T) {
			ir, err := ToImpulseResponse(tt.p)
			require.NoError(t, err)
			require.NoError(t, ir.Validate())

			back, err := ToTwoLayer(ir)
			require.NoError(t, err)

			requireClose(t, tt.p.Lambda0, back.Lambda0, "lambda0")
			requireClose(t, tt.p.Du, back.Du, "du")
			requireClose(t, tt.p.Dl, back.Dl, "dl")
			requireClose(t, tt.p.Eta, back.Eta, "eta")
			requireClose(t, tt.p.Efficacy, back.Efficacy, "efficacy")
		})
	}
}

func TestRoundTripFromImpulseResponse(t *testing.T) {
	tests := []ImpulseResponseParameters{
		impulseResponse(0.3, 0.4, 3, 300, 1.2),
		impulseResponse(0.33, 0.41, 4.1, 239, 1),
		impulseResponse(0.5, 0.3, 30, 600, 1.13),
		{
			Q1:       quantity.New(0.3, "K/(W/m^2)"),
			Q2:       quantity.New(0.4, "delta_degC*m^2/W"),
			D1:       quantity.New(25*365.25, "day"),
			D2:       quantity.New(300, "year"),
			Efficacy: quantity.New(1.1, ""),
		},
	}

	for _, p := range tests {
		tl, err := ToTwoLayer(p)
		require.NoError(t, err)

		back, err := ToImpulseResponse(tl)
		require.NoError(t, err)

		requireClose(t, p.Q1, back.Q1, "q1")
		requireClose(t, p.Q2, back.Q2, "q2")
		requireClose(t, p.D1, back.D1, "d1")
		requireClose(t, p.D2, back.D2, "d2")
		requireClose(t, p.Efficacy, back.Efficacy, "efficacy")
	}
}

func TestGeoffroyHelpersInvariants(t *testing.T) {
	h, err := GeoffroyHelpers(twoLayer(1.2, 50, 1200, 0.8, 1.1))
	require.NoError(t, err)

	require.Less(t, h.Tau1, h.Tau2)
	require.Greater(t, h.Delta, 0.0)
	require.InDelta(t, 1.0, h.A1+h.A2, 1e-12)
	require.InDelta(t, 6.624394757522752, h.C, 1e-9)
	require.InDelta(t, 158.98547418054605, h.CD, 1e-7)
	require.InDelta(t, -0.016174163933481766, h.Phi1, 1e-10)
	require.InDelta(t, 2.3419317396910575, h.Phi2, 1e-10)
}

func TestNumericalTimescalesMatchAnalytic(t *testing.T) {
	for _, p := range []TwoLayerParameters{
		twoLayer(3.74/3, 50, 1200, 0.8, 1),
		twoLayer(1.2, 50, 1200, 0.8, 1.1),
		twoLayer(0.9, 20, 500, 0.5, 1.5),
	} {
		h, err := GeoffroyHelpers(p)
		require.NoError(t, err)

		taus, err := NumericalTimescales(p)
		require.NoError(t, err)

		require.InEpsilon(t, h.Tau1, taus[0], 1e-8)
		require.InEpsilon(t, h.Tau2, taus[1], 1e-8)
	}
}

func TestSystemMatrix(t *testing.T) {
	p := twoLayer(1.2, 50, 1200, 0.8, 1.1)
	a, err := SystemMatrix(p)
	require.NoError(t, err)

	h, err := GeoffroyHelpers(p)
	require.NoError(t, err)

	trace := a.At(0, 0) + a.At(1, 1)
	require.InEpsilon(t, -h.B, trace, 1e-12)
}

func TestBackwardsTimescales(t *testing.T) {
	err := impulseResponse(0.3, 0.4, 250, 3, 1).Validate()
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrTimescaleOrder))
	require.Contains(t, err.Error(), "the short-timescale must be d1")

	var perr *ParameterError
	require.ErrorAs(t, err, &perr)
	require.Equal(t, "d1", perr.Field)

	require.ErrorIs(t, impulseResponse(0.3, 0.4, 3, 3, 1).Validate(), ErrTimescaleOrder)
}

func TestInvalidParameters(t *testing.T) {
	p := twoLayer(1.2, 50, 1200, 0.8, 1)
	p.Du = quantity.New(50, "yr")
	err := p.Validate()
	require.ErrorIs(t, err, quantity.ErrIncompatibleUnits)

	var perr *ParameterError
	require.ErrorAs(t, err, &perr)
	require.Equal(t, "du", perr.Field)

	p = twoLayer(1.2, 50, -1, 0.8, 1)
	require.ErrorIs(t, p.Validate(), ErrInvalidParameter)

	p = twoLayer(math.NaN(), 50, 1200, 0.8, 1)
	require.ErrorIs(t, p.Validate(), ErrInvalidParameter)
}

func TestEquilibriumClimateSensitivity(t *testing.T) {
	ecs, err := EquilibriumClimateSensitivity(quantity.New(3.74/3, UnitFeedback), ForcingDoubling)
	require.NoError(t, err)
	require.InDelta(t, 3.0, ecs.Magnitude, 1e-12)
	require.Equal(t, UnitTemperature, ecs.Unit)

	_, err = EquilibriumClimateSensitivity(quantity.New(1, "m"), ForcingDoubling)
	require.ErrorIs(t, err, quantity.ErrIncompatibleUnits)
}
