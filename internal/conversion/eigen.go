package conversion

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/twolayer/internal/quantity"
	"gonum.org/v1/gonum/mat"
)

// SystemMatrix returns A in d[T, T_D]/dt = A [T, T_D] + [F/C, 0], in yr^-1.
func SystemMatrix(p TwoLayerParameters) (*mat.Dense, error) {
	v, err := p.Values()
	if err != nil {
		return nil, err
	}
	return systemMatrix(v), nil
}

func systemMatrix(v TwoLayerValues) *mat.Dense {
	c := v.Du * rhoC
	cd := v.Dl * rhoC
	return mat.NewDense(2, 2, []float64{
		-(v.Lambda0 + v.Efficacy*v.Eta) / c, v.Efficacy * v.Eta / c,
		v.Eta / cd, -v.Eta / cd,
	})
}

// NumericalTimescales computes the decay timescales of p by numerical
// eigen-decomposition of the system matrix, sorted fast to slow. It is an
// independent check on the closed-form Tau1 and Tau2 of GeoffroyHelpers.
func NumericalTimescales(p TwoLayerParameters) ([2]float64, error) {
	var out [2]float64
	v, err := p.Values()
	if err != nil {
		return out, err
	}

	var eig mat.Eigen
	if ok := eig.Factorize(systemMatrix(v), mat.EigenNone); !ok {
		return out, fmt.Errorf("%w: eigen-decomposition failed", ErrNoRealModes)
	}
	vals := eig.Values(nil)
	taus := make([]float64, 0, len(vals))
	for _, ev := range vals {
		if imag(ev) != 0 || real(ev) >= 0 {
			return out, fmt.Errorf("%w: eigenvalue %v", ErrNoRealModes, ev)
		}
		taus = append(taus, -1/real(ev))
	}
	sort.Float64s(taus)
	copy(out[:], taus)
	return out, nil
}

// EquilibriumClimateSensitivity is the equilibrium warming for a sustained
// forcing f under net feedback lambda0.
func EquilibriumClimateSensitivity(lambda0, f quantity.Quantity) (quantity.Quantity, error) {
	l, err := lambda0.In(UnitFeedback)
	if err != nil {
		return quantity.Quantity{}, &ParameterError{Field: "lambda0", Err: err}
	}
	fv, err := f.In(UnitFlux)
	if err != nil {
		return quantity.Quantity{}, &ParameterError{Field: "forcing", Err: err}
	}
	if l <= 0 || math.IsNaN(l) {
		return quantity.Quantity{}, &ParameterError{Field: "lambda0", Err: ErrInvalidParameter}
	}
	return quantity.New(fv/l, UnitTemperature), nil
}
