package quantity

import "math"

// Series is a 1-D array of magnitudes sharing one unit.
type Series struct {
	Magnitudes []float64 `yaml:"values" json:"values"`
	Unit       string    `yaml:"unit" json:"unit"`
}

// NewSeries copies mags into a new series.
func NewSeries(mags []float64, unitExpr string) Series {
	c := make([]float64, len(mags))
	copy(c, mags)
	return Series{Magnitudes: c, Unit: unitExpr}
}

// NaNSeries returns n not-a-number entries tagged with unitExpr.
func NaNSeries(n int, unitExpr string) Series {
	m := make([]float64, n)
	for i := range m {
		m[i] = math.NaN()
	}
	return Series{Magnitudes: m, Unit: unitExpr}
}

func (s Series) Len() int { return len(s.Magnitudes) }

func (s Series) At(i int) Quantity {
	return Quantity{Magnitude: s.Magnitudes[i], Unit: s.Unit}
}

func (s Series) Clone() Series {
	return NewSeries(s.Magnitudes, s.Unit)
}

// To converts every entry into the target unit, returning a new series.
func (s Series) To(target string) (Series, error) {
	f, err := Factor(s.Unit, target)
	if err != nil {
		return Series{}, err
	}
	out := make([]float64, len(s.Magnitudes))
	for i, v := range s.Magnitudes {
		out[i] = v * f
	}
	return Series{Magnitudes: out, Unit: target}, nil
}

// AllFinite reports whether no entry is NaN or infinite.
func (s Series) AllFinite() bool {
	for _, v := range s.Magnitudes {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
