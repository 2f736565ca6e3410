package models

import (
	"github.com/san-kum/twolayer/internal/conversion"
	"github.com/san-kum/twolayer/internal/quantity"
	"github.com/san-kum/twolayer/internal/sim"
)

// TwoLayerModel steps the upper/deep ocean system. It is diagonalized once at
// construction and then stepped as two decay modes, so its outputs are the
// modal temperatures; UpperLayerTemperature and DeepLayerTemperature map
// them back onto the layers.
type TwoLayerModel struct {
	*sim.Engine

	params  conversion.TwoLayerParameters
	values  conversion.TwoLayerValues
	helpers conversion.Helpers
	ir      conversion.ImpulseResponseValues
}

func DefaultTwoLayerParameters() conversion.TwoLayerParameters {
	return conversion.TwoLayerParameters{
		Lambda0:  quantity.New(3.74/3, conversion.UnitFeedback),
		Du:       quantity.New(50, conversion.UnitDepth),
		Dl:       quantity.New(1200, conversion.UnitDepth),
		Eta:      quantity.New(0.8, conversion.UnitFeedback),
		Efficacy: quantity.New(1, quantity.Dimensionless),
	}
}

// NewTwoLayer validates p, derives its Geoffroy helpers and returns a model
// with no drivers bound. Fields left as the zero Quantity take their
// DefaultTwoLayerParameters value.
func NewTwoLayer(p conversion.TwoLayerParameters, opts ...Option) (*TwoLayerModel, error) {
	o, dt, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}

	def := DefaultTwoLayerParameters()
	p = conversion.TwoLayerParameters{
		Lambda0:  orDefault(p.Lambda0, def.Lambda0),
		Du:       orDefault(p.Du, def.Du),
		Dl:       orDefault(p.Dl, def.Dl),
		Eta:      orDefault(p.Eta, def.Eta),
		Efficacy: orDefault(p.Efficacy, def.Efficacy),
	}
	v, err := p.Values()
	if err != nil {
		return nil, constructionError(err)
	}
	h, err := conversion.GeoffroyHelpers(p)
	if err != nil {
		return nil, constructionError(err)
	}
	ir, err := conversion.ImpulseResponseFromValues(v)
	if err != nil {
		return nil, constructionError(err)
	}

	rec, err := newModalRecurrence(ir, v, dt)
	if err != nil {
		return nil, constructionError(err)
	}

	return &TwoLayerModel{
		Engine:  newEngine(rec, o, NameTwoLayer),
		params:  p,
		values:  v,
		helpers: h,
		ir:      ir,
	}, nil
}

func (m *TwoLayerModel) Name() string { return NameTwoLayer }

func (m *TwoLayerModel) Parameters() conversion.TwoLayerParameters { return m.params }

// TwoLayerParameters returns the parameters in canonical units.
func (m *TwoLayerModel) TwoLayerParameters() conversion.TwoLayerParameters {
	return m.values.Quantities()
}

// ImpulseResponseParameters returns the equivalent impulse-response
// parameters.
func (m *TwoLayerModel) ImpulseResponseParameters() conversion.ImpulseResponseParameters {
	return m.ir.Quantities()
}

func (m *TwoLayerModel) Helpers() conversion.Helpers { return m.helpers }

// Temp1 is the fast modal temperature, not the upper-layer temperature; see
// UpperLayerTemperature.
func (m *TwoLayerModel) Temp1() quantity.Series { return m.Engine.Temp1() }

// Temp2 is the slow modal temperature, not the deep-layer temperature; see
// DeepLayerTemperature.
func (m *TwoLayerModel) Temp2() quantity.Series { return m.Engine.Temp2() }

// UpperLayerTemperature is the mixed-layer warming T = T1 + T2.
func (m *TwoLayerModel) UpperLayerTemperature() quantity.Series {
	return combineModes(m.Temp1(), m.Temp2(), 1, 1)
}

// DeepLayerTemperature is the deep-ocean warming T_D = phi1 T1 + phi2 T2.
func (m *TwoLayerModel) DeepLayerTemperature() quantity.Series {
	return combineModes(m.Temp1(), m.Temp2(), m.helpers.Phi1, m.helpers.Phi2)
}

// combineModes keeps NaN wherever either mode is not yet computed.
func combineModes(t1, t2 quantity.Series, w1, w2 float64) quantity.Series {
	out := make([]float64, t1.Len())
	for i := range out {
		out[i] = w1*t1.Magnitudes[i] + w2*t2.Magnitudes[i]
	}
	return quantity.Series{Magnitudes: out, Unit: t1.Unit}
}
