package models

import (
	"github.com/san-kum/twolayer/internal/conversion"
	"github.com/san-kum/twolayer/internal/quantity"
	"github.com/san-kum/twolayer/internal/sim"
)

// ImpulseResponseModel steps the two-layer system written as the sum of two
// exponential response modes.
type ImpulseResponseModel struct {
	*sim.Engine

	params conversion.ImpulseResponseParameters
	values conversion.ImpulseResponseValues
	tl     conversion.TwoLayerValues
}

func DefaultImpulseResponseParameters() conversion.ImpulseResponseParameters {
	return conversion.ImpulseResponseParameters{
		Q1:       quantity.New(0.33, conversion.UnitSensitivity),
		Q2:       quantity.New(0.41, conversion.UnitSensitivity),
		D1:       quantity.New(4.1, conversion.UnitTime),
		D2:       quantity.New(239, conversion.UnitTime),
		Efficacy: quantity.New(1, quantity.Dimensionless),
	}
}

// NewImpulseResponse validates p and returns a model with no drivers bound.
// Parameters without a unit are read in the canonical unit of their field;
// fields left as the zero Quantity take their default.
// It fails with a *sim.ConstructionError naming "d1" unless d1 < d2.
func NewImpulseResponse(p conversion.ImpulseResponseParameters, opts ...Option) (*ImpulseResponseModel, error) {
	o, dt, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}

	def := DefaultImpulseResponseParameters()
	p = conversion.ImpulseResponseParameters{
		Q1:       orDefault(p.Q1, def.Q1),
		Q2:       orDefault(p.Q2, def.Q2),
		D1:       orDefault(p.D1, def.D1),
		D2:       orDefault(p.D2, def.D2),
		Efficacy: orDefault(p.Efficacy, def.Efficacy),
	}
	v, err := p.Values()
	if err != nil {
		return nil, constructionError(err)
	}
	tl := conversion.TwoLayerFromValues(v)

	rec, err := newModalRecurrence(v, tl, dt)
	if err != nil {
		return nil, constructionError(err)
	}

	return &ImpulseResponseModel{
		Engine: newEngine(rec, o, NameImpulseResponse),
		params: p,
		values: v,
		tl:     tl,
	}, nil
}

func (m *ImpulseResponseModel) Name() string { return NameImpulseResponse }

// Parameters returns the parameters as supplied, with defaulted units.
func (m *ImpulseResponseModel) Parameters() conversion.ImpulseResponseParameters {
	return m.params
}

// ImpulseResponseParameters returns the parameters in canonical units.
func (m *ImpulseResponseModel) ImpulseResponseParameters() conversion.ImpulseResponseParameters {
	return m.values.Quantities()
}

// TwoLayerParameters returns the equivalent physical parameters.
func (m *ImpulseResponseModel) TwoLayerParameters() conversion.TwoLayerParameters {
	return m.tl.Quantities()
}

// Lambda0 is the net feedback parameter 1/(q1+q2).
func (m *ImpulseResponseModel) Lambda0() quantity.Quantity {
	return quantity.New(m.tl.Lambda0, conversion.UnitFeedback)
}
