package models

import (
	"errors"

	"github.com/san-kum/twolayer/internal/conversion"
	"github.com/san-kum/twolayer/internal/quantity"
	"github.com/san-kum/twolayer/internal/sim"
	"github.com/sirupsen/logrus"
)

const (
	NameTwoLayer        = "two_layer"
	NameImpulseResponse = "impulse_response"
)

// Model is the surface shared by both parameterizations.
type Model interface {
	Name() string
	SetDrivers(quantity.Series) error
	Reset() error
	Step() error
	Run() error
	Phase() sim.Phase
	Index() (int, bool)
	Len() int
	Drivers() quantity.Series
	Times() quantity.Series
	// Temp1 and Temp2 are the fast and slow modal temperatures for both
	// variants. Their sum is the upper-layer warming.
	Temp1() quantity.Series
	Temp2() quantity.Series
	Rndt() quantity.Series
	DeltaT() quantity.Quantity
	AddObserver(sim.Observer)
	SetLogger(logrus.FieldLogger)
	TwoLayerParameters() conversion.TwoLayerParameters
	ImpulseResponseParameters() conversion.ImpulseResponseParameters
}

var (
	_ Model = (*TwoLayerModel)(nil)
	_ Model = (*ImpulseResponseModel)(nil)
)

// DefaultDeltaT maps one driver sample to one simulated year.
var DefaultDeltaT = quantity.New(1, sim.UnitTime)

type options struct {
	deltaT quantity.Quantity
	log    logrus.FieldLogger
}

type Option func(*options)

// WithDeltaT sets the time between consecutive driver samples.
func WithDeltaT(dt quantity.Quantity) Option {
	return func(o *options) { o.deltaT = dt }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) { o.log = l }
}

func buildOptions(opts []Option) (options, float64, error) {
	o := options{deltaT: DefaultDeltaT}
	for _, opt := range opts {
		opt(&o)
	}
	dt, err := withDefaultUnit(o.deltaT, sim.UnitTime).In(sim.UnitTime)
	if err != nil {
		return o, 0, sim.NewConstructionError("delta_t", err)
	}
	if !(dt > 0) {
		return o, 0, sim.NewConstructionError("delta_t", conversion.ErrInvalidParameter)
	}
	return o, dt, nil
}

// withDefaultUnit reads a bare number in the parameter's canonical unit.
func withDefaultUnit(q quantity.Quantity, u string) quantity.Quantity {
	if q.Unit == "" {
		q.Unit = u
	}
	return q
}

// orDefault fills a field the caller left unset with def, and reads a bare
// number in def's unit.
func orDefault(q, def quantity.Quantity) quantity.Quantity {
	if q == (quantity.Quantity{}) {
		return def
	}
	return withDefaultUnit(q, def.Unit)
}

// constructionError re-labels a conversion error with the offending field.
func constructionError(err error) error {
	var perr *conversion.ParameterError
	if errors.As(err, &perr) {
		return sim.NewConstructionError(perr.Field, perr.Err)
	}
	return sim.NewConstructionError("", err)
}

// modalRecurrence is the arithmetic both variants step with once their
// parameters are expressed as two decay modes.
type modalRecurrence struct {
	coef       sim.Coefficients
	lambda0    float64
	eta        float64
	phi1, phi2 float64
}

func (r *modalRecurrence) Coefficients() sim.Coefficients { return r.coef }

func (r *modalRecurrence) NextTemperature(dt, prevTemp, q, d, prevForcing float64) float64 {
	return sim.NextTemperature(dt, prevTemp, q, d, prevForcing)
}

// NextHeatUptake is F - lambda0 (T1 + T2) less the extra deep-ocean
// feedback eta (efficacy - 1) (T - T_D), with T - T_D recovered from the
// modal temperatures through the Geoffroy weights.
func (r *modalRecurrence) NextHeatUptake(prevT1, prevT2, prevForcing, efficacy float64) float64 {
	efficacyTerm := r.eta * (efficacy - 1) * ((1-r.phi1)*prevT1 + (1-r.phi2)*prevT2)
	return prevForcing - (prevT1+prevT2)*r.lambda0 - efficacyTerm
}

func newModalRecurrence(ir conversion.ImpulseResponseValues, tl conversion.TwoLayerValues, dt float64) (*modalRecurrence, error) {
	h, err := conversion.GeoffroyHelpers(tl.Quantities())
	if err != nil {
		return nil, err
	}
	return &modalRecurrence{
		coef: sim.Coefficients{
			Q1: ir.Q1, Q2: ir.Q2,
			D1: ir.D1, D2: ir.D2,
			Efficacy: ir.Efficacy,
			DeltaT:   dt,
		},
		lambda0: tl.Lambda0,
		eta:     tl.Eta,
		phi1:    h.Phi1,
		phi2:    h.Phi2,
	}, nil
}

func newEngine(rec sim.Recurrence, o options, name string) *sim.Engine {
	e := sim.NewEngine(rec)
	if o.log != nil {
		e.SetLogger(o.log.WithField("model", name))
	}
	return e
}

// EngineOf returns the stepping engine behind m.
func EngineOf(m Model) *sim.Engine {
	switch v := m.(type) {
	case *TwoLayerModel:
		return v.Engine
	case *ImpulseResponseModel:
		return v.Engine
	}
	return nil
}
