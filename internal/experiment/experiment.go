package experiment

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/san-kum/twolayer/internal/config"
	"github.com/san-kum/twolayer/internal/conversion"
	"github.com/san-kum/twolayer/internal/metrics"
	"github.com/san-kum/twolayer/internal/models"
	"github.com/san-kum/twolayer/internal/quantity"
	"github.com/san-kum/twolayer/internal/sim"
	"github.com/sirupsen/logrus"
)

var ErrNotSetup = errors.New("experiment: not set up")

// Result is a completed run with the layer temperatures reconstructed from
// the modal series.
type Result struct {
	Model           string                               `json:"model"`
	TwoLayer        conversion.TwoLayerParameters        `json:"two_layer"`
	ImpulseResponse conversion.ImpulseResponseParameters `json:"impulse_response"`
	DeltaT          quantity.Quantity                    `json:"delta_t"`
	Times           quantity.Series                      `json:"times"`
	Forcing         quantity.Series                      `json:"forcing"`
	Temp1           quantity.Series                      `json:"temp1"`
	Temp2           quantity.Series                      `json:"temp2"`
	Rndt            quantity.Series                      `json:"rndt"`
	Upper           quantity.Series                      `json:"upper"`
	Deep            quantity.Series                      `json:"deep"`
	Metrics         map[string]float64                   `json:"metrics"`
}

func (r *Result) Len() int { return r.Times.Len() }

type Experiment struct {
	cfg     *config.Config
	model   models.Model
	metrics *metrics.Set
	log     logrus.FieldLogger
}

func New(cfg *config.Config) *Experiment {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &Experiment{cfg: cfg, log: l}
}

func (e *Experiment) SetLogger(l logrus.FieldLogger) {
	if l != nil {
		e.log = l
	}
}

// Setup builds the configured model and attaches ms, or the registry's
// default metrics when ms is empty.
func (e *Experiment) Setup(reg *Registry, ms ...metrics.Metric) error {
	m, err := reg.GetModel(e.cfg, models.WithLogger(e.log))
	if err != nil {
		return err
	}
	if len(ms) == 0 {
		ms = reg.DefaultMetrics(m)
	}
	e.model = m
	e.metrics = metrics.NewSet(ms...)
	m.AddObserver(e.metrics)
	return nil
}

// Model returns the model built by Setup, for callers driving Step
// themselves.
func (e *Experiment) Model() models.Model { return e.model }

// Bind loads the configured forcing into the model and resets it.
func (e *Experiment) Bind() error {
	if e.model == nil {
		return ErrNotSetup
	}
	f, err := e.cfg.ForcingSeries()
	if err != nil {
		return err
	}
	if e.model.Phase() != sim.PhaseUninitialized {
		if err := e.model.Reset(); err != nil {
			return err
		}
	}
	if err := e.model.SetDrivers(f); err != nil {
		return err
	}
	e.metrics.Reset()
	e.metrics.Bind(e.model.Drivers().Magnitudes)
	return nil
}

// Run binds the forcing and steps to completion, checking ctx between
// steps. A cancelled run leaves the model and metrics reset.
func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	if err := e.Bind(); err != nil {
		return nil, err
	}

	log := e.log.WithFields(logrus.Fields{
		"model":     e.model.Name(),
		"scenario":  e.cfg.Forcing.Scenario,
		"timesteps": e.model.Len(),
	})
	log.Info("running")

	for e.model.Phase() != sim.PhaseComplete {
		select {
		case <-ctx.Done():
			if err := e.model.Reset(); err != nil {
				return nil, err
			}
			e.metrics.Reset()
			log.WithError(ctx.Err()).Warn("cancelled")
			return nil, ctx.Err()
		default:
		}
		if err := e.model.Step(); err != nil {
			return nil, err
		}
	}

	res, err := e.Result()
	if err != nil {
		return nil, err
	}
	log.WithField("peak_warming", res.Metrics["peak_warming"]).Info("complete")
	return res, nil
}

// Result collects the model outputs. The model may be mid-run; entries not
// yet computed are NaN.
func (e *Experiment) Result() (*Result, error) {
	if e.model == nil {
		return nil, ErrNotSetup
	}
	return collect(e.model.Name(), e.model.TwoLayerParameters(), e.model.ImpulseResponseParameters(),
		models.EngineOf(e.model), e.metrics.Values())
}

func collect(name string, tl conversion.TwoLayerParameters, ir conversion.ImpulseResponseParameters, eng *sim.Engine, ms map[string]float64) (*Result, error) {
	h, err := conversion.GeoffroyHelpers(tl)
	if err != nil {
		return nil, fmt.Errorf("experiment: %w", err)
	}
	t1, t2 := eng.Temp1(), eng.Temp2()
	upper := make([]float64, t1.Len())
	deep := make([]float64, t1.Len())
	for i := range upper {
		upper[i] = t1.Magnitudes[i] + t2.Magnitudes[i]
		deep[i] = h.Phi1*t1.Magnitudes[i] + h.Phi2*t2.Magnitudes[i]
	}
	return &Result{
		Model:           name,
		TwoLayer:        tl,
		ImpulseResponse: ir,
		DeltaT:          eng.DeltaT(),
		Times:           eng.Times(),
		Forcing:         eng.Drivers(),
		Temp1:           t1,
		Temp2:           t2,
		Rndt:            eng.Rndt(),
		Upper:           quantity.Series{Magnitudes: upper, Unit: t1.Unit},
		Deep:            quantity.Series{Magnitudes: deep, Unit: t1.Unit},
		Metrics:         ms,
	}, nil
}
