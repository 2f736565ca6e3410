package experiment

import (
	"context"

	"github.com/san-kum/twolayer/internal/config"
	"github.com/san-kum/twolayer/internal/metrics"
	"github.com/san-kum/twolayer/internal/models"
	"github.com/san-kum/twolayer/internal/quantity"
	"github.com/san-kum/twolayer/internal/sim"
	"github.com/sirupsen/logrus"
)

// RunEnsemble runs the configured model once per forcing scenario, each on
// its own model instance, with at most cfg.Workers running at a time.
// Results are in scenario order.
func RunEnsemble(ctx context.Context, reg *Registry, cfg *config.Config, scenarios []quantity.Series, log logrus.FieldLogger) ([]*Result, error) {
	proto, err := reg.GetModel(cfg)
	if err != nil {
		return nil, err
	}
	tl, ir := proto.TwoLayerParameters(), proto.ImpulseResponseParameters()

	ens := sim.NewEnsemble(func() (*sim.Engine, error) {
		m, err := reg.GetModel(cfg)
		if err != nil {
			return nil, err
		}
		return models.EngineOf(m), nil
	}, cfg.Workers)

	if log != nil {
		log.WithFields(logrus.Fields{
			"model":     cfg.Model,
			"scenarios": len(scenarios),
			"workers":   cfg.Workers,
		}).Info("running ensemble")
	}

	engines, err := ens.Run(ctx, scenarios)
	if err != nil {
		return nil, err
	}

	results := make([]*Result, len(engines))
	for i, eng := range engines {
		set := metrics.NewSet(reg.DefaultMetrics(proto)...)
		replay(eng, set)
		res, err := collect(proto.Name(), tl, ir, eng, set.Values())
		if err != nil {
			return nil, err
		}
		results[i] = res
	}
	return results, nil
}

// replay feeds a completed run to set as if it had observed every step.
func replay(eng *sim.Engine, set *metrics.Set) {
	set.Bind(eng.Drivers().Magnitudes)
	t1, t2, n := eng.Temp1().Magnitudes, eng.Temp2().Magnitudes, eng.Rndt().Magnitudes
	for i := range t1 {
		set.OnStep(i, t1[i], t2[i], n[i])
	}
}
