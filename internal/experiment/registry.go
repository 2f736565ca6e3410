package experiment

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/twolayer/internal/config"
	"github.com/san-kum/twolayer/internal/metrics"
	"github.com/san-kum/twolayer/internal/models"
	"github.com/san-kum/twolayer/internal/sim"
)

// Builder constructs a model from the parameter block of cfg it owns.
type Builder func(cfg *config.Config, opts ...models.Option) (models.Model, error)

type Registry struct {
	models map[string]Builder
}

func NewRegistry() *Registry {
	r := &Registry{
		models: make(map[string]Builder),
	}

	r.models[models.NameTwoLayer] = func(cfg *config.Config, opts ...models.Option) (models.Model, error) {
		return models.NewTwoLayer(cfg.TwoLayer, append([]models.Option{models.WithDeltaT(cfg.DeltaT)}, opts...)...)
	}
	r.models[models.NameImpulseResponse] = func(cfg *config.Config, opts ...models.Option) (models.Model, error) {
		return models.NewImpulseResponse(cfg.ImpulseResponse, append([]models.Option{models.WithDeltaT(cfg.DeltaT)}, opts...)...)
	}

	return r
}

// Register adds or replaces a model builder.
func (r *Registry) Register(name string, b Builder) {
	r.models[name] = b
}

func (r *Registry) GetModel(cfg *config.Config, opts ...models.Option) (models.Model, error) {
	fn, ok := r.models[cfg.Model]
	if !ok {
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownModel, cfg.Model)
	}
	return fn(cfg, opts...)
}

func (r *Registry) ListModels() []string {
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) DefaultMetrics(m models.Model) []metrics.Metric {
	dt, err := m.DeltaT().In(sim.UnitTime)
	if err != nil {
		dt = math.NaN()
	}
	v, err := m.TwoLayerParameters().Values()
	if err != nil {
		return metrics.Default(0, dt)
	}
	return metrics.Default(v.Lambda0, dt)
}
