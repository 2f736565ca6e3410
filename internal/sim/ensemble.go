package sim

import (
	"context"
	"fmt"

	"github.com/san-kum/twolayer/internal/quantity"
	"golang.org/x/sync/errgroup"
)

// Ensemble runs independent forcing scenarios concurrently. Every scenario
// gets its own Engine from the factory; engines are never shared.
type Ensemble struct {
	newEngine func() (*Engine, error)
	workers   int
}

func NewEnsemble(newEngine func() (*Engine, error), workers int) *Ensemble {
	if workers < 1 {
		workers = 1
	}
	return &Ensemble{newEngine: newEngine, workers: workers}
}

// Run binds each scenario to a fresh engine and runs it to completion.
// The returned engines are in scenario order.
func (e *Ensemble) Run(ctx context.Context, scenarios []quantity.Series) ([]*Engine, error) {
	engines := make([]*Engine, len(scenarios))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i := range scenarios {
		i := i // per-iteration copy (go directive < 1.22)
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			eng, err := e.newEngine()
			if err != nil {
				return err
			}
			if err := eng.SetDrivers(scenarios[i]); err != nil {
				return fmt.Errorf("scenario %d: %w", i, err)
			}
			if err := eng.Run(); err != nil {
				return fmt.Errorf("scenario %d: %w", i, err)
			}
			engines[i] = eng
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return engines, nil
}
