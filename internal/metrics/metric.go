// Package metrics reduces model output streams to scalar diagnostics.
package metrics

import "github.com/san-kum/twolayer/internal/sim"

// Sample is one computed timestep.
type Sample struct {
	Index   int
	Temp1   float64
	Temp2   float64
	Rndt    float64
	Forcing float64
}

// Warming is the total surface warming T1 + T2.
func (s Sample) Warming() float64 { return s.Temp1 + s.Temp2 }

type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

// Set feeds every step of an engine to its metrics. Register it with
// AddObserver after binding the drivers it reads forcing from.
type Set struct {
	metrics []Metric
	forcing []float64
}

var _ sim.Observer = (*Set)(nil)

func NewSet(ms ...Metric) *Set {
	return &Set{metrics: ms}
}

// Bind sets the forcing series reported alongside each step, in W/m^2.
func (s *Set) Bind(forcing []float64) {
	s.forcing = append(s.forcing[:0], forcing...)
}

func (s *Set) OnStep(idx int, temp1, temp2, rndt float64) {
	var f float64
	if idx < len(s.forcing) {
		f = s.forcing[idx]
	}
	sample := Sample{Index: idx, Temp1: temp1, Temp2: temp2, Rndt: rndt, Forcing: f}
	for _, m := range s.metrics {
		m.Observe(sample)
	}
}

func (s *Set) Reset() {
	for _, m := range s.metrics {
		m.Reset()
	}
}

func (s *Set) Values() map[string]float64 {
	out := make(map[string]float64, len(s.metrics))
	for _, m := range s.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}

func (s *Set) Metrics() []Metric { return s.metrics }
