package metrics

import "math"

type PeakWarming struct {
	name string
	peak float64
	seen bool
}

func NewPeakWarming() *PeakWarming {
	return &PeakWarming{name: "peak_warming"}
}

func (p *PeakWarming) Name() string { return p.name }

func (p *PeakWarming) Observe(s Sample) {
	w := s.Warming()
	if !p.seen || w > p.peak {
		p.peak = w
		p.seen = true
	}
}

func (p *PeakWarming) Value() float64 { return p.peak }

func (p *PeakWarming) Reset() {
	p.peak = 0
	p.seen = false
}

// RealisedFraction is the last observed warming over the equilibrium warming
// F/lambda0 for the forcing of that step. It is NaN while the forcing is zero.
type RealisedFraction struct {
	name    string
	lambda0 float64
	warming float64
	forcing float64
}

func NewRealisedFraction(lambda0 float64) *RealisedFraction {
	return &RealisedFraction{name: "realised_fraction", lambda0: lambda0}
}

func (r *RealisedFraction) Name() string { return r.name }

func (r *RealisedFraction) Observe(s Sample) {
	r.warming = s.Warming()
	r.forcing = s.Forcing
}

func (r *RealisedFraction) Value() float64 {
	if r.forcing == 0 {
		return math.NaN()
	}
	return r.warming * r.lambda0 / r.forcing
}

func (r *RealisedFraction) Reset() {
	r.warming = 0
	r.forcing = 0
}
