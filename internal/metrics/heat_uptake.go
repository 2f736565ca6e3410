package metrics

import "math"

type FinalHeatUptake struct {
	name string
	last float64
}

func NewFinalHeatUptake() *FinalHeatUptake {
	return &FinalHeatUptake{name: "final_rndt"}
}

func (f *FinalHeatUptake) Name() string { return f.name }

func (f *FinalHeatUptake) Observe(s Sample) { f.last = s.Rndt }

func (f *FinalHeatUptake) Value() float64 { return f.last }

func (f *FinalHeatUptake) Reset() { f.last = 0 }

type MeanHeatUptake struct {
	name    string
	sum     float64
	samples int
}

func NewMeanHeatUptake() *MeanHeatUptake {
	return &MeanHeatUptake{name: "mean_rndt"}
}

func (m *MeanHeatUptake) Name() string { return m.name }

func (m *MeanHeatUptake) Observe(s Sample) {
	m.sum += s.Rndt
	m.samples++
}

func (m *MeanHeatUptake) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *MeanHeatUptake) Reset() {
	m.sum = 0
	m.samples = 0
}

// Equilibration is the time, in years from the start of the run, at which
// the top-of-atmosphere imbalance first falls from above threshold to within
// it. It is NaN until that happens.
type Equilibration struct {
	name      string
	threshold float64
	dt        float64
	exceeded  bool
	at        int
}

// NewEquilibration reports crossings of threshold, in W/m^2, on a run
// stepped every dt years.
func NewEquilibration(threshold, dt float64) *Equilibration {
	return &Equilibration{name: "equilibration", threshold: threshold, dt: dt, at: -1}
}

func (e *Equilibration) Name() string { return e.name }

func (e *Equilibration) Observe(s Sample) {
	if e.at >= 0 {
		return
	}
	if math.Abs(s.Rndt) > e.threshold {
		e.exceeded = true
		return
	}
	if e.exceeded {
		e.at = s.Index
	}
}

func (e *Equilibration) Value() float64 {
	if e.at < 0 {
		return math.NaN()
	}
	return float64(e.at) * e.dt
}

func (e *Equilibration) Reset() {
	e.exceeded = false
	e.at = -1
}
