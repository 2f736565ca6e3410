package metrics

import (
	"fmt"

	"github.com/san-kum/twolayer/internal/conversion"
	"github.com/san-kum/twolayer/internal/forcing"
	"github.com/san-kum/twolayer/internal/quantity"
	"gonum.org/v1/gonum/floats"
)

// Runner is the part of a model Summarize drives.
type Runner interface {
	SetDrivers(quantity.Series) error
	Run() error
	Temp1() quantity.Series
	Temp2() quantity.Series
	Rndt() quantity.Series
	TwoLayerParameters() conversion.TwoLayerParameters
}

// Summary holds the standard climate sensitivity diagnostics.
type Summary struct {
	Lambda0 float64 `json:"lambda0"` // W/m^2/delta_degC
	ECS     float64 `json:"ecs"`     // equilibrium warming for a CO2 doubling, delta_degC
	TCR     float64 `json:"tcr"`     // 1pctCO2 warming averaged over years 60-79
	TCRECS  float64 `json:"tcr_ecs"`
	// HeatUptakeEfficiency is N/T at doubling, W/m^2/delta_degC.
	HeatUptakeEfficiency float64 `json:"kappa"`
}

const (
	tcrYears = 80
	tcrFrom  = 60
)

// Default returns the metrics recorded for every run of a model with
// feedback lambda0 stepped every dt years.
func Default(lambda0, dt float64) []Metric {
	return []Metric{
		NewPeakWarming(),
		NewFinalHeatUptake(),
		NewMeanHeatUptake(),
		NewRealisedFraction(lambda0),
		NewEquilibration(0.1, dt),
	}
}

// Summarize runs r through the 1pctCO2 experiment. r must have no drivers
// bound, or be reset, and is left complete.
func Summarize(r Runner) (Summary, error) {
	v, err := r.TwoLayerParameters().Values()
	if err != nil {
		return Summary{}, err
	}
	f2x, err := conversion.ForcingDoubling.In(conversion.UnitFlux)
	if err != nil {
		return Summary{}, err
	}

	ramp, err := forcing.Ramp(conversion.ForcingDoubling, 0.01, tcrYears)
	if err != nil {
		return Summary{}, err
	}
	if err := r.SetDrivers(ramp); err != nil {
		return Summary{}, fmt.Errorf("summary: %w", err)
	}
	if err := r.Run(); err != nil {
		return Summary{}, fmt.Errorf("summary: %w", err)
	}

	warming := make([]float64, tcrYears)
	floats.AddTo(warming, r.Temp1().Magnitudes, r.Temp2().Magnitudes)
	window := warming[tcrFrom:]
	tcr := floats.Sum(window) / float64(len(window))

	s := Summary{
		Lambda0: v.Lambda0,
		ECS:     f2x / v.Lambda0,
		TCR:     tcr,
	}
	s.TCRECS = s.TCR / s.ECS

	// doubling is reached between years 69 and 70
	i := floats.Within(ramp.Magnitudes, f2x) + 1
	if i > 0 && i < tcrYears && warming[i] > 0 {
		s.HeatUptakeEfficiency = r.Rndt().Magnitudes[i] / warming[i]
	}
	return s, nil
}
