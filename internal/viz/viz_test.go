package viz

import (
	"math"
	"strings"
	"testing"

	"github.com/san-kum/twolayer/internal/quantity"
)

func TestGetTheme(t *testing.T) {
	if GetTheme("ocean").Name != "ocean" {
		t.Error("expected ocean theme")
	}
	if GetTheme("nonexistent").Name != ThemeThermal.Name {
		t.Error("expected fallback to thermal")
	}
	if len(ThemeNames()) != len(Themes) {
		t.Error("theme names out of sync")
	}

	SetTheme("minimal")
	defer SetTheme(ThemeThermal.Name)
	if CurrentTheme.Name != "minimal" {
		t.Errorf("expected minimal, got %s", CurrentTheme.Name)
	}
}

func TestFinitePrefix(t *testing.T) {
	got := finitePrefix([]float64{0, 1, math.NaN(), 3})
	if len(got) != 2 {
		t.Errorf("expected 2 values, got %v", got)
	}
}

func TestPlot(t *testing.T) {
	s := quantity.NewSeries([]float64{0, 0.5, 1, 1.2, math.NaN()}, "delta_degC")
	out := Plot("warming", s, PlotOptions{Width: 20, Height: 5})
	if !strings.Contains(out, "warming [delta_degC]") {
		t.Errorf("caption missing from plot:\n%s", out)
	}

	empty := Plot("warming", quantity.NaNSeries(3, "delta_degC"), DefaultPlotOptions)
	if !strings.Contains(empty, "no data") {
		t.Errorf("expected placeholder, got %q", empty)
	}

	layers := PlotLayers(s, quantity.NewSeries([]float64{0, 0.1, 0.2}, "delta_degC"), PlotOptions{Width: 20, Height: 5})
	if !strings.Contains(layers, "layer temperatures") {
		t.Errorf("caption missing from layer plot:\n%s", layers)
	}
}

func TestSparklineAndTable(t *testing.T) {
	if s := Sparkline(nil, 4); !strings.Contains(s, "────") {
		t.Errorf("expected flat line for no data, got %q", s)
	}
	if s := Sparkline([]float64{0, 1, 2, 3}, 4); !strings.ContainsRune(s, '█') || !strings.ContainsRune(s, '▁') {
		t.Errorf("expected full range sparkline, got %q", s)
	}

	table := MetricTable(map[string]float64{"ecs": 3, "tcr": math.NaN()})
	if !strings.Contains(table, "3.0000") || !strings.Contains(table, "n/a") {
		t.Errorf("unexpected table %q", table)
	}
	if strings.Index(table, "ecs") > strings.Index(table, "tcr") {
		t.Error("expected rows sorted by name")
	}
}
