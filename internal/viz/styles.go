package viz

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	Panel       lipgloss.Style
	Title       lipgloss.Style
	Subtle      lipgloss.Style
	MetricLabel lipgloss.Style
	MetricValue lipgloss.Style
	KeyHint     lipgloss.Style

	StatusRunning lipgloss.Style
	StatusPaused  lipgloss.Style
	StatusDone    lipgloss.Style

	warmStyle lipgloss.Style
	coldStyle lipgloss.Style
	fluxStyle lipgloss.Style
)

func init() { applyTheme(CurrentTheme) }

func applyTheme(t Theme) {
	Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Muted).
		Padding(0, 1)
	Title = lipgloss.NewStyle().Bold(true).Foreground(t.Primary)
	Subtle = lipgloss.NewStyle().Foreground(t.Muted)
	MetricLabel = lipgloss.NewStyle().Foreground(t.Muted)
	MetricValue = lipgloss.NewStyle().Bold(true).Foreground(t.Accent)
	KeyHint = lipgloss.NewStyle().Italic(true).Foreground(t.Muted)

	StatusRunning = lipgloss.NewStyle().Bold(true).Foreground(t.Flux)
	StatusPaused = lipgloss.NewStyle().Bold(true).Foreground(t.Accent)
	StatusDone = lipgloss.NewStyle().Bold(true).Foreground(t.Primary)

	warmStyle = lipgloss.NewStyle().Foreground(t.Warm)
	coldStyle = lipgloss.NewStyle().Foreground(t.Cold)
	fluxStyle = lipgloss.NewStyle().Foreground(t.Flux)
}

// MetricTable renders name/value pairs sorted by name. NaN values print as
// "n/a".
func MetricTable(values map[string]float64) string {
	names := make([]string, 0, len(values))
	width := 0
	for n := range values {
		names = append(names, n)
		width = max(width, len(n))
	}
	sort.Strings(names)

	var b strings.Builder
	for i, n := range names {
		if i > 0 {
			b.WriteByte('\n')
		}
		v := "n/a"
		if !math.IsNaN(values[n]) {
			v = fmt.Sprintf("%.4f", values[n])
		}
		b.WriteString(MetricLabel.Render(fmt.Sprintf("%-*s", width, n)))
		b.WriteString("  ")
		b.WriteString(MetricValue.Render(v))
	}
	return b.String()
}

// ProgressBar renders the fraction done as a bar of width cells.
func ProgressBar(fraction float64, width int) string {
	filled := int(fraction * float64(width))
	filled = min(max(filled, 0), width)
	return fluxStyle.Render(strings.Repeat("█", filled)) + Subtle.Render(strings.Repeat("░", width-filled))
}

var sparkChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline renders the finite values of vals, sampled down to width cells.
func Sparkline(vals []float64, width int) string {
	finite := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 || width <= 0 {
		return Subtle.Render(strings.Repeat("─", max(width, 0)))
	}

	lo, hi := finite[0], finite[0]
	for _, v := range finite {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	step := max(len(finite)/width, 1)
	var b strings.Builder
	for i := 0; i < width && i*step < len(finite); i++ {
		norm := (finite[i*step] - lo) / rng
		idx := min(max(int(norm*float64(len(sparkChars)-1)), 0), len(sparkChars)-1)
		b.WriteRune(sparkChars[idx])
	}
	return warmStyle.Render(b.String())
}

// Legend labels the series colors used by Plot.
func Legend() string {
	return strings.Join([]string{
		warmStyle.Render("■ upper"),
		coldStyle.Render("■ deep"),
		fluxStyle.Render("■ rndt"),
	}, "  ")
}

func Separator(width int) string {
	return Subtle.Render(strings.Repeat("─", max(width, 0)))
}
