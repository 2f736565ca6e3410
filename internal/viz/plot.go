package viz

import (
	"fmt"
	"math"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/twolayer/internal/quantity"
)

// PlotOptions sizes a plot in terminal cells.
type PlotOptions struct {
	Width  int
	Height int
}

var DefaultPlotOptions = PlotOptions{Width: 80, Height: 12}

// Plot draws a single series with its unit in the caption. Entries not yet
// computed are skipped.
func Plot(title string, s quantity.Series, opts PlotOptions) string {
	data := finitePrefix(s.Magnitudes)
	if len(data) == 0 {
		return Subtle.Render(title + ": no data")
	}
	return asciigraph.Plot(data,
		asciigraph.Height(opts.Height),
		asciigraph.Width(opts.Width),
		asciigraph.Precision(2),
		asciigraph.Caption(fmt.Sprintf("%s [%s]", title, s.Unit)),
	)
}

// PlotLayers draws the upper and deep layer temperatures on one set of axes.
func PlotLayers(upper, deep quantity.Series, opts PlotOptions) string {
	u, d := finitePrefix(upper.Magnitudes), finitePrefix(deep.Magnitudes)
	n := min(len(u), len(d))
	if n == 0 {
		return Subtle.Render("layer temperatures: no data")
	}
	return asciigraph.PlotMany([][]float64{u[:n], d[:n]},
		asciigraph.Height(opts.Height),
		asciigraph.Width(opts.Width),
		asciigraph.Precision(2),
		asciigraph.SeriesColors(asciigraph.Red, asciigraph.Blue),
		asciigraph.SeriesLegends("upper", "deep"),
		asciigraph.Caption(fmt.Sprintf("layer temperatures [%s]", upper.Unit)),
	)
}

// finitePrefix returns vals up to the first NaN.
func finitePrefix(vals []float64) []float64 {
	for i, v := range vals {
		if math.IsNaN(v) {
			return vals[:i]
		}
	}
	return vals
}
