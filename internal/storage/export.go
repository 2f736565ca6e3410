package storage

import (
	"io"

	"github.com/goccy/go-json"
	"github.com/san-kum/twolayer/internal/experiment"
)

type ExportData struct {
	Scenario string `json:"scenario"`
	Steps    int    `json:"steps"`
	*experiment.Result
	// Metrics shadows Result.Metrics with its finite entries.
	Metrics map[string]float64 `json:"metrics"`
}

// ExportJSON writes res as indented JSON. Series are exported with their
// units and every series entry must be finite. Metrics that are not finite
// are left out.
func ExportJSON(w io.Writer, scenario string, res *experiment.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ExportData{
		Scenario: scenario,
		Steps:    res.Len(),
		Result:   res,
		Metrics:  finiteMetrics(res.Metrics),
	})
}

func ExportJSONFile(path, scenario string, res *experiment.Result) error {
	return writeFile(path, func(w io.Writer) error {
		return ExportJSON(w, scenario, res)
	})
}
