// Package viz renders model output for the terminal: lipgloss styles and
// themes for panels and metric tables, and asciigraph line plots of the
// temperature and heat uptake series.
package viz
