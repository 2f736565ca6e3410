// Package forcing builds effective radiative forcing series used to drive
// the models.
package forcing

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/san-kum/twolayer/internal/conversion"
	"github.com/san-kum/twolayer/internal/quantity"
)

var (
	ErrEmpty        = errors.New("forcing: series would be empty")
	ErrUnknownShape = errors.New("forcing: unknown scenario")
	ErrBadValue     = errors.New("forcing: invalid value")
)

// Constant returns n samples of level.
func Constant(level quantity.Quantity, n int) (quantity.Series, error) {
	v, err := level.In(conversion.UnitFlux)
	if err != nil {
		return quantity.Series{}, err
	}
	if n <= 0 {
		return quantity.Series{}, ErrEmpty
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return quantity.Series{Magnitudes: out, Unit: conversion.UnitFlux}, nil
}

// Abrupt is the abrupt-forcing experiment: zero at the first sample, level
// from then on.
func Abrupt(level quantity.Quantity, n int) (quantity.Series, error) {
	s, err := Constant(level, n)
	if err != nil {
		return s, err
	}
	s.Magnitudes[0] = 0
	return s, nil
}

// Ramp is the 1pctCO2 experiment: CO2 rises by rate per year, so forcing
// grows as F2x log(1+rate)^t / log 2, with F2x the forcing of a doubling.
func Ramp(f2x quantity.Quantity, rate float64, n int) (quantity.Series, error) {
	v, err := f2x.In(conversion.UnitFlux)
	if err != nil {
		return quantity.Series{}, err
	}
	if n <= 0 {
		return quantity.Series{}, ErrEmpty
	}
	if !(rate > -1) {
		return quantity.Series{}, fmt.Errorf("%w: rate %g", ErrBadValue, rate)
	}
	perYear := v * math.Log1p(rate) / math.Ln2
	out := make([]float64, n)
	for i := range out {
		out[i] = perYear * float64(i)
	}
	return quantity.Series{Magnitudes: out, Unit: conversion.UnitFlux}, nil
}

var builders = map[string]func(level quantity.Quantity, n int) (quantity.Series, error){
	"constant": Constant,
	"abrupt":   Abrupt,
	"abrupt-2x": func(_ quantity.Quantity, n int) (quantity.Series, error) {
		return Abrupt(conversion.ForcingDoubling, n)
	},
	"abrupt-4x": func(_ quantity.Quantity, n int) (quantity.Series, error) {
		return Abrupt(conversion.ForcingDoubling.Scale(2), n)
	},
	"1pct": func(_ quantity.Quantity, n int) (quantity.Series, error) {
		return Ramp(conversion.ForcingDoubling, 0.01, n)
	},
}

// Named builds one of the Names scenarios. level is ignored by scenarios
// with a fixed magnitude.
func Named(name string, level quantity.Quantity, n int) (quantity.Series, error) {
	b, ok := builders[strings.ToLower(name)]
	if !ok {
		return quantity.Series{}, fmt.Errorf("%w: %q", ErrUnknownShape, name)
	}
	return b(level, n)
}

func Names() []string {
	names := make([]string, 0, len(builders))
	for n := range builders {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// LoadCSV reads one forcing value per row from the last column. Blank lines,
// lines starting with '#' and a non-numeric header row are skipped. Values
// are in unit, or W/m^2 when unit is empty.
func LoadCSV(r io.Reader, unit string) (quantity.Series, error) {
	if unit == "" {
		unit = conversion.UnitFlux
	}
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	lines, err := cr.ReadAll()
	if err != nil {
		return quantity.Series{}, err
	}

	var vals []float64
	for i, line := range lines {
		if len(line) == 0 {
			continue
		}
		cell := strings.TrimSpace(line[len(line)-1])
		if cell == "" {
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			if i == 0 && len(vals) == 0 {
				continue
			}
			return quantity.Series{}, fmt.Errorf("%w: row %d: %q", ErrBadValue, i+1, cell)
		}
		vals = append(vals, v)
	}
	if len(vals) == 0 {
		return quantity.Series{}, ErrEmpty
	}

	s := quantity.Series{Magnitudes: vals, Unit: unit}
	return s.To(conversion.UnitFlux)
}

func LoadCSVFile(path, unit string) (quantity.Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return quantity.Series{}, err
	}
	defer f.Close()
	return LoadCSV(f, unit)
}
