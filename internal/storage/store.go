package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/san-kum/twolayer/internal/conversion"
	"github.com/san-kum/twolayer/internal/experiment"
	"github.com/san-kum/twolayer/internal/quantity"
)

const (
	metadataFile = "metadata.json"
	outputsFile  = "outputs.csv"
)

var ErrMalformedOutputs = errors.New("storage: malformed outputs file")

var outputColumns = []string{"time", "forcing", "temp1", "temp2", "rndt", "upper", "deep"}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID              string                               `json:"id"`
	Model           string                               `json:"model"`
	Scenario        string                               `json:"scenario"`
	Timestamp       time.Time                            `json:"timestamp"`
	Steps           int                                  `json:"steps"`
	DeltaT          quantity.Quantity                    `json:"delta_t"`
	TwoLayer        conversion.TwoLayerParameters        `json:"two_layer"`
	ImpulseResponse conversion.ImpulseResponseParameters `json:"impulse_response"`
	Metrics         map[string]float64                   `json:"metrics"`
}

// Save writes a completed run to a new directory named by a fresh run ID.
// A failed save removes the directory.
func (s *Store) Save(scenario string, res *experiment.Result) (runID string, err error) {
	runID = uuid.NewString()
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			os.RemoveAll(runDir)
			runID = ""
		}
	}()

	meta := RunMetadata{
		ID:              runID,
		Model:           res.Model,
		Scenario:        scenario,
		Timestamp:       time.Now().UTC(),
		Steps:           res.Len(),
		DeltaT:          res.DeltaT,
		TwoLayer:        res.TwoLayer,
		ImpulseResponse: res.ImpulseResponse,
		Metrics:         finiteMetrics(res.Metrics),
	}

	if err := writeFile(filepath.Join(runDir, metadataFile), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	}); err != nil {
		return "", err
	}

	if err := writeFile(filepath.Join(runDir, outputsFile), func(w io.Writer) error {
		return writeOutputs(w, res)
	}); err != nil {
		return "", err
	}

	return runID, nil
}

// writeFile creates path, fills it with write and reports the close error
// when write succeeded.
func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeOutputs(out io.Writer, res *experiment.Result) error {
	w := csv.NewWriter(out)
	if err := w.Write(outputColumns); err != nil {
		return err
	}
	cols := resultColumns(res)
	for i := 0; i < res.Len(); i++ {
		row := make([]string, len(cols))
		for j, c := range cols {
			row[j] = strconv.FormatFloat(c[i], 'g', -1, 64)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// finiteMetrics drops values JSON cannot represent.
func finiteMetrics(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out[k] = v
		}
	}
	return out
}

func resultColumns(res *experiment.Result) [][]float64 {
	return [][]float64{
		res.Times.Magnitudes,
		res.Forcing.Magnitudes,
		res.Temp1.Magnitudes,
		res.Temp2.Magnitudes,
		res.Rndt.Magnitudes,
		res.Upper.Magnitudes,
		res.Deep.Magnitudes,
	}
}

// List returns the metadata of every stored run, oldest first. Directories
// without readable metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadResult reads a stored run back into a Result.
func (s *Store) LoadResult(runID string) (*experiment.Result, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filepath.Join(s.baseDir, runID, outputsFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 || len(records[0]) != len(outputColumns) {
		return nil, fmt.Errorf("%w: %s", ErrMalformedOutputs, runID)
	}

	cols := make([][]float64, len(outputColumns))
	for i := 1; i < len(records); i++ {
		for j, cell := range records[i] {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %s row %d: %v", ErrMalformedOutputs, runID, i, err)
			}
			cols[j] = append(cols[j], v)
		}
	}

	temp := conversion.UnitTemperature
	flux := conversion.UnitFlux
	return &experiment.Result{
		Model:           meta.Model,
		TwoLayer:        meta.TwoLayer,
		ImpulseResponse: meta.ImpulseResponse,
		DeltaT:          meta.DeltaT,
		Times:           quantity.Series{Magnitudes: cols[0], Unit: conversion.UnitTime},
		Forcing:         quantity.Series{Magnitudes: cols[1], Unit: flux},
		Temp1:           quantity.Series{Magnitudes: cols[2], Unit: temp},
		Temp2:           quantity.Series{Magnitudes: cols[3], Unit: temp},
		Rndt:            quantity.Series{Magnitudes: cols[4], Unit: flux},
		Upper:           quantity.Series{Magnitudes: cols[5], Unit: temp},
		Deep:            quantity.Series{Magnitudes: cols[6], Unit: temp},
		Metrics:         meta.Metrics,
	}, nil
}
