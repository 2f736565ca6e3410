package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/san-kum/twolayer/internal/config"
	"github.com/san-kum/twolayer/internal/experiment"
	"github.com/stretchr/testify/require"
)

func runResult(t *testing.T, years int) *experiment.Result {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Forcing.Years = years
	e := experiment.New(cfg)
	require.NoError(t, e.Setup(experiment.NewRegistry()))
	res, err := e.Run(context.Background())
	require.NoError(t, err)
	return res
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())

	res := runResult(t, 20)
	runID, err := st.Save("abrupt-2x", res)
	require.NoError(t, err)
	_, err = uuid.Parse(runID)
	require.NoError(t, err)

	meta, err := st.Load(runID)
	require.NoError(t, err)
	require.Equal(t, res.Model, meta.Model)
	require.Equal(t, "abrupt-2x", meta.Scenario)
	require.Equal(t, 20, meta.Steps)
	require.Equal(t, res.TwoLayer, meta.TwoLayer)
	require.Equal(t, finiteMetrics(res.Metrics), meta.Metrics)

	got, err := st.LoadResult(runID)
	require.NoError(t, err)
	require.Equal(t, res.Times, got.Times)
	require.Equal(t, res.Temp1, got.Temp1)
	require.Equal(t, res.Rndt, got.Rndt)
	require.Equal(t, res.Deep, got.Deep)
	require.Equal(t, res.DeltaT, got.DeltaT)
}

func TestStoreList(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)

	runs, err := New(filepath.Join(dir, "missing")).List()
	require.NoError(t, err)
	require.Empty(t, runs)

	require.NoError(t, st.Init())
	first, err := st.Save("a", runResult(t, 5))
	require.NoError(t, err)
	second, err := st.Save("b", runResult(t, 6))
	require.NoError(t, err)

	// ignored: not a run
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "scratch"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0644))

	runs, err = st.List()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	ids := []string{runs[0].ID, runs[1].ID}
	require.ElementsMatch(t, []string{first, second}, ids)
}

func TestLoadResultMalformed(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())

	runID, err := st.Save("x", runResult(t, 3))
	require.NoError(t, err)
	path := filepath.Join(st.baseDir, runID, outputsFile)
	require.NoError(t, os.WriteFile(path, []byte("time,forcing\n0,0\n"), 0644))

	_, err = st.LoadResult(runID)
	require.ErrorIs(t, err, ErrMalformedOutputs)

	_, err = st.LoadResult("nope")
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestSaveFailureLeavesNoRun(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)
	require.NoError(t, st.Init())

	res := runResult(t, 3)
	res.DeltaT.Magnitude = math.NaN()
	runID, err := st.Save("x", res)
	require.Error(t, err)
	require.Empty(t, runID)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestWriteFileReportsErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out")
	errWrite := errors.New("write failed")
	require.ErrorIs(t, writeFile(path, func(io.Writer) error { return errWrite }), errWrite)

	require.NoError(t, writeFile(path, func(w io.Writer) error {
		_, err := w.Write([]byte("ok"))
		return err
	}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "ok", string(data))

	require.Error(t, writeFile(filepath.Join(path, "nested"), func(io.Writer) error { return nil }))
}

func TestExportJSON(t *testing.T) {
	res := runResult(t, 4)

	var buf bytes.Buffer
	require.NoError(t, ExportJSON(&buf, "abrupt-2x", res))

	var doc struct {
		Scenario string             `json:"scenario"`
		Steps    int                `json:"steps"`
		Model    string             `json:"model"`
		Metrics  map[string]float64 `json:"metrics"`
		Upper    struct {
			Values []float64 `json:"values"`
			Unit   string    `json:"unit"`
		} `json:"upper"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	require.Equal(t, "abrupt-2x", doc.Scenario)
	require.Equal(t, 4, doc.Steps)
	require.Equal(t, res.Model, doc.Model)
	require.Equal(t, res.Upper.Magnitudes, doc.Upper.Values)
	require.Equal(t, "delta_degC", doc.Upper.Unit)
	require.Equal(t, finiteMetrics(res.Metrics), doc.Metrics)
	require.NotContains(t, doc.Metrics, "equilibration")

	path := filepath.Join(t.TempDir(), "run.json")
	require.NoError(t, ExportJSONFile(path, "abrupt-2x", res))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, buf.Bytes(), data)
}
