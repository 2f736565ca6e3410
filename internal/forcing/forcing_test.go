package forcing

import (
	"math"
	"strings"
	"testing"

	"github.com/san-kum/twolayer/internal/conversion"
	"github.com/san-kum/twolayer/internal/quantity"
	"github.com/stretchr/testify/require"
)

func TestConstantAndAbrupt(t *testing.T) {
	s, err := Constant(quantity.New(2, "W/m^2"), 3)
	require.NoError(t, err)
	require.Equal(t, []float64{2, 2, 2}, s.Magnitudes)
	require.Equal(t, conversion.UnitFlux, s.Unit)

	s, err = Abrupt(quantity.New(3.74, "W/m^2"), 4)
	require.NoError(t, err)
	require.Equal(t, []float64{0, 3.74, 3.74, 3.74}, s.Magnitudes)

	_, err = Abrupt(quantity.New(3.74, "W/m^2"), 0)
	require.ErrorIs(t, err, ErrEmpty)

	_, err = Constant(quantity.New(1, "K"), 2)
	require.ErrorIs(t, err, quantity.ErrIncompatibleUnits)
}

func TestRamp(t *testing.T) {
	s, err := Ramp(conversion.ForcingDoubling, 0.01, 71)
	require.NoError(t, err)
	require.Zero(t, s.Magnitudes[0])

	// CO2 doubles after ln 2 / ln 1.01 ~ 69.7 years
	tDouble := math.Ln2 / math.Log(1.01)
	require.InDelta(t, 3.74*70/tDouble, s.Magnitudes[70], 1e-12)
	require.Less(t, s.Magnitudes[69], 3.74)
	require.Greater(t, s.Magnitudes[70], 3.74)

	_, err = Ramp(conversion.ForcingDoubling, -1, 10)
	require.ErrorIs(t, err, ErrBadValue)
}

func TestNamed(t *testing.T) {
	s, err := Named("abrupt-4x", quantity.Quantity{}, 3)
	require.NoError(t, err)
	require.InDelta(t, 7.48, s.Magnitudes[2], 1e-12)

	s, err = Named("Constant", quantity.New(1, "W/m^2"), 2)
	require.NoError(t, err)
	require.Equal(t, []float64{1, 1}, s.Magnitudes)

	_, err = Named("historical", quantity.Quantity{}, 3)
	require.ErrorIs(t, err, ErrUnknownShape)

	require.Equal(t, []string{"1pct", "abrupt", "abrupt-2x", "abrupt-4x", "constant"}, Names())
}

func TestLoadCSV(t *testing.T) {
	in := `# historical ERF
year,erf
1850,0.0
1851, 0.25

1852,0.5
`
	s, err := LoadCSV(strings.NewReader(in), "")
	require.NoError(t, err)
	require.Equal(t, []float64{0, 0.25, 0.5}, s.Magnitudes)

	s, err = LoadCSV(strings.NewReader("1\n2\n"), "W/km^2")
	require.NoError(t, err)
	require.InDelta(t, 2e-6, s.Magnitudes[1], 1e-18)

	_, err = LoadCSV(strings.NewReader("erf\n"), "")
	require.ErrorIs(t, err, ErrEmpty)

	_, err = LoadCSV(strings.NewReader("1\nabc\n"), "")
	require.ErrorIs(t, err, ErrBadValue)
}
