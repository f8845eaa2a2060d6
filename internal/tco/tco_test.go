package tco

import (
	"math"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnergyCosts(t *testing.T) {
	assert.InDelta(t, 470.4, EVEnergyCost(12000, 28, 0.14), 1e-9)

	got, err := ICEEnergyCost(12000, 30, 3.8)
	require.NoError(t, err)
	assert.InDelta(t, 1520.0, got, 1e-9)

	for _, mpg := range []float64{0, -5, math.NaN()} {
		_, err := ICEEnergyCost(12000, mpg, 3.8)
		require.Error(t, err)
		assert.True(t, eris.Is(err, ErrInvalidMPG))
	}
}

func TestCurve(t *testing.T) {
	assert.Equal(t, []float64{110, 120, 130}, Curve(100, 4, 6, 3))
	assert.Nil(t, Curve(100, 4, 6, 0))
}

func TestProjectDefaultsNeverBreakEven(t *testing.T) {
	p, err := Project(DefaultAssumptions())
	require.NoError(t, err)
	require.Len(t, p.EV, 10)
	assert.InDelta(t, 56204.0, p.EV[9], 1e-6)
	assert.InDelta(t, 55200.0, p.ICE[9], 1e-6)
	assert.Equal(t, 0, p.Breakeven)
}

func TestProjectLongerHorizonBreaksEven(t *testing.T) {
	a := DefaultAssumptions()
	a.Years = 15
	p, err := Project(a)
	require.NoError(t, err)
	assert.Equal(t, 11, p.Breakeven)
}

func TestProjectErrors(t *testing.T) {
	a := DefaultAssumptions()
	a.Years = 0
	_, err := Project(a)
	assert.Error(t, err)

	a = DefaultAssumptions()
	a.ICEMPG = 0
	_, err = Project(a)
	assert.True(t, eris.Is(err, ErrInvalidMPG))
}

func TestBreakevenFirstYear(t *testing.T) {
	y, ok := Breakeven([]float64{10, 20}, []float64{10, 30})
	assert.True(t, ok)
	assert.Equal(t, 1, y)

	_, ok = Breakeven(nil, nil)
	assert.False(t, ok)
}

func TestMedian(t *testing.T) {
	m, ok := Median([]float64{5, math.NaN(), 1, 3, math.Inf(1)})
	assert.True(t, ok)
	assert.Equal(t, 3.0, m)

	m, ok = Median([]float64{4, 1, 2, 3})
	assert.True(t, ok)
	assert.Equal(t, 2.5, m)

	_, ok = Median([]float64{math.NaN()})
	assert.False(t, ok)
}
