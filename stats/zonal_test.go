package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mask of a window with every pixel inside the zone
func fullMask(t *testing.T, w Window) Mask {
	t.Helper()
	burnt := make([]uint8, w.Size())
	for i := range burnt {
		burnt[i] = 1
	}
	m, err := NewMask(w, burnt)
	require.NoError(t, err)
	return m
}

// 20x20 grid of 30m pixels, class 10 in the upper-left quarter, class 20 elsewhere.
func landuseGrid() *Grid {
	g := &Grid{
		Affine: Affine{0, 30, 0, 600, 0, -30},
		Width:  20,
		Height: 20,
		Data:   make([]float64, 400),
	}
	for r := 0; r < 20; r++ {
		for c := 0; c < 20; c++ {
			if r < 10 && c < 10 {
				g.Data[r*20+c] = 10
			} else {
				g.Data[r*20+c] = 20
			}
		}
	}
	return g
}

func TestPixelArea(t *testing.T) {
	assert.Equal(t, 900.0, Affine{0, 30, 0, 600, 0, -30}.PixelArea())
	assert.Equal(t, 900.0, Affine{0, -30, 0, 600, 0, 30}.PixelArea())
	assert.Equal(t, 0.25, Affine{10, 0.5, 0, 0, 0, 0.5}.PixelArea())
}

func TestWindowOf(t *testing.T) {
	a := Affine{0, 30, 0, 600, 0, -30}
	w, err := a.WindowOf(45, 400, 100, 590, 20, 20)
	require.NoError(t, err)
	assert.Equal(t, Window{Col: 1, Row: 0, Width: 3, Height: 7}, w)
	assert.Equal(t, [4]float64{30, 390, 120, 600}, a.Extent(w))

	w, err = a.WindowOf(-500, -500, -100, -100, 20, 20)
	require.NoError(t, err)
	assert.True(t, w.Empty())

	// partly outside the raster is clamped
	w, err = a.WindowOf(550, -100, 700, 100, 20, 20)
	require.NoError(t, err)
	assert.Equal(t, Window{Col: 18, Row: 16, Width: 2, Height: 4}, w)

	_, err = Affine{0, 30, 0.1, 600, 0, -30}.WindowOf(0, 0, 1, 1, 20, 20)
	assert.ErrorIs(t, err, ErrUnsupportedTransform)
	_, err = Affine{0, 30, 0, 0, 0, 30}.WindowOf(0, 0, 1, 1, 20, 20)
	assert.ErrorIs(t, err, ErrUnsupportedTransform)
}

func TestNewMask(t *testing.T) {
	w := Window{Col: 1, Row: 1, Width: 2, Height: 2}
	m, err := NewMask(w, []uint8{1, 0, 0, 255})
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, false, true}, m.Cells)
	assert.Equal(t, 2, m.Count())

	_, err = NewMask(w, []uint8{1})
	assert.ErrorIs(t, err, ErrMaskSize)
}

func TestHistogramMasked(t *testing.T) {
	g := landuseGrid()
	// window straddling both classes, only the left column burnt
	w := Window{Col: 9, Row: 0, Width: 2, Height: 3}
	m, err := NewMask(w, []uint8{1, 0, 1, 0, 1, 0})
	require.NoError(t, err)
	h, err := Histogram(g, m)
	require.NoError(t, err)
	assert.Equal(t, map[int]int{10: 3}, h)

	h, err = Histogram(g, fullMask(t, w))
	require.NoError(t, err)
	assert.Equal(t, map[int]int{10: 3, 20: 3}, h)
}

func TestHistogramScenario(t *testing.T) {
	g := landuseGrid()
	h, err := Histogram(g, fullMask(t, Window{Width: 10, Height: 10}))
	require.NoError(t, err)
	assert.Equal(t, map[int]int{10: 100}, h)

	area := float64(h[10]) * g.Affine.PixelArea() / 100000
	assert.InDelta(t, 0.9, area, 1e-9)
}

func TestHistogramNoCoverage(t *testing.T) {
	h, err := Histogram(landuseGrid(), Mask{})
	require.NoError(t, err)
	assert.Empty(t, h)

	w := Window{Width: 2, Height: 1}
	m, err := NewMask(w, []uint8{0, 0})
	require.NoError(t, err)
	h, err = Histogram(landuseGrid(), m)
	require.NoError(t, err)
	assert.Empty(t, h)

	_, err = Histogram(landuseGrid(), Mask{Window: w, Cells: []bool{true}})
	assert.ErrorIs(t, err, ErrMaskSize)
}

func TestSummarizeSkipsNoData(t *testing.T) {
	g := &Grid{
		Affine:    Affine{0, 1, 0, 2, 0, -1},
		Width:     2,
		Height:    2,
		Data:      []float64{-9999, 27.8, math.NaN(), 12.5},
		NoDataVal: -9999,
		HasNoData: true,
	}
	s, err := Summarize(g, fullMask(t, Window{Width: 2, Height: 2}))
	require.NoError(t, err)
	assert.Equal(t, 2, s.Count)
	assert.InDelta(t, 40.3, s.Sum, 1e-9)
	assert.Equal(t, 27.8, s.Max)
	assert.Equal(t, 12.5, s.Min)

	mean, ok := StatMean.Of(s)
	require.True(t, ok)
	assert.InDelta(t, 20.15, mean, 1e-9)
	assert.Equal(t, 20, StatMean.Truncated(s))
	assert.Equal(t, 27, StatMax.Truncated(s))
}

func TestTruncatedWithoutPixels(t *testing.T) {
	g := &Grid{
		Affine:    Affine{0, 1, 0, 1, 0, -1},
		Width:     1,
		Height:    1,
		Data:      []float64{-1},
		NoDataVal: -1,
		HasNoData: true,
	}
	s, err := Summarize(g, fullMask(t, Window{Width: 1, Height: 1}))
	require.NoError(t, err)
	_, ok := StatMax.Of(s)
	assert.False(t, ok)
	assert.Equal(t, 0, StatMax.Truncated(s))
	assert.Equal(t, 0, StatMean.Truncated(s))
}

func TestTruncatedTowardZero(t *testing.T) {
	s := Summary{Count: 1, Sum: -3.7, Min: -3.7, Max: -3.7}
	assert.Equal(t, -3, StatMax.Truncated(s))
	assert.Equal(t, -3, StatMean.Truncated(s))
}

func TestStatisticValid(t *testing.T) {
	assert.True(t, StatMean.Valid())
	assert.True(t, StatMax.Valid())
	assert.False(t, Statistic("median").Valid())
}
