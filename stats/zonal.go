package stats

import (
	"math"
)

// Raster is a single band grid readable by pixel window.
type Raster interface {
	Transform() Affine
	Size() (width, height int)
	NoData() (value float64, ok bool)
	ReadWindow(w Window) ([]float64, error)
}

// 遍历掩膜内的有效像元（排除nodata及NaN）
func eachValid(r Raster, m Mask, fn func(v float64)) (err error) {
	if m.Empty() {
		return
	}
	if len(m.Cells) != m.Window.Size() {
		return ErrMaskSize
	}
	buf, err := r.ReadWindow(m.Window)
	if err != nil {
		return
	}
	noData, hasNoData := r.NoData()
	for i, in := range m.Cells {
		if !in {
			continue
		}
		v := buf[i]
		if math.IsNaN(v) || (hasNoData && v == noData) {
			continue
		}
		fn(v)
	}
	return
}

// 分类直方图：类别值 -> 像元数，区域内无有效像元时返回空map
func Histogram(r Raster, m Mask) (counts map[int]int, err error) {
	counts = map[int]int{}
	err = eachValid(r, m, func(v float64) {
		counts[int(v)]++
	})
	return
}

// Summary accumulates the valid pixels of one zone.
type Summary struct {
	Count int
	Sum   float64
	Min   float64
	Max   float64
}

func (s Summary) Mean() (float64, bool) {
	if s.Count == 0 {
		return 0, false
	}
	return s.Sum / float64(s.Count), true
}

func (s Summary) Maximum() (float64, bool) {
	return s.Max, s.Count > 0
}

func (s Summary) Minimum() (float64, bool) {
	return s.Min, s.Count > 0
}

func Summarize(r Raster, m Mask) (s Summary, err error) {
	s.Min = math.Inf(1)
	s.Max = math.Inf(-1)
	err = eachValid(r, m, func(v float64) {
		s.Count++
		s.Sum += v
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	})
	return
}

// Statistic selects the scalar reduction of a Summary.
type Statistic string

const (
	StatMean Statistic = "mean"
	StatMax  Statistic = "max"
	StatMin  Statistic = "min"
)

func (st Statistic) Valid() bool {
	switch st {
	case StatMean, StatMax, StatMin:
		return true
	}
	return false
}

// 取统计值，无有效像元时ok为false
func (st Statistic) Of(s Summary) (v float64, ok bool) {
	switch st {
	case StatMean:
		return s.Mean()
	case StatMax:
		return s.Maximum()
	case StatMin:
		return s.Minimum()
	}
	return
}

// 取整（向零截断）后的统计值，无有效像元时为0
func (st Statistic) Truncated(s Summary) int {
	v, ok := st.Of(s)
	if !ok {
		return 0
	}
	return int(v)
}

// Grid is an in-memory Raster.
type Grid struct {
	Affine    Affine
	Width     int
	Height    int
	Data      []float64
	NoDataVal float64
	HasNoData bool
}

func (g *Grid) Transform() Affine {
	return g.Affine
}

func (g *Grid) Size() (int, int) {
	return g.Width, g.Height
}

func (g *Grid) NoData() (float64, bool) {
	return g.NoDataVal, g.HasNoData
}

func (g *Grid) ReadWindow(w Window) ([]float64, error) {
	buf := make([]float64, w.Size())
	for r := 0; r < w.Height; r++ {
		src := g.Data[(w.Row+r)*g.Width+w.Col:]
		copy(buf[r*w.Width:(r+1)*w.Width], src[:w.Width])
	}
	return buf, nil
}
