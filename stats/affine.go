package stats

import (
	"errors"
	"math"
)

var (
	ErrUnsupportedTransform = errors.New("unsupported raster geotransform")
)

// Affine is a GDAL geotransform:
// [originX, pixelWidth, rowRotation, originY, colRotation, pixelHeight].
type Affine [6]float64

// 单个像元面积（坐标系单位的平方），不校验坐标系是否为投影坐标系
func (a Affine) PixelArea() float64 {
	return math.Abs(a[1] * a[5])
}

// 是否为北向上、无旋转的栅格
func (a Affine) NorthUp() bool {
	return a[2] == 0 && a[4] == 0 && a[1] > 0 && a[5] < 0
}

// Window is a pixel rectangle inside a raster.
type Window struct {
	Col, Row      int
	Width, Height int
}

func (w Window) Empty() bool {
	return w.Width <= 0 || w.Height <= 0
}

func (w Window) Size() int {
	if w.Empty() {
		return 0
	}
	return w.Width * w.Height
}

// 计算范围覆盖的像元窗口，已裁剪至栅格范围内
func (a Affine) WindowOf(minX, minY, maxX, maxY float64, width, height int) (w Window, err error) {
	if !a.NorthUp() {
		err = ErrUnsupportedTransform
		return
	}
	if minX > maxX || minY > maxY {
		return
	}
	c0 := int(math.Floor((minX - a[0]) / a[1]))
	c1 := int(math.Ceil((maxX - a[0]) / a[1]))
	r0 := int(math.Floor((maxY - a[3]) / a[5]))
	r1 := int(math.Ceil((minY - a[3]) / a[5]))
	c0, c1 = clamp(c0, 0, width), clamp(c1, 0, width)
	r0, r1 = clamp(r0, 0, height), clamp(r1, 0, height)
	w = Window{Col: c0, Row: r0, Width: c1 - c0, Height: r1 - r0}
	return
}

// 窗口的地理范围 minX, minY, maxX, maxY，与gdal_rasterize的-te参数顺序一致
func (a Affine) Extent(w Window) [4]float64 {
	return [4]float64{
		a[0] + float64(w.Col)*a[1],
		a[3] + float64(w.Row+w.Height)*a[5],
		a[0] + float64(w.Col+w.Width)*a[1],
		a[3] + float64(w.Row)*a[5],
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
