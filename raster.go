package zonalstats

import (
	"fmt"
	"os"

	"github.com/wgdzlh/zonalstats/log"
	"github.com/wgdzlh/zonalstats/stats"
	"github.com/wgdzlh/zonalstats/utils"

	"github.com/lukeroth/gdal"
	"go.uber.org/zap"
)

// 单波段栅格，按窗口读取像元值
type RasterBand struct {
	Path      string
	Wkt       string // 栅格坐标系WKT，可为空
	ds        gdal.Dataset
	band      gdal.RasterBand
	affine    stats.Affine
	width     int
	height    int
	noData    float64
	hasNoData bool
}

// 打开栅格的第一个波段，使用完毕后需调用Close
func (g *ZonalToolbox) OpenRaster(tif string) (r *RasterBand, err error) {
	if _, err = os.Stat(tif); err != nil {
		return
	}
	ds, err := gdal.Open(tif, gdal.ReadOnly)
	if err != nil {
		log.Error(g.logTag+"open tif failed", zap.String("tif", tif), zap.Error(err))
		err = fmt.Errorf("%w: %s", ErrInvalidTif, tif)
		return
	}
	if bc := ds.RasterCount(); bc < 1 {
		log.Error(g.logTag+"tif has no band", zap.String("tif", tif))
		ds.Close()
		err = fmt.Errorf("%w: %s", ErrWrongTif, tif)
		return
	}
	r = &RasterBand{
		Path:   tif,
		Wkt:    ds.Projection(),
		ds:     ds,
		band:   ds.RasterBand(1),
		affine: stats.Affine(ds.GeoTransform()),
		width:  ds.RasterXSize(),
		height: ds.RasterYSize(),
	}
	r.noData, r.hasNoData = r.band.NoDataValue()
	log.Debug(g.logTag+"open tif", zap.String("tif", tif), zap.Int("width", r.width), zap.Int("height", r.height),
		zap.Float64s("transform", r.affine[:]), zap.Bool("hasNoData", r.hasNoData))
	return
}

func (r *RasterBand) Transform() stats.Affine {
	return r.affine
}

func (r *RasterBand) Size() (int, int) {
	return r.width, r.height
}

func (r *RasterBand) NoData() (float64, bool) {
	return r.noData, r.hasNoData
}

func (r *RasterBand) ReadWindow(w stats.Window) (buf []float64, err error) {
	buf = make([]float64, w.Size())
	if len(buf) == 0 {
		return
	}
	if err = r.band.IO(gdal.Read, w.Col, w.Row, w.Width, w.Height, buf, w.Width, w.Height, 0, 0); err != nil {
		err = fmt.Errorf("%w: %s: %v", ErrTifReadFailed, r.Path, err)
	}
	return
}

func (r *RasterBand) Close() {
	r.ds.Close()
}

// 计算像元面积（像元宽×高的绝对值）。注意：不校验坐标系，地理坐标系下结果无意义
func (g *ZonalToolbox) PixelArea(tif string) (area float64, err error) {
	r, err := g.OpenRaster(tif)
	if err != nil {
		return
	}
	defer r.Close()
	area = r.affine.PixelArea()
	g.warnGeographic(r)
	log.Info(g.logTag+"got pixel area", zap.String("tif", tif), zap.Float64("area", area))
	return
}

func (g *ZonalToolbox) warnGeographic(r *RasterBand) {
	if r.Wkt == "" {
		return
	}
	ref, err := g.getWktRef(r.Wkt)
	if err != nil {
		return
	}
	if ref.IsGeographic() {
		log.Warn(g.logTag+"pixel area of a geographic srs is in squared degrees", zap.String("tif", r.Path))
	}
}

// 列出气象变量目录下的全部tif，按路径排序（文件名中含年份）
func (g *ZonalToolbox) RasterPaths(v ClimateVariable) (paths []string, err error) {
	dir := g.cfg.RasterPath(v.Dir)
	if paths, err = utils.ListFiles(dir, utils.FILE_EXT_TIF); err != nil {
		return
	}
	log.Info(g.logTag+"got raster paths", zap.String("variable", v.Variable), zap.String("dir", dir), zap.Int("cnt", len(paths)))
	return
}
