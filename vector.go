package zonalstats

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wgdzlh/zonalstats/log"
	"github.com/wgdzlh/zonalstats/utils"

	"github.com/google/uuid"
	"github.com/lukeroth/gdal"
	"go.uber.org/zap"
)

// 按扩展名选择OGR驱动
func vectorDriverName(path string) (name string, err error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case utils.FILE_EXT_GPKG:
		name = GPKG_DRIVER_NAME
	case utils.FILE_EXT_SHP:
		name = SHP_DRIVER_NAME
	case utils.FILE_EXT_GEOJSON, utils.FILE_EXT_JSON:
		name = GEOJSON_DRIVER_NAME
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedVector, path)
	}
	return
}

func (g *ZonalToolbox) openVector(path string) (ds gdal.DataSource, err error) {
	if _, err = os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			err = fmt.Errorf("%w: %s", ErrBoundaryNotFound, path)
		}
		return
	}
	if path, err = g.recodeShapefile(path); err != nil {
		return
	}
	name, err := vectorDriverName(path)
	if err != nil {
		return
	}
	driver := gdal.OGRDriverByName(name)
	ds, ok := driver.Open(path, 0)
	if !ok {
		err = fmt.Errorf("%w: %s", ErrGdalDriverOpen, path)
	}
	return
}

// OGR读取的文本均为UTF-8：gpkg/geojson本身即为UTF-8，shp按cpg/LDID转码。
// 配置了encoding时，按该编码打开shp并转存为临时gpkg（每个文件只转一次，Close时删除）
func (g *ZonalToolbox) recodeShapefile(shp string) (out string, err error) {
	if g.encoding == "" || strings.ToLower(filepath.Ext(shp)) != utils.FILE_EXT_SHP {
		return shp, nil
	}
	if out = g.recoded[shp]; out != "" {
		return
	}
	sds, err := gdal.OpenEx(shp, gdal.OFVector, nil, []string{OO_ENCODING_PREFIX + g.encoding}, nil)
	if err != nil {
		log.Error(g.logTag+"open shp error", zap.String("shp", shp), zap.Error(err))
		return
	}
	defer sds.Close()
	out = filepath.Join(g.cfg.TempDir(), fmt.Sprintf(TMP_RECODED_GPKG, uuid.NewString()))
	dds, err := gdal.VectorTranslate(out, []gdal.Dataset{sds}, []string{"-f", GPKG_DRIVER_NAME, "-nln", utils.GetFilenameWithoutExt(shp)})
	if err != nil {
		log.Error(g.logTag+"VectorTranslate failed", zap.String("shp", shp), zap.Error(err))
		return
	}
	dds.Close() // 生成转码后的gpkg文件
	g.recoded[shp] = out
	log.Info(g.logTag+"shp recoded", zap.String("shp", shp), zap.String("encoding", g.encoding), zap.String("out", out))
	return
}

func (g *ZonalToolbox) boundaryPath(limit string) (path string, err error) {
	b, ok := g.cfg.Boundary(limit)
	if !ok {
		err = fmt.Errorf("%w: %s", ErrUnknownBoundary, limit)
		return
	}
	path = g.cfg.BoundaryPath(b)
	return
}

// 读取边界数据集（municipios或subbacias）
func (g *ZonalToolbox) OpenBoundary(limit string) (set *BoundarySet, err error) {
	path, err := g.boundaryPath(limit)
	if err != nil {
		return
	}
	log.Info(g.logTag+"open boundary", zap.String("limit", limit), zap.String("path", path))
	ds, err := g.openVector(path)
	if err != nil {
		return
	}
	defer ds.Destroy()
	layer := ds.LayerByIndex(0)
	limitIdx := layer.Definition().FieldIndex(g.cfg.LimitField)
	if limitIdx < 0 {
		err = fmt.Errorf(ErrColumnMissingTemplate, g.cfg.LimitField)
		return
	}
	set = &BoundarySet{
		Limit: limit,
		Path:  path,
	}
	if wkt, e := layer.SpatialReference().ToWKT(); e == nil {
		set.SrsWkt = wkt
	} else {
		log.Warn(g.logTag+"boundary layer without srs", zap.String("path", path))
	}
	n := 128
	if nf, ok := layer.FeatureCount(false); ok && nf > 0 {
		n = nf
	}
	set.Features = make([]BoundaryFeature, 0, n)
	var (
		feature *gdal.Feature
		geo     gdal.Geometry
		wkb     []byte
		limite  string
		gc      []destroyable
	)
	defer func() {
		for _, v := range gc {
			v.Destroy()
		}
	}()
	for {
		if feature = layer.NextFeature(); feature != nil {
			gc = append(gc, *feature)
			if limite = feature.FieldAsString(limitIdx); limite == "" {
				err = fmt.Errorf(ErrColumnEmptyTemplate, g.cfg.LimitField)
				return nil, err
			}
			geo = feature.Geometry()
			if wkb, err = geo.ToWKB(); err != nil {
				log.Error(g.logTag+"err in wkb convert", zap.Int64("fid", feature.FID()), zap.Error(err))
				return nil, err
			}
			set.Features = append(set.Features, BoundaryFeature{
				Limite: limite,
				Geom:   wkb,
			})
		} else {
			break
		}
	}
	if len(set.Features) == 0 {
		err = fmt.Errorf("%w: %s", ErrGdalEmptyShp, path)
		return nil, err
	}
	log.Info(g.logTag+"boundary loaded", zap.String("limit", limit), zap.Int("features", len(set.Features)))
	return
}

// 获取边界数据集中去重排序后的区域标识
func (g *ZonalToolbox) ListLimits(limit string) (limites []string, set *BoundarySet, err error) {
	if set, err = g.OpenBoundary(limit); err != nil {
		return
	}
	limites = set.Limites()
	log.Info(g.logTag+"got limits", zap.String("limit", limit), zap.Int("cnt", len(limites)))
	return
}
