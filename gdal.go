package zonalstats

import (
	"os"

	"github.com/wgdzlh/zonalstats/log"
	"github.com/wgdzlh/zonalstats/utils"

	"github.com/google/uuid"
	"github.com/lukeroth/gdal"
	"go.uber.org/zap"
)

type ZonalToolbox struct {
	cfg      *Config
	refMap   map[string]gdal.SpatialReference
	recoded  map[string]string // shp路径 -> 转为UTF-8的临时gpkg
	encoding string            // shp属性表编码，为空时由OGR自行判断
	years    *utils.YearParser
	runId    string
	logTag   string
}

// 由GDAL库C语言创建的内存对象，需要手动调用Destroy回收
type destroyable interface {
	Destroy()
}

// 初始化统计工具箱，cfg为nil时使用默认配置
func NewZonalToolbox(cfg *Config) (g *ZonalToolbox, err error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err = cfg.Validate(); err != nil {
		return
	}
	g = &ZonalToolbox{
		cfg:     cfg,
		refMap:  map[string]gdal.SpatialReference{},
		recoded: map[string]string{},
		runId:   uuid.NewString(),
		logTag:  "ZonalToolbox:",
	}
	if g.years, err = utils.NewYearParser(cfg.YearPattern); err != nil {
		return nil, err
	}
	if g.encoding, err = utils.CheckEncoding(cfg.Encoding); err != nil {
		return nil, err
	}
	log.Info(g.logTag+"toolbox ready", zap.String("run", g.runId), zap.String("input", cfg.InputDir),
		zap.String("output", cfg.OutputDir), zap.String("encoding", cfg.Encoding))
	return
}

func (g *ZonalToolbox) Config() *Config {
	return g.cfg
}

// 释放缓存的坐标系，删除转码产生的临时文件
func (g *ZonalToolbox) Close() {
	for k, ref := range g.refMap {
		ref.Destroy()
		delete(g.refMap, k)
	}
	for k, tmp := range g.recoded {
		if err := os.Remove(tmp); err != nil && !os.IsNotExist(err) {
			log.Warn(g.logTag+"remove recoded boundary failed", zap.String("tmp", tmp), zap.Error(err))
		}
		delete(g.recoded, k)
	}
}

// 获取WKT对应的坐标系（可复用，故无需回收）
func (g *ZonalToolbox) getWktRef(wkt string) (ref gdal.SpatialReference, err error) {
	ref, ok := g.refMap[wkt]
	if ok {
		return
	}
	ref = gdal.CreateSpatialReference("")
	if err = ref.FromWKT(wkt); err != nil {
		log.Error(g.logTag+"set ref from wkt failed", zap.Error(err))
		ref.Destroy()
		return
	}
	// 数据轴次序固定为(x,y)（传统GIS坐标序），与栅格的仿射变换一致
	ref.SetAxisMappingStrategy(gdal.OAMS_TraditionalGisOrder)
	g.refMap[wkt] = ref
	return
}

// 两个WKT是否描述同一坐标系；任一为空时视为相同（不做转换）
func (g *ZonalToolbox) sameSrs(aWkt, bWkt string) (same bool, err error) {
	if aWkt == "" || bWkt == "" || aWkt == bWkt {
		return true, nil
	}
	aRef, err := g.getWktRef(aWkt)
	if err != nil {
		return
	}
	bRef, err := g.getWktRef(bWkt)
	if err != nil {
		return
	}
	same = aRef.IsSame(bRef)
	return
}

func (g *ZonalToolbox) parseWKB(wkb GdalGeo, ref gdal.SpatialReference) (ret gdal.Geometry, err error) {
	ret, err = gdal.CreateFromWKB(wkb, ref, len(wkb))
	if err != nil {
		log.Error(g.logTag+"parse wkb failed", zap.Error(err))
	}
	return
}

// 将边界要素解析为dstWkt坐标系下的几何，按区域分组；坐标系不同时先做转换
// 返回的几何需由调用方回收
func (g *ZonalToolbox) zoneGeometries(set *BoundarySet, dstWkt string) (zones map[string][]gdal.Geometry, err error) {
	same, err := g.sameSrs(set.SrsWkt, dstWkt)
	if err != nil {
		return
	}
	var sRef, tRef gdal.SpatialReference
	if set.SrsWkt != "" {
		if sRef, err = g.getWktRef(set.SrsWkt); err != nil {
			return
		}
	}
	if !same {
		if tRef, err = g.getWktRef(dstWkt); err != nil {
			return
		}
		log.Info(g.logTag+"reproject boundaries to raster srs", zap.String("limit", set.Limit))
	}
	zones = make(map[string][]gdal.Geometry, len(set.Features))
	defer func() {
		if err != nil {
			destroyZones(zones)
			zones = nil
		}
	}()
	var geo gdal.Geometry
	for limite, fs := range set.Group() {
		for _, f := range fs {
			if geo, err = g.parseWKB(f.Geom, sRef); err != nil {
				return
			}
			zones[limite] = append(zones[limite], geo)
			if same {
				continue
			}
			if err = geo.TransformTo(tRef); err != nil {
				log.Error(g.logTag+"geo transform failed", zap.String("limite", limite), zap.Error(err))
				return
			}
		}
	}
	return
}

func destroyZones(zones map[string][]gdal.Geometry) {
	for _, gs := range zones {
		for _, geo := range gs {
			geo.Destroy()
		}
	}
}
