package zonalstats

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/wgdzlh/zonalstats/log"
	"github.com/wgdzlh/zonalstats/stats"
	"github.com/wgdzlh/zonalstats/utils"

	"github.com/lukeroth/gdal"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// 将统计宽表按区域标识与边界要素做内连接，写入GeoPackage
// 先写入同目录临时文件，成功后再重命名为out
func (g *ZonalToolbox) Export(limit string, table *stats.Table, out string) (cnt int, err error) {
	if e := utils.CheckDir(filepath.Dir(out)); e != nil {
		err = fmt.Errorf("%w: %v", ErrOutputDirMissing, e)
		return
	}
	path, err := g.boundaryPath(limit)
	if err != nil {
		return
	}
	sds, err := g.openVector(path)
	if err != nil {
		return
	}
	defer sds.Destroy()
	tmp := utils.GetTmpSibling(out)
	defer func() {
		if err == nil {
			return
		}
		if e := os.Remove(tmp); e != nil && !os.IsNotExist(e) {
			err = multierr.Append(err, e)
		}
	}()
	if cnt, err = g.writeJoined(sds.LayerByIndex(0), table, tmp, utils.GetFilenameWithoutExt(out)); err != nil {
		return
	}
	if cnt == 0 {
		err = fmt.Errorf("%w: %s", ErrEmptyJoin, out)
		return
	}
	if err = os.Rename(tmp, out); err != nil {
		return
	}
	log.Info(g.logTag+"output gpkg done", zap.String("out", out), zap.Int("features", cnt),
		zap.Int("rows", len(table.Rows)), zap.Strings("columns", table.Labels()))
	return
}

func (g *ZonalToolbox) writeJoined(layer gdal.Layer, table *stats.Table, out, layerName string) (cnt int, err error) {
	def := layer.Definition()
	limitIdx := def.FieldIndex(g.cfg.LimitField)
	if limitIdx < 0 {
		err = fmt.Errorf(ErrColumnMissingTemplate, g.cfg.LimitField)
		return
	}
	driver := gdal.OGRDriverByName(GPKG_DRIVER_NAME)
	ods, ok := driver.Create(out, nil)
	if !ok {
		err = ErrGdalDriverCreate
		return
	}
	defer ods.Destroy() // 生成gpkg文件 + 释放资源
	oLayer := ods.CreateLayer(layerName, layer.SpatialReference(), layer.Type(), nil)
	nSrc := def.FieldCount()
	srcTypes := make([]gdal.FieldType, nSrc)
	for i := 0; i < nSrc; i++ {
		fd := def.FieldDefinition(i)
		srcTypes[i] = fd.Type()
		if err = oLayer.CreateField(fd, true); err != nil {
			log.Error(g.logTag+"create source field failed", zap.String("field", fd.Name()), zap.Error(err))
			return
		}
	}
	statType := gdal.FT_Real
	if table.Kind == stats.KindInteger {
		statType = gdal.FT_Integer
	}
	for _, label := range table.Labels() {
		fd := gdal.CreateFieldDefinition(label, statType)
		err = oLayer.CreateField(fd, false)
		fd.Destroy()
		if err != nil {
			log.Error(g.logTag+"create stat field failed", zap.String("field", label), zap.Error(err))
			return
		}
	}
	var (
		oDef    = oLayer.Definition()
		feature *gdal.Feature
		limite  string
		skipped int
		gc      []destroyable
	)
	defer func() {
		for _, v := range gc {
			v.Destroy()
		}
	}()
	for {
		if feature = layer.NextFeature(); feature == nil {
			break
		}
		gc = append(gc, *feature)
		if limite = feature.FieldAsString(limitIdx); !table.HasRow(limite) {
			skipped++
			continue
		}
		oFeature := oDef.Create()
		gc = append(gc, oFeature)
		for i := 0; i < nSrc; i++ {
			copyField(oFeature, *feature, i, srcTypes[i])
		}
		for j, key := range table.Keys {
			v, ok := table.Get(limite, key)
			if !ok {
				continue // 空值
			}
			if table.Kind == stats.KindInteger {
				oFeature.SetFieldInteger(nSrc+j, int(v))
			} else {
				oFeature.SetFieldFloat64(nSrc+j, v)
			}
		}
		if err = oFeature.SetGeometry(feature.Geometry()); err != nil {
			log.Error(g.logTag+"err in set geom of feature", zap.String("limite", limite), zap.Error(err))
			return
		}
		if err = oLayer.Create(oFeature); err != nil {
			log.Error(g.logTag+"err in create feature of layer", zap.String("limite", limite), zap.Error(err))
			return
		}
		cnt++
	}
	if skipped > 0 {
		log.Info(g.logTag+"boundary features without stats dropped", zap.Int("cnt", skipped))
	}
	return
}

// 按字段类型复制属性，NULL及未设置的字段保持为NULL，空字符串照常复制
func copyField(dst, src gdal.Feature, idx int, ft gdal.FieldType) {
	if !src.IsFieldSetAndNotNull(idx) {
		return
	}
	switch ft {
	case gdal.FT_Integer:
		dst.SetFieldInteger(idx, src.FieldAsInteger(idx))
	case gdal.FT_Integer64:
		dst.SetFieldInteger64(idx, src.FieldAsInteger64(idx))
	case gdal.FT_Real:
		dst.SetFieldFloat64(idx, src.FieldAsFloat64(idx))
	default:
		dst.SetFieldString(idx, src.FieldAsString(idx))
	}
}
