package zonalstats

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/wgdzlh/zonalstats/log"
	"github.com/wgdzlh/zonalstats/stats"
	"github.com/wgdzlh/zonalstats/utils"

	"github.com/google/uuid"
	"github.com/lukeroth/gdal"
	"go.uber.org/zap"
)

const (
	MEM_DRIVER_NAME  = "MEM"
	ZONE_FIELD       = "zone"
	TMP_ZONE_GEOJSON = "zones_%s" + utils.FILE_EXT_GEOJSON
)

type zoneFeature struct {
	Type       string          `json:"type"`
	Properties map[string]int  `json:"properties"`
	Geometry   json.RawMessage `json:"geometry"`
}

type zoneCollection struct {
	Type     string        `json:"type"`
	Name     string        `json:"name"`
	Features []zoneFeature `json:"features"`
}

// 栅格网格标识，网格相同的栅格可共用掩膜
func gridKey(r *RasterBand) string {
	return fmt.Sprintf("%s|%v|%dx%d", r.Wkt, r.affine, r.width, r.height)
}

// 生成各区域在栅格r网格上的掩膜：区域几何转换到栅格坐标系后写入临时GeoJSON，
// 再逐区域用gdal_rasterize（像元中心落入即烧录）栅格化到与栅格窗口对齐的MEM数据集
func (g *ZonalToolbox) zoneMasks(set *BoundarySet, r *RasterBand) (masks map[string]stats.Mask, err error) {
	if !r.affine.NorthUp() {
		err = fmt.Errorf("%w: %s", stats.ErrUnsupportedTransform, r.Path)
		return
	}
	zones, err := g.zoneGeometries(set, r.Wkt)
	if err != nil {
		return
	}
	defer destroyZones(zones)
	limites := set.Limites()
	layerName := fmt.Sprintf(TMP_ZONE_GEOJSON, uuid.NewString())
	tmp := filepath.Join(g.cfg.TempDir(), layerName)
	layerName = utils.GetFilenameWithoutExt(layerName)
	windows := make([]stats.Window, len(limites))
	fc := zoneCollection{Type: "FeatureCollection", Name: layerName}
	for i, limite := range limites {
		minX, minY, maxX, maxY := math.Inf(1), math.Inf(1), math.Inf(-1), math.Inf(-1)
		for _, geo := range zones[limite] {
			if geo.IsEmpty() {
				continue
			}
			env := geo.Envelope()
			minX, minY = math.Min(minX, env.MinX()), math.Min(minY, env.MinY())
			maxX, maxY = math.Max(maxX, env.MaxX()), math.Max(maxY, env.MaxY())
			fc.Features = append(fc.Features, zoneFeature{
				Type:       "Feature",
				Properties: map[string]int{ZONE_FIELD: i},
				Geometry:   json.RawMessage(geo.ToJSON()),
			})
		}
		if windows[i], err = r.affine.WindowOf(minX, minY, maxX, maxY, r.width, r.height); err != nil {
			return
		}
	}
	geoJson, err := json.Marshal(fc)
	if err != nil {
		return
	}
	if err = os.WriteFile(tmp, geoJson, 0o644); err != nil {
		return
	}
	defer os.Remove(tmp)
	vds, err := gdal.OpenEx(tmp, gdal.OFVector, nil, nil, nil)
	if err != nil {
		log.Error(g.logTag+"open zone geojson failed", zap.String("tmp", tmp), zap.Error(err))
		return
	}
	defer vds.Close()
	masks = make(map[string]stats.Mask, len(limites))
	outside := 0
	for i, limite := range limites {
		w := windows[i]
		if w.Empty() {
			outside++
			masks[limite] = stats.Mask{}
			continue
		}
		if masks[limite], err = g.rasterizeZone(vds, layerName, i, r.affine.Extent(w), w); err != nil {
			err = fmt.Errorf("rasterize %s: %w", limite, err)
			return
		}
	}
	log.Debug(g.logTag+"zone masks ready", zap.String("limit", set.Limit), zap.String("tif", r.Path),
		zap.Int("zones", len(limites)), zap.Int("outside", outside))
	return
}

func (g *ZonalToolbox) rasterizeZone(vds gdal.Dataset, layerName string, zone int, te [4]float64, w stats.Window) (m stats.Mask, err error) {
	opts := []string{
		"-of", MEM_DRIVER_NAME,
		"-l", layerName,
		"-where", fmt.Sprintf("%s = %d", ZONE_FIELD, zone),
		"-burn", "1",
		"-init", "0",
		"-ot", "Byte",
		"-te", ftoa(te[0]), ftoa(te[1]), ftoa(te[2]), ftoa(te[3]),
		"-ts", strconv.Itoa(w.Width), strconv.Itoa(w.Height),
	}
	mds, err := gdal.Rasterize("", vds, opts)
	if err != nil {
		log.Error(g.logTag+"failed to rasterize zone", zap.Int("zone", zone), zap.Error(err))
		return
	}
	defer mds.Close()
	burnt := make([]uint8, w.Size())
	if err = mds.RasterBand(1).IO(gdal.Read, 0, 0, w.Width, w.Height, burnt, w.Width, w.Height, 0, 0); err != nil {
		return
	}
	return stats.NewMask(w, burnt)
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
