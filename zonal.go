package zonalstats

import (
	"context"
	"fmt"
	"sort"

	"github.com/wgdzlh/zonalstats/log"
	"github.com/wgdzlh/zonalstats/stats"
	"github.com/wgdzlh/zonalstats/utils"

	"go.uber.org/zap"
)

// 土地利用统计：各区域每个类别的面积（像元数×像元面积/area_divisor，保留precision位小数）
// 区域内无有效像元时不产生记录
func (g *ZonalToolbox) LanduseStats(ctx context.Context, set *BoundarySet) (recs []stats.Record, err error) {
	lc := g.cfg.Landuse
	tif := g.cfg.RasterPath(lc.Raster)
	r, err := g.OpenRaster(tif)
	if err != nil {
		return
	}
	defer r.Close()
	pixelArea := r.affine.PixelArea()
	g.warnGeographic(r)
	masks, err := g.zoneMasks(set, r)
	if err != nil {
		return
	}
	limites := set.Limites()
	log.Info(g.logTag+"start landuse stats", zap.String("limit", set.Limit), zap.String("tif", tif),
		zap.Float64("pixelArea", pixelArea), zap.Int("zones", len(limites)))
	var (
		counts  map[int]int
		classes []int
		empty   int
	)
	for _, limite := range limites {
		if err = ctx.Err(); err != nil {
			return
		}
		if counts, err = stats.Histogram(r, masks[limite]); err != nil {
			err = fmt.Errorf("landuse stats of %s: %w", limite, err)
			return
		}
		if len(counts) == 0 {
			log.Debug(g.logTag+"zone without landuse pixels", zap.String("limite", limite))
			empty++
			continue
		}
		classes = classes[:0]
		for c := range counts {
			classes = append(classes, c)
		}
		sort.Ints(classes)
		for _, c := range classes {
			recs = append(recs, stats.Record{
				Limite: limite,
				Key:    c,
				Value:  utils.Round(float64(counts[c])*pixelArea/lc.AreaDivisor, lc.Precision),
			})
		}
	}
	log.Info(g.logTag+"landuse stats done", zap.String("limit", set.Limit), zap.Int("records", len(recs)), zap.Int("emptyZones", empty))
	return
}

// 气象统计：各区域每年的统计值（precipitacao取均值、temperatura取最大值），向零取整，无有效像元时为0
func (g *ZonalToolbox) ClimateStats(ctx context.Context, set *BoundarySet, v ClimateVariable) (recs []stats.Record, err error) {
	paths, err := g.RasterPaths(v)
	if err != nil {
		return
	}
	if len(paths) == 0 {
		log.Warn(g.logTag+"no raster for variable", zap.String("variable", v.Variable))
		return
	}
	// 先校验全部文件名，避免统计到一半才失败
	years := make([]int, len(paths))
	seen := make(map[int]string, len(paths))
	for i, p := range paths {
		if years[i], err = g.years.Parse(p); err != nil {
			return
		}
		if prev, ok := seen[years[i]]; ok {
			err = fmt.Errorf("%w: %d in %s and %s", ErrDuplicateYear, years[i], prev, p)
			return
		}
		seen[years[i]] = p
	}
	limites := set.Limites()
	log.Info(g.logTag+"start climate stats", zap.String("limit", set.Limit), zap.String("variable", v.Variable),
		zap.String("statistic", string(v.Statistic)), zap.Int("rasters", len(paths)), zap.Int("zones", len(limites)))
	maskCache := map[string]map[string]stats.Mask{}
	recs = make([]stats.Record, 0, len(paths)*len(limites))
	for i, p := range paths {
		if err = g.climateOfRaster(ctx, set, v, p, years[i], limites, maskCache, &recs); err != nil {
			return
		}
	}
	log.Info(g.logTag+"climate stats done", zap.String("limit", set.Limit), zap.String("variable", v.Variable), zap.Int("records", len(recs)))
	return
}

func (g *ZonalToolbox) climateOfRaster(ctx context.Context, set *BoundarySet, v ClimateVariable, tif string, year int,
	limites []string, maskCache map[string]map[string]stats.Mask, recs *[]stats.Record) (err error) {
	r, err := g.OpenRaster(tif)
	if err != nil {
		return
	}
	defer r.Close()
	key := gridKey(r)
	masks, ok := maskCache[key]
	if !ok {
		if masks, err = g.zoneMasks(set, r); err != nil {
			return
		}
		maskCache[key] = masks
	}
	var (
		s     stats.Summary
		noPix int
	)
	for _, limite := range limites {
		if err = ctx.Err(); err != nil {
			return
		}
		if s, err = stats.Summarize(r, masks[limite]); err != nil {
			err = fmt.Errorf("%s stats of %s in %d: %w", v.Variable, limite, year, err)
			return
		}
		if s.Count == 0 {
			noPix++
		}
		*recs = append(*recs, stats.Record{
			Limite: limite,
			Key:    year,
			Value:  float64(v.Statistic.Truncated(s)),
		})
	}
	log.Debug(g.logTag+"raster done", zap.String("tif", tif), zap.Int("year", year), zap.Int("zonesWithoutPixels", noPix))
	return
}
