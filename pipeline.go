package zonalstats

import (
	"context"
	"fmt"

	"github.com/wgdzlh/zonalstats/log"
	"github.com/wgdzlh/zonalstats/stats"

	"go.uber.org/zap"
)

// 统计土地利用并输出 landuse_{limit}.gpkg
func (g *ZonalToolbox) LanduseToGeopackage(ctx context.Context, limit string) (out string, err error) {
	set, err := g.OpenBoundary(limit)
	if err != nil {
		return
	}
	recs, err := g.LanduseStats(ctx, set)
	if err != nil {
		return
	}
	table, err := stats.Pivot(set.Limites(), recs, stats.KindReal)
	if err != nil {
		return
	}
	table.SetLabeler(stats.ClassLabeler(g.cfg.Landuse.Classes))
	out = g.cfg.OutputPath(STAT_LANDUSE, limit)
	_, err = g.Export(limit, table, out)
	return
}

// 统计气象变量并输出 {variable}_{limit}.gpkg
func (g *ZonalToolbox) ClimateToGeopackage(ctx context.Context, limit string, v ClimateVariable) (out string, err error) {
	set, err := g.OpenBoundary(limit)
	if err != nil {
		return
	}
	recs, err := g.ClimateStats(ctx, set, v)
	if err != nil {
		return
	}
	table, err := stats.Pivot(set.Limites(), recs, stats.KindInteger)
	if err != nil {
		return
	}
	table.SetLabeler(stats.YearLabeler(g.cfg.YearColumnPrefix))
	out = g.cfg.OutputPath(v.Variable, limit)
	_, err = g.Export(limit, table, out)
	return
}

// 依次处理全部边界类型：土地利用、各气象变量，遇错即停
func (g *ZonalToolbox) RunAll(ctx context.Context) (outs []string, err error) {
	var out string
	for _, b := range g.cfg.Boundaries {
		if err = ctx.Err(); err != nil {
			return
		}
		if out, err = g.LanduseToGeopackage(ctx, b.Name); err != nil {
			err = fmt.Errorf("%s %s: %w", STAT_LANDUSE, b.Name, err)
			return
		}
		outs = append(outs, out)
		for _, v := range g.cfg.Climate {
			if err = ctx.Err(); err != nil {
				return
			}
			if out, err = g.ClimateToGeopackage(ctx, b.Name, v); err != nil {
				err = fmt.Errorf("%s %s: %w", v.Variable, b.Name, err)
				return
			}
			outs = append(outs, out)
		}
	}
	log.Info(g.logTag+"all done", zap.String("run", g.runId), zap.Strings("outputs", outs))
	return
}
