package zonalstats

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/wgdzlh/zonalstats/stats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "zonalstats.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadConfig_Defaults(t *testing.T) {
	c, err := LoadConfig("")
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	assert.Equal(t, "limite", c.LimitField)
	assert.Equal(t, filepath.Join("inputs", "municipios.gpkg"), c.BoundaryPath(c.Boundaries[0]))
	assert.Equal(t, filepath.Join("uso_solo", "uso.tif"), c.RasterPath(c.Landuse.Raster))
	assert.Equal(t, []ClimateVariable{
		{Variable: VAR_PRECIPITACAO, Dir: VAR_PRECIPITACAO, Statistic: stats.StatMean},
		{Variable: VAR_TEMPERATURA, Dir: VAR_TEMPERATURA, Statistic: stats.StatMax},
	}, c.Climate)
	assert.Equal(t, "agricultura", c.Landuse.Classes[10])
	assert.Equal(t, "solo_exposto", c.Landuse.Classes[90])
	assert.Equal(t, 100000.0, c.Landuse.AreaDivisor)
	assert.Equal(t, 5, c.Landuse.Precision)
	assert.Empty(t, c.YearColumnPrefix)
	assert.Empty(t, c.Encoding)
	assert.Equal(t, os.TempDir(), c.TempDir())

	assert.Equal(t, filepath.Join("outputs", "landuse_municipios.gpkg"), c.OutputPath(STAT_LANDUSE, LIMIT_MUNICIPIOS))
	assert.Equal(t, filepath.Join("outputs", "temperatura_subbacias.gpkg"), c.OutputPath(VAR_TEMPERATURA, LIMIT_SUBBACIAS))
}

func TestLoadConfig_Overrides(t *testing.T) {
	p := writeConfig(t, `
input_dir: /data/in
output_dir: /data/out
encoding: ISO-8859-1
boundaries:
  - name: bacias
    path: bacias.shp
landuse:
  classes:
    70: mineracao
climate:
  - variable: temperatura
    dir: tmin
    statistic: min
year_column_prefix: ano_
tmp_dir: /data/tmp
`)
	c, err := LoadConfig(p)
	require.NoError(t, err)

	require.Len(t, c.Boundaries, 1)
	b, ok := c.Boundary("bacias")
	require.True(t, ok)
	assert.Equal(t, "/data/in/bacias.shp", c.BoundaryPath(b))
	_, ok = c.Boundary(LIMIT_MUNICIPIOS)
	assert.False(t, ok)

	// class table is merged into the defaults
	assert.Equal(t, "mineracao", c.Landuse.Classes[70])
	assert.Equal(t, "floresta", c.Landuse.Classes[20])
	assert.Equal(t, stats.StatMin, c.Climate[0].Statistic)
	assert.Equal(t, "ano_", c.YearColumnPrefix)
	assert.Equal(t, "ISO-8859-1", c.Encoding)
	assert.Equal(t, "/data/tmp", c.TempDir())
	assert.Equal(t, "/data/out/landuse_bacias.gpkg", c.OutputPath(STAT_LANDUSE, "bacias"))
}

func TestLoadConfig_Invalid(t *testing.T) {
	cases := map[string]string{
		"statistic": "climate:\n  - variable: x\n    dir: x\n    statistic: median\n",
		"pattern":   "year_pattern: '\\d{4}'\n",
		"encoding":  "encoding: klingon\n",
		"divisor":   "landuse:\n  area_divisor: 0\n",
		"duplicate": "boundaries:\n  - {name: a, path: a.gpkg}\n  - {name: a, path: b.gpkg}\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.True(t, os.IsNotExist(err))
}
