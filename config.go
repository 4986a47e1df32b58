package zonalstats

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wgdzlh/zonalstats/stats"
	"github.com/wgdzlh/zonalstats/utils"

	"gopkg.in/yaml.v3"
)

const (
	SHP_DRIVER_NAME     = "ESRI Shapefile"
	GPKG_DRIVER_NAME    = "GPKG"
	GEOJSON_DRIVER_NAME = "GeoJSON"

	OO_ENCODING_PREFIX = "ENCODING=" // shp打开选项，覆盖cpg/LDID
	TMP_RECODED_GPKG   = "recoded_%s" + utils.FILE_EXT_GPKG

	LIMIT_MUNICIPIOS = "municipios"
	LIMIT_SUBBACIAS  = "subbacias"

	VAR_PRECIPITACAO = "precipitacao"
	VAR_TEMPERATURA  = "temperatura"
	STAT_LANDUSE     = "landuse"

	DefaultYearPattern = `(\d{4})\.tif$`
	DefaultAreaDivisor = 100000
	DefaultPrecision   = 5

	OutputNameTemplate = "%s_%s" + utils.FILE_EXT_GPKG // {stat}_{limit}.gpkg

	ErrColumnMissingTemplate = `boundary dataset has no [%s] field`
	ErrColumnEmptyTemplate   = `boundary feature has empty [%s] field`
)

// Boundary names one boundary dataset, e.g. municipios.
type Boundary struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

type LanduseConfig struct {
	Raster      string         `yaml:"raster"`
	AreaDivisor float64        `yaml:"area_divisor"`
	Precision   int            `yaml:"precision"`
	Classes     map[int]string `yaml:"classes"`
}

// ClimateVariable is one yearly raster series and the statistic taken from it.
type ClimateVariable struct {
	Variable  string          `yaml:"variable"`
	Dir       string          `yaml:"dir"`
	Statistic stats.Statistic `yaml:"statistic"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Config struct {
	InputDir         string            `yaml:"input_dir"`
	OutputDir        string            `yaml:"output_dir"`
	RasterRoot       string            `yaml:"raster_root"`
	TmpDir           string            `yaml:"tmp_dir"` // 为空时使用系统临时目录
	LimitField       string            `yaml:"limit_field"`
	Encoding         string            `yaml:"encoding"` // shp属性表编码，为空时由OGR按cpg/LDID判断
	Boundaries       []Boundary        `yaml:"boundaries"`
	Landuse          LanduseConfig     `yaml:"landuse"`
	Climate          []ClimateVariable `yaml:"climate"`
	YearPattern      string            `yaml:"year_pattern"`
	YearColumnPrefix string            `yaml:"year_column_prefix"`
	Log              LogConfig         `yaml:"log"`
}

func DefaultLanduseClasses() map[int]string {
	return map[int]string{
		10: "agricultura",
		20: "floresta",
		30: "pastagem",
		40: "arbustivas",
		50: "banhado",
		60: "agua",
		80: "impermeavel_urbano",
		90: "solo_exposto",
	}
}

// 默认配置，对应原有的固定路径
func DefaultConfig() *Config {
	return &Config{
		InputDir:   "./inputs",
		OutputDir:  "./outputs",
		RasterRoot: ".",
		LimitField: "limite",
		Boundaries: []Boundary{
			{Name: LIMIT_MUNICIPIOS, Path: LIMIT_MUNICIPIOS + utils.FILE_EXT_GPKG},
			{Name: LIMIT_SUBBACIAS, Path: LIMIT_SUBBACIAS + utils.FILE_EXT_GPKG},
		},
		Landuse: LanduseConfig{
			Raster:      filepath.Join("uso_solo", "uso"+utils.FILE_EXT_TIF),
			AreaDivisor: DefaultAreaDivisor,
			Precision:   DefaultPrecision,
			Classes:     DefaultLanduseClasses(),
		},
		Climate: []ClimateVariable{
			{Variable: VAR_PRECIPITACAO, Dir: VAR_PRECIPITACAO, Statistic: stats.StatMean},
			{Variable: VAR_TEMPERATURA, Dir: VAR_TEMPERATURA, Statistic: stats.StatMax},
		},
		YearPattern: DefaultYearPattern,
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// 读取yaml配置，未设置的项使用默认值；path为空时直接返回默认配置
func LoadConfig(path string) (c *Config, err error) {
	c = DefaultConfig()
	if path == "" {
		return
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err = yaml.Unmarshal(raw, c); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err = c.Validate(); err != nil {
		return nil, err
	}
	return
}

func (c *Config) Validate() error {
	var errs []string
	if c.LimitField == "" {
		errs = append(errs, "limit_field is required")
	}
	if len(c.Boundaries) == 0 {
		errs = append(errs, "at least one boundary is required")
	}
	seen := map[string]bool{}
	for _, b := range c.Boundaries {
		if b.Name == "" || b.Path == "" {
			errs = append(errs, "boundary name and path are required")
			continue
		}
		if seen[b.Name] {
			errs = append(errs, fmt.Sprintf("duplicate boundary %q", b.Name))
		}
		seen[b.Name] = true
	}
	if c.Landuse.Raster == "" {
		errs = append(errs, "landuse.raster is required")
	}
	if c.Landuse.AreaDivisor <= 0 {
		errs = append(errs, "landuse.area_divisor must be positive")
	}
	if c.Landuse.Precision < 0 {
		errs = append(errs, "landuse.precision must not be negative")
	}
	for _, v := range c.Climate {
		if v.Variable == "" || v.Dir == "" {
			errs = append(errs, "climate variable and dir are required")
		}
		if !v.Statistic.Valid() {
			errs = append(errs, fmt.Sprintf("climate %q: unknown statistic %q", v.Variable, v.Statistic))
		}
	}
	if _, err := utils.NewYearParser(c.YearPattern); err != nil {
		errs = append(errs, fmt.Sprintf("year_pattern: %v", err))
	}
	if _, err := utils.CheckEncoding(c.Encoding); err != nil {
		errs = append(errs, fmt.Sprintf("encoding %q: %v", c.Encoding, err))
	}
	if len(errs) > 0 {
		return errors.New("invalid config: " + strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) Boundary(name string) (b Boundary, ok bool) {
	for _, b = range c.Boundaries {
		if b.Name == name {
			return b, true
		}
	}
	return Boundary{}, false
}

func (c *Config) BoundaryPath(b Boundary) string {
	if filepath.IsAbs(b.Path) {
		return b.Path
	}
	return filepath.Join(c.InputDir, b.Path)
}

func (c *Config) TempDir() string {
	if c.TmpDir == "" {
		return os.TempDir()
	}
	return c.TmpDir
}

func (c *Config) RasterPath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.RasterRoot, p)
}

// 输出文件路径：{output_dir}/{stat}_{limit}.gpkg
func (c *Config) OutputPath(stat, limit string) string {
	return filepath.Join(c.OutputDir, fmt.Sprintf(OutputNameTemplate, stat, limit))
}
