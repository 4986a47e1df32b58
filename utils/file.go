package utils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const (
	FILE_EXT_TIF     = ".tif"
	FILE_EXT_SHP     = ".shp"
	FILE_EXT_GPKG    = ".gpkg"
	FILE_EXT_JSON    = ".json"
	FILE_EXT_GEOJSON = ".geojson"
)

var (
	ErrYearNotFound = errors.New("no year in file name")
	ErrNotDir       = errors.New("not a directory")
)

// 列出目录下指定扩展名的文件，按路径字典序排序；目录中没有文件时返回空
func ListFiles(dir, ext string) (paths []string, err error) {
	paths, err = filepath.Glob(filepath.Join(dir, "*"+ext))
	if err != nil {
		return
	}
	sort.Strings(paths)
	return
}

func GetFilenameWithoutExt(path string) (name string) {
	name = filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(path))
	return
}

// 同目录下的临时文件路径，保持扩展名以便驱动识别
func GetTmpSibling(path string) string {
	dir, base := filepath.Split(path)
	ext := filepath.Ext(base)
	return filepath.Join(dir, "."+strings.TrimSuffix(base, ext)+"_"+uuid.NewString()+ext)
}

func CheckDir(dir string) (err error) {
	info, err := os.Stat(dir)
	if err != nil {
		return
	}
	if !info.IsDir() {
		err = fmt.Errorf("%w: %s", ErrNotDir, dir)
	}
	return
}

// YearParser extracts the year a raster file name encodes.
type YearParser struct {
	re *regexp.Regexp
}

// pattern须包含一个捕获组，匹配时不区分大小写
func NewYearParser(pattern string) (p *YearParser, err error) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return
	}
	if re.NumSubexp() < 1 {
		err = fmt.Errorf("year pattern %q has no capture group", pattern)
		return
	}
	p = &YearParser{re: re}
	return
}

// 从文件名（不含目录）中解析年份，不匹配时报错
func (p *YearParser) Parse(path string) (year int, err error) {
	base := filepath.Base(path)
	m := p.re.FindStringSubmatch(base)
	if m == nil || m[1] == "" {
		err = fmt.Errorf("%w: %s", ErrYearNotFound, base)
		return
	}
	if year, err = strconv.Atoi(m[1]); err != nil {
		err = fmt.Errorf("%w: %s", ErrYearNotFound, base)
	}
	return
}
