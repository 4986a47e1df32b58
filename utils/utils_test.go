package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, nil, 0o644))
	return p
}

func TestListFilesSorted(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "temp_max_1991.tif")
	touch(t, dir, "temp_max_1989.tif")
	touch(t, dir, "temp_max_1990.tif")
	touch(t, dir, "readme.txt")

	paths, err := ListFiles(dir, FILE_EXT_TIF)
	require.NoError(t, err)
	require.Len(t, paths, 3)
	assert.Equal(t, "temp_max_1989.tif", filepath.Base(paths[0]))
	assert.Equal(t, "temp_max_1991.tif", filepath.Base(paths[2]))
}

func TestListFilesEmpty(t *testing.T) {
	paths, err := ListFiles(filepath.Join(t.TempDir(), "missing"), FILE_EXT_TIF)
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestYearParser(t *testing.T) {
	p, err := NewYearParser(`(\d{4})\.tif$`)
	require.NoError(t, err)

	year, err := p.Parse("/data/temperatura/tmax_1990.tif")
	require.NoError(t, err)
	assert.Equal(t, 1990, year)

	year, err = p.Parse("prec_2018.TIF")
	require.NoError(t, err)
	assert.Equal(t, 2018, year)

	_, err = p.Parse("/data/1990/prec_annual.tif")
	assert.ErrorIs(t, err, ErrYearNotFound)

	_, err = NewYearParser(`\d{4}`)
	assert.Error(t, err)
}

func TestTmpSibling(t *testing.T) {
	p := GetTmpSibling("/out/landuse_municipios.gpkg")
	assert.Equal(t, "/out", filepath.Dir(p))
	assert.True(t, strings.HasPrefix(filepath.Base(p), ".landuse_municipios_"))
	assert.Equal(t, FILE_EXT_GPKG, filepath.Ext(p))
	assert.NotEqual(t, p, GetTmpSibling("/out/landuse_municipios.gpkg"))
}

func TestCheckDir(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, CheckDir(dir))
	assert.ErrorIs(t, CheckDir(touch(t, dir, "f")), ErrNotDir)
	assert.True(t, os.IsNotExist(CheckDir(filepath.Join(dir, "nope"))))
}

func TestCheckEncoding(t *testing.T) {
	for in, want := range map[string]string{
		"":              "",
		"  ":            "",
		"ISO-8859-1":    "ISO-8859-1",
		" windows-1252": "windows-1252",
		"utf-8":         "utf-8",
	} {
		got, err := CheckEncoding(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := CheckEncoding("klingon")
	assert.Error(t, err)
}

func TestRound(t *testing.T) {
	assert.Equal(t, 0.9, Round(100*900/100000.0, 5))
	assert.Equal(t, 1.23457, Round(1.234567, 5))
	assert.Equal(t, 0.0, Round(0.000001, 5))
}
