package stats

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
)

var (
	ErrDuplicateCell = errors.New("duplicate cell in pivot")
)

// Record is one long-form zonal statistic: region, class code or year, value.
type Record struct {
	Limite string
	Key    int
	Value  float64
}

// Kind tells how the cells of a Table are typed on export.
type Kind int

const (
	KindReal Kind = iota
	KindInteger
)

// Labeler names the column of a key.
type Labeler func(key int) string

// Table is the wide form of a set of Records: one row per region, one column per key.
type Table struct {
	Rows    []string
	Keys    []int
	Kind    Kind
	labeler Labeler
	cells   map[string]map[int]float64
}

// 长表转宽表，rows中的区域即使没有记录也保留一行（全部为空值）
func Pivot(rows []string, records []Record, kind Kind) (t *Table, err error) {
	t = &Table{
		Kind:  kind,
		cells: make(map[string]map[int]float64, len(rows)),
	}
	for _, r := range rows {
		if _, ok := t.cells[r]; !ok {
			t.cells[r] = map[int]float64{}
		}
	}
	keys := map[int]struct{}{}
	for _, rec := range records {
		row, ok := t.cells[rec.Limite]
		if !ok {
			row = map[int]float64{}
			t.cells[rec.Limite] = row
		}
		if _, dup := row[rec.Key]; dup {
			err = fmt.Errorf("%w: %s/%d", ErrDuplicateCell, rec.Limite, rec.Key)
			return nil, err
		}
		row[rec.Key] = rec.Value
		keys[rec.Key] = struct{}{}
	}
	t.Rows = make([]string, 0, len(t.cells))
	for r := range t.cells {
		t.Rows = append(t.Rows, r)
	}
	sort.Strings(t.Rows)
	t.Keys = make([]int, 0, len(keys))
	for k := range keys {
		t.Keys = append(t.Keys, k)
	}
	sort.Ints(t.Keys)
	return
}

func (t *Table) SetLabeler(l Labeler) {
	t.labeler = l
}

func (t *Table) Label(key int) string {
	if t.labeler == nil {
		return strconv.Itoa(key)
	}
	return t.labeler(key)
}

func (t *Table) Labels() []string {
	ls := make([]string, len(t.Keys))
	for i, k := range t.Keys {
		ls[i] = t.Label(k)
	}
	return ls
}

func (t *Table) HasRow(limite string) bool {
	_, ok := t.cells[limite]
	return ok
}

// 取单元格的值，空单元格ok为false
func (t *Table) Get(limite string, key int) (v float64, ok bool) {
	row, found := t.cells[limite]
	if !found {
		return
	}
	v, ok = row[key]
	return
}

// 土地利用类别编码 -> 列名，未知编码保留数字
func ClassLabeler(classes map[int]string) Labeler {
	return func(key int) string {
		if name, ok := classes[key]; ok && name != "" {
			return name
		}
		return strconv.Itoa(key)
	}
}

// 年份列名，prefix为空时即为数字年份
func YearLabeler(prefix string) Labeler {
	return func(key int) string {
		return prefix + strconv.Itoa(key)
	}
}
