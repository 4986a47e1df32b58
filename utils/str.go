package utils

import (
	"math"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

// 校验编码名（WHATWG编码表中的名称或别名），返回去除空白后的名称；为空表示不指定
func CheckEncoding(enc string) (name string, err error) {
	if name = strings.TrimSpace(enc); name == "" {
		return
	}
	if _, err = htmlindex.Get(name); err != nil {
		name = ""
	}
	return
}

// 四舍五入保留places位小数
func Round(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}
