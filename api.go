package zonalstats

import (
	"sort"
)

type GdalGeo = []byte

// 边界要素
type BoundaryFeature struct {
	Limite string  // 区域标识（limite字段）
	Geom   GdalGeo // 要素矢量WKB
}

// 边界数据集
type BoundarySet struct {
	Limit    string // municipios / subbacias
	Path     string
	SrsWkt   string // 图层坐标系WKT，可为空
	Features []BoundaryFeature
}

// 去重并排序后的区域标识
func (s *BoundarySet) Limites() []string {
	set := make(map[string]struct{}, len(s.Features))
	for _, f := range s.Features {
		set[f.Limite] = struct{}{}
	}
	ret := make([]string, 0, len(set))
	for k := range set {
		ret = append(ret, k)
	}
	sort.Strings(ret)
	return ret
}

// 按区域标识分组（同一区域的多个要素保持原有次序）
func (s *BoundarySet) Group() map[string][]BoundaryFeature {
	ret := map[string][]BoundaryFeature{}
	for _, f := range s.Features {
		ret[f.Limite] = append(ret[f.Limite], f)
	}
	return ret
}
