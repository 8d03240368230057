package core

import "github.com/rushteam/prodrec/pkg/utils"

// Item 是推荐链路中的统一承载结构：商品、分数、特征、标签。
// Labels 用于解释与策略驱动；Score 用于排序决策。
type Item struct {
	ID       string
	Score    float64
	Product  *Product
	Features map[string]float64
	Labels   map[string]utils.Label
}

// NewItem 以商品构建 Item，初始分数为商品热度。
func NewItem(p *Product) *Item {
	return &Item{
		ID:       p.ID,
		Score:    p.PopularityScore,
		Product:  p,
		Features: make(map[string]float64),
		Labels:   make(map[string]utils.Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// Category 返回物品所属类目，没有商品时为空。
func (it *Item) Category() string {
	if it.Product == nil {
		return ""
	}
	return it.Product.Category
}
