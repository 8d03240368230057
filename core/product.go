package core

import "strings"

// Product 是目录中的一个商品。
// Tags 在源数据中是逗号分隔的单个字段，按需解析。
type Product struct {
	ID              string
	Title           string
	Category        string
	PopularityScore float64
	RawTags         string
}

// Tags 解析 RawTags：按逗号切分，去掉首尾空白，丢弃空 token。
func (p *Product) Tags() []string {
	return ParseTags(p.RawTags)
}

// HasTag 判断商品是否带有某个标签。
func (p *Product) HasTag(tag string) bool {
	for _, t := range p.Tags() {
		if t == tag {
			return true
		}
	}
	return false
}

// ParseTags 将 "a, b ,c" 解析为 ["a", "b", "c"]，保持原有顺序和重复。
func ParseTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		// 空标签（"a,,b" 或结尾逗号）直接丢弃，不计入画像
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// Catalog 是只读的商品目录句柄，贯穿所有选择器调用。
//
// 实现：
//   - catalog.Store 实现此接口
type Catalog interface {
	// Products 返回目录顺序的全部商品
	Products() []*Product

	// FindByID 按 ID 查找商品，不存在时返回 ErrProductNotFound
	FindByID(id string) (*Product, error)

	// FindByCategory 返回某类目下的商品（保持目录顺序）
	FindByCategory(category string) []*Product

	// Categories 按首次出现顺序返回全部类目
	Categories() []string
}
