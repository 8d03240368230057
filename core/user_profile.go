package core

import "time"

// UserProfile 是一次会话内的用户偏好画像。
//
// 它由用户选中的商品构建（见 profile.Builder），不单独持久化：
//   - CategoryCounts：类目 -> 点击次数
//   - TagCounts：标签 -> 出现次数
//
// 两个计数器都保留插入顺序，供并列排序与可视化使用。
type UserProfile struct {
	UserID string

	CategoryCounts *Counter
	TagCounts      *Counter

	// 元数据
	UpdateTime time.Time
}

// NewUserProfile 创建一个空画像。
func NewUserProfile(userID string) *UserProfile {
	return &UserProfile{
		UserID:         userID,
		CategoryCounts: NewCounter(),
		TagCounts:      NewCounter(),
		UpdateTime:     time.Now(),
	}
}

// AddClick 记录一次商品点击：类目 +1，每个标签出现一次 +1。
func (p *UserProfile) AddClick(prod *Product) {
	if p.CategoryCounts == nil {
		p.CategoryCounts = NewCounter()
	}
	if p.TagCounts == nil {
		p.TagCounts = NewCounter()
	}
	p.CategoryCounts.Add(prod.Category, 1)
	for _, tag := range prod.Tags() {
		p.TagCounts.Add(tag, 1)
	}
	p.UpdateTime = time.Now()
}

// IsEmpty 判断画像是否没有任何信号。
func (p *UserProfile) IsEmpty() bool {
	return p == nil || (p.CategoryCounts.Len() == 0 && p.TagCounts.Len() == 0)
}

// HasCategorySignal 判断是否有类目偏好。
func (p *UserProfile) HasCategorySignal() bool {
	return p != nil && p.CategoryCounts.Len() > 0
}

// RankedCategories 按点击数降序返回类目，并列按首次出现顺序。
func (p *UserProfile) RankedCategories() []string {
	if p == nil {
		return nil
	}
	ranked := p.CategoryCounts.MostCommon(0)
	out := make([]string, 0, len(ranked))
	for _, c := range ranked {
		out = append(out, c.Key)
	}
	return out
}

// PreferTags 返回出现最多的 n 个标签。
func (p *UserProfile) PreferTags(n int) []string {
	if p == nil || n <= 0 {
		return nil
	}
	top := p.TagCounts.MostCommon(n)
	out := make([]string, 0, len(top))
	for _, c := range top {
		out = append(out, c.Key)
	}
	return out
}
