// Package profile 把用户选中的商品 ID 聚合成会话画像。
package profile

import (
	"github.com/rushteam/prodrec/core"
	"github.com/rushteam/prodrec/logging"
	"github.com/rushteam/prodrec/metrics"
)

// Result 是一次构建的结果：画像 + 收集到的告警。
type Result struct {
	Profile  *core.UserProfile
	Warnings []*core.UnknownProductWarning
}

// Builder 基于只读目录构建画像。
type Builder struct {
	Catalog core.Catalog
}

func NewBuilder(c core.Catalog) *Builder {
	return &Builder{Catalog: c}
}

// Build 按选中的商品 ID 构建画像。
//
//   - 未知 ID 跳过，记录 UnknownProductWarning 并继续
//   - 已知 ID：类目 +1；标签列表中每出现一次 +1（同一商品重复标签会重复计数）
//
// 结果只取决于 ID 的多重集合，与顺序无关（计数器的插入顺序除外）。
func (b *Builder) Build(userID string, selectedIDs []string) *Result {
	res := &Result{Profile: core.NewUserProfile(userID)}
	for _, id := range selectedIDs {
		var (
			p   *core.Product
			err error
		)
		if b.Catalog != nil {
			p, err = b.Catalog.FindByID(id)
		} else {
			err = core.ErrProductNotFound
		}
		if err != nil {
			w := &core.UnknownProductWarning{ProductID: id}
			res.Warnings = append(res.Warnings, w)
			metrics.UnknownProducts.Inc()
			logging.Warn().Str("user_id", userID).Str("product_id", id).Msg("product not found, skipped")
			continue
		}
		res.Profile.AddClick(p)
	}
	return res
}

// Build 是 NewBuilder(c).Build 的简写。
func Build(c core.Catalog, userID string, selectedIDs []string) *Result {
	return NewBuilder(c).Build(userID, selectedIDs)
}
