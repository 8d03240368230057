package filter

import (
	"context"

	"github.com/rushteam/prodrec/core"
)

// Filter 决定一个候选商品是否从推荐列表中剔除。
// ShouldFilter 返回 true 即剔除；返回 error 时 FilterNode 记录日志并跳过该过滤器。
type Filter interface {
	Name() string
	ShouldFilter(ctx context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error)
}
