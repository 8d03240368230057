package recall

import (
	"context"

	"github.com/rushteam/prodrec/core"
)

// Source 表示一个可复用的召回源（热门/多样性/类目配额/...）。
// 可以理解为"可并发 fan-out 的策略单元"。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error)
}

// ParamTopN 是 RecommendContext.Params 中的返回数量参数
const ParamTopN = "top_n"

// topN 取召回数量：显式配置优先，其次是请求参数，最后是默认值。
func topN(configured int, rctx *core.RecommendContext, def int) int {
	if configured > 0 {
		return configured
	}
	return rctx.GetParamInt(ParamTopN, def)
}

func catalogOf(rctx *core.RecommendContext) core.Catalog {
	if rctx == nil {
		return nil
	}
	return rctx.Catalog
}

func head[T any](s []T, n int) []T {
	if n < 0 {
		n = 0
	}
	if len(s) > n {
		return s[:n]
	}
	return s
}
