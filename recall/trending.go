package recall

import (
	"context"

	"github.com/rushteam/prodrec/core"
	"github.com/rushteam/prodrec/pipeline"
	"github.com/rushteam/prodrec/pkg/utils"
	"github.com/rushteam/prodrec/rank"
)

// Trending 是全局热门召回：整个目录按热度稳定降序，取前 TopN。
// 并列按目录顺序。既用于冷启动的热门部分，也用于个性化的补齐。
// Trending 同时实现了 Source 和 Node 接口，可以直接在 Pipeline 中使用。
type Trending struct {
	// TopN <= 0 时读取 rctx.Params["top_n"]，再否则为 5
	TopN int
}

func (r *Trending) Name() string        { return "recall.trending" }
func (r *Trending) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall
func (r *Trending) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口
func (r *Trending) Recall(
	_ context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	c := catalogOf(rctx)
	if c == nil {
		return nil, nil
	}
	n := topN(r.TopN, rctx, 5)
	sorted := head(rank.SortByPopularity(c.Products()), n)

	out := make([]*core.Item, 0, len(sorted))
	for _, p := range sorted {
		it := core.NewItem(p)
		it.PutLabel(utils.LabelRecallSource, utils.NewLabel("trending", "recall"))
		out = append(out, it)
	}
	return out, nil
}
