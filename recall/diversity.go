package recall

import (
	"context"
	"sort"

	"github.com/rushteam/prodrec/core"
	"github.com/rushteam/prodrec/pipeline"
	"github.com/rushteam/prodrec/pkg/utils"
)

// Diversity 是冷启动的多样性召回：每个类目取热度最高的一个商品作为代表，
// 代表按热度稳定降序，取前 TopN。
//
// 类目内并列取目录中靠前的商品；代表之间并列按类目首次出现顺序。
type Diversity struct {
	// TopN <= 0 时读取 rctx.Params["top_n"]，再否则为 5
	TopN int
}

func (r *Diversity) Name() string        { return "recall.diversity" }
func (r *Diversity) Kind() pipeline.Kind { return pipeline.KindRecall }

func (r *Diversity) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

func (r *Diversity) Recall(
	_ context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	c := catalogOf(rctx)
	if c == nil {
		return nil, nil
	}

	reps := Representatives(c)
	sort.SliceStable(reps, func(i, j int) bool {
		return reps[i].PopularityScore > reps[j].PopularityScore
	})
	reps = head(reps, topN(r.TopN, rctx, 5))

	out := make([]*core.Item, 0, len(reps))
	for _, p := range reps {
		it := core.NewItem(p)
		it.PutLabel(utils.LabelRecallSource, utils.NewLabel("diversity", "recall"))
		out = append(out, it)
	}
	return out, nil
}

// Representatives 按类目首次出现顺序返回每个类目热度最高的商品。
func Representatives(c core.Catalog) []*core.Product {
	cats := c.Categories()
	reps := make([]*core.Product, 0, len(cats))
	for _, cat := range cats {
		var best *core.Product
		for _, p := range c.FindByCategory(cat) {
			// 严格大于：并列保留先出现的
			if best == nil || p.PopularityScore > best.PopularityScore {
				best = p
			}
		}
		if best != nil {
			reps = append(reps, best)
		}
	}
	return reps
}
