package recall

import (
	"context"
	"strconv"

	"github.com/rushteam/prodrec/core"
	"github.com/rushteam/prodrec/pipeline"
	"github.com/rushteam/prodrec/pkg/utils"
	"github.com/rushteam/prodrec/rank"
)

// CategoryQuota 是个性化召回：按画像的类目点击数分配名额，类目内按标签加分排序。
//
// 无类目信号时：全目录打分排序，取前 TopN。
//
// 有类目信号时：类目按点击数降序（并列按首次出现顺序），
// share = TopN / 类目数，leftover = TopN % 类目数。
// 排名第一的类目取 share+leftover 个，其余类目各取 share 个，按类目名次拼接。
// share 可能为 0，此时只有第一名类目贡献 leftover 个。
//
// 返回数量可能少于 TopN（类目商品不足），由后续的热门召回补齐。
type CategoryQuota struct {
	// TopN <= 0 时读取 rctx.Params["top_n"]，再否则为 6
	TopN int

	// Scorer 为空时使用默认的 rank.TagBoostNode（加分 5，偏好标签 3 个）
	Scorer *rank.TagBoostNode
}

func (r *CategoryQuota) Name() string        { return "recall.category_quota" }
func (r *CategoryQuota) Kind() pipeline.Kind { return pipeline.KindRecall }

func (r *CategoryQuota) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

func (r *CategoryQuota) Recall(
	_ context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	c := catalogOf(rctx)
	if c == nil {
		return nil, nil
	}
	n := topN(r.TopN, rctx, 6)
	if n <= 0 {
		return nil, nil
	}

	scorer := r.Scorer
	if scorer == nil {
		scorer = &rank.TagBoostNode{}
	}
	profile := rctx.GetUserProfile()
	preferred := scorer.PreferredTags(profile)

	if !profile.HasCategorySignal() {
		out := head(scorer.ScoreProducts(c.Products(), preferred), n)
		for _, it := range out {
			it.PutLabel(utils.LabelRecallSource, utils.NewLabel("tag_boost", "recall"))
		}
		return out, nil
	}

	ranked := profile.RankedCategories()
	share := n / len(ranked)
	leftover := n % len(ranked)

	out := make([]*core.Item, 0, n)
	for i, cat := range ranked {
		quota := share
		if i == 0 {
			quota += leftover
		}
		if quota == 0 {
			continue
		}
		scored := head(scorer.ScoreProducts(c.FindByCategory(cat), preferred), quota)
		for _, it := range scored {
			it.PutLabel(utils.LabelRecallSource, utils.NewLabel("category_quota", "recall"))
			it.PutLabel(utils.LabelCategoryRank, utils.NewLabel(strconv.Itoa(i+1), "recall"))
		}
		out = append(out, scored...)
	}
	return out, nil
}
