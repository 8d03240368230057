package rank

import (
	"context"
	"sort"
	"strings"

	"github.com/rushteam/prodrec/core"
	"github.com/rushteam/prodrec/pipeline"
	"github.com/rushteam/prodrec/pkg/utils"
)

const (
	// DefaultBoost 每命中一个偏好标签的加分
	DefaultBoost = 5.0
	// DefaultPreferTags 取画像中出现最多的前几个标签作为偏好标签
	DefaultPreferTags = 3

	// FeatureFinalScore 写入 Item.Features 的最终分
	FeatureFinalScore = "final_score"
	// FeatureTagHits 命中的偏好标签个数
	FeatureTagHits = "tag_hits"
)

// Score 是个性化打分原语：
//
//	score = popularity_score + boost × |{t ∈ preferredTags : t ∈ product.Tags()}|
//
// 每个偏好标签最多计一次；返回命中的标签（按 preferredTags 顺序）。
func Score(p *core.Product, preferredTags []string, boost float64) (float64, []string) {
	if len(preferredTags) == 0 {
		return p.PopularityScore, nil
	}
	tags := make(map[string]struct{})
	for _, t := range p.Tags() {
		tags[t] = struct{}{}
	}
	var hits []string
	for _, t := range preferredTags {
		if _, ok := tags[t]; ok {
			hits = append(hits, t)
		}
	}
	return p.PopularityScore + boost*float64(len(hits)), hits
}

// TagBoostNode 用画像的偏好标签为候选打分。
// 作为 Node 使用时只更新分数，不改变顺序；排序由召回源或后续节点决定。
type TagBoostNode struct {
	// Boost <= 0 时使用 DefaultBoost
	Boost float64
	// PreferTags <= 0 时使用 DefaultPreferTags
	PreferTags int
}

func (n *TagBoostNode) Name() string        { return "rank.tag_boost" }
func (n *TagBoostNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *TagBoostNode) boost() float64 {
	if n == nil || n.Boost <= 0 {
		return DefaultBoost
	}
	return n.Boost
}

func (n *TagBoostNode) preferTags() int {
	if n == nil || n.PreferTags <= 0 {
		return DefaultPreferTags
	}
	return n.PreferTags
}

// PreferredTags 返回画像中出现最多的标签，并列按首次出现顺序。
func (n *TagBoostNode) PreferredTags(profile *core.UserProfile) []string {
	return profile.PreferTags(n.preferTags())
}

// ScoreItem 计算并写入 item 的最终分。
func (n *TagBoostNode) ScoreItem(it *core.Item, preferredTags []string) {
	if it.Product == nil {
		return
	}
	score, hits := Score(it.Product, preferredTags, n.boost())
	it.Score = score
	if it.Features == nil {
		it.Features = make(map[string]float64)
	}
	it.Features[FeatureFinalScore] = score
	it.Features[FeatureTagHits] = float64(len(hits))
	if len(hits) > 0 {
		if it.Labels == nil {
			it.Labels = make(map[string]utils.Label)
		}
		it.Labels[utils.LabelTagHits] = utils.NewLabel(strings.Join(hits, ","), "rank")
	}
}

// ScoreProducts 为商品打分并按分数稳定降序排列（并列保持输入顺序）。
func (n *TagBoostNode) ScoreProducts(products []*core.Product, preferredTags []string) []*core.Item {
	items := make([]*core.Item, 0, len(products))
	for _, p := range products {
		it := core.NewItem(p)
		n.ScoreItem(it, preferredTags)
		items = append(items, it)
	}
	SortByScore(items)
	return items
}

func (n *TagBoostNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}
	var profile *core.UserProfile
	if rctx != nil {
		profile = rctx.User
	}
	preferred := n.PreferredTags(profile)
	for _, it := range items {
		if it == nil {
			continue
		}
		n.ScoreItem(it, preferred)
	}
	return items, nil
}

// SortByScore 按 Score 稳定降序排序。
func SortByScore(items []*core.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})
}

// SortByPopularity 按热度稳定降序排序商品（并列保持目录顺序），返回新切片。
func SortByPopularity(products []*core.Product) []*core.Product {
	out := make([]*core.Product, len(products))
	copy(out, products)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PopularityScore > out[j].PopularityScore
	})
	return out
}
