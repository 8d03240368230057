package rank

import (
	"context"

	"github.com/rushteam/prodrec/core"
	"github.com/rushteam/prodrec/pipeline"
)

// SortNode 按 Score 稳定降序重排候选，用于配置化 Pipeline 中打分之后。
type SortNode struct{}

func (n *SortNode) Name() string        { return "rank.sort" }
func (n *SortNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *SortNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it != nil {
			out = append(out, it)
		}
	}
	SortByScore(out)
	return out, nil
}
