package rerank

import (
	"context"

	"github.com/rushteam/prodrec/core"
	"github.com/rushteam/prodrec/pipeline"
	"github.com/rushteam/prodrec/recall"
)

// DedupNode 按 ID 去重，保留第一次出现的物品。
// 用于召回之后又拼接了其他列表的自定义 Pipeline。
type DedupNode struct{}

func (n *DedupNode) Name() string        { return "rerank.dedup" }
func (n *DedupNode) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *DedupNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	return recall.DedupFirst(items), nil
}
