package rerank

import (
	"context"

	"github.com/rushteam/prodrec/core"
	"github.com/rushteam/prodrec/pipeline"
)

// ParamTopN 是 RecommendContext.Params 中的返回数量参数
const ParamTopN = "top_n"

// TopNNode 是一个 Top-N 截断节点，用于在排序后截取前 N 个物品。
// 通常是 Pipeline 的最后一个节点，保证返回列表长度不超过 N。
//
// 示例：
//
//	pipeline := &pipeline.Pipeline{
//	    Nodes: []pipeline.Node{
//	        &recall.Fanout{...},      // 召回
//	        &rank.TagBoostNode{},     // 打分
//	        &rerank.TopNNode{N: 6},   // 截取 Top 6
//	    },
//	}
type TopNNode struct {
	// N 要保留的物品数量（Top N）
	// 如果 N <= 0，读取 rctx.Params["top_n"]（此时 <= 0 表示返回空列表）；
	// 两者都没有时不截断。
	N int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	limit := n.N
	if limit <= 0 {
		limit = rctx.GetParamInt(ParamTopN, -1)
		if limit < 0 {
			return items, nil
		}
	}

	if len(items) <= limit {
		return items, nil
	}
	return items[:limit], nil
}
