package pipeline

import (
	"context"

	"github.com/rushteam/prodrec/core"
)

// Kind 标记 Node 所处的阶段，日志里按它区分。
type Kind string

const (
	KindRecall Kind = "recall" // 从目录取候选
	KindFilter Kind = "filter" // 剔除候选
	KindRank   Kind = "rank"   // 写入最终分
	KindReRank Kind = "rerank" // 去重、打散、截断
)

// Node 接收上一步的候选列表并返回新列表。
// 召回类 Node 忽略输入，直接从 rctx.Catalog 生成。
type Node interface {
	Name() string
	Kind() Kind
	Process(ctx context.Context, rctx *core.RecommendContext, items []*core.Item) ([]*core.Item, error)
}

// NodeBuilder 用 YAML/JSON 中的 config 段构造 Node。
type NodeBuilder func(config map[string]any) (Node, error)
