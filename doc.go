// Package prodrec 是一个两阶段商品推荐器。
//
// 设计要点：
// - 冷启动：每个类目的代表商品 + 全局热门，去重后截断
// - 个性化：按会话画像的类目点击数分配名额，偏好标签加分，热门补齐
// - Pipeline-first: 两条链路都由 Node 串联（Recall → Filter → Rank → ReRank），可由 YAML 配置替换
// - Labels-first: labels 全链路透传，记录召回来源、命中标签等，便于 explain
//
// 入口见 recommend.Engine 与 cmd/prodrec。
package prodrec

import "github.com/rushteam/prodrec/pipeline"

// 轻量 facade：便于直接 import "prodrec" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall = pipeline.KindRecall
	KindFilter = pipeline.KindFilter
	KindRank   = pipeline.KindRank
	KindReRank = pipeline.KindReRank
)
