// Package recommend 组装冷启动与个性化两条推荐链路，并驱动用户会话。
//
//	eng := recommend.NewEngine(catalogStore, nil)
//	cold, _ := eng.ColdStart(ctx, "U4", 0)
//	res := profile.Build(catalogStore, "U4", []string{"P1", "P4"})
//	recs, _ := eng.Personalized(ctx, "U4", res.Profile, 0)
package recommend

import (
	"context"

	"github.com/google/uuid"

	"github.com/rushteam/prodrec/core"
	"github.com/rushteam/prodrec/filter"
	"github.com/rushteam/prodrec/metrics"
	"github.com/rushteam/prodrec/pipeline"
	"github.com/rushteam/prodrec/pkg/utils"
	"github.com/rushteam/prodrec/rank"
	"github.com/rushteam/prodrec/recall"
	"github.com/rushteam/prodrec/rerank"
)

// 场景名，同时作为指标的 selector 标签
const (
	SceneColdStart    = "cold_start"
	ScenePersonalized = "personalized"
)

// Engine 持有目录和推荐参数，构建并执行两条 Pipeline。
type Engine struct {
	Catalog core.Catalog
	Config  core.RecommendConfig

	// Filters 插入在召回/打分之后、截断之前，默认为空
	Filters []filter.Filter

	// 配置化 Pipeline，为空时使用内置链路；Filters 追加在其末尾
	ColdStartPipeline    *pipeline.Pipeline
	PersonalizedPipeline *pipeline.Pipeline
}

// NewEngine 创建 Engine，cfg 为空时使用 core.DefaultRecommendConfig。
func NewEngine(c core.Catalog, cfg core.RecommendConfig) *Engine {
	if cfg == nil {
		cfg = &core.DefaultRecommendConfig{}
	}
	return &Engine{Catalog: c, Config: cfg}
}

func (e *Engine) scorer() *rank.TagBoostNode {
	return &rank.TagBoostNode{
		Boost:      e.Config.DefaultTagBoost(),
		PreferTags: e.Config.DefaultPreferTags(),
	}
}

func (e *Engine) filterNodes() []pipeline.Node {
	if len(e.Filters) == 0 {
		return nil
	}
	return []pipeline.Node{&filter.FilterNode{Filters: e.Filters}}
}

// withFilters 在配置化 Pipeline 末尾追加 Engine.Filters，原 Pipeline 不变。
func (e *Engine) withFilters(p *pipeline.Pipeline) *pipeline.Pipeline {
	extra := e.filterNodes()
	if len(extra) == 0 {
		return p
	}
	nodes := make([]pipeline.Node, 0, len(p.Nodes)+len(extra))
	nodes = append(nodes, p.Nodes...)
	nodes = append(nodes, extra...)
	return &pipeline.Pipeline{Name: p.Name, Nodes: nodes}
}

// ColdStartPipelineFor 返回内置的冷启动链路：
// 多样性召回 + 热门召回（按此优先级去重合并）→ 过滤 → Top-N 截断。
func (e *Engine) ColdStartPipelineFor(topN int) *pipeline.Pipeline {
	nodes := []pipeline.Node{
		&recall.Fanout{Sources: []recall.Source{
			&recall.Diversity{TopN: topN},
			&recall.Trending{TopN: topN},
		}},
	}
	nodes = append(nodes, e.filterNodes()...)
	nodes = append(nodes, &rerank.TopNNode{N: topN})
	return &pipeline.Pipeline{Name: SceneColdStart, Nodes: nodes}
}

// PersonalizedPipelineFor 返回内置的个性化链路：
// 类目配额召回 + 热门补齐 → 标签加分（补齐的商品同样打分）→ 过滤 → Top-N 截断。
func (e *Engine) PersonalizedPipelineFor(topN int) *pipeline.Pipeline {
	scorer := e.scorer()
	nodes := []pipeline.Node{
		&recall.Fanout{Sources: []recall.Source{
			&recall.CategoryQuota{TopN: topN, Scorer: scorer},
			&recall.Trending{TopN: topN},
		}},
		scorer,
	}
	nodes = append(nodes, e.filterNodes()...)
	nodes = append(nodes, &rerank.TopNNode{N: topN})
	return &pipeline.Pipeline{Name: ScenePersonalized, Nodes: nodes}
}

// ColdStart 生成冷启动推荐，topN <= 0 返回空列表。
func (e *Engine) ColdStart(ctx context.Context, userID string, topN int) ([]*core.Item, error) {
	p := e.ColdStartPipeline
	if p == nil {
		p = e.ColdStartPipelineFor(topN)
	} else {
		p = e.withFilters(p)
	}
	return e.run(ctx, p, e.newContext(userID, SceneColdStart, nil, topN), topN)
}

// Personalized 基于会话画像生成个性化推荐，topN <= 0 返回空列表。
func (e *Engine) Personalized(ctx context.Context, userID string, profile *core.UserProfile, topN int) ([]*core.Item, error) {
	p := e.PersonalizedPipeline
	if p == nil {
		p = e.PersonalizedPipelineFor(topN)
	} else {
		p = e.withFilters(p)
	}
	items, err := e.run(ctx, p, e.newContext(userID, ScenePersonalized, profile, topN), topN)
	if err != nil {
		return nil, err
	}
	if n := countBackfill(items); n > 0 {
		metrics.BackfillItems.Add(float64(n))
	}
	return items, nil
}

func (e *Engine) newContext(userID, scene string, profile *core.UserProfile, topN int) *core.RecommendContext {
	return &core.RecommendContext{
		UserID:    userID,
		SessionID: uuid.NewString(),
		Scene:     scene,
		Catalog:   e.Catalog,
		User:      profile,
		Params:    map[string]any{rerank.ParamTopN: topN},
	}
}

// run 执行 Pipeline，并对结果再做一次去重与截断，保证配置化 Pipeline 也满足输出约束。
func (e *Engine) run(ctx context.Context, p *pipeline.Pipeline, rctx *core.RecommendContext, topN int) ([]*core.Item, error) {
	if topN <= 0 || e.Catalog == nil {
		metrics.ObserveList(rctx.Scene, 0)
		return []*core.Item{}, nil
	}
	items, err := p.Run(ctx, rctx, nil)
	if err != nil {
		return nil, err
	}
	items = recall.DedupFirst(items)
	if len(items) > topN {
		items = items[:topN]
	}
	metrics.ObserveList(rctx.Scene, len(items))
	return items, nil
}

// countBackfill 统计首次出现于热门补齐召回源（Fanout 中优先级 1）的物品数。
func countBackfill(items []*core.Item) int {
	n := 0
	for _, it := range items {
		if lbl, ok := it.Labels[utils.LabelRecallPriority]; ok && lbl.Value == "1" {
			n++
		}
	}
	return n
}

// ColdStart 使用默认配置生成冷启动推荐。
func ColdStart(ctx context.Context, c core.Catalog, topN int) ([]*core.Item, error) {
	return NewEngine(c, nil).ColdStart(ctx, "", topN)
}

// Personalized 使用默认配置生成个性化推荐。
func Personalized(ctx context.Context, c core.Catalog, profile *core.UserProfile, topN int) ([]*core.Item, error) {
	var userID string
	if profile != nil {
		userID = profile.UserID
	}
	return NewEngine(c, nil).Personalized(ctx, userID, profile, topN)
}
