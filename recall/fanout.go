package recall

import (
	"context"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/prodrec/core"
	"github.com/rushteam/prodrec/logging"
	"github.com/rushteam/prodrec/metrics"
	"github.com/rushteam/prodrec/pipeline"
	"github.com/rushteam/prodrec/pkg/utils"
)

// Fanout 是一个 Recall Node：并发执行多个召回源，并按 Sources 顺序合并结果。
// 合并顺序只取决于 Sources 的顺序（索引越小优先级越高），与完成先后无关。
type Fanout struct {
	Sources       []Source
	Timeout       time.Duration // 每个召回源的超时时间
	MaxConcurrent int           // 最大并发数（0 表示无限制）
	MergeStrategy MergeStrategy // 为空时使用 FirstMergeStrategy
}

func (n *Fanout) Name() string        { return "recall.fanout" }
func (n *Fanout) Kind() pipeline.Kind { return pipeline.KindRecall }

func (n *Fanout) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	if len(n.Sources) == 0 {
		return nil, nil
	}

	results := make([][]*core.Item, len(n.Sources))
	eg, egCtx := errgroup.WithContext(ctx)
	if n.MaxConcurrent > 0 {
		eg.SetLimit(n.MaxConcurrent)
	}

	for i, src := range n.Sources {
		i, src := i, src
		eg.Go(func() error {
			recallCtx := egCtx
			if n.Timeout > 0 {
				var cancel context.CancelFunc
				recallCtx, cancel = context.WithTimeout(egCtx, n.Timeout)
				defer cancel()
			}

			items, err := src.Recall(recallCtx, rctx)
			if err != nil {
				// 单个召回源失败不中断其他召回源
				metrics.RecallSourceErrors.WithLabelValues(src.Name()).Inc()
				logging.Warn().Err(err).Str("source", src.Name()).Msg("recall source failed")
				return nil
			}

			// 记录召回来源优先级，方便 explain / 观测
			for _, it := range items {
				it.PutLabel(utils.LabelRecallPriority, utils.NewLabel(strconv.Itoa(i), "recall"))
			}
			results[i] = items
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	all := make([]*core.Item, 0)
	for _, items := range results {
		all = append(all, items...)
	}

	strategy := n.MergeStrategy
	if strategy == nil {
		strategy = &FirstMergeStrategy{}
	}
	return strategy.Merge(all), nil
}

// MergeStrategy 决定 Fanout 如何合并各召回源的结果（输入已按优先级拼接）。
type MergeStrategy interface {
	Merge(items []*core.Item) []*core.Item
}

// FirstMergeStrategy 按 ID 去重，保留第一次出现的，后出现的 labels 合并到第一条上。
type FirstMergeStrategy struct{}

func (s *FirstMergeStrategy) Merge(items []*core.Item) []*core.Item {
	return DedupFirst(items)
}

// UnionMergeStrategy 保留所有结果，不去重。
type UnionMergeStrategy struct{}

func (s *UnionMergeStrategy) Merge(items []*core.Item) []*core.Item {
	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it != nil {
			out = append(out, it)
		}
	}
	return out
}

// DedupFirst 单次线性扫描去重：按 ID 保留第一次出现的 Item，保持原有顺序。
func DedupFirst(items []*core.Item) []*core.Item {
	seen := make(map[string]*core.Item, len(items))
	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		if first, ok := seen[it.ID]; ok {
			for k, v := range it.Labels {
				if k == utils.LabelRecallPriority {
					continue
				}
				first.PutLabel(k, v)
			}
			continue
		}
		seen[it.ID] = it
		out = append(out, it)
	}
	return out
}
