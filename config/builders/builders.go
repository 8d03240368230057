package builders

import (
	"fmt"
	"sync"
	"time"

	"github.com/rushteam/prodrec/config"
	"github.com/rushteam/prodrec/core"
	"github.com/rushteam/prodrec/filter"
	"github.com/rushteam/prodrec/pipeline"
	"github.com/rushteam/prodrec/pkg/conv"
	"github.com/rushteam/prodrec/rank"
	"github.com/rushteam/prodrec/recall"
	"github.com/rushteam/prodrec/rerank"
)

func init() {
	config.Register("recall.fanout", BuildFanoutNode)
	config.Register("recall.trending", BuildTrendingNode)
	config.Register("recall.diversity", BuildDiversityRecallNode)
	config.Register("recall.category_quota", BuildCategoryQuotaNode)
	config.Register("rank.tag_boost", BuildTagBoostNode)
	config.Register("rank.sort", BuildSortNode)
	config.Register("rerank.topn", BuildTopNNode)
	config.Register("rerank.diversity", BuildDiversityNode)
	config.Register("rerank.dedup", BuildDedupNode)
	config.Register("filter", BuildFilterNode)
}

var (
	storeMu      sync.RWMutex
	storeAdapter *filter.StoreAdapter
)

// UseStore 设置配置化过滤器（blacklist 的 key、clicked）读取的存储，传 nil 取消。
func UseStore(s core.Store) {
	storeMu.Lock()
	defer storeMu.Unlock()
	if s == nil {
		storeAdapter = nil
		return
	}
	storeAdapter = filter.NewStoreAdapter(s)
}

func currentStore() *filter.StoreAdapter {
	storeMu.RLock()
	defer storeMu.RUnlock()
	return storeAdapter
}

func BuildFanoutNode(cfg map[string]any) (pipeline.Node, error) {
	sourcesConfig, ok := cfg["sources"].([]any)
	if !ok {
		return nil, fmt.Errorf("sources not found or invalid")
	}
	sources := make([]recall.Source, 0, len(sourcesConfig))
	for _, sc := range sourcesConfig {
		sourceMap, ok := sc.(map[string]any)
		if !ok {
			continue
		}
		sourceType := conv.ConfigGet(sourceMap, "type", "")
		switch sourceType {
		case "trending":
			sources = append(sources, buildTrending(sourceMap))
		case "diversity":
			sources = append(sources, buildDiversity(sourceMap))
		case "category_quota":
			sources = append(sources, buildCategoryQuota(sourceMap))
		default:
			return nil, fmt.Errorf("unknown source type: %s", sourceType)
		}
	}
	fanout := &recall.Fanout{Sources: sources}
	if sec := conv.ConfigGetInt(cfg, "timeout", 0); sec > 0 {
		fanout.Timeout = time.Duration(sec) * time.Second
	}
	if n := conv.ConfigGetInt(cfg, "max_concurrent", 0); n > 0 {
		fanout.MaxConcurrent = n
	}
	switch conv.ConfigGet(cfg, "merge_strategy", "") {
	case "union":
		fanout.MergeStrategy = &recall.UnionMergeStrategy{}
	default:
		fanout.MergeStrategy = &recall.FirstMergeStrategy{}
	}
	return fanout, nil
}

func buildTrending(cfg map[string]any) *recall.Trending {
	return &recall.Trending{TopN: conv.ConfigGetInt(cfg, "top_n", 0)}
}

func buildDiversity(cfg map[string]any) *recall.Diversity {
	return &recall.Diversity{TopN: conv.ConfigGetInt(cfg, "top_n", 0)}
}

func buildCategoryQuota(cfg map[string]any) *recall.CategoryQuota {
	return &recall.CategoryQuota{
		TopN:   conv.ConfigGetInt(cfg, "top_n", 0),
		Scorer: buildTagBoost(cfg),
	}
}

func buildTagBoost(cfg map[string]any) *rank.TagBoostNode {
	return &rank.TagBoostNode{
		Boost:      conv.ConfigGetFloat64(cfg, "boost", rank.DefaultBoost),
		PreferTags: conv.ConfigGetInt(cfg, "prefer_tags", rank.DefaultPreferTags),
	}
}

func BuildTrendingNode(cfg map[string]any) (pipeline.Node, error) {
	return buildTrending(cfg), nil
}

func BuildDiversityRecallNode(cfg map[string]any) (pipeline.Node, error) {
	return buildDiversity(cfg), nil
}

func BuildCategoryQuotaNode(cfg map[string]any) (pipeline.Node, error) {
	return buildCategoryQuota(cfg), nil
}

func BuildTagBoostNode(cfg map[string]any) (pipeline.Node, error) {
	return buildTagBoost(cfg), nil
}

func BuildSortNode(map[string]any) (pipeline.Node, error) {
	return &rank.SortNode{}, nil
}

func BuildTopNNode(cfg map[string]any) (pipeline.Node, error) {
	return &rerank.TopNNode{N: conv.ConfigGetInt(cfg, "n", 0)}, nil
}

func BuildDiversityNode(cfg map[string]any) (pipeline.Node, error) {
	labelKey := conv.ConfigGet(cfg, "label_key", "category")
	if labelKey == "" {
		labelKey = "category"
	}
	return &rerank.Diversity{LabelKey: labelKey}, nil
}

func BuildDedupNode(map[string]any) (pipeline.Node, error) {
	return &rerank.DedupNode{}, nil
}

func BuildFilterNode(cfg map[string]any) (pipeline.Node, error) {
	filtersConfig, ok := cfg["filters"].([]any)
	if !ok {
		return nil, fmt.Errorf("filters not found or invalid")
	}
	adapter := currentStore()
	filters := make([]filter.Filter, 0, len(filtersConfig))
	for _, fc := range filtersConfig {
		filterMap, ok := fc.(map[string]any)
		if !ok {
			continue
		}
		filterType := conv.ConfigGet(filterMap, "type", "")
		switch filterType {
		case "blacklist":
			ids := conv.SliceAnyToString(filterMap["item_ids"])
			if ids == nil {
				ids = []string{}
			}
			key := conv.ConfigGet(filterMap, "key", "")
			filters = append(filters, filter.NewBlacklistFilter(ids, adapter, key))
		case "clicked":
			if adapter == nil {
				return nil, fmt.Errorf("clicked filter needs a store (builders.UseStore)")
			}
			keyPrefix := conv.ConfigGet(filterMap, "key_prefix", "")
			filters = append(filters, filter.NewClickedFilter(adapter, keyPrefix))
		case "expr":
			f, err := filter.NewExprFilter(conv.ConfigGet(filterMap, "expr", ""))
			if err != nil {
				return nil, err
			}
			filters = append(filters, f)
		default:
			return nil, fmt.Errorf("unknown filter type: %s", filterType)
		}
	}
	return &filter.FilterNode{Filters: filters}, nil
}
