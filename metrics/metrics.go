// Package metrics 定义推荐链路的 Prometheus 指标，注册在默认 Registry 上。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecommendationsServed 按选择器统计生成的推荐列表数
	RecommendationsServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prodrec_recommendations_served_total",
			Help: "Recommendation lists produced, by selector",
		},
		[]string{"selector"},
	)

	// RecommendationListSize 推荐列表长度分布
	RecommendationListSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "prodrec_recommendation_list_size",
			Help:    "Number of items in a recommendation list",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"selector"},
	)

	// BackfillItems 个性化推荐中由热门补齐的物品数
	BackfillItems = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "prodrec_backfill_items_total",
			Help: "Items added by the trending backfill",
		},
	)

	// UnknownProducts 构建画像时遇到的未知商品 ID 数
	UnknownProducts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "prodrec_unknown_products_total",
			Help: "Selected product ids missing from the catalog",
		},
	)

	// InteractionsRecorded 写入交互日志的记录数
	InteractionsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prodrec_interactions_recorded_total",
			Help: "Interaction records appended to the log, by interaction type",
		},
		[]string{"interaction"},
	)

	// RecallSourceErrors Fanout 中失败的召回源
	RecallSourceErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prodrec_recall_source_errors_total",
			Help: "Recall sources that failed inside a fanout",
		},
		[]string{"source"},
	)
)

// ObserveList 记录一次推荐输出。
func ObserveList(selector string, size int) {
	RecommendationsServed.WithLabelValues(selector).Inc()
	RecommendationListSize.WithLabelValues(selector).Observe(float64(size))
}
