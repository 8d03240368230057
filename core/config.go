package core

// RecommendConfig 提供选择器的默认参数。
type RecommendConfig interface {
	// DefaultColdStartTopN 冷启动默认返回数量
	DefaultColdStartTopN() int

	// DefaultPersonalizedTopN 个性化默认返回数量
	DefaultPersonalizedTopN() int

	// DefaultTagBoost 每命中一个偏好标签的加分
	DefaultTagBoost() float64

	// DefaultPreferTags 参与加分的偏好标签个数
	DefaultPreferTags() int
}

// DefaultRecommendConfig 是默认的推荐配置实现。
type DefaultRecommendConfig struct{}

func (c *DefaultRecommendConfig) DefaultColdStartTopN() int {
	return 5
}

func (c *DefaultRecommendConfig) DefaultPersonalizedTopN() int {
	return 6
}

func (c *DefaultRecommendConfig) DefaultTagBoost() float64 {
	return 5
}

func (c *DefaultRecommendConfig) DefaultPreferTags() int {
	return 3
}
