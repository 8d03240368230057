package core

import "github.com/rushteam/prodrec/pkg/utils"

// RecommendContext 承载用户/会话/目录信息，贯穿整个 Pipeline 透传。
type RecommendContext struct {
	UserID    string
	SessionID string
	Scene     string // cold_start / personalized

	// Catalog 是只读目录句柄，所有召回源从这里取商品
	Catalog Catalog

	// User 是本次会话构建的画像；冷启动时为 nil
	User *UserProfile

	// Labels 是用户级标签，可驱动整个 Pipeline 行为
	Labels map[string]utils.Label

	// Params 请求级参数，例如 top_n
	Params map[string]any
}

// GetUserProfile 获取用户画像，没有时返回空画像（不会为 nil）。
func (rctx *RecommendContext) GetUserProfile() *UserProfile {
	if rctx.User != nil {
		return rctx.User
	}
	return NewUserProfile(rctx.UserID)
}

// PutLabel 写入用户级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取用户级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}

// GetParamInt 读取整型参数，不存在或类型不符时返回 def。
func (rctx *RecommendContext) GetParamInt(key string, def int) int {
	if rctx == nil || rctx.Params == nil {
		return def
	}
	switch v := rctx.Params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return def
	}
}
