package filter

import (
	"context"

	"github.com/rushteam/prodrec/core"
)

// DefaultClickedKeyPrefix 与 recorder 写入交互日志镜像时的默认前缀一致。
const DefaultClickedKeyPrefix = "prodrec:interactions"

// ClickedFilter 过滤掉用户已经点击过的商品，点击历史来自交互日志镜像。
type ClickedFilter struct {
	// Store 用于读取用户点击历史
	Store ClickedStore

	// KeyPrefix 实际 key 为 {KeyPrefix}:{UserID}
	KeyPrefix string
}

// ClickedStore 是点击历史存储接口。
type ClickedStore interface {
	GetClickedItems(ctx context.Context, userID string, keyPrefix string) ([]string, error)
}

// NewClickedFilter 创建一个已点击过滤器。
func NewClickedFilter(storeAdapter *StoreAdapter, keyPrefix string) *ClickedFilter {
	var store ClickedStore
	if storeAdapter != nil {
		store = storeAdapter
	}
	return &ClickedFilter{
		Store:     store,
		KeyPrefix: keyPrefix,
	}
}

func (f *ClickedFilter) Name() string {
	return "filter.clicked"
}

func (f *ClickedFilter) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil || rctx == nil || rctx.UserID == "" || f.Store == nil {
		return false, nil
	}

	keyPrefix := f.KeyPrefix
	if keyPrefix == "" {
		keyPrefix = DefaultClickedKeyPrefix
	}

	clicked, err := f.Store.GetClickedItems(ctx, rctx.UserID, keyPrefix)
	if err != nil {
		return false, err
	}
	for _, id := range clicked {
		if item.ID == id {
			return true, nil
		}
	}
	return false, nil
}
