package filter

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/rushteam/prodrec/core"
)

// StoreAdapter 将 core.Store 适配为过滤器所需的存储接口。
type StoreAdapter struct {
	store core.Store
}

// NewStoreAdapter 创建一个 core.Store 适配器。
func NewStoreAdapter(s core.Store) *StoreAdapter {
	return &StoreAdapter{store: s}
}

// GetBlacklist 从 Store 读取黑名单，值为 JSON 字符串数组。
func (a *StoreAdapter) GetBlacklist(ctx context.Context, key string) ([]string, error) {
	data, err := a.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("decode blacklist %s: %w", key, err)
	}
	return ids, nil
}

// GetClickedItems 从交互日志镜像读取用户点击过的商品 ID，key 为 {keyPrefix}:{userID}。
// 底层 Store 需要实现 core.ListStore。
func (a *StoreAdapter) GetClickedItems(ctx context.Context, userID string, keyPrefix string) ([]string, error) {
	ls, ok := a.store.(core.ListStore)
	if !ok {
		return nil, core.ErrStoreNotSupported
	}

	raw, err := ls.LRange(ctx, keyPrefix+":"+userID, 0, -1)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(raw))
	for _, data := range raw {
		var rec core.Interaction
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("decode interaction: %w", err)
		}
		if rec.Interaction != core.InteractionClick {
			continue
		}
		ids = append(ids, rec.ProductID)
	}
	return ids, nil
}
