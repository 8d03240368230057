// Package recorder 把会话中的选择写入交互日志，并可选地镜像到 core.ListStore。
package recorder

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/rushteam/prodrec/core"
	"github.com/rushteam/prodrec/logging"
	"github.com/rushteam/prodrec/metrics"
)

// DefaultKeyPrefix 是镜像列表的默认 key 前缀。
const DefaultKeyPrefix = "prodrec:interactions"

// InteractionLog 是只追加的交互日志，catalog.Store 实现了它。
type InteractionLog interface {
	AppendInteractions(userID string, productIDs []string) []core.Interaction
}

// Recorder 记录用户点击。
type Recorder struct {
	Log InteractionLog

	// Mirror 为空时只写内存日志
	Mirror core.ListStore

	// KeyPrefix 为空时使用 DefaultKeyPrefix；
	// 镜像写入 {KeyPrefix}:{userID} 和 {KeyPrefix}:all
	KeyPrefix string
}

// New 创建 Recorder，mirror 可以为 nil。
func New(log InteractionLog, mirror core.ListStore, keyPrefix string) *Recorder {
	return &Recorder{Log: log, Mirror: mirror, KeyPrefix: keyPrefix}
}

// Record 按输入顺序为每个 id 追加一条点击记录，未知 id 同样记录。
// 镜像失败时返回错误，此时内存日志已经追加。
func (r *Recorder) Record(ctx context.Context, userID string, productIDs []string) error {
	if len(productIDs) == 0 {
		return nil
	}
	if r.Log == nil {
		return core.NewDomainError(core.ModuleRecorder, core.ErrorCodeInvalidInput, "recorder: no interaction log")
	}

	snapshot := r.Log.AppendInteractions(userID, productIDs)
	metrics.InteractionsRecorded.WithLabelValues(core.InteractionClick).Add(float64(len(productIDs)))
	logging.Debug().Str("user_id", userID).Int("records", len(productIDs)).Int("log_size", len(snapshot)).Msg("interactions recorded")

	if r.Mirror == nil {
		return nil
	}
	// 本次追加的记录位于快照末尾
	return r.mirror(ctx, userID, snapshot[len(snapshot)-len(productIDs):])
}

func (r *Recorder) mirror(ctx context.Context, userID string, records []core.Interaction) error {
	values := make([][]byte, 0, len(records))
	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode interaction: %w", err)
		}
		values = append(values, data)
	}

	prefix := r.KeyPrefix
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	for _, key := range []string{prefix + ":" + userID, prefix + ":all"} {
		if _, err := r.Mirror.RPush(ctx, key, values...); err != nil {
			logging.Error().Err(err).Str("store", r.Mirror.Name()).Str("key", key).Msg("mirror interactions failed")
			return fmt.Errorf("mirror interactions to %s: %w", key, err)
		}
	}
	return nil
}

// Decode 解析镜像中的一条记录。
func Decode(data []byte) (core.Interaction, error) {
	var rec core.Interaction
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("decode interaction: %w", err)
	}
	return rec, nil
}
