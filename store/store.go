// Package store 提供 core.Store / core.ListStore 的实现。
//
// 此包只包含实现，接口定义在 core 包：
//
//	var s core.ListStore = store.NewMemoryStore()
//	s, err := store.Open(store.Config{Backend: "redis", RedisAddr: "localhost:6379"})
package store

import (
	"fmt"

	"github.com/rushteam/prodrec/core"
)

// 支持的存储后端
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config 选择并配置存储后端。
type Config struct {
	Backend   string
	RedisAddr string
	RedisDB   int
}

// Open 按配置创建存储。Backend 为空或 "none" 时返回 nil, nil。
func Open(cfg Config) (core.ListStore, error) {
	switch cfg.Backend {
	case "", BackendNone:
		return nil, nil
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendRedis:
		rs, err := NewRedisStore(cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		return rs, nil
	default:
		return nil, fmt.Errorf("store: unknown backend %q", cfg.Backend)
	}
}
