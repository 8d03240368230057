package store

import (
	"context"
	"sync"
	"time"

	"github.com/rushteam/prodrec/core"
)

// MemoryStore 是内存实现的 Store，用于测试/开发/原型。
// 支持 TTL（读取时惰性过期）与只追加列表，进程重启后数据丢失。
type MemoryStore struct {
	mu    sync.RWMutex
	data  map[string]*entry
	lists map[string][][]byte
	now   func() time.Time
}

type entry struct {
	value []byte
	ttl   *time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data:  make(map[string]*entry),
		lists: make(map[string][][]byte),
		now:   time.Now,
	}
}

func (m *MemoryStore) Name() string { return "memory" }

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.data[key]
	if !ok {
		return nil, core.ErrStoreNotFound
	}
	if e.ttl != nil && m.now().After(*e.ttl) {
		return nil, core.ErrStoreNotFound
	}
	return e.value, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value []byte, ttl ...int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := &entry{value: value}
	if len(ttl) > 0 && ttl[0] > 0 {
		expire := m.now().Add(time.Duration(ttl[0]) * time.Second)
		e.ttl = &expire
	}
	m.data[key] = e
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	delete(m.lists, key)
	return nil
}

// RPush 追加到列表末尾。values 会被复制，调用方可以复用缓冲区。
func (m *MemoryStore) RPush(_ context.Context, key string, values ...[]byte) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, v := range values {
		m.lists[key] = append(m.lists[key], append([]byte(nil), v...))
	}
	return int64(len(m.lists[key])), nil
}

// LRange 与 Redis LRANGE 语义一致：负数下标从末尾计数，越界自动截断。
func (m *MemoryStore) LRange(_ context.Context, key string, start, stop int64) ([][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := m.lists[key]
	n := int64(len(list))
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if n == 0 || start > stop {
		return [][]byte{}, nil
	}

	out := make([][]byte, 0, stop-start+1)
	for i := start; i <= stop; i++ {
		out = append(out, list[i])
	}
	return out, nil
}

func (m *MemoryStore) LLen(_ context.Context, key string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.lists[key])), nil
}

func (m *MemoryStore) Close() error {
	return nil
}

var _ core.ListStore = (*MemoryStore)(nil)
