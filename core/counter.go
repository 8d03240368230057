package core

import "sort"

// Counter 是按插入顺序记忆 key 的计数器。
// 迭代顺序、MostCommon 的并列顺序都以首次插入顺序为准，保证结果确定。
type Counter struct {
	keys   []string
	counts map[string]int
}

// Count 是 Counter 中的一项。
type Count struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

func NewCounter() *Counter {
	return &Counter{counts: make(map[string]int)}
}

// Add 为 key 增加 n。
func (c *Counter) Add(key string, n int) {
	if c.counts == nil {
		c.counts = make(map[string]int)
	}
	if _, ok := c.counts[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.counts[key] += n
}

func (c *Counter) Get(key string) int {
	if c == nil {
		return 0
	}
	return c.counts[key]
}

func (c *Counter) Len() int {
	if c == nil {
		return 0
	}
	return len(c.keys)
}

// Keys 返回按首次插入顺序排列的 key。
func (c *Counter) Keys() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// Items 返回按首次插入顺序排列的计数。
func (c *Counter) Items() []Count {
	if c == nil {
		return nil
	}
	out := make([]Count, 0, len(c.keys))
	for _, k := range c.keys {
		out = append(out, Count{Key: k, Count: c.counts[k]})
	}
	return out
}

// Map 返回计数的拷贝。
func (c *Counter) Map() map[string]int {
	out := make(map[string]int, c.Len())
	if c == nil {
		return out
	}
	for k, v := range c.counts {
		out[k] = v
	}
	return out
}

// MostCommon 返回计数最高的 n 项，计数相同保持插入顺序；n <= 0 返回全部。
func (c *Counter) MostCommon(n int) []Count {
	items := c.Items()
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Count > items[j].Count
	})
	if n > 0 && len(items) > n {
		items = items[:n]
	}
	return items
}
