package cache

import (
	"sync"
	"time"
)

// entry 是 TTLStore 中的一条记录，expiresAt 为绝对过期时刻。
type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTLStore 是并发安全的 key -> value 存储，每条记录带绝对过期时间。
type TTLStore[K comparable, V any] struct {
	mu         sync.RWMutex
	items      map[K]entry[V]
	defaultTTL time.Duration

	now func() time.Time
}

// NewTTLStore 创建存储，defaultTTL 用于 Put。
func NewTTLStore[K comparable, V any](defaultTTL time.Duration) *TTLStore[K, V] {
	return &TTLStore[K, V]{
		items:      make(map[K]entry[V]),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

// Put 按默认 TTL 写入（覆盖已有值）。
func (s *TTLStore[K, V]) Put(key K, value V) {
	s.PutWithTTL(key, value, s.defaultTTL)
}

// PutWithTTL 以 ttl 覆盖默认 TTL 写入。ttl <= 0 的记录立即视为过期。
func (s *TTLStore[K, V]) PutWithTTL(key K, value V, ttl time.Duration) {
	expiresAt := s.now().Add(ttl)

	s.mu.Lock()
	s.items[key] = entry[V]{value: value, expiresAt: expiresAt}
	s.mu.Unlock()
}

// Get 只在 now < expiresAt 时命中。过期记录保留在表中，直到被覆盖或 Compact。
func (s *TTLStore[K, V]) Get(key K) (V, bool) {
	now := s.now()

	s.mu.RLock()
	e, ok := s.items[key]
	s.mu.RUnlock()

	if !ok || !now.Before(e.expiresAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Delete 删除 key（不存在时无操作）。
func (s *TTLStore[K, V]) Delete(key K) {
	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()
}

// Len 返回表中条目数，包含已过期但尚未 Compact 的条目。
func (s *TTLStore[K, V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Compact 全表扫描并删除已过期条目，返回删除数量。O(n)。
func (s *TTLStore[K, V]) Compact() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, e := range s.items {
		if !now.Before(e.expiresAt) {
			delete(s.items, key)
			removed++
		}
	}
	return removed
}
