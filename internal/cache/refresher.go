package cache

import (
	"context"
	"sync"
	"time"

	"Lantern/modules/kit/errx"
)

// Producer 是 Refresher 包装的无参上游调用。
type Producer[V any] func(ctx context.Context) (V, error)

// Refresher 在单个共享值上做 single-flight 刷新。
//
// 协议：
//  1. 独占获取锁；
//  2. 已有值且 now - refreshedAt <= maxAge，直接返回该值并释放锁；
//  3. 否则在持锁状态下执行 producer，成功后写入 (now, value) 再释放锁。
//
// 回源期间到达的调用方阻塞在锁上，拿到锁后看到的是刚刷新的值，
// 因此同一时刻至多一次回源。producer 失败时 refreshedAt/value 都不更新，下一次调用重试。
//
// 锁用容量为 1 的 channel 实现，调用方的 ctx 只能打断等待锁；
// producer 运行在去掉取消信号的 ctx 上，拿锁的调用方中途断开也会跑完并写入结果。
type Refresher[V any] struct {
	sem     chan struct{}
	produce Producer[V]
	maxAge  time.Duration

	// 以下字段只在持有 sem 时读写。
	refreshedAt time.Time
	value       V
	ok          bool

	now func() time.Time
}

func NewRefresher[V any](produce Producer[V], maxAge time.Duration) *Refresher[V] {
	return &Refresher[V]{
		sem:     make(chan struct{}, 1),
		produce: produce,
		maxAge:  maxAge,
		now:     time.Now,
	}
}

// Get 返回新鲜值，必要时回源。返回值是缓存值的浅拷贝。
func (r *Refresher[V]) Get(ctx context.Context) (V, error) {
	var zero V

	select {
	case r.sem <- struct{}{}:
	case <-ctx.Done():
		return zero, errx.ErrTimeout.WithCause(ctx.Err())
	}
	defer func() { <-r.sem }()

	if r.ok && r.now().Sub(r.refreshedAt) <= r.maxAge {
		return r.value, nil
	}

	v, err := r.produce(context.WithoutCancel(ctx))
	if err != nil {
		return zero, err
	}
	r.value, r.refreshedAt, r.ok = v, r.now(), true
	return v, nil
}

// SyncRefresher 与 Refresher 协议相同，锁为 sync.Mutex，producer 不接收 ctx。
type SyncRefresher[V any] struct {
	mu      sync.Mutex
	produce func() (V, error)
	maxAge  time.Duration

	refreshedAt time.Time
	value       V
	ok          bool

	now func() time.Time
}

func NewSyncRefresher[V any](produce func() (V, error), maxAge time.Duration) *SyncRefresher[V] {
	return &SyncRefresher[V]{
		produce: produce,
		maxAge:  maxAge,
		now:     time.Now,
	}
}

func (r *SyncRefresher[V]) Get() (V, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ok && r.now().Sub(r.refreshedAt) <= r.maxAge {
		return r.value, nil
	}

	v, err := r.produce()
	if err != nil {
		var zero V
		return zero, err
	}
	r.value, r.refreshedAt, r.ok = v, r.now(), true
	return v, nil
}
