package cache

import (
	"context"
	"time"

	"Lantern/modules/kit/errx"

	"golang.org/x/sync/singleflight"
)

// KeyedProducer 按 key 回源。
type KeyedProducer[V any] func(ctx context.Context, key string) (V, error)

// KeyedRefresher 是 Refresher 的按 key 扩展：每个 key 一个缓存值，
// 同一 key 同一时刻至多一个 producer 在跑，不同 key 之间互不阻塞。
//
// 结果存入 TTLStore（TTL = maxAge），过期条目的回收依赖 Compact。
type KeyedRefresher[V any] struct {
	store   *TTLStore[string, V]
	group   singleflight.Group
	produce KeyedProducer[V]
}

func NewKeyedRefresher[V any](produce KeyedProducer[V], maxAge time.Duration) *KeyedRefresher[V] {
	return &KeyedRefresher[V]{
		store:   NewTTLStore[string, V](maxAge),
		produce: produce,
	}
}

// Get 返回 key 的新鲜值。等待中的调用方可以被自己的 ctx 打断，
// producer 本身运行在去掉取消信号的 ctx 上，结果仍会被写入供后来者使用。
func (k *KeyedRefresher[V]) Get(ctx context.Context, key string) (V, error) {
	if v, ok := k.store.Get(key); ok {
		return v, nil
	}

	ch := k.group.DoChan(key, func() (any, error) {
		if v, ok := k.store.Get(key); ok {
			return v, nil
		}
		v, err := k.produce(context.WithoutCancel(ctx), key)
		if err != nil {
			return nil, err
		}
		k.store.Put(key, v)
		return v, nil
	})

	var zero V
	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(V), nil
	case <-ctx.Done():
		return zero, errx.ErrTimeout.WithCause(ctx.Err())
	}
}

// Compact 删除已过期的 key。
func (k *KeyedRefresher[V]) Compact() int {
	return k.store.Compact()
}
