package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedRefresher_CoalescesPerKey(t *testing.T) {
	var calls sync.Map
	release := make(chan struct{})
	k := NewKeyedRefresher(func(ctx context.Context, key string) (string, error) {
		n, _ := calls.LoadOrStore(key, new(atomic.Int32))
		n.(*atomic.Int32).Add(1)
		<-release
		return "v-" + key, nil
	}, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		for _, key := range []string{"a", "b"} {
			wg.Add(1)
			go func(key string) {
				defer wg.Done()
				v, err := k.Get(context.Background(), key)
				assert.NoError(t, err)
				assert.Equal(t, "v-"+key, v)
			}(key)
		}
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, key := range []string{"a", "b"} {
		n, ok := calls.Load(key)
		require.True(t, ok)
		require.Equal(t, int32(1), n.(*atomic.Int32).Load(), "key %s", key)
	}
}

func TestKeyedRefresher_ExpiryAndFailure(t *testing.T) {
	clock := newFakeClock()
	var calls atomic.Int32
	failNext := atomic.Bool{}
	k := NewKeyedRefresher(func(ctx context.Context, key string) (int, error) {
		calls.Add(1)
		if failNext.Load() {
			return 0, errors.New("down")
		}
		return len(key), nil
	}, 10*time.Second)
	k.store.now = clock.Now

	v, err := k.Get(context.Background(), "abc")
	require.NoError(t, err)
	require.Equal(t, 3, v)

	_, err = k.Get(context.Background(), "abc")
	require.NoError(t, err)
	require.Equal(t, int32(1), calls.Load())

	clock.Advance(11 * time.Second)
	failNext.Store(true)
	_, err = k.Get(context.Background(), "abc")
	require.Error(t, err)

	failNext.Store(false)
	v, err = k.Get(context.Background(), "abc")
	require.NoError(t, err)
	require.Equal(t, 3, v)
	require.Equal(t, int32(3), calls.Load())

	clock.Advance(11 * time.Second)
	require.Equal(t, 1, k.Compact())
}

func TestKeyedRefresher_CancelledWaiterDoesNotAbortProducer(t *testing.T) {
	release := make(chan struct{})
	k := NewKeyedRefresher(func(ctx context.Context, key string) (string, error) {
		<-release
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "done", nil
	}, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := k.Get(ctx, "x")
		errCh <- err
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)

	close(release)
	require.Eventually(t, func() bool {
		_, ok := k.store.Get("x")
		return ok
	}, time.Second, 5*time.Millisecond)
}
