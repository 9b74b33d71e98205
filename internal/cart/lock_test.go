package cart

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLockerSerializesPerKey(t *testing.T) {
	locker := NewMemoryLocker()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(ctx, "customer-1")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Empty(t, locker.locks, "released keys are dropped")
}

func TestMemoryLockerKeysAreIndependent(t *testing.T) {
	locker := NewMemoryLocker()
	ctx := context.Background()

	unlockA, err := locker.Lock(ctx, "a")
	require.NoError(t, err)
	defer unlockA()

	unlockB, err := locker.Lock(ctx, "b")
	require.NoError(t, err)
	unlockB()
}

func TestMemoryLockerHonorsContext(t *testing.T) {
	locker := NewMemoryLocker()
	unlock, err := locker.Lock(context.Background(), "a")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctx, "a")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

type fakeLockRedis struct {
	mu   sync.Mutex
	data map[string]string
}

func (f *fakeLockRedis) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	f.data[key] = value.(string)
	return true, nil
}

func (f *fakeLockRedis) CompareAndDelete(_ context.Context, key, expected string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.data[key] != expected {
		return false, nil
	}
	delete(f.data, key)
	return true, nil
}

func (f *fakeLockRedis) LockKey(scope, id string) string { return "nb:lock:" + scope + ":" + id }

func TestRedisLockerWaitsForRelease(t *testing.T) {
	store := &fakeLockRedis{data: map[string]string{}}
	locker, err := NewRedisLocker(store)
	require.NoError(t, err)
	locker.interval = time.Millisecond

	ctx := context.Background()
	unlock, err := locker.Lock(ctx, "customer-1")
	require.NoError(t, err)
	assert.Contains(t, store.data, "nb:lock:cart:customer-1")

	acquired := make(chan struct{})
	go func() {
		second, err := locker.Lock(ctx, "customer-1")
		if assert.NoError(t, err) {
			close(acquired)
			second()
		}
	}()

	select {
	case <-acquired:
		t.Fatal("second lock acquired while the first was held")
	case <-time.After(20 * time.Millisecond):
	}
	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second lock never acquired")
	}
}
