package cart

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/nearbuy-backend/pkg/redis"
)

// Locker serializes cart mutations for one key.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// MemoryLocker is a keyed mutex for a single process.
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	sem  chan struct{}
	refs int
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{locks: map[string]*keyLock{}}
}

func (l *MemoryLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	kl, ok := l.locks[key]
	if !ok {
		kl = &keyLock{sem: make(chan struct{}, 1)}
		l.locks[key] = kl
	}
	kl.refs++
	l.mu.Unlock()

	select {
	case kl.sem <- struct{}{}:
		return func() {
			<-kl.sem
			l.release(key, kl)
		}, nil
	case <-ctx.Done():
		l.release(key, kl)
		return nil, ctx.Err()
	}
}

func (l *MemoryLocker) release(key string, kl *keyLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kl.refs--
	if kl.refs == 0 {
		delete(l.locks, key)
	}
}

type redisLockClient interface {
	redis.LockStore
	LockKey(scope, id string) string
}

// RedisLocker holds a Redis lock per key so several API instances share
// one cart view.
type RedisLocker struct {
	client   redisLockClient
	ttl      time.Duration
	interval time.Duration
}

const (
	cartLockScope    = "cart"
	cartLockTTL      = 10 * time.Second
	cartLockInterval = 25 * time.Millisecond
)

func NewRedisLocker(client redisLockClient) (*RedisLocker, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	return &RedisLocker{client: client, ttl: cartLockTTL, interval: cartLockInterval}, nil
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	lock, err := redis.NewLock(l.client, l.client.LockKey(cartLockScope, key), l.ttl)
	if err != nil {
		return nil, err
	}
	if err := lock.AcquireWait(ctx, l.interval); err != nil {
		return nil, fmt.Errorf("acquire cart lock: %w", err)
	}
	return func() {
		_ = lock.Release(context.WithoutCancel(ctx))
	}, nil
}
