package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const defaultLockTTL = 30 * time.Second

// LockStore is the subset of Client a Lock needs.
type LockStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	CompareAndDelete(ctx context.Context, key, expected string) (bool, error)
}

// Lock is a SETNX + TTL lock owned by whoever wrote the current value.
type Lock struct {
	client LockStore
	key    string
	ttl    time.Duration
	owner  string
}

// NewLock constructs a lock on key.
func NewLock(client LockStore, key string, ttl time.Duration) (*Lock, error) {
	if client == nil {
		return nil, errors.New("redis client required for lock")
	}
	if key == "" {
		return nil, errors.New("lock key is required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &Lock{client: client, key: key, ttl: ttl}, nil
}

// Acquire tries once to own the lock for the configured TTL.
func (l *Lock) Acquire(ctx context.Context) (bool, error) {
	owner := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, owner, l.ttl)
	if err != nil {
		return false, fmt.Errorf("setnx: %w", err)
	}
	if ok {
		l.owner = owner
	}
	return ok, nil
}

// AcquireWait retries Acquire every interval until it succeeds or ctx ends.
func (l *Lock) AcquireWait(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		ok, err := l.Acquire(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Release frees the lock only if this Lock still owns it. A lock that
// expired and was taken by someone else is left alone.
func (l *Lock) Release(ctx context.Context) error {
	if l.owner == "" {
		return nil
	}
	owner := l.owner
	l.owner = ""
	if _, err := l.client.CompareAndDelete(ctx, l.key, owner); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}
