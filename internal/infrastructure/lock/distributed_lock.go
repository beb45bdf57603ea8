package lock

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

var ErrLockFailed = errors.New("failed to acquire distributed lock")

// DistributedLock is a Redis SET NX EX lock. The value identifies the holder
// so that an expired holder cannot release a lock someone else has since
// taken.
type DistributedLock struct {
	client     *redis.Client
	key        string
	value      string
	expiration time.Duration
}

func NewDistributedLock(client *redis.Client, key, value string, expiration time.Duration) *DistributedLock {
	return &DistributedLock{
		client:     client,
		key:        key,
		value:      value,
		expiration: expiration,
	}
}

// TryLock attempts a non-blocking acquire.
func (l *DistributedLock) TryLock(ctx context.Context) (bool, error) {
	success, err := l.client.SetNX(ctx, l.key, l.value, l.expiration).Result()
	if err != nil {
		return false, err
	}
	return success, nil
}

// Lock retries TryLock until it succeeds, the retries are exhausted or the
// context is cancelled.
func (l *DistributedLock) Lock(ctx context.Context, retryInterval time.Duration, maxRetries int) error {
	for i := 0; i < maxRetries; i++ {
		success, err := l.TryLock(ctx)
		if err != nil {
			return err
		}
		if success {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryInterval):
		}
	}
	return ErrLockFailed
}

// Unlock releases the lock. The check-and-delete runs as one Lua script so a
// lock held by another client is never deleted.
func (l *DistributedLock) Unlock(ctx context.Context) error {
	script := `
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("DEL", KEYS[1])
		else
			return 0
		end
	`
	_, err := l.client.Eval(ctx, script, []string{l.key}, l.value).Result()
	return err
}

// AccountLocker serializes ledger operations per account. Locks are keyed by
// account id, so different accounts proceed concurrently while two
// operations on the same account queue up.
type AccountLocker struct {
	client        *redis.Client
	expiration    time.Duration
	retryInterval time.Duration
	maxRetries    int
}

func NewAccountLocker(client *redis.Client) *AccountLocker {
	return &AccountLocker{
		client:        client,
		expiration:    30 * time.Second,
		retryInterval: 100 * time.Millisecond,
		maxRetries:    30,
	}
}

// LockAccounts acquires one lock per account id, in the order given by the
// caller (ascending id, so opposed transfers on the same pair cannot
// deadlock). On failure any lock already taken is released. The returned
// function releases the locks in reverse order.
func (f *AccountLocker) LockAccounts(ctx context.Context, ids ...int64) (func(context.Context), error) {
	token := uuid.NewString()
	held := make([]*DistributedLock, 0, len(ids))

	release := func(ctx context.Context) {
		for i := len(held) - 1; i >= 0; i-- {
			if err := held[i].Unlock(ctx); err != nil {
				log.Printf("[Lock] release failed: key=%s, err=%v", held[i].key, err)
			}
		}
	}

	for _, id := range ids {
		l := NewDistributedLock(f.client, accountKey(id), token, f.expiration)
		if err := l.Lock(ctx, f.retryInterval, f.maxRetries); err != nil {
			release(ctx)
			return nil, err
		}
		held = append(held, l)
	}
	return release, nil
}

func accountKey(id int64) string {
	return fmt.Sprintf("ledger:lock:account:%d", id)
}
