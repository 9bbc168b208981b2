package repository

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/maheshrc27/postflow/pkg/utils"
	"github.com/redis/go-redis/v9"
)

const SweepLockKey = "lock:sweep:due_posts"

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
else
  return 0
end`)

// SweepLock keeps two sweep passes from running at the same time. Acquire
// returns ok=false without error when the lock is already held.
type SweepLock interface {
	Acquire(ctx context.Context, ttl time.Duration) (release func(), ok bool, err error)
}

type redisSweepLock struct {
	rdb *redis.Client
	key string
}

func NewRedisSweepLock(rdb *redis.Client) SweepLock {
	return &redisSweepLock{rdb: rdb, key: SweepLockKey}
}

func (l *redisSweepLock) Acquire(ctx context.Context, ttl time.Duration) (func(), bool, error) {
	token, err := utils.RandomToken(16)
	if err != nil {
		return nil, false, err
	}

	ok, err := l.rdb.SetNX(ctx, l.key, token, ttl).Result()
	if err != nil {
		slog.Info(err.Error())
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}

	release := func() {
		// the caller's context may already be cancelled
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, l.rdb, []string{l.key}, token).Err(); err != nil {
			slog.Warn("failed to release sweep lock", "error", err)
		}
	}
	return release, true, nil
}

type localSweepLock struct {
	mu sync.Mutex
}

// NewLocalSweepLock guards a single process only.
func NewLocalSweepLock() SweepLock {
	return &localSweepLock{}
}

func (l *localSweepLock) Acquire(ctx context.Context, ttl time.Duration) (func(), bool, error) {
	if !l.mu.TryLock() {
		return nil, false, nil
	}
	return l.mu.Unlock, true, nil
}
