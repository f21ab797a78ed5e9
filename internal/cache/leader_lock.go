package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// LeaderLock is a Redis-backed mutual-exclusion lock used to elect a
// single process among horizontally scaled replicas for a periodic,
// upstream-quota-consuming job. It renews on an interval shorter than
// its TTL and releases only if it still holds the token it set.
type LeaderLock struct {
	rdb   *redis.Client
	key   string
	ttl   time.Duration
	token string
}

func NewLeaderLock(rdb *redis.Client, key string, ttl time.Duration) *LeaderLock {
	return &LeaderLock{rdb: rdb, key: key, ttl: ttl, token: uuid.NewString()}
}

// TryAcquire attempts to become leader, or renews the lease if this
// process already holds it. It returns true when the caller should act
// as leader for the next tick.
func (l *LeaderLock) TryAcquire(ctx context.Context) (bool, error) {
	ok, err := l.rdb.SetNX(ctx, l.key, l.token, l.ttl).Result()
	if err != nil {
		return false, err
	}
	if ok {
		return true, nil
	}

	held, err := l.rdb.Get(ctx, l.key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if held != l.token {
		return false, nil
	}
	return true, l.rdb.Expire(ctx, l.key, l.ttl).Err()
}

// Release drops the lease if this process is still the recorded holder.
const releaseScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then return redis.call("DEL", KEYS[1]) else return 0 end`

func (l *LeaderLock) Release(ctx context.Context) error {
	return l.rdb.Eval(ctx, releaseScript, []string{l.key}, l.token).Err()
}
