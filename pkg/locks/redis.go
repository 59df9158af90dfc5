package locks

import (
	"context"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

const (
	defaultLockTTL  = 30 * time.Second
	acquirePollRate = 50 * time.Millisecond
)

// unlockScript deletes the lock only when the stored token still belongs to
// this holder, so an expired lock reacquired by someone else is never removed.
var unlockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLocker is a distributed keyed lock for multi-instance deployments,
// built on SET NX with a TTL.
type RedisLocker struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisLocker(client redis.UniversalClient) *RedisLocker {
	return &RedisLocker{
		client: client,
		ttl:    defaultLockTTL,
	}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (ReleaseFunc, error) {
	lockKey := "flowdesk:lock:" + key
	token := uuid.New().String()

	ticker := time.NewTicker(acquirePollRate)
	defer ticker.Stop()

	for {
		acquired, err := l.client.SetNX(ctx, lockKey, token, l.ttl).Result()
		if err != nil {
			return nil, err
		}

		if acquired {
			release := func() {
				releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()

				_, _ = unlockScript.Run(releaseCtx, l.client, []string{lockKey}, token).Result()
			}

			return release, nil
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
