package cmd

import (
	redis "github.com/redis/go-redis/v9"

	"github.com/flowdeskhq/flowdesk/pkg/locks"
)

// NewLocker returns a Redis-backed locker when a Redis URL is configured,
// otherwise an in-process locker. Single-process deployments only need the
// latter; the Redis locker makes metrics writes safe across processes.
func NewLocker(redisURL string) (locks.Locker, error) {
	if redisURL == "" {
		return locks.NewMemoryLocker(), nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	return locks.NewRedisLocker(redis.NewClient(opts)), nil
}
