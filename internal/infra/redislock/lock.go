package redislock

import (
	"context"
	"log/slog"
	"time"

	"course-enrollment/internal/pkg/errs"
	"course-enrollment/internal/usecase/commands"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const keyPrefix = "payment-verify:"

// releaseScript deletes the key only while it still holds our token, so an
// expired lock re-acquired by another caller is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type Lock struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func New(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Lock {
	return &Lock{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

var _ commands.ReferenceLock = (*Lock)(nil)

func (l *Lock) Acquire(ctx context.Context, key string) (func(context.Context), bool, error) {
	redisKey := keyPrefix + key
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
	if err != nil {
		return nil, false, errs.Wrap(err, "failed to acquire reference lock")
	}
	if !ok {
		return nil, false, nil
	}

	release := func(ctx context.Context) {
		if err := releaseScript.Run(ctx, l.client, []string{redisKey}, token).Err(); err != nil && err != redis.Nil {
			l.logger.Warn("failed to release reference lock", "key", redisKey, "error", err.Error())
		}
	}
	return release, true, nil
}
