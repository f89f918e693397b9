package components

import (
	"context"
	"log/slog"
	"time"

	"course-enrollment/internal/infra/paystack"
	"course-enrollment/internal/infra/redislock"
	"course-enrollment/internal/pkg/config"
	"course-enrollment/internal/usecase/commands"

	"github.com/go-redis/redis/v8"
	"go.uber.org/fx"
)

var AdapterModule = fx.Module("adapters",
	fx.Provide(
		NewPaymentProcessor,
		NewReferenceLock,
	),
)

func NewPaymentProcessor(cfg config.Config, logger *slog.Logger) commands.PaymentProcessor {
	logger.Info("Payment processor configured", "paystack", cfg.Paystack.String())
	return paystack.NewClient(cfg.Paystack, logger)
}

// NewReferenceLock falls back to a no-op lock without REDIS_ADDR. An
// unreachable Redis is not fatal: lock errors are tolerated per call.
func NewReferenceLock(lc fx.Lifecycle, cfg config.Config, logger *slog.Logger) commands.ReferenceLock {
	if cfg.Redis.Addr == "" {
		logger.Info("REDIS_ADDR not set; in-flight reference lock disabled")
		return commands.NewNoopReferenceLock()
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   2,
	})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				logger.Warn("Redis connection failed; verification proceeds without the in-flight lock", "error", err.Error())
				return nil
			}
			logger.Info("Connected to Redis", "addr", cfg.Redis.Addr)
			return nil
		},
		OnStop: func(_ context.Context) error {
			return client.Close()
		},
	})

	return redislock.New(client, cfg.Redis.LockTTL, logger)
}
