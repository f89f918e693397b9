package components

import (
	"course-enrollment/internal/handler"
	"course-enrollment/internal/handler/api"
	"course-enrollment/internal/handler/middleware"
	"course-enrollment/internal/pkg/config"
	"course-enrollment/internal/pkg/metrics"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewPaymentHandler,
		middleware.NewAuthMiddleware,
		func(cfg config.Config) *middleware.RateLimiter {
			return middleware.NewRateLimiter(cfg.RateLimit)
		},
	),
	fx.Invoke(
		metrics.Register,
		handler.NewRouter,
	),
)
