package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"course-enrollment/cmd/bootstrap"
	"course-enrollment/cmd/bootstrap/components"
	"course-enrollment/internal/infra/rabbitmq"
	"course-enrollment/internal/pkg/config"
	"course-enrollment/internal/pkg/metrics"
	"course-enrollment/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
)

// The relay drains the pending events of the durable store the API writes to:
// enrollment_outbox on postgres, enrollmentEvents on firestore.
func main() {
	app := fx.New(
		bootstrap.RelayConfigModule,
		bootstrap.LoggerModule,
		components.FirebaseModule,
		components.OutboxModule,
		fx.Provide(
			newPublisher,
			newRelay,
		),
		fx.Invoke(
			metrics.Register,
			serveMetrics,
			runRelay,
		),
	)

	if err := app.Start(context.Background()); err != nil {
		slog.Error("Failed to start outbox relay", "error", err)
		os.Exit(1)
	}

	<-app.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := app.Stop(stopCtx); err != nil {
		slog.Error("Failed to stop outbox relay cleanly", "error", err)
	}
}

func newPublisher(lc fx.Lifecycle, cfg config.Config, logger *slog.Logger) (*rabbitmq.Publisher, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pub, err := rabbitmq.NewPublisher(ctx, cfg.RabbitMQ, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return pub.Close()
		},
	})
	return pub, nil
}

func newRelay(store worker.OutboxStore, pub *rabbitmq.Publisher, cfg config.Config, logger *slog.Logger) *worker.OutboxRelay {
	return worker.NewOutboxRelay(
		store,
		pub,
		cfg.RabbitMQ.PollInterval,
		cfg.RabbitMQ.BatchSize,
		logger,
	)
}

func runRelay(lc fx.Lifecycle, relay *worker.OutboxRelay) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				defer close(done)
				relay.Run(ctx)
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
				return nil
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	})
}

func serveMetrics(lc fx.Lifecycle, cfg config.Config, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("Metrics server failed", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
