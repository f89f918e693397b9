package worker

import (
	"context"
	"log/slog"
	"time"

	"course-enrollment/internal/pkg/metrics"
	"course-enrollment/internal/usecase/shared"
)

type Publisher interface {
	Publish(ctx context.Context, id, eventType string, payload []byte) error
}

// OutboxStore runs fn in a transaction; claimed rows stay locked until it returns.
type OutboxStore interface {
	WithinOutbox(ctx context.Context, fn func(ctx context.Context, outbox shared.OutboxQueue) error) error
}

// OutboxRelay moves committed enrollment events to the broker. Delivery is
// at-least-once: a crash between publish and commit republishes the event.
type OutboxRelay struct {
	store     OutboxStore
	publisher Publisher
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
}

func NewOutboxRelay(store OutboxStore, publisher Publisher, interval time.Duration, batchSize int, logger *slog.Logger) *OutboxRelay {
	return &OutboxRelay{
		store:     store,
		publisher: publisher,
		interval:  interval,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Run polls until ctx is cancelled.
func (r *OutboxRelay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("outbox relay started", "interval", r.interval.String(), "batch_size", r.batchSize)
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("outbox relay stopped")
			return
		case <-ticker.C:
			if _, err := r.ProcessBatch(ctx); err != nil && ctx.Err() == nil {
				r.logger.Error("outbox batch failed", "error", err.Error())
			}
		}
	}
}

// ProcessBatch relays one batch and returns how many events were published.
// An event that fails to publish stays in the outbox for the next tick.
func (r *OutboxRelay) ProcessBatch(ctx context.Context) (int, error) {
	published := 0

	err := r.store.WithinOutbox(ctx, func(ctx context.Context, outbox shared.OutboxQueue) error {
		published = 0

		msgs, err := outbox.Claim(ctx, r.batchSize)
		if err != nil {
			return err
		}

		for _, msg := range msgs {
			if err := r.publisher.Publish(ctx, msg.ID, msg.EventType, msg.Payload); err != nil {
				metrics.OutboxPublished.WithLabelValues("error").Inc()
				r.logger.Warn("failed to publish outbox event", "event_id", msg.ID, "error", err.Error())
				continue
			}
			if err := outbox.Delete(ctx, msg.ID); err != nil {
				return err
			}
			metrics.OutboxPublished.WithLabelValues("ok").Inc()
			published++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if published > 0 {
		r.logger.Info("relayed enrollment events", "count", published)
	}
	return published, nil
}
