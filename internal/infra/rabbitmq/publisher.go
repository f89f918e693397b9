package rabbitmq

import (
	"context"
	"log/slog"
	"time"

	"course-enrollment/internal/pkg/config"
	"course-enrollment/internal/pkg/errs"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	dialAttempts = 10
	dialBackoff  = 2 * time.Second
)

// Publisher writes enrollment events to a durable queue on the default exchange.
type Publisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	logger  *slog.Logger
}

// NewPublisher retries the dial because the broker is often still starting
// when the relay comes up.
func NewPublisher(ctx context.Context, cfg config.RabbitMQConfig, logger *slog.Logger) (*Publisher, error) {
	var (
		conn *amqp.Connection
		err  error
	)
	for attempt := 1; attempt <= dialAttempts; attempt++ {
		conn, err = amqp.Dial(cfg.URL)
		if err == nil {
			break
		}
		logger.Warn("failed to connect to RabbitMQ, retrying",
			"attempt", attempt,
			"max_attempts", dialAttempts,
			"error", err.Error())

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(dialBackoff):
		}
	}
	if err != nil {
		return nil, errs.Wrap(err, "failed to connect to RabbitMQ")
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, errs.Wrap(err, "failed to open RabbitMQ channel")
	}

	if _, err := ch.QueueDeclare(
		cfg.Queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, errs.Wrap(err, "failed to declare queue")
	}

	return &Publisher{
		conn:    conn,
		channel: ch,
		queue:   cfg.Queue,
		logger:  logger,
	}, nil
}

func (p *Publisher) Publish(ctx context.Context, id, eventType string, payload []byte) error {
	err := p.channel.PublishWithContext(ctx,
		"",      // exchange
		p.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			MessageId:    id,
			Type:         eventType,
			ContentType:  "application/json",
			Timestamp:    time.Now().UTC(),
			Body:         payload,
			DeliveryMode: amqp.Persistent,
		})
	if err != nil {
		return errs.Wrap(err, "failed to publish enrollment event")
	}

	p.logger.Debug("published enrollment event", "event_id", id, "queue", p.queue)
	return nil
}

func (p *Publisher) Close() error {
	chErr := p.channel.Close()
	connErr := p.conn.Close()
	if chErr != nil {
		return errs.Wrap(chErr, "failed to close RabbitMQ channel")
	}
	if connErr != nil {
		return errs.Wrap(connErr, "failed to close RabbitMQ connection")
	}
	return nil
}
