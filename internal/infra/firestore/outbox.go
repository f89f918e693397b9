package firestore

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"course-enrollment/internal/infra"
	"course-enrollment/internal/usecase/shared"

	"cloud.google.com/go/firestore"
)

// WithinOutbox runs fn in a transaction over the enrollment event collection.
// Firestore re-runs fn on contention, which can republish claimed events, so
// delivery is at-least-once as with the relational outbox.
func (s *Store) WithinOutbox(ctx context.Context, fn func(ctx context.Context, outbox shared.OutboxQueue) error) error {
	err := s.client.RunTransaction(ctx, func(ctx context.Context, ftx *firestore.Transaction) error {
		return fn(ctx, &outboxQueue{client: s.client, tx: ftx, logger: s.logger})
	}, firestore.MaxAttempts(maxTransactionAttempts))
	if err == nil {
		return nil
	}

	var repoErr infra.RepositoryError
	if errors.As(err, &repoErr) {
		return err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return infra.WrapRepoErr(s.logger, infra.KindDBFailure, "firestore outbox transaction failed", err)
}

type outboxQueue struct {
	client *firestore.Client
	tx     *firestore.Transaction
	logger *slog.Logger
}

// Claim reads the oldest pending events. Payloads use the same JSON shape the
// relational outbox stores.
func (q *outboxQueue) Claim(_ context.Context, limit int) ([]shared.OutboxMessage, error) {
	query := q.client.Collection(EventsCollection).OrderBy("occurredAt", firestore.Asc).Limit(limit)
	snaps, err := q.tx.Documents(query).GetAll()
	if err != nil {
		return nil, infra.WrapRepoErr(q.logger, infra.KindDBFailure, "failed to claim enrollment events", err)
	}

	msgs := make([]shared.OutboxMessage, 0, len(snaps))
	for _, snap := range snaps {
		ev, err := eventFromData(snap.Ref.ID, snap.Data())
		if err != nil {
			return nil, infra.WrapRepoErr(q.logger, infra.KindDecode, "failed to decode enrollment event", err)
		}
		payload, err := json.Marshal(ev)
		if err != nil {
			return nil, infra.WrapRepoErr(q.logger, infra.KindDecode, "failed to encode enrollment event", err)
		}
		msgs = append(msgs, shared.OutboxMessage{ID: ev.ID, EventType: ev.Type, Payload: payload})
	}
	return msgs, nil
}

func (q *outboxQueue) Delete(_ context.Context, id string) error {
	if err := q.tx.Delete(q.client.Collection(EventsCollection).Doc(id)); err != nil {
		return infra.WrapRepoErr(q.logger, infra.KindDBFailure, "failed to delete enrollment event", err)
	}
	return nil
}
