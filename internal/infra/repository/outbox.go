package repository

import (
	"context"
	"encoding/json"
	"log/slog"

	"course-enrollment/internal/domain/enrollment"
	"course-enrollment/internal/infra"
	"course-enrollment/internal/infra/db"
	"course-enrollment/internal/usecase/shared"
)

const (
	appendOutboxSQL = `
INSERT INTO enrollment_outbox (id, aggregate_id, event_type, payload, created_at)
VALUES ($1, $2, $3, $4, $5)`

	// SKIP LOCKED lets several relays drain the table without double-publishing in-flight rows
	claimOutboxSQL = `
SELECT id, event_type, payload
FROM enrollment_outbox
ORDER BY created_at ASC
LIMIT $1
FOR UPDATE SKIP LOCKED`

	deleteOutboxSQL = `DELETE FROM enrollment_outbox WHERE id = $1`
)

type OutboxRepository struct {
	db     db.DBTX
	logger *slog.Logger
}

func NewOutboxRepository(dbtx db.DBTX, logger *slog.Logger) *OutboxRepository {
	return &OutboxRepository{
		db:     dbtx,
		logger: logger,
	}
}

func (r *OutboxRepository) Append(ctx context.Context, ev enrollment.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return infra.WrapRepoErr(r.logger, infra.KindDecode, "failed to encode enrollment event", err)
	}

	if _, err := r.db.Exec(ctx, appendOutboxSQL, ev.ID, ev.EnrollmentID, ev.Type, payload, ev.OccurredAt); err != nil {
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to append outbox event", err)
	}
	return nil
}

// Claim locks up to limit pending rows for the lifetime of the surrounding transaction.
func (r *OutboxRepository) Claim(ctx context.Context, limit int) ([]shared.OutboxMessage, error) {
	rows, err := r.db.Query(ctx, claimOutboxSQL, limit)
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to claim outbox events", err)
	}
	defer rows.Close()

	var msgs []shared.OutboxMessage
	for rows.Next() {
		var m shared.OutboxMessage
		if err := rows.Scan(&m.ID, &m.EventType, &m.Payload); err != nil {
			return nil, infra.WrapRepoErr(r.logger, infra.KindDecode, "failed to scan outbox event", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to iterate outbox events", err)
	}
	return msgs, nil
}

func (r *OutboxRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.Exec(ctx, deleteOutboxSQL, id); err != nil {
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to delete outbox event", err)
	}
	return nil
}
