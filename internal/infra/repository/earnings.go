package repository

import (
	"context"
	"log/slog"

	"course-enrollment/internal/infra"
	"course-enrollment/internal/infra/db"
)

// SummaryID is the well-known key of the single earnings summary row.
const SummaryID = "summary"

const incrementEarningsSQL = `
INSERT INTO earnings_summary (id, total, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (id) DO UPDATE
SET total = earnings_summary.total + EXCLUDED.total,
    updated_at = now()`

type EarningsRepository struct {
	db     db.DBTX
	logger *slog.Logger
}

func NewEarningsRepository(dbtx db.DBTX, logger *slog.Logger) *EarningsRepository {
	return &EarningsRepository{
		db:     dbtx,
		logger: logger,
	}
}

func (r *EarningsRepository) Increment(ctx context.Context, amount float64) error {
	if _, err := r.db.Exec(ctx, incrementEarningsSQL, SummaryID, amount); err != nil {
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to increment earnings", err)
	}
	return nil
}
