package readstore

import (
	"context"
	"log/slog"

	"course-enrollment/internal/infra"
	"course-enrollment/internal/infra/db"
	"course-enrollment/internal/usecase/shared"
)

const getEnrollmentByReferenceSQL = `
SELECT id, user_id, course_id, amount_paid, currency, payment_reference, status, created_at
FROM enrollments
WHERE payment_reference = $1`

type EnrollmentReadStore struct {
	logger *slog.Logger
}

func NewEnrollmentReadStore(logger *slog.Logger) *EnrollmentReadStore {
	return &EnrollmentReadStore{logger: logger}
}

func (s *EnrollmentReadStore) FindByReference(ctx context.Context, dbtx db.DBTX, reference string) (*shared.EnrollmentSnapshot, error) {
	var snap shared.EnrollmentSnapshot
	err := dbtx.QueryRow(ctx, getEnrollmentByReferenceSQL, reference).Scan(
		&snap.ID,
		&snap.UserID,
		&snap.CourseID,
		&snap.AmountPaid,
		&snap.Currency,
		&snap.PaymentReference,
		&snap.Status,
		&snap.CreatedAt,
	)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, infra.NotFound("enrollment not found")
		}
		return nil, infra.WrapRepoErr(s.logger, infra.KindDBFailure, "failed to find enrollment by reference", err)
	}
	return &snap, nil
}
