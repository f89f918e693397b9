package repository

import (
	"context"
	"log/slog"

	"course-enrollment/internal/domain/enrollment"
	"course-enrollment/internal/infra"
	"course-enrollment/internal/infra/db"
)

const (
	paymentReferenceConstraint = "enrollments_payment_reference_key"

	createEnrollmentSQL = `
INSERT INTO enrollments (id, user_id, course_id, amount_paid, currency, payment_reference, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, now())`
)

type EnrollmentRepository struct {
	db     db.DBTX
	logger *slog.Logger
}

func NewEnrollmentRepository(dbtx db.DBTX, logger *slog.Logger) *EnrollmentRepository {
	return &EnrollmentRepository{
		db:     dbtx,
		logger: logger,
	}
}

func (r *EnrollmentRepository) Create(ctx context.Context, e *enrollment.Enrollment) error {
	_, err := r.db.Exec(ctx, createEnrollmentSQL,
		e.ID(),
		e.UserID(),
		e.CourseID(),
		e.AmountPaid(),
		e.Currency(),
		e.PaymentReference(),
		e.Status().String(),
	)
	if err != nil {
		if db.IsUniqueViolation(err, paymentReferenceConstraint) {
			return infra.WrapRepoErr(r.logger, infra.KindDuplicateKey, "payment reference already recorded", err)
		}
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to create enrollment", err)
	}
	return nil
}
