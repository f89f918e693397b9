package commands

//go:generate mockgen -source=payment.go -destination=../../../tests/mock/commands/payment.go -package=mock_commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"course-enrollment/internal/domain/auth"
	"course-enrollment/internal/domain/enrollment"
	"course-enrollment/internal/infra"
	"course-enrollment/internal/pkg/clock"
	"course-enrollment/internal/pkg/errs"
	"course-enrollment/internal/pkg/metrics"
	"course-enrollment/internal/usecase/shared"
)

var (
	ErrUnauthenticated          = errs.New("unauthenticated")
	ErrInvalidArgument          = errs.New("invalid argument")
	ErrCourseNotFound           = errs.New("course not found")
	ErrTransactionNotSuccessful = errs.New("payment verification failed")
	ErrAmountMismatch           = errs.New("amount mismatch")
	ErrReferenceAlreadyUsed     = errs.New("payment reference already used")
	ErrVerificationInProgress   = errs.New("verification in progress")
	ErrProcessorUnavailable     = errs.New("payment processor request failed")
	ErrDatabaseOperationFailed  = errs.New("database operation failed")
)

const (
	MessageEnrolled        = "Payment verified and enrollment successful"
	MessageAlreadyVerified = "Payment already verified"
)

type VerifyPaymentParams struct {
	Reference string
	CourseID  string
}

type VerifyPaymentResult struct {
	Success      bool
	Message      string
	EnrollmentID string
	IsReplayed   bool
}

type PaymentCommands interface {
	VerifyPayment(ctx context.Context, caller auth.CallerIdentity, params VerifyPaymentParams) (*VerifyPaymentResult, error)
}

type paymentCommandsImpl struct {
	uow       shared.UnitOfWork
	processor PaymentProcessor
	lock      ReferenceLock
	clock     clock.Clock
	logger    *slog.Logger
}

func NewPaymentCommands(
	uow shared.UnitOfWork,
	processor PaymentProcessor,
	lock ReferenceLock,
	clock clock.Clock,
	logger *slog.Logger,
) PaymentCommands {
	return &paymentCommandsImpl{
		uow:       uow,
		processor: processor,
		lock:      lock,
		clock:     clock,
		logger:    logger,
	}
}

// VerifyPayment confirms a processor transaction against the course price and
// records the enrollment. Checks run in a fixed order and the first failure wins;
// nothing is written unless every check passes.
func (p *paymentCommandsImpl) VerifyPayment(
	ctx context.Context,
	caller auth.CallerIdentity,
	params VerifyPaymentParams,
) (result *VerifyPaymentResult, err error) {
	defer func() {
		metrics.Verifications.WithLabelValues(outcomeOf(result, err)).Inc()
	}()

	if !caller.Authenticated() {
		return nil, ErrUnauthenticated
	}

	// values are passed through as given; only absence is rejected
	reference := params.Reference
	courseID := params.CourseID
	if reference == "" || courseID == "" {
		return nil, ErrInvalidArgument
	}

	userID := caller.UserID()
	logger := p.logger.With(
		slog.String("user_id", userID),
		slog.String("course_id", courseID),
		slog.String("reference", reference),
	)

	release, acquired, lockErr := p.lock.Acquire(ctx, reference)
	switch {
	case lockErr != nil:
		logger.Warn("reference lock unavailable, relying on transactional check", "error", lockErr.Error())
	case !acquired:
		return nil, ErrVerificationInProgress
	default:
		defer release(context.WithoutCancel(ctx))
	}

	replay, err := p.findExisting(ctx, reference, userID, courseID)
	if err != nil || replay != nil {
		return replay, err
	}

	txn, err := p.verifyWithProcessor(ctx, reference)
	if err != nil {
		logger.Warn("processor verification failed", "error", err.Error())
		return nil, err
	}

	course, err := p.loadCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	amountPaid := enrollment.MinorToMajor(txn.AmountMinor)
	expected := course.ExpectedAmount()
	if txn.AmountMinor < 0 || !enrollment.AmountMatches(amountPaid, expected) {
		logger.Warn("amount mismatch",
			"amount_paid", amountPaid,
			"expected_amount", expected,
			"currency", txn.Currency)
		return nil, ErrAmountMismatch
	}

	// arguments were validated above, so a rejection here means the processor data is unusable
	ent, err := enrollment.NewEnrollment(userID, courseID, amountPaid, txn.Currency, reference)
	if err != nil {
		return nil, errs.Mark(err, ErrProcessorUnavailable)
	}

	result, err = p.record(ctx, ent)
	if err != nil {
		logger.Error("failed to record enrollment", "error", err.Error())
		return nil, err
	}

	if result.IsReplayed {
		logger.Info("payment reference already recorded by a concurrent call", "enrollment_id", result.EnrollmentID)
	} else {
		metrics.EarningsRecorded.Add(amountPaid)
		logger.Info("enrollment recorded",
			"enrollment_id", result.EnrollmentID,
			"amount_paid", amountPaid,
			"currency", ent.Currency())
	}
	return result, nil
}

// findExisting short-circuits retries of a reference that is already recorded,
// before the processor is called again.
func (p *paymentCommandsImpl) findExisting(
	ctx context.Context,
	reference, userID, courseID string,
) (*VerifyPaymentResult, error) {
	existing, err := p.uow.Reads().EnrollmentByReference(ctx, reference)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, nil
		}
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return replayResult(existing, userID, courseID)
}

func (p *paymentCommandsImpl) verifyWithProcessor(ctx context.Context, reference string) (*Transaction, error) {
	start := time.Now()
	txn, err := p.processor.VerifyTransaction(ctx, reference)
	label := "ok"
	if err != nil {
		label = "error"
	}
	metrics.ProcessorRequestDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, errs.Mark(err, ctxErr)
		}
		return nil, errs.Mark(err, ErrProcessorUnavailable)
	}
	if !txn.Succeeded() {
		return nil, ErrTransactionNotSuccessful
	}
	return txn, nil
}

func (p *paymentCommandsImpl) loadCourse(ctx context.Context, courseID string) (*enrollment.Course, error) {
	snap, err := p.uow.Reads().CourseByID(ctx, courseID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}

	course, err := enrollment.NewCourse(snap.ID, snap.CoursePrice, snap.DiscountPrice)
	if err != nil {
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return course, nil
}

func (p *paymentCommandsImpl) record(ctx context.Context, ent *enrollment.Enrollment) (*VerifyPaymentResult, error) {
	var existing *shared.EnrollmentSnapshot

	err := p.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		// fn may run more than once on contention
		existing = nil

		found, err := tx.Reads().EnrollmentByReference(ctx, ent.PaymentReference())
		switch {
		case err == nil:
			existing = found
			return nil
		case !infra.IsKind(err, infra.KindNotFound):
			return err
		}

		if err := tx.Enrollments().Create(ctx, ent); err != nil {
			return err
		}
		if err := tx.Earnings().Increment(ctx, ent.AmountPaid()); err != nil {
			return err
		}
		if err := tx.Users().AddEnrolledCourse(ctx, ent.UserID(), ent.CourseID()); err != nil {
			return err
		}
		return tx.Events().Append(ctx, ent.CreatedEvent(p.clock.Now()))
	})
	if err != nil {
		if infra.IsKind(err, infra.KindDuplicateKey) {
			found, readErr := p.uow.Reads().EnrollmentByReference(ctx, ent.PaymentReference())
			if readErr != nil {
				return nil, errs.Mark(readErr, ErrDatabaseOperationFailed)
			}
			return replayResult(found, ent.UserID(), ent.CourseID())
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, errs.Mark(err, ctxErr)
		}
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}

	if existing != nil {
		return replayResult(existing, ent.UserID(), ent.CourseID())
	}

	return &VerifyPaymentResult{
		Success:      true,
		Message:      MessageEnrolled,
		EnrollmentID: ent.ID(),
	}, nil
}

func replayResult(existing *shared.EnrollmentSnapshot, userID, courseID string) (*VerifyPaymentResult, error) {
	prior := enrollment.ReconstructEnrollment(
		existing.ID, existing.UserID, existing.CourseID,
		existing.AmountPaid, existing.Currency, existing.PaymentReference,
		enrollment.Status(existing.Status), existing.CreatedAt,
	)
	if !prior.BelongsTo(userID, courseID) {
		return nil, ErrReferenceAlreadyUsed
	}
	return &VerifyPaymentResult{
		Success:      true,
		Message:      MessageAlreadyVerified,
		EnrollmentID: prior.ID(),
		IsReplayed:   true,
	}, nil
}

func outcomeOf(result *VerifyPaymentResult, err error) string {
	switch {
	case err == nil && result != nil && result.IsReplayed:
		return metrics.OutcomeReplayed
	case err == nil:
		return metrics.OutcomeEnrolled
	case errors.Is(err, ErrUnauthenticated):
		return metrics.OutcomeUnauthorized
	case errs.Is(err, ErrInvalidArgument),
		errs.Is(err, ErrCourseNotFound),
		errs.Is(err, ErrTransactionNotSuccessful),
		errs.Is(err, ErrAmountMismatch),
		errs.Is(err, ErrReferenceAlreadyUsed),
		errs.Is(err, ErrVerificationInProgress):
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeFailed
	}
}
