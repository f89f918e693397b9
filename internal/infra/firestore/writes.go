package firestore

import (
	"context"
	"log/slog"

	"course-enrollment/internal/domain/enrollment"
	"course-enrollment/internal/infra"

	"cloud.google.com/go/firestore"
)

type enrollmentWriter struct {
	client *firestore.Client
	tx     *firestore.Transaction
	logger *slog.Logger
}

// Create writes the enrollment and its reference marker. The marker is created
// with an exists=false precondition, so a second enrollment for the same
// reference cannot commit.
func (w *enrollmentWriter) Create(_ context.Context, e *enrollment.Enrollment) error {
	enrollmentRef := w.client.Collection(EnrollmentsCollection).Doc(e.ID())
	if err := w.tx.Create(enrollmentRef, map[string]any{
		"userId":           e.UserID(),
		"courseId":         e.CourseID(),
		"amountPaid":       e.AmountPaid(),
		"currency":         e.Currency(),
		"paymentReference": e.PaymentReference(),
		"status":           e.Status().String(),
		"createdAt":        firestore.ServerTimestamp,
	}); err != nil {
		return infra.WrapRepoErr(w.logger, infra.KindDBFailure, "failed to stage enrollment", err)
	}

	markerRef := w.client.Collection(PaymentReferencesCollection).Doc(referenceKey(e.PaymentReference()))
	if err := w.tx.Create(markerRef, map[string]any{
		"enrollmentId":     e.ID(),
		"userId":           e.UserID(),
		"courseId":         e.CourseID(),
		"amountPaid":       e.AmountPaid(),
		"currency":         e.Currency(),
		"paymentReference": e.PaymentReference(),
		"status":           e.Status().String(),
		"createdAt":        firestore.ServerTimestamp,
	}); err != nil {
		return infra.WrapRepoErr(w.logger, infra.KindDBFailure, "failed to stage payment reference", err)
	}
	return nil
}

type earningsWriter struct {
	client *firestore.Client
	tx     *firestore.Transaction
	logger *slog.Logger
}

func (w *earningsWriter) Increment(_ context.Context, amount float64) error {
	ref := w.client.Collection(EarningsCollection).Doc(EarningsSummaryDoc)
	if err := w.tx.Set(ref, map[string]any{
		"total":     firestore.Increment(amount),
		"updatedAt": firestore.ServerTimestamp,
	}, firestore.MergeAll); err != nil {
		return infra.WrapRepoErr(w.logger, infra.KindDBFailure, "failed to stage earnings increment", err)
	}
	return nil
}

type userWriter struct {
	client *firestore.Client
	tx     *firestore.Transaction
	logger *slog.Logger
}

func (w *userWriter) AddEnrolledCourse(_ context.Context, userID, courseID string) error {
	ref := w.client.Collection(UsersCollection).Doc(userID)
	if err := w.tx.Set(ref, map[string]any{
		"enrolledCourses": firestore.ArrayUnion(courseID),
	}, firestore.MergeAll); err != nil {
		return infra.WrapRepoErr(w.logger, infra.KindDBFailure, "failed to stage enrolled course", err)
	}
	return nil
}

type eventWriter struct {
	client *firestore.Client
	tx     *firestore.Transaction
	logger *slog.Logger
}

func (w *eventWriter) Append(_ context.Context, ev enrollment.Event) error {
	ref := w.client.Collection(EventsCollection).Doc(ev.ID)
	if err := w.tx.Create(ref, map[string]any{
		"type":             ev.Type,
		"enrollmentId":     ev.EnrollmentID,
		"userId":           ev.UserID,
		"courseId":         ev.CourseID,
		"amountPaid":       ev.AmountPaid,
		"currency":         ev.Currency,
		"paymentReference": ev.PaymentReference,
		"occurredAt":       ev.OccurredAt,
	}); err != nil {
		return infra.WrapRepoErr(w.logger, infra.KindDBFailure, "failed to stage enrollment event", err)
	}
	return nil
}
