package firestore

import (
	"context"
	"log/slog"

	"course-enrollment/internal/infra"
	"course-enrollment/internal/usecase/shared"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type docReads struct {
	get    func(ctx context.Context, ref *firestore.DocumentRef) (*firestore.DocumentSnapshot, error)
	client *firestore.Client
	logger *slog.Logger
}

func (r *docReads) CourseByID(ctx context.Context, id string) (*shared.CourseSnapshot, error) {
	snap, err := r.fetch(ctx, r.client.Collection(CoursesCollection).Doc(id), "course")
	if err != nil {
		return nil, err
	}

	data := snap.Data()
	coursePrice, err := toFloat(data["coursePrice"])
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDecode, "invalid coursePrice", err)
	}
	discountPrice, err := toFloat(data["discountPrice"])
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDecode, "invalid discountPrice", err)
	}

	return &shared.CourseSnapshot{
		ID:            snap.Ref.ID,
		CoursePrice:   coursePrice,
		DiscountPrice: discountPrice,
	}, nil
}

// EnrollmentByReference reads the reference marker written alongside every enrollment.
func (r *docReads) EnrollmentByReference(ctx context.Context, reference string) (*shared.EnrollmentSnapshot, error) {
	ref := r.client.Collection(PaymentReferencesCollection).Doc(referenceKey(reference))
	snap, err := r.fetch(ctx, ref, "enrollment")
	if err != nil {
		return nil, err
	}

	data := snap.Data()
	amount, err := toFloat(data["amountPaid"])
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDecode, "invalid amountPaid", err)
	}

	return &shared.EnrollmentSnapshot{
		ID:               toString(data["enrollmentId"]),
		UserID:           toString(data["userId"]),
		CourseID:         toString(data["courseId"]),
		AmountPaid:       amount,
		Currency:         toString(data["currency"]),
		PaymentReference: toString(data["paymentReference"]),
		Status:           toString(data["status"]),
		CreatedAt:        toTime(data["createdAt"]),
	}, nil
}

func (r *docReads) fetch(ctx context.Context, ref *firestore.DocumentRef, what string) (*firestore.DocumentSnapshot, error) {
	snap, err := r.get(ctx, ref)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, infra.NotFound(what + " not found")
		}
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to read "+what, err)
	}
	if !snap.Exists() {
		return nil, infra.NotFound(what + " not found")
	}
	return snap, nil
}
