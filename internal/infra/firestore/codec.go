package firestore

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"course-enrollment/internal/domain/enrollment"
)

// Collection and document names shared with the storefront.
const (
	CoursesCollection           = "courses"
	EnrollmentsCollection       = "enrollments"
	EarningsCollection          = "earnings"
	EarningsSummaryDoc          = "summary"
	UsersCollection             = "users"
	PaymentReferencesCollection = "paymentReferences"
	EventsCollection            = "enrollmentEvents"
)

// referenceKey maps a processor reference to a legal document id.
// References may contain '/', which Firestore reserves as a path separator.
func referenceKey(reference string) string {
	sum := sha256.Sum256([]byte(reference))
	return hex.EncodeToString(sum[:])
}

// toFloat accepts both integer and double encodings; storefront editors write either.
// A missing field decodes as zero.
func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case int64:
		return float64(n), nil
	case int:
		return float64(n), nil
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("unexpected numeric type %T", v)
	}
}

func toString(v any) string {
	s, _ := v.(string)
	return s
}

func toTime(v any) time.Time {
	t, _ := v.(time.Time)
	return t
}

// eventFromData decodes a document written by eventWriter.Append.
func eventFromData(id string, data map[string]any) (enrollment.Event, error) {
	amount, err := toFloat(data["amountPaid"])
	if err != nil {
		return enrollment.Event{}, err
	}
	return enrollment.Event{
		ID:               id,
		Type:             toString(data["type"]),
		EnrollmentID:     toString(data["enrollmentId"]),
		UserID:           toString(data["userId"]),
		CourseID:         toString(data["courseId"]),
		AmountPaid:       amount,
		Currency:         toString(data["currency"]),
		PaymentReference: toString(data["paymentReference"]),
		OccurredAt:       toTime(data["occurredAt"]),
	}, nil
}
