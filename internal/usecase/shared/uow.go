package shared

import (
	"context"

	"course-enrollment/internal/domain/enrollment"
)

// UnitOfWork abstracts the storage backend. Everything written through a Tx
// inside Within becomes visible atomically or not at all.
type UnitOfWork interface {
	// Within: Full transaction for write operations. Backends retry retryable
	// conflicts by re-running fn, so fn must not have side effects outside tx.
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// Reads: Direct access to command reads for validation outside transactions
	Reads() CommandReads
}

// Tx exposes the writes of one atomic commit. Reads() must be called before
// any write; document stores reject reads after writes in a transaction.
type Tx interface {
	Reads() CommandReads
	Enrollments() EnrollmentRepository
	Earnings() EarningsRepository
	Users() UserProfileRepository
	Events() EventRepository
}

// CommandReads returns infra.KindNotFound errors for absent documents.
type CommandReads interface {
	CourseByID(ctx context.Context, id string) (*CourseSnapshot, error)
	EnrollmentByReference(ctx context.Context, reference string) (*EnrollmentSnapshot, error)
}

type EnrollmentRepository interface {
	// Create inserts the enrollment with a server-assigned createdAt.
	// A second enrollment for the same payment reference yields infra.KindDuplicateKey.
	Create(ctx context.Context, e *enrollment.Enrollment) error
}

type EarningsRepository interface {
	// Increment atomically adds amount to the summary total, creating it if absent.
	Increment(ctx context.Context, amount float64) error
}

type UserProfileRepository interface {
	// AddEnrolledCourse merges courseID into the user's enrolled course set.
	AddEnrolledCourse(ctx context.Context, userID, courseID string) error
}

type EventRepository interface {
	Append(ctx context.Context, ev enrollment.Event) error
}

// OutboxMessage is one pending enrollment event as the relay sees it.
type OutboxMessage struct {
	ID        string
	EventType string
	Payload   []byte
}

// OutboxQueue is the relay's view of pending events inside one transaction.
// Claim must be called before Delete.
type OutboxQueue interface {
	Claim(ctx context.Context, limit int) ([]OutboxMessage, error)
	Delete(ctx context.Context, id string) error
}
