// Package memstore is an in-process UnitOfWork used for local development and tests.
// Commits are serialized and applied all at once, matching the visibility
// guarantees of the real backends.
package memstore

import (
	"context"
	"slices"
	"sync"
	"time"

	"course-enrollment/internal/domain/enrollment"
	"course-enrollment/internal/infra"
	"course-enrollment/internal/pkg/clock"
	"course-enrollment/internal/usecase/shared"
)

// Write operations that can be made to fail with FailOn.
const (
	OpCreateEnrollment  = "enrollments.create"
	OpIncrementEarnings = "earnings.increment"
	OpAddEnrolledCourse = "users.add_enrolled_course"
	OpAppendEvent       = "events.append"
)

type Store struct {
	mu    sync.Mutex
	clock clock.Clock

	courses     map[string]shared.CourseSnapshot
	enrollments map[string]shared.EnrollmentSnapshot // keyed by payment reference
	earnings    float64
	users       map[string][]string
	events      []enrollment.Event

	failures map[string]error
}

func New(clk clock.Clock) *Store {
	return &Store{
		clock:       clk,
		courses:     make(map[string]shared.CourseSnapshot),
		enrollments: make(map[string]shared.EnrollmentSnapshot),
		users:       make(map[string][]string),
		failures:    make(map[string]error),
	}
}

func (s *Store) PutCourse(c shared.CourseSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.courses[c.ID] = c
}

// FailOn makes every subsequent write of op fail with err until cleared with a nil err.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

func (s *Store) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &memTx{store: s}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tx.apply(s.clock.Now())
	return nil
}

func (s *Store) Reads() shared.CommandReads {
	return lockedReads{store: s}
}

// Snapshot accessors for assertions.

func (s *Store) EarningsTotal() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.earnings
}

func (s *Store) EnrolledCourses(userID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.users[userID])
}

func (s *Store) EnrollmentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.enrollments)
}

func (s *Store) Events() []enrollment.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.events)
}

func (s *Store) courseByID(id string) (*shared.CourseSnapshot, error) {
	c, ok := s.courses[id]
	if !ok {
		return nil, infra.NotFound("course not found")
	}
	return &c, nil
}

func (s *Store) enrollmentByReference(reference string) (*shared.EnrollmentSnapshot, error) {
	e, ok := s.enrollments[reference]
	if !ok {
		return nil, infra.NotFound("enrollment not found")
	}
	return &e, nil
}

// lockedReads serves reads outside a transaction.
type lockedReads struct {
	store *Store
}

func (r lockedReads) CourseByID(_ context.Context, id string) (*shared.CourseSnapshot, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.store.courseByID(id)
}

func (r lockedReads) EnrollmentByReference(_ context.Context, reference string) (*shared.EnrollmentSnapshot, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.store.enrollmentByReference(reference)
}

// memTx stages writes; the store lock is already held for its whole lifetime.
type memTx struct {
	store *Store

	enrollments []*enrollment.Enrollment
	increments  []float64
	courseAdds  [][2]string
	events      []enrollment.Event
}

func (t *memTx) Reads() shared.CommandReads               { return txReads{tx: t} }
func (t *memTx) Enrollments() shared.EnrollmentRepository { return txEnrollments{tx: t} }
func (t *memTx) Earnings() shared.EarningsRepository      { return txEarnings{tx: t} }
func (t *memTx) Users() shared.UserProfileRepository      { return txUsers{tx: t} }
func (t *memTx) Events() shared.EventRepository           { return txEvents{tx: t} }

func (t *memTx) fail(op string) error {
	return t.store.failures[op]
}

func (t *memTx) apply(now time.Time) {
	s := t.store
	for _, e := range t.enrollments {
		s.enrollments[e.PaymentReference()] = shared.EnrollmentSnapshot{
			ID:               e.ID(),
			UserID:           e.UserID(),
			CourseID:         e.CourseID(),
			AmountPaid:       e.AmountPaid(),
			Currency:         e.Currency(),
			PaymentReference: e.PaymentReference(),
			Status:           e.Status().String(),
			CreatedAt:        now,
		}
	}
	for _, amount := range t.increments {
		s.earnings += amount
	}
	for _, add := range t.courseAdds {
		userID, courseID := add[0], add[1]
		if !slices.Contains(s.users[userID], courseID) {
			s.users[userID] = append(s.users[userID], courseID)
		}
	}
	s.events = append(s.events, t.events...)
}

type txReads struct{ tx *memTx }

func (r txReads) CourseByID(_ context.Context, id string) (*shared.CourseSnapshot, error) {
	return r.tx.store.courseByID(id)
}

func (r txReads) EnrollmentByReference(_ context.Context, reference string) (*shared.EnrollmentSnapshot, error) {
	return r.tx.store.enrollmentByReference(reference)
}

type txEnrollments struct{ tx *memTx }

func (r txEnrollments) Create(_ context.Context, e *enrollment.Enrollment) error {
	if err := r.tx.fail(OpCreateEnrollment); err != nil {
		return err
	}
	if _, exists := r.tx.store.enrollments[e.PaymentReference()]; exists {
		return infra.RepositoryError{Kind: infra.KindDuplicateKey}
	}
	for _, staged := range r.tx.enrollments {
		if staged.PaymentReference() == e.PaymentReference() {
			return infra.RepositoryError{Kind: infra.KindDuplicateKey}
		}
	}
	r.tx.enrollments = append(r.tx.enrollments, e)
	return nil
}

type txEarnings struct{ tx *memTx }

func (r txEarnings) Increment(_ context.Context, amount float64) error {
	if err := r.tx.fail(OpIncrementEarnings); err != nil {
		return err
	}
	r.tx.increments = append(r.tx.increments, amount)
	return nil
}

type txUsers struct{ tx *memTx }

func (r txUsers) AddEnrolledCourse(_ context.Context, userID, courseID string) error {
	if err := r.tx.fail(OpAddEnrolledCourse); err != nil {
		return err
	}
	r.tx.courseAdds = append(r.tx.courseAdds, [2]string{userID, courseID})
	return nil
}

type txEvents struct{ tx *memTx }

func (r txEvents) Append(_ context.Context, ev enrollment.Event) error {
	if err := r.tx.fail(OpAppendEvent); err != nil {
		return err
	}
	r.tx.events = append(r.tx.events, ev)
	return nil
}
