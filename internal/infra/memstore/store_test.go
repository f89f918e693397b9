//go:build unit

package memstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"course-enrollment/internal/domain/enrollment"
	"course-enrollment/internal/infra"
	"course-enrollment/internal/infra/memstore"
	"course-enrollment/internal/pkg/clock"
	"course-enrollment/internal/usecase/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

func recordEnrollment(ctx context.Context, tx shared.Tx, e *enrollment.Enrollment) error {
	if err := tx.Enrollments().Create(ctx, e); err != nil {
		return err
	}
	if err := tx.Earnings().Increment(ctx, e.AmountPaid()); err != nil {
		return err
	}
	if err := tx.Users().AddEnrolledCourse(ctx, e.UserID(), e.CourseID()); err != nil {
		return err
	}
	return tx.Events().Append(ctx, e.CreatedEvent(fixedNow))
}

func newEnrollment(t *testing.T, userID, courseID, reference string, amount float64) *enrollment.Enrollment {
	t.Helper()
	e, err := enrollment.NewEnrollment(userID, courseID, amount, "NGN", reference)
	require.NoError(t, err)
	return e
}

func TestWithinCommitsAllWrites(t *testing.T) {
	store := memstore.New(clock.NewMockClock(fixedNow))
	ctx := context.Background()

	e := newEnrollment(t, "user-1", "course-1", "ref-1", 50)
	require.NoError(t, store.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		return recordEnrollment(ctx, tx, e)
	}))

	snap, err := store.Reads().EnrollmentByReference(ctx, "ref-1")
	require.NoError(t, err)
	assert.Equal(t, e.ID(), snap.ID)
	assert.Equal(t, fixedNow, snap.CreatedAt)
	assert.Equal(t, "enrolled", snap.Status)
	assert.InDelta(t, 50.0, store.EarningsTotal(), 1e-9)
	assert.Equal(t, []string{"course-1"}, store.EnrolledCourses("user-1"))
	assert.Len(t, store.Events(), 1)
}

func TestWithinAppliesNothingOnFailure(t *testing.T) {
	ops := []string{
		memstore.OpCreateEnrollment,
		memstore.OpIncrementEarnings,
		memstore.OpAddEnrolledCourse,
		memstore.OpAppendEvent,
	}
	for _, op := range ops {
		t.Run(op, func(t *testing.T) {
			store := memstore.New(clock.NewMockClock(fixedNow))
			boom := errors.New("write failed")
			store.FailOn(op, boom)

			err := store.Within(context.Background(), func(ctx context.Context, tx shared.Tx) error {
				return recordEnrollment(ctx, tx, newEnrollment(t, "user-1", "course-1", "ref-1", 50))
			})
			require.ErrorIs(t, err, boom)

			assert.Zero(t, store.EnrollmentCount())
			assert.Zero(t, store.EarningsTotal())
			assert.Empty(t, store.EnrolledCourses("user-1"))
			assert.Empty(t, store.Events())
		})
	}
}

func TestDuplicateReferenceIsRejected(t *testing.T) {
	store := memstore.New(clock.NewMockClock(fixedNow))
	ctx := context.Background()

	require.NoError(t, store.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		return recordEnrollment(ctx, tx, newEnrollment(t, "user-1", "course-1", "ref-1", 50))
	}))

	err := store.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		return recordEnrollment(ctx, tx, newEnrollment(t, "user-2", "course-2", "ref-1", 50))
	})
	assert.True(t, infra.IsKind(err, infra.KindDuplicateKey))
	assert.Equal(t, 1, store.EnrollmentCount())
	assert.InDelta(t, 50.0, store.EarningsTotal(), 1e-9)
}

func TestEnrolledCoursesHaveSetSemantics(t *testing.T) {
	store := memstore.New(clock.NewMockClock(fixedNow))
	ctx := context.Background()

	require.NoError(t, store.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		if err := tx.Users().AddEnrolledCourse(ctx, "user-1", "course-1"); err != nil {
			return err
		}
		return tx.Users().AddEnrolledCourse(ctx, "user-1", "course-1")
	}))
	assert.Equal(t, []string{"course-1"}, store.EnrolledCourses("user-1"))
}

func TestCourseLookup(t *testing.T) {
	store := memstore.New(clock.NewRealClock())
	store.PutCourse(shared.CourseSnapshot{ID: "course-1", CoursePrice: 100, DiscountPrice: 80})

	got, err := store.Reads().CourseByID(context.Background(), "course-1")
	require.NoError(t, err)
	assert.InDelta(t, 80.0, got.DiscountPrice, 1e-9)

	_, err = store.Reads().CourseByID(context.Background(), "missing")
	assert.True(t, infra.IsKind(err, infra.KindNotFound))
}

func TestCancelledContextAbortsBeforeWriting(t *testing.T) {
	store := memstore.New(clock.NewRealClock())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := store.Within(ctx, func(context.Context, shared.Tx) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
