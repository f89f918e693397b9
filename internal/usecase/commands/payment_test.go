//go:build unit

package commands_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"course-enrollment/internal/domain/auth"
	"course-enrollment/internal/domain/enrollment"
	"course-enrollment/internal/infra/memstore"
	"course-enrollment/internal/pkg/clock"
	"course-enrollment/internal/pkg/errs"
	"course-enrollment/internal/usecase/commands"
	"course-enrollment/internal/usecase/shared"
	commandsmock "course-enrollment/tests/mock/commands"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

const (
	testUser      = "user-1"
	testCourse    = "course-1"
	testReference = "T123456789"
)

type PaymentCommandsTestSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	store     *memstore.Store
	processor *commandsmock.MockPaymentProcessor
	clock     *clock.MockClock
	cmds      commands.PaymentCommands
}

func (s *PaymentCommandsTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.clock = clock.NewMockClock(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	s.store = memstore.New(s.clock)
	s.processor = commandsmock.NewMockPaymentProcessor(s.ctrl)
	s.cmds = s.newCommands(commands.NewNoopReferenceLock())

	s.store.PutCourse(shared.CourseSnapshot{ID: testCourse, CoursePrice: 100})
}

func (s *PaymentCommandsTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestPaymentCommandsSuite(t *testing.T) {
	suite.Run(t, new(PaymentCommandsTestSuite))
}

func (s *PaymentCommandsTestSuite) newCommands(lock commands.ReferenceLock) commands.PaymentCommands {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return commands.NewPaymentCommands(s.store, s.processor, lock, s.clock, logger)
}

func caller() auth.CallerIdentity {
	return auth.NewCallerIdentity(testUser)
}

func params() commands.VerifyPaymentParams {
	return commands.VerifyPaymentParams{Reference: testReference, CourseID: testCourse}
}

func txn(status string, amountMinor int64) *commands.Transaction {
	return &commands.Transaction{
		Reference:   testReference,
		Status:      status,
		AmountMinor: amountMinor,
		Currency:    "NGN",
		Channel:     "card",
	}
}

func (s *PaymentCommandsTestSuite) assertNoWrites() {
	s.Zero(s.store.EnrollmentCount())
	s.Zero(s.store.EarningsTotal())
	s.Empty(s.store.EnrolledCourses(testUser))
	s.Empty(s.store.Events())
}

// ================================================================================
// Validation order
// ================================================================================

func (s *PaymentCommandsTestSuite) TestVerifyPayment_Unauthenticated() {
	// no processor expectation: any call fails the test
	_, err := s.cmds.VerifyPayment(context.Background(), auth.Anonymous(), params())

	s.True(errs.Is(err, commands.ErrUnauthenticated))
	s.assertNoWrites()
}

func (s *PaymentCommandsTestSuite) TestVerifyPayment_UnauthenticatedWinsOverMissingFields() {
	_, err := s.cmds.VerifyPayment(context.Background(), auth.Anonymous(), commands.VerifyPaymentParams{})

	s.True(errs.Is(err, commands.ErrUnauthenticated))
}

func (s *PaymentCommandsTestSuite) TestVerifyPayment_MissingFields() {
	testCases := []struct {
		name   string
		params commands.VerifyPaymentParams
	}{
		{name: "missing reference", params: commands.VerifyPaymentParams{CourseID: testCourse}},
		{name: "missing course", params: commands.VerifyPaymentParams{Reference: testReference}},
		{name: "both missing", params: commands.VerifyPaymentParams{}},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			_, err := s.cmds.VerifyPayment(context.Background(), caller(), tc.params)
			s.True(errs.Is(err, commands.ErrInvalidArgument))
			s.assertNoWrites()
		})
	}
}

func (s *PaymentCommandsTestSuite) TestVerifyPayment_WhitespaceReferenceIsPresent() {
	// only absence is an invalid argument; the processor judges the value itself
	s.processor.EXPECT().VerifyTransaction(gomock.Any(), " ").
		Return(nil, errors.New("transaction reference not found")).Times(1)

	_, err := s.cmds.VerifyPayment(context.Background(), caller(),
		commands.VerifyPaymentParams{Reference: " ", CourseID: testCourse})

	s.False(errs.Is(err, commands.ErrInvalidArgument))
	s.True(errs.Is(err, commands.ErrProcessorUnavailable))
	s.assertNoWrites()
}

func (s *PaymentCommandsTestSuite) TestVerifyPayment_CourseNotFound() {
	s.processor.EXPECT().VerifyTransaction(gomock.Any(), testReference).
		Return(txn("success", 10000), nil).Times(1)

	_, err := s.cmds.VerifyPayment(context.Background(), caller(),
		commands.VerifyPaymentParams{Reference: testReference, CourseID: "missing-course"})

	s.True(errs.Is(err, commands.ErrCourseNotFound))
	s.assertNoWrites()
}

// ================================================================================
// Processor outcomes
// ================================================================================

func (s *PaymentCommandsTestSuite) TestVerifyPayment_Success() {
	s.processor.EXPECT().VerifyTransaction(gomock.Any(), testReference).
		Return(txn("success", 10000), nil).Times(1)

	result, err := s.cmds.VerifyPayment(context.Background(), caller(), params())

	s.Require().NoError(err)
	s.True(result.Success)
	s.Equal(commands.MessageEnrolled, result.Message)
	s.False(result.IsReplayed)
	s.NotEmpty(result.EnrollmentID)

	s.Equal(1, s.store.EnrollmentCount())
	s.InDelta(100.0, s.store.EarningsTotal(), 1e-9)
	s.Equal([]string{testCourse}, s.store.EnrolledCourses(testUser))

	snap, err := s.store.Reads().EnrollmentByReference(context.Background(), testReference)
	s.Require().NoError(err)
	s.Equal(result.EnrollmentID, snap.ID)
	s.Equal(string(enrollment.StatusEnrolled), snap.Status)
	s.Equal("NGN", snap.Currency)
	s.InDelta(100.0, snap.AmountPaid, 1e-9)
	s.Equal(s.clock.Now(), snap.CreatedAt)

	events := s.store.Events()
	s.Require().Len(events, 1)
	s.Equal(enrollment.EventTypeEnrollmentCreated, events[0].Type)
	s.Equal(result.EnrollmentID, events[0].EnrollmentID)
}

func (s *PaymentCommandsTestSuite) TestVerifyPayment_TransactionNotSuccessful() {
	for _, status := range []string{"failed", "abandoned", "pending", ""} {
		s.Run("status "+status, func() {
			s.processor.EXPECT().VerifyTransaction(gomock.Any(), testReference).
				Return(txn(status, 10000), nil).Times(1)

			_, err := s.cmds.VerifyPayment(context.Background(), caller(), params())

			s.True(errs.Is(err, commands.ErrTransactionNotSuccessful))
			s.assertNoWrites()
		})
	}
}

func (s *PaymentCommandsTestSuite) TestVerifyPayment_ProcessorUnavailable() {
	s.processor.EXPECT().VerifyTransaction(gomock.Any(), testReference).
		Return(nil, errors.New("connection refused")).Times(1)

	_, err := s.cmds.VerifyPayment(context.Background(), caller(), params())

	s.True(errs.Is(err, commands.ErrProcessorUnavailable))
	s.assertNoWrites()
}

func (s *PaymentCommandsTestSuite) TestVerifyPayment_CancelledDuringProcessorCall() {
	ctx, cancel := context.WithCancel(context.Background())

	s.processor.EXPECT().VerifyTransaction(gomock.Any(), testReference).
		DoAndReturn(func(ctx context.Context, _ string) (*commands.Transaction, error) {
			cancel()
			<-ctx.Done()
			return nil, ctx.Err()
		}).Times(1)

	_, err := s.cmds.VerifyPayment(ctx, caller(), params())

	s.True(errs.Is(err, context.Canceled))
	s.False(errs.Is(err, commands.ErrProcessorUnavailable))
	s.assertNoWrites()
}

// ================================================================================
// Amount checks
// ================================================================================

func (s *PaymentCommandsTestSuite) TestVerifyPayment_DiscountMismatch() {
	s.store.PutCourse(shared.CourseSnapshot{ID: testCourse, CoursePrice: 100, DiscountPrice: 70})
	s.processor.EXPECT().VerifyTransaction(gomock.Any(), testReference).
		Return(txn("success", 10000), nil).Times(1)

	_, err := s.cmds.VerifyPayment(context.Background(), caller(), params())

	s.True(errs.Is(err, commands.ErrAmountMismatch))
	s.assertNoWrites()
}

func (s *PaymentCommandsTestSuite) TestVerifyPayment_DiscountPrecedence() {
	s.store.PutCourse(shared.CourseSnapshot{ID: testCourse, CoursePrice: 100, DiscountPrice: 70})
	s.processor.EXPECT().VerifyTransaction(gomock.Any(), testReference).
		Return(txn("success", 7000), nil).Times(1)

	result, err := s.cmds.VerifyPayment(context.Background(), caller(), params())

	s.Require().NoError(err)
	s.True(result.Success)
	s.InDelta(70.0, s.store.EarningsTotal(), 1e-9)
}

func (s *PaymentCommandsTestSuite) TestVerifyPayment_NegativeAmountOnFreeCourse() {
	s.store.PutCourse(shared.CourseSnapshot{ID: testCourse, CoursePrice: 0})
	s.processor.EXPECT().VerifyTransaction(gomock.Any(), testReference).
		Return(txn("success", -1), nil).Times(1)

	_, err := s.cmds.VerifyPayment(context.Background(), caller(), params())

	s.True(errs.Is(err, commands.ErrAmountMismatch))
	s.False(errs.Is(err, commands.ErrInvalidArgument))
	s.assertNoWrites()
}

func (s *PaymentCommandsTestSuite) TestVerifyPayment_Tolerance() {
	testCases := []struct {
		name        string
		amountMinor int64
		wantErr     error
	}{
		{name: "one minor unit over", amountMinor: 10001},
		{name: "one minor unit under", amountMinor: 9999},
		{name: "two minor units over", amountMinor: 10002, wantErr: commands.ErrAmountMismatch},
		{name: "two minor units under", amountMinor: 9998, wantErr: commands.ErrAmountMismatch},
	}

	for i, tc := range testCases {
		s.Run(tc.name, func() {
			ref := testReference + "-" + string(rune('a'+i))
			s.processor.EXPECT().VerifyTransaction(gomock.Any(), ref).
				Return(txn("success", tc.amountMinor), nil).Times(1)

			_, err := s.cmds.VerifyPayment(context.Background(), caller(),
				commands.VerifyPaymentParams{Reference: ref, CourseID: testCourse})

			if tc.wantErr != nil {
				s.True(errs.Is(err, tc.wantErr))
				return
			}
			s.NoError(err)
		})
	}
}

// ================================================================================
// Atomicity
// ================================================================================

func (s *PaymentCommandsTestSuite) TestVerifyPayment_PartialWriteFailureCommitsNothing() {
	for _, op := range []string{
		memstore.OpCreateEnrollment,
		memstore.OpIncrementEarnings,
		memstore.OpAddEnrolledCourse,
		memstore.OpAppendEvent,
	} {
		s.Run(op, func() {
			s.store.FailOn(op, errors.New("write rejected"))
			defer s.store.FailOn(op, nil)

			s.processor.EXPECT().VerifyTransaction(gomock.Any(), testReference).
				Return(txn("success", 10000), nil).Times(1)

			_, err := s.cmds.VerifyPayment(context.Background(), caller(), params())

			s.True(errs.Is(err, commands.ErrDatabaseOperationFailed))
			s.assertNoWrites()
		})
	}
}

// ================================================================================
// Idempotency
// ================================================================================

func (s *PaymentCommandsTestSuite) TestVerifyPayment_ReplaySameReference() {
	s.processor.EXPECT().VerifyTransaction(gomock.Any(), testReference).
		Return(txn("success", 10000), nil).Times(1)

	first, err := s.cmds.VerifyPayment(context.Background(), caller(), params())
	s.Require().NoError(err)

	second, err := s.cmds.VerifyPayment(context.Background(), caller(), params())
	s.Require().NoError(err)

	s.True(second.Success)
	s.True(second.IsReplayed)
	s.Equal(commands.MessageAlreadyVerified, second.Message)
	s.Equal(first.EnrollmentID, second.EnrollmentID)

	s.Equal(1, s.store.EnrollmentCount())
	s.InDelta(100.0, s.store.EarningsTotal(), 1e-9)
	s.Len(s.store.Events(), 1)
}

func (s *PaymentCommandsTestSuite) TestVerifyPayment_ReferenceReusedForOtherCourse() {
	s.store.PutCourse(shared.CourseSnapshot{ID: "course-2", CoursePrice: 100})
	s.processor.EXPECT().VerifyTransaction(gomock.Any(), testReference).
		Return(txn("success", 10000), nil).Times(1)

	_, err := s.cmds.VerifyPayment(context.Background(), caller(), params())
	s.Require().NoError(err)

	_, err = s.cmds.VerifyPayment(context.Background(), caller(),
		commands.VerifyPaymentParams{Reference: testReference, CourseID: "course-2"})
	s.True(errs.Is(err, commands.ErrReferenceAlreadyUsed))

	_, err = s.cmds.VerifyPayment(context.Background(), auth.NewCallerIdentity("user-2"), params())
	s.True(errs.Is(err, commands.ErrReferenceAlreadyUsed))

	s.Equal(1, s.store.EnrollmentCount())
	s.InDelta(100.0, s.store.EarningsTotal(), 1e-9)
}

func (s *PaymentCommandsTestSuite) TestVerifyPayment_EnrolledCoursesIsASet() {
	s.processor.EXPECT().VerifyTransaction(gomock.Any(), "ref-1").
		Return(txn("success", 10000), nil).Times(1)
	s.processor.EXPECT().VerifyTransaction(gomock.Any(), "ref-2").
		Return(txn("success", 10000), nil).Times(1)

	for _, ref := range []string{"ref-1", "ref-2"} {
		_, err := s.cmds.VerifyPayment(context.Background(), caller(),
			commands.VerifyPaymentParams{Reference: ref, CourseID: testCourse})
		s.Require().NoError(err)
	}

	s.Equal([]string{testCourse}, s.store.EnrolledCourses(testUser))
	s.Equal(2, s.store.EnrollmentCount())
	s.InDelta(200.0, s.store.EarningsTotal(), 1e-9)
}

func (s *PaymentCommandsTestSuite) TestVerifyPayment_ConcurrentDuplicatesEnrollOnce() {
	s.processor.EXPECT().VerifyTransaction(gomock.Any(), testReference).
		Return(txn("success", 10000), nil).AnyTimes()

	const callers = 8
	var wg sync.WaitGroup
	results := make([]*commands.VerifyPaymentResult, callers)
	errList := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errList[i] = s.cmds.VerifyPayment(context.Background(), caller(), params())
		}(i)
	}
	wg.Wait()

	replays := 0
	for i := 0; i < callers; i++ {
		s.Require().NoError(errList[i])
		s.True(results[i].Success)
		if results[i].IsReplayed {
			replays++
		}
	}
	s.Equal(callers-1, replays)
	s.Equal(1, s.store.EnrollmentCount())
	s.InDelta(100.0, s.store.EarningsTotal(), 1e-9)
}

// ================================================================================
// Reference lock
// ================================================================================

func (s *PaymentCommandsTestSuite) TestVerifyPayment_LockHeldElsewhere() {
	lock := commandsmock.NewMockReferenceLock(s.ctrl)
	lock.EXPECT().Acquire(gomock.Any(), testReference).Return(nil, false, nil).Times(1)

	_, err := s.newCommands(lock).VerifyPayment(context.Background(), caller(), params())

	s.True(errs.Is(err, commands.ErrVerificationInProgress))
	s.assertNoWrites()
}

func (s *PaymentCommandsTestSuite) TestVerifyPayment_LockReleasedAfterCall() {
	released := false
	lock := commandsmock.NewMockReferenceLock(s.ctrl)
	lock.EXPECT().Acquire(gomock.Any(), testReference).
		Return(func(context.Context) { released = true }, true, nil).Times(1)
	s.processor.EXPECT().VerifyTransaction(gomock.Any(), testReference).
		Return(txn("success", 10000), nil).Times(1)

	_, err := s.newCommands(lock).VerifyPayment(context.Background(), caller(), params())

	s.Require().NoError(err)
	s.True(released)
}

func (s *PaymentCommandsTestSuite) TestVerifyPayment_LockStoreDownFallsBackToTransaction() {
	lock := commandsmock.NewMockReferenceLock(s.ctrl)
	lock.EXPECT().Acquire(gomock.Any(), testReference).
		Return(nil, false, errors.New("redis: connection refused")).Times(1)
	s.processor.EXPECT().VerifyTransaction(gomock.Any(), testReference).
		Return(txn("success", 10000), nil).Times(1)

	result, err := s.newCommands(lock).VerifyPayment(context.Background(), caller(), params())

	s.Require().NoError(err)
	s.True(result.Success)
	s.Equal(1, s.store.EnrollmentCount())
}
