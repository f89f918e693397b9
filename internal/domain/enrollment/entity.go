package enrollment

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrMissingUser      = errors.New("user id is required")
	ErrMissingCourse    = errors.New("course id is required")
	ErrMissingReference = errors.New("payment reference is required")
	ErrNegativeAmount   = errors.New("amount paid cannot be negative")
	ErrNegativePrice    = errors.New("course price cannot be negative")
)

// Course is the read-only catalog entry whose price a payment is checked against.
type Course struct {
	id            string
	coursePrice   float64
	discountPrice float64
}

func NewCourse(id string, coursePrice, discountPrice float64) (*Course, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrMissingCourse
	}
	if coursePrice < 0 {
		return nil, ErrNegativePrice
	}
	return &Course{
		id:            id,
		coursePrice:   coursePrice,
		discountPrice: discountPrice,
	}, nil
}

func (c *Course) ID() string             { return c.id }
func (c *Course) CoursePrice() float64   { return c.coursePrice }
func (c *Course) DiscountPrice() float64 { return c.discountPrice }

// ExpectedAmount is the discount price when one is set (> 0), the list price otherwise.
func (c *Course) ExpectedAmount() float64 {
	if c.discountPrice > 0 {
		return c.discountPrice
	}
	return c.coursePrice
}

// Enrollment is created once per verified payment reference and never mutated.
type Enrollment struct {
	id               string
	userID           string
	courseID         string
	amountPaid       float64
	currency         string
	paymentReference string
	status           Status
	createdAt        time.Time
}

func NewEnrollment(userID, courseID string, amountPaid float64, currency, reference string) (*Enrollment, error) {
	if userID == "" {
		return nil, ErrMissingUser
	}
	if courseID == "" {
		return nil, ErrMissingCourse
	}
	if reference == "" {
		return nil, ErrMissingReference
	}
	if amountPaid < 0 {
		return nil, ErrNegativeAmount
	}

	return &Enrollment{
		id:               uuid.NewString(),
		userID:           userID,
		courseID:         courseID,
		amountPaid:       amountPaid,
		currency:         strings.ToUpper(currency),
		paymentReference: reference,
		status:           StatusEnrolled,
	}, nil
}

// ReconstructEnrollment rebuilds a stored enrollment without validation.
func ReconstructEnrollment(
	id, userID, courseID string,
	amountPaid float64,
	currency, reference string,
	status Status,
	createdAt time.Time,
) *Enrollment {
	return &Enrollment{
		id:               id,
		userID:           userID,
		courseID:         courseID,
		amountPaid:       amountPaid,
		currency:         currency,
		paymentReference: reference,
		status:           status,
		createdAt:        createdAt,
	}
}

func (e *Enrollment) ID() string               { return e.id }
func (e *Enrollment) UserID() string           { return e.userID }
func (e *Enrollment) CourseID() string         { return e.courseID }
func (e *Enrollment) AmountPaid() float64      { return e.amountPaid }
func (e *Enrollment) Currency() string         { return e.currency }
func (e *Enrollment) PaymentReference() string { return e.paymentReference }
func (e *Enrollment) Status() Status           { return e.status }

// CreatedAt is zero until the store assigns the server timestamp.
func (e *Enrollment) CreatedAt() time.Time { return e.createdAt }

// BelongsTo reports whether this enrollment was recorded for the given user and course.
func (e *Enrollment) BelongsTo(userID, courseID string) bool {
	return e.userID == userID && e.courseID == courseID
}

// Event is the downstream notification written in the same commit as the enrollment.
type Event struct {
	ID               string    `json:"id"`
	Type             string    `json:"event_type"`
	EnrollmentID     string    `json:"enrollment_id"`
	UserID           string    `json:"user_id"`
	CourseID         string    `json:"course_id"`
	AmountPaid       float64   `json:"amount_paid"`
	Currency         string    `json:"currency"`
	PaymentReference string    `json:"payment_reference"`
	OccurredAt       time.Time `json:"occurred_at"`
}

func (e *Enrollment) CreatedEvent(at time.Time) Event {
	return Event{
		ID:               uuid.NewString(),
		Type:             EventTypeEnrollmentCreated,
		EnrollmentID:     e.id,
		UserID:           e.userID,
		CourseID:         e.courseID,
		AmountPaid:       e.amountPaid,
		Currency:         e.currency,
		PaymentReference: e.paymentReference,
		OccurredAt:       at,
	}
}
