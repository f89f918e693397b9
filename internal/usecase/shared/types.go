package shared

import (
	"time"
)

type CourseSnapshot struct {
	ID            string
	CoursePrice   float64
	DiscountPrice float64
}

type EnrollmentSnapshot struct {
	ID               string
	UserID           string
	CourseID         string
	AmountPaid       float64
	Currency         string
	PaymentReference string
	Status           string
	CreatedAt        time.Time
}
