//go:build unit || e2e

package builder

import (
	"course-enrollment/internal/handler/dto/request"
	"course-enrollment/internal/usecase/commands"
)

type PaymentBuilder struct {
	Reference string
	CourseID  string
}

func NewPaymentBuilder() *PaymentBuilder {
	return &PaymentBuilder{
		Reference: "ref-default",
		CourseID:  "course-default",
	}
}

func (p *PaymentBuilder) With(mutate func(*PaymentBuilder)) *PaymentBuilder {
	mutate(p)
	return p
}

func (p *PaymentBuilder) WithReference(reference string) *PaymentBuilder {
	p.Reference = reference
	return p
}

func (p *PaymentBuilder) WithCourseID(courseID string) *PaymentBuilder {
	p.CourseID = courseID
	return p
}

func (p *PaymentBuilder) BuildRequestDTO() request.VerifyPaymentRequest {
	return request.VerifyPaymentRequest{
		Reference: p.Reference,
		CourseID:  p.CourseID,
	}
}

// BuildCallableDTO wraps the request the way callable clients send it.
func (p *PaymentBuilder) BuildCallableDTO() request.CallableRequest {
	dto := p.BuildRequestDTO()
	return request.CallableRequest{Data: &dto}
}

func (p *PaymentBuilder) BuildParams() commands.VerifyPaymentParams {
	return commands.VerifyPaymentParams{
		Reference: p.Reference,
		CourseID:  p.CourseID,
	}
}
