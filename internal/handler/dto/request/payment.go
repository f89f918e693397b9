package request

import (
	"encoding/json"

	"course-enrollment/internal/usecase/commands"
)

type VerifyPaymentRequest struct {
	Reference string `json:"reference" example:"T123456789"`
	CourseID  string `json:"courseId" example:"course_abc"`
}

// CallableRequest is the envelope Firebase callable clients send.
type CallableRequest struct {
	Data *VerifyPaymentRequest `json:"data"`
}

// DecodeVerifyPayment accepts both the callable envelope and the bare object.
// Field presence is not checked here; the use case decides what is missing.
func DecodeVerifyPayment(body []byte) (VerifyPaymentRequest, error) {
	var env CallableRequest
	if err := json.Unmarshal(body, &env); err != nil {
		return VerifyPaymentRequest{}, err
	}
	if env.Data != nil {
		return *env.Data, nil
	}

	var bare VerifyPaymentRequest
	if err := json.Unmarshal(body, &bare); err != nil {
		return VerifyPaymentRequest{}, err
	}
	return bare, nil
}

func (r VerifyPaymentRequest) ToParams() commands.VerifyPaymentParams {
	return commands.VerifyPaymentParams{
		Reference: r.Reference,
		CourseID:  r.CourseID,
	}
}
