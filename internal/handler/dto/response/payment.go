package response

import "course-enrollment/internal/usecase/commands"

type VerifyPaymentResult struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message" example:"Payment verified and enrollment successful"`
}

// VerifyPaymentResponse wraps the result the way callable clients expect.
type VerifyPaymentResponse struct {
	Result VerifyPaymentResult `json:"result"`
}

func FromVerifyPaymentResult(r *commands.VerifyPaymentResult) VerifyPaymentResponse {
	return VerifyPaymentResponse{
		Result: VerifyPaymentResult{
			Success: r.Success,
			Message: r.Message,
		},
	}
}
