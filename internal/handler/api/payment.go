package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	reqdto "course-enrollment/internal/handler/dto/request"
	resdto "course-enrollment/internal/handler/dto/response"
	"course-enrollment/internal/handler/httperr"
	"course-enrollment/internal/handler/middleware"
	"course-enrollment/internal/pkg/errs"
	"course-enrollment/internal/usecase/commands"

	"github.com/gin-gonic/gin"
)

const maxRequestBytes = 64 << 10

type PaymentHandler struct {
	cmds   commands.PaymentCommands
	logger *slog.Logger
}

func NewPaymentHandler(cmds commands.PaymentCommands, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{cmds: cmds, logger: logger}
}

// @Summary Verify payment
// @Description Verify a processor transaction and enroll the caller in the course
// @Tags payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.CallableRequest true "Verify payment request"
// @Success 200 {object} resdto.VerifyPaymentResponse
// @Failure 400 {object} httperr.Response
// @Failure 401 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Failure 500 {object} httperr.Response
// @Router /api/payments/verify [post]
func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	var req reqdto.VerifyPaymentRequest

	// An unreadable body leaves the fields empty so the caller check still runs first.
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxRequestBytes))
	if err == nil && len(body) > 0 {
		if req, err = reqdto.DecodeVerifyPayment(body); err != nil {
			h.logger.Debug("undecodable verify payment body", "error", err.Error())
		}
	}

	result, err := h.cmds.VerifyPayment(c.Request.Context(), middleware.GetCaller(c), req.ToParams())
	if err != nil {
		kind, msg := classify(err)
		httperr.AbortWithError(c, kind, err, msg, nil)
		return
	}

	c.JSON(http.StatusOK, resdto.FromVerifyPaymentResult(result))
}

// classify maps use-case failures to a wire kind and a message safe to show callers.
func classify(err error) (httperr.Kind, string) {
	switch {
	case errs.Is(err, commands.ErrUnauthenticated):
		return httperr.KindUnauthenticated, "User must be authenticated"
	case errs.Is(err, commands.ErrInvalidArgument):
		return httperr.KindInvalidArgument, "Missing required fields: reference and courseId"
	case errs.Is(err, commands.ErrCourseNotFound):
		return httperr.KindNotFound, "Course not found"
	case errs.Is(err, commands.ErrReferenceAlreadyUsed):
		return httperr.KindAlreadyExists, "Payment reference has already been used"
	case errs.Is(err, commands.ErrVerificationInProgress):
		return httperr.KindAborted, "Verification already in progress for this reference"
	case errs.Is(err, context.Canceled):
		return httperr.KindCancelled, "Request cancelled"
	case errs.Is(err, context.DeadlineExceeded):
		return httperr.KindDeadlineExceeded, "Request timed out"
	case errs.Is(err, commands.ErrTransactionNotSuccessful):
		return httperr.KindInternal, "Payment verification failed"
	case errs.Is(err, commands.ErrAmountMismatch):
		return httperr.KindInternal, "Amount mismatch"
	default:
		return httperr.KindInternal, "An error occurred during payment verification"
	}
}
