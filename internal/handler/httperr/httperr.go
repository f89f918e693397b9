package httperr

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Kind is the machine-readable error code carried in error bodies. Values
// follow the Firebase callable protocol so existing clients can switch on them.
type Kind string

const (
	KindUnauthenticated   Kind = "UNAUTHENTICATED"
	KindInvalidArgument   Kind = "INVALID_ARGUMENT"
	KindNotFound          Kind = "NOT_FOUND"
	KindAlreadyExists     Kind = "ALREADY_EXISTS"
	KindAborted           Kind = "ABORTED"
	KindResourceExhausted Kind = "RESOURCE_EXHAUSTED"
	KindCancelled         Kind = "CANCELLED"
	KindDeadlineExceeded  Kind = "DEADLINE_EXCEEDED"
	KindInternal          Kind = "INTERNAL"
)

// StatusClientClosedRequest is the nginx convention for a caller that went away.
const StatusClientClosedRequest = 499

var kindStatus = map[Kind]int{
	KindUnauthenticated:   http.StatusUnauthorized,
	KindInvalidArgument:   http.StatusBadRequest,
	KindNotFound:          http.StatusNotFound,
	KindAlreadyExists:     http.StatusConflict,
	KindAborted:           http.StatusConflict,
	KindResourceExhausted: http.StatusTooManyRequests,
	KindCancelled:         StatusClientClosedRequest,
	KindDeadlineExceeded:  http.StatusGatewayTimeout,
	KindInternal:          http.StatusInternalServerError,
}

func (k Kind) HTTPStatus() int {
	if s, ok := kindStatus[k]; ok {
		return s
	}
	return http.StatusInternalServerError
}

type Response struct {
	Status int `json:"-"`
	Error  struct {
		Status  Kind   `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
	Detail any `json:"detail,omitempty"`
}

func NewResponse(kind Kind, msg string) Response {
	resp := Response{Status: kind.HTTPStatus()}
	resp.Error.Status = kind
	resp.Error.Message = msg
	return resp
}

// preserves original error for future monitoring
func AbortWithError(c *gin.Context, kind Kind, err error, msg string, detail any) {
	if err == nil {
		panic("AbortWithError: err cannot be nil")
	}

	resp := NewResponse(kind, msg)
	resp.Detail = detail

	_ = c.Error(gin.Error{
		Err:  err,
		Type: gin.ErrorTypePublic,
		Meta: resp,
	})
	c.AbortWithStatusJSON(resp.Status, resp)
}
