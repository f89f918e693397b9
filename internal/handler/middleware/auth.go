package middleware

import (
	"log/slog"
	"strings"

	"course-enrollment/internal/domain/auth"
	"course-enrollment/internal/usecase"

	"github.com/gin-gonic/gin"
)

type AuthMiddleware struct {
	tokenValidator usecase.TokenValidator
	logger         *slog.Logger
}

const ctxCallerKey = "caller_identity"

func NewAuthMiddleware(tokenValidator usecase.TokenValidator, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		tokenValidator: tokenValidator,
		logger:         logger,
	}
}

// ResolveCaller attaches the caller identity from the bearer token. It never
// aborts: a missing or invalid token leaves the caller anonymous and the
// command rejects it in its own validation order.
func (m *AuthMiddleware) ResolveCaller() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.Set(ctxCallerKey, auth.Anonymous())
			c.Next()
			return
		}

		caller, err := m.tokenValidator.ValidateToken(c.Request.Context(), token)
		if err != nil {
			m.logger.Warn("Token validation failed in auth middleware", "error", err.Error())
			caller = auth.Anonymous()
		}

		c.Set(ctxCallerKey, caller)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(authHeader[len("Bearer "):])
}

// GetCaller returns the resolved caller, or an anonymous identity when
// ResolveCaller did not run.
func GetCaller(c *gin.Context) auth.CallerIdentity {
	v, exists := c.Get(ctxCallerKey)
	if !exists {
		return auth.Anonymous()
	}
	caller, ok := v.(auth.CallerIdentity)
	if !ok {
		return auth.Anonymous()
	}
	return caller
}
