package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"task-manager/internal/apperr"
	"task-manager/internal/auth"
	"task-manager/internal/domain"
)

const (
	identityKey   = "identity"
	requestIDKey  = "request_id"
	requestHeader = "X-Request-ID"
)

var (
	errMissingToken = apperr.Unauthorized("missing token")
	errInvalidToken = apperr.Unauthorized("invalid or expired token")
	errForbidden    = apperr.Forbidden("forbidden")
)

// Authenticate verifies the bearer token and attaches the caller identity
// to both the gin context and the request context.
func (h *Handler) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody(apperr.KindUnauthorized, errMissingToken.Message))
			return
		}

		claims, err := h.tokens.Verify(token)
		if err != nil {
			h.logger.WithFields(logrus.Fields{
				"request_id": c.GetString(requestIDKey),
				"reason":     err.Error(),
			}).Debug("token rejected")
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody(apperr.KindUnauthorized, errInvalidToken.Message))
			return
		}

		id := claims.Identity()
		c.Set(identityKey, id)
		c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}

// RequireRole rejects authenticated callers whose role differs from role.
// It must run after Authenticate.
func RequireRole(role domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := identityFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody(apperr.KindUnauthorized, errMissingToken.Message))
			return
		}
		if id.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, errorBody(apperr.KindForbidden, errForbidden.Message))
			return
		}
		c.Next()
	}
}

func identityFrom(c *gin.Context) (auth.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return auth.Identity{}, false
	}
	id, ok := v.(auth.Identity)
	return id, ok
}

// bearerToken extracts the credential from "Bearer <token>", scheme case-insensitive.
func bearerToken(header string) string {
	const prefix = "bearer "
	header = strings.TrimSpace(header)
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set(requestHeader, requestID)

		start := time.Now()
		c.Next()

		entry := logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency":    time.Since(start).String(),
			"client_ip":  c.ClientIP(),
		})
		if id, ok := identityFrom(c); ok {
			entry = entry.WithField("user_id", id.UserID)
		}

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			entry.Error("request")
		case status >= http.StatusBadRequest:
			entry.Warn("request")
		default:
			entry.Info("request")
		}
	}
}
