package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/wso2/cookie-consent/internal/system/constants"
)

// maxCorrelationIDLength bounds ids copied from inbound headers into logs.
const maxCorrelationIDLength = 128

type correlationIDKey struct{}

// CorrelationIDMiddleware propagates or generates a correlation id for every request.
// The id is stored on the gin context and on the request context.
func CorrelationIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := extractCorrelationID(c)
		if correlationID == "" {
			correlationID = uuid.New().String()
		}
		c.Set(constants.CorrelationIDContextKey, correlationID)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), correlationIDKey{}, correlationID))
		c.Header(constants.CorrelationIDHeaderName, correlationID)
		c.Next()
	}
}

func extractCorrelationID(c *gin.Context) string {
	headers := []string{constants.CorrelationIDHeaderName, "X-Request-ID", "X-Trace-ID"}
	for _, header := range headers {
		if id := c.GetHeader(header); id != "" && len(id) <= maxCorrelationIDLength {
			return id
		}
	}
	return ""
}

// GetCorrelationID returns the correlation id set by CorrelationIDMiddleware.
func GetCorrelationID(c *gin.Context) string {
	return c.GetString(constants.CorrelationIDContextKey)
}

// CorrelationIDFromContext returns the correlation id carried by a request context, if any.
func CorrelationIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey{}).(string)
	return id
}
