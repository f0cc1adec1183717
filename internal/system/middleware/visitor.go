package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/wso2/cookie-consent/internal/system/constants"
)

// visitorCookieMaxAge keeps the visitor cookie alive slightly longer than a consent record.
const visitorCookieMaxAge = int((7 * 30 * 24 * time.Hour) / time.Second)

// VisitorMiddleware identifies the browser behind a request. The id comes from the
// X-Visitor-ID header, then the visitor cookie; a new id is issued when neither is set.
func VisitorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		visitorID := c.GetHeader(constants.VisitorIDHeaderName)
		if visitorID == "" {
			if cookie, err := c.Cookie(constants.VisitorCookieName); err == nil {
				visitorID = cookie
			}
		}
		if _, err := uuid.Parse(visitorID); err != nil {
			visitorID = uuid.NewString()
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(constants.VisitorCookieName, visitorID, visitorCookieMaxAge, "/", "", false, true)
		c.Header(constants.VisitorIDHeaderName, visitorID)
		c.Set(constants.VisitorIDContextKey, visitorID)
		c.Next()
	}
}

// GetVisitorID returns the visitor id set by VisitorMiddleware.
func GetVisitorID(c *gin.Context) string {
	return c.GetString(constants.VisitorIDContextKey)
}
