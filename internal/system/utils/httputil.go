package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wso2/cookie-consent/internal/system/error/apierror"
	"github.com/wso2/cookie-consent/internal/system/error/serviceerror"
	"github.com/wso2/cookie-consent/internal/system/middleware"
)

// StatusCode maps a ServiceError to its HTTP status.
func StatusCode(err *serviceerror.ServiceError) int {
	if err.Type != serviceerror.ClientErrorType {
		return http.StatusInternalServerError
	}
	switch err.Code {
	case serviceerror.ResourceNotFoundError.Code,
		serviceerror.SessionNotFoundError.Code,
		serviceerror.PreferencesNotFoundError.Code:
		return http.StatusNotFound
	case serviceerror.ConflictError.Code,
		serviceerror.InvalidTransitionError.Code,
		serviceerror.BannerDisabledError.Code:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

// SendError writes a ServiceError as an HTTP response with appropriate status code
func SendError(c *gin.Context, err *serviceerror.ServiceError) {
	c.JSON(StatusCode(err), apierror.FromServiceError(err, middleware.GetCorrelationID(c)))
}
