package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wso2/cookie-consent/internal/system/constants"
	"github.com/wso2/cookie-consent/internal/system/error/apierror"
	"github.com/wso2/cookie-consent/internal/system/error/serviceerror"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		err  serviceerror.ServiceError
		want int
	}{
		{serviceerror.InternalServerError, http.StatusInternalServerError},
		{serviceerror.InvalidRequestError, http.StatusBadRequest},
		{serviceerror.ResourceNotFoundError, http.StatusNotFound},
		{serviceerror.SessionNotFoundError, http.StatusNotFound},
		{serviceerror.PreferencesNotFoundError, http.StatusNotFound},
		{serviceerror.ConflictError, http.StatusConflict},
		{serviceerror.InvalidTransitionError, http.StatusConflict},
		{serviceerror.BannerDisabledError, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusCode(&tt.err))
		})
	}
}

func TestSendError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set(constants.CorrelationIDContextKey, "corr-1")

	SendError(c, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, "unknown event \"dance\""))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body apierror.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "invalid_request", body.Code)
	assert.Equal(t, "unknown event \"dance\"", body.Description)
	assert.Equal(t, "corr-1", body.CorrelationID)
}
