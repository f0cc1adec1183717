package apierror

import "github.com/wso2/cookie-consent/internal/system/error/serviceerror"

// ErrorResponse is the JSON body of every failed API call.
type ErrorResponse struct {
	Code          string `json:"error"`
	Description   string `json:"error_description"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// FromServiceError renders a service error for the client. The internal code stays server side.
func FromServiceError(err *serviceerror.ServiceError, correlationID string) *ErrorResponse {
	return &ErrorResponse{
		Code:          err.Error,
		Description:   err.ErrorDescription,
		CorrelationID: correlationID,
	}
}
