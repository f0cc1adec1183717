package serviceerror

import "github.com/wso2/cookie-consent/internal/system/error/codes"

type ServiceErrorType string

const (
	ClientErrorType ServiceErrorType = "client_error"
	ServerErrorType ServiceErrorType = "server_error"
)

type ServiceError struct {
	Code             string           `json:"code"`
	Type             ServiceErrorType `json:"type"`
	Error            string           `json:"error"`
	ErrorDescription string           `json:"error_description,omitempty"`
}

var (
	InternalServerError = ServiceError{
		Type:             ServerErrorType,
		Code:             codes.InternalServerError,
		Error:            "internal_server_error",
		ErrorDescription: "An unexpected error occurred",
	}

	InvalidRequestError = ServiceError{
		Type:             ClientErrorType,
		Code:             codes.InvalidRequest,
		Error:            "invalid_request",
		ErrorDescription: "The request is invalid",
	}

	ResourceNotFoundError = ServiceError{
		Type:             ClientErrorType,
		Code:             codes.ResourceNotFound,
		Error:            "resource_not_found",
		ErrorDescription: "Resource not found",
	}

	ConflictError = ServiceError{
		Type:             ClientErrorType,
		Code:             codes.ConflictError,
		Error:            "conflict",
		ErrorDescription: "Request conflicts with current state",
	}

	SessionNotFoundError = ServiceError{
		Type:             ClientErrorType,
		Code:             codes.SessionNotFound,
		Error:            "session_not_found",
		ErrorDescription: "Page session not found",
	}

	PreferencesNotFoundError = ServiceError{
		Type:             ClientErrorType,
		Code:             codes.PreferencesNotFound,
		Error:            "none",
		ErrorDescription: "No valid consent has been given",
	}

	InvalidTransitionError = ServiceError{
		Type:             ClientErrorType,
		Code:             codes.InvalidTransition,
		Error:            "invalid_transition",
		ErrorDescription: "The event is not allowed in the current banner phase",
	}

	BannerDisabledError = ServiceError{
		Type:             ClientErrorType,
		Code:             codes.BannerDisabled,
		Error:            "banner_disabled",
		ErrorDescription: "The consent banner is not available on this page",
	}
)

func CustomServiceError(baseError ServiceError, description string) *ServiceError {
	return &ServiceError{
		Type:             baseError.Type,
		Code:             baseError.Code,
		Error:            baseError.Error,
		ErrorDescription: description,
	}
}
