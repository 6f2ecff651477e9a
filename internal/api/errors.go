package api

import (
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/easycomment/easycomment-server/internal/errors"
	"github.com/easycomment/easycomment-server/internal/store"
)

// APIError is the error body of every failed request. Detail carries the
// human-readable message under the key overlay clients already read.
type APIError struct { //nolint:revive // API prefix is intentional for clarity
	status  int
	headers http.Header
	Details any    `json:"details,omitempty" doc:"Additional error details"`
	Detail  string `json:"detail" doc:"Human-readable error message"`
	Code    string `json:"code" doc:"Machine-readable error code"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Detail
}

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int {
	return e.status
}

// GetHeaders implements huma.HeadersError.
func (e *APIError) GetHeaders() http.Header {
	return e.headers
}

// ContentType returns the content type for the error response.
func (e *APIError) ContentType(_ string) string {
	return "application/json"
}

func newAPIError(status int, code, detail string, details any) *APIError {
	e := &APIError{
		status:  status,
		Code:    code,
		Detail:  detail,
		Details: details,
	}
	if status == http.StatusUnauthorized {
		e.headers = http.Header{"WWW-Authenticate": []string{"Basic"}}
	}
	return e
}

// RegisterErrorHandler configures huma to use domain errors.
// Call this after creating the huma.API but before registering routes.
func RegisterErrorHandler() {
	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		var fieldErrors []*huma.ErrorDetail
		for _, err := range errs {
			var domainErr *domainerrors.Error
			if errors.As(err, &domainErr) {
				return newAPIError(domainErr.HTTPStatus(), string(domainErr.Code), domainErr.Message, domainErr.Details)
			}

			var storeErr *store.Error
			if errors.As(err, &storeErr) && storeErr.HTTPCode() == http.StatusNotFound {
				return newAPIError(http.StatusNotFound, string(domainerrors.CodeNotFound), storeErr.Message, nil)
			}

			var detail *huma.ErrorDetail
			if errors.As(err, &detail) {
				fieldErrors = append(fieldErrors, detail)
			}
		}

		var details any
		if len(fieldErrors) > 0 {
			details = fieldErrors
		}
		return newAPIError(status, statusToCode(status), message, details)
	}
}

// statusError resolves err to its response error before it reaches huma,
// so headers such as WWW-Authenticate are written.
func statusError(err error) error {
	var se huma.StatusError
	if errors.As(err, &se) {
		return err
	}
	return huma.NewError(http.StatusInternalServerError, "unexpected error occurred", err)
}

// statusToCode maps HTTP status codes to our domain error codes.
func statusToCode(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return string(domainerrors.CodeValidation)
	case http.StatusUnauthorized:
		return string(domainerrors.CodeUnauthorized)
	case http.StatusNotFound:
		return string(domainerrors.CodeNotFound)
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	default:
		return string(domainerrors.CodeInternal)
	}
}
