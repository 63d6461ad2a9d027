package errors

import (
	stderrors "errors"
	"net/http"
)

// HTTPError represents an error with an associated HTTP status code.
type HTTPError struct {
	Code    int
	Message string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTPError with the given code and message.
func NewHTTPError(code int, message string) *HTTPError {
	return &HTTPError{
		Code:    code,
		Message: message,
	}
}

// Helper for common errors
var (
	ErrUnauthorized = func(msg string) *HTTPError { return NewHTTPError(http.StatusUnauthorized, msg) }
	ErrForbidden    = func(msg string) *HTTPError { return NewHTTPError(http.StatusForbidden, msg) }
	ErrBadRequest   = func(msg string) *HTTPError { return NewHTTPError(http.StatusBadRequest, msg) }
)

// HTTPStatus maps an error returned by the booking services to a response code.
func HTTPStatus(err error) int {
	var (
		httpErr       *HTTPError
		validation    *ValidationError
		duration      *InvalidDurationError
		configMissing *ConfigNotFoundError
		unavailable   *ProviderUnavailableError
		leadTime      *LeadTimeError
		capacity      *DailyCapacityError
		conflict      *SlotConflictError
		transition    *InvalidTransitionError
		notOwner      *NotOwnerError
		notFound      *NotFoundError
		storage       *StorageError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case stderrors.As(err, &httpErr):
		return httpErr.Code
	case stderrors.As(err, &validation), stderrors.As(err, &duration):
		return http.StatusBadRequest
	case stderrors.As(err, &configMissing), stderrors.As(err, &notFound):
		return http.StatusNotFound
	case stderrors.As(err, &notOwner):
		return http.StatusForbidden
	case stderrors.As(err, &unavailable), stderrors.As(err, &leadTime):
		return http.StatusUnprocessableEntity
	case stderrors.As(err, &capacity), stderrors.As(err, &conflict), stderrors.As(err, &transition):
		return http.StatusConflict
	case stderrors.As(err, &storage):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
