package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors used throughout the application.
// Handlers translate these to HTTP status codes via a single mapError function.
var (
	ErrNotFound          = errors.New("not found")
	ErrMissingURL        = errors.New("eventRequestUrl must not be empty")
	ErrInvalidMethod     = errors.New("eventRequestType must be GET, POST, PUT, PATCH, or DELETE")
	ErrMissingTemplate   = errors.New("eventRequestData is required")
	ErrMissingRecipients = errors.New("eventData is required")
	ErrTooManyRecipients = errors.New("eventData exceeds maximum of 10000 recipients")
)

// ResponseError reports a non-2xx status returned by the target endpoint.
// Status code and raw body stay accessible so callers can distinguish an
// endpoint rejection from a transport failure via errors.As.
type ResponseError struct {
	StatusCode int
	Body       []byte
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("endpoint returned status %d", e.StatusCode)
}
