package provider

import (
	"errors"
	"fmt"
	"net/http"
)

// Static errors for err113 compliance.
var (
	ErrMissingCountHeader = errors.New("count header is missing in the HTTP response")
	ErrInvalidCountHeader = errors.New("count header does not hold an integer total")
	ErrUnhandledRemap     = errors.New("unhandled identifier remap scenario")
	ErrUnexpectedResponse = errors.New("unexpected response shape")
	ErrConfigRequired     = errors.New("config is required")
	ErrAPIURLRequired     = errors.New("API URL is required")
	ErrInvalidConfig      = errors.New("invalid config")
	ErrNonPositivePage    = errors.New("pagination page and perPage must be positive")
	ErrResourceRequired   = errors.New("resource name is required")
	ErrParamsRequired     = errors.New("operation parameters are required")
	ErrTargetRequired     = errors.New("reference target field is required")
)

// CountHeaderError reports a list response that lacks the configured count
// header. This is almost always a CORS exposure problem on the server.
type CountHeaderError struct {
	Header string
}

// Error implements the error interface.
func (e *CountHeaderError) Error() string {
	return fmt.Sprintf("The %s header is missing in the HTTP Response. "+
		"The simple REST data provider expects responses for lists of resources to contain this header "+
		"with the total number of results to build the pagination. "+
		"If you are using CORS, did you declare %s in the Access-Control-Expose-Headers header?",
		e.Header, e.Header)
}

// Unwrap returns ErrMissingCountHeader.
func (e *CountHeaderError) Unwrap() error {
	return ErrMissingCountHeader
}

// RemapError reports a response record in which the remapped primary key
// field is absent or null, so no "id" can be produced for it.
type RemapError struct {
	Resource string
	Key      string
	Value    any
}

// Error implements the error interface.
func (e *RemapError) Error() string {
	return fmt.Sprintf("%s: resource %q has no value for key %q in %v", ErrUnhandledRemap, e.Resource, e.Key, e.Value)
}

// Unwrap returns ErrUnhandledRemap.
func (e *RemapError) Unwrap() error {
	return ErrUnhandledRemap
}

// HTTPError is returned by the default HTTP client for non-2xx responses.
// Message is the "message" field of a JSON error body when there is one,
// otherwise the status text.
type HTTPError struct {
	Status  int
	Message string
	Body    string
	JSON    any
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s (status: %d)", e.Message, e.Status)
}

// NewHTTPError builds an HTTPError from a response status and body.
func NewHTTPError(status int, body string, payload any) *HTTPError {
	message := http.StatusText(status)

	if obj, ok := payload.(map[string]any); ok {
		if msg, ok := obj["message"].(string); ok && msg != "" {
			message = msg
		}
	}

	if message == "" {
		message = fmt.Sprintf("HTTP %d", status)
	}

	return &HTTPError{
		Status:  status,
		Message: message,
		Body:    body,
		JSON:    payload,
	}
}

func statusIs(err error, status int) bool {
	httpErr := &HTTPError{}
	if errors.As(err, &httpErr) {
		return httpErr.Status == status
	}

	return false
}

// IsNotFound checks if the error is a 404 from the backend.
func IsNotFound(err error) bool {
	return statusIs(err, http.StatusNotFound)
}

// IsUnauthorized checks if the error is a 401 from the backend.
func IsUnauthorized(err error) bool {
	return statusIs(err, http.StatusUnauthorized)
}

// IsForbidden checks if the error is a 403 from the backend.
func IsForbidden(err error) bool {
	return statusIs(err, http.StatusForbidden)
}
