package client

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrMalformedResponse is wrapped by errors for 2xx responses whose body
// could not be decoded into the expected shape.
var ErrMalformedResponse = errors.New("malformed response")

// HTTPError represents a non-2xx HTTP response from the API.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// IsStatus returns true if err (or any wrapped error) is an HTTPError with the given status code.
func IsStatus(err error, code int) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == code
	}
	return false
}

// IsAuth reports whether err is a 401 or 403 from the backend, i.e. the
// session cookie is missing, expired or belongs to another role.
func IsAuth(err error) bool {
	return IsStatus(err, http.StatusUnauthorized) || IsStatus(err, http.StatusForbidden)
}

// isServerError reports whether err is a 5xx response.
func isServerError(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode >= 500
	}
	return false
}
