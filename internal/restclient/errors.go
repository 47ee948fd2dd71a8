package restclient

import (
	"errors"
	"fmt"
)

// ErrRateLimited is returned when a request is still throttled after the
// retry policy's attempt budget is spent.
var ErrRateLimited = errors.New("rate limited")

// HTTPError is a non-2xx response from the remote API. Requests that fail
// this way are never retried by the client.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Status, e.Body)
}

// IsHTTPError reports whether err is an HTTPError and returns it if so.
func IsHTTPError(err error) (*HTTPError, bool) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr, true
	}
	return nil, false
}
