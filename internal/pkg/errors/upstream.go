package errors

import (
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
)

// NotFoundError reports a directory lookup that matched nothing.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

// UpstreamError wraps a failed call to a remote service. StatusCode is zero
// when the request never got a response.
type UpstreamError struct {
	Service    string
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: HTTP %d: %s", e.Service, e.Op, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s %s: %v", e.Service, e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the call failed because a deadline expired.
func (e *UpstreamError) Timeout() bool {
	var netErr net.Error
	return stderrors.As(e.Err, &netErr) && netErr.Timeout()
}

// IsNotFound reports whether err is, or wraps, a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return stderrors.As(err, &nf)
}

// IsRetryable reports whether err is a transient upstream failure: a timeout,
// a 429, or a 5xx. Nothing retries automatically; callers decide.
func IsRetryable(err error) bool {
	var up *UpstreamError
	if !stderrors.As(err, &up) {
		return false
	}
	if up.Timeout() {
		return true
	}
	return up.StatusCode == http.StatusTooManyRequests || up.StatusCode >= http.StatusInternalServerError
}
