package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// Error kinds. Every failure returned by a client wraps exactly one of them.
var (
	ErrStatus      = errors.New("http error status")
	ErrTransport   = errors.New("http transport failure")
	ErrInterceptor = errors.New("request interceptor failed")
)

// Error is the normalized failure of a dispatched request. StatusCode is 0
// when no HTTP response was obtained.
type Error struct {
	Method     string
	URL        string
	StatusCode int
	Body       []byte
	Kind       error
	Err        error
}

func (e *Error) Error() string {
	target := strings.TrimSpace(e.Method + " " + e.URL)
	switch {
	case e.StatusCode > 0:
		if snippet := readBodySnippet(e.Body); snippet != "" {
			return fmt.Sprintf("%s: status %d: %s", target, e.StatusCode, snippet)
		}
		return fmt.Sprintf("%s: status %d", target, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", target, e.Err)
	case e.Kind != nil:
		return fmt.Sprintf("%s: %v", target, e.Kind)
	default:
		return target + ": request failed"
	}
}

func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// Timeout reports whether the request failed because its deadline passed.
func (e *Error) Timeout() bool {
	if e == nil || e.Err == nil {
		return false
	}
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

// AsError extracts the normalized *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	if e, ok := AsError(err); ok {
		return e.StatusCode
	}
	return 0
}

// IsUnauthorized reports whether err is a 401 response.
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

// IsTimeout reports whether err is a request that exceeded its timeout.
func IsTimeout(err error) bool {
	if e, ok := AsError(err); ok {
		return e.Timeout()
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// IsTransport reports whether err failed without any HTTP response.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

func readBodySnippet(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	if len(body) > 512 {
		body = body[:512]
	}
	return strings.TrimSpace(string(body))
}
