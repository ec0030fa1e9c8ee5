package httpclient

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/samvad-hq/inspectra/pkg/auth"
)

const (
	HeaderAuthorization = "Authorization"
	BearerPrefix        = "Bearer "
)

// Interceptor holds the request and response hooks shared by every client
// instance. It keeps no per-request state; the token is resolved on each call.
type Interceptor struct {
	creds auth.Provider
	log   Logger
}

// NewInterceptor builds the hooks over creds. A nil creds disables token
// injection and 401 clearing.
func NewInterceptor(creds auth.Provider, log Logger) *Interceptor {
	return &Interceptor{creds: creds, log: ensureLogger(log)}
}

// Authorize sets `Authorization: Bearer <token>` on h when a non-empty token
// resolves. Without a token h is left untouched.
func (i *Interceptor) Authorize(h http.Header) error {
	if i == nil || i.creds == nil {
		return nil
	}
	tok, err := i.creds.Token()
	if err != nil {
		return err
	}
	if tok = strings.TrimSpace(tok); tok != "" {
		h.Set(HeaderAuthorization, BearerPrefix+tok)
	}
	return nil
}

// HandleError logs e and, on 401, clears the persisted token. It always
// returns e so the caller still observes the failure.
func (i *Interceptor) HandleError(e *Error) error {
	if e == nil {
		return nil
	}
	if i == nil {
		return e
	}

	i.log.ErrorObj("api request failed", "request_error", map[string]any{
		"method": e.Method,
		"url":    e.URL,
		"status": e.StatusCode,
		"error":  e.Error(),
	})

	if e.StatusCode == http.StatusUnauthorized && i.creds != nil {
		if err := i.creds.Clear(); err != nil {
			i.log.ErrorObj("stored token clear failed", "auth_error", map[string]any{
				"url":   e.URL,
				"error": err.Error(),
			})
		} else {
			i.log.WarnObj("authorization rejected; stored token cleared", "auth_event", map[string]any{
				"url": e.URL,
			})
		}
	}
	return e
}

// Install registers the hooks on c. Retries stay disabled.
func (i *Interceptor) Install(c *resty.Client) *resty.Client {
	c.SetRetryCount(0)

	c.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
		if err := i.Authorize(r.Header); err != nil {
			return &Error{Method: r.Method, URL: r.URL, Kind: ErrInterceptor, Err: err}
		}
		return nil
	})

	c.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		if !resp.IsError() {
			return nil
		}
		return i.HandleError(statusError(resp))
	})

	c.OnError(func(r *resty.Request, err error) {
		e := normalizeError(r, err)
		if e.StatusCode > 0 {
			// already handled in the after-response hook
			return
		}
		_ = i.HandleError(e)
	})

	return c
}

func statusError(resp *resty.Response) *Error {
	e := &Error{
		StatusCode: resp.StatusCode(),
		Body:       resp.Body(),
		Kind:       ErrStatus,
	}
	if req := resp.Request; req != nil {
		e.Method = req.Method
		e.URL = req.URL
	}
	return e
}

// normalizeError maps whatever resty returned to *Error. Errors raised by the
// hooks are returned as-is; everything else is a transport failure.
func normalizeError(r *resty.Request, err error) *Error {
	if e, ok := AsError(err); ok {
		return e
	}

	var respErr *resty.ResponseError
	if errors.As(err, &respErr) {
		err = respErr.Err
	}

	e := &Error{Kind: ErrTransport, Err: err}
	if r != nil {
		e.Method = r.Method
		e.URL = r.URL
	}
	return e
}
