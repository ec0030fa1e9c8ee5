package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// Config is the immutable base configuration of one client instance.
type Config struct {
	BaseURL         string
	Timeout         time.Duration
	Headers         map[string]string
	WithCredentials bool
	// Jar is attached when WithCredentials is set; nil keeps resty's own jar.
	Jar       http.CookieJar
	Transport http.RoundTripper
	// TransportLogger receives resty's internal diagnostics.
	TransportLogger resty.Logger
}

// RestyClient adapts resty.Client to the httpclient.Client interface.
type RestyClient struct {
	client  *resty.Client
	baseURL string
}

// New creates a RestyClient from cfg with ic's hooks installed.
func New(cfg Config, ic *Interceptor) *RestyClient {
	c := newRestyBaseClient(cfg.Timeout)
	c.SetBaseURL(cfg.BaseURL)
	c.SetHeader("Content-Type", "application/json")
	if len(cfg.Headers) > 0 {
		c.SetHeaders(cfg.Headers)
	}

	if cfg.WithCredentials {
		if cfg.Jar != nil {
			c.SetCookieJar(cfg.Jar)
		}
	} else {
		c.SetCookieJar(nil)
	}
	if cfg.Transport != nil {
		c.SetTransport(cfg.Transport)
	}
	if cfg.TransportLogger != nil {
		c.SetLogger(cfg.TransportLogger)
	}

	if ic == nil {
		ic = NewInterceptor(nil, nil)
	}
	ic.Install(c)

	return &RestyClient{client: c, baseURL: cfg.BaseURL}
}

// newRestyBaseClient creates a new resty.Client with the specified timeout.
func newRestyBaseClient(timeout time.Duration) *resty.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := resty.New()
	c.SetTimeout(timeout)
	return c
}

// BaseURL returns the URL paths are resolved against.
func (r *RestyClient) BaseURL() string { return r.baseURL }

// Resty exposes the configured resty.Client for callers needing custom verbs.
// Hooks stay installed.
func (r *RestyClient) Resty() *resty.Client { return r.client }

// Get performs an HTTP GET request with the specified context, path, and headers.
func (r *RestyClient) Get(ctx context.Context, path string, headers map[string]string) (Response, error) {
	return r.Do(ctx, &Request{Method: http.MethodGet, Path: path, Headers: headers})
}

// Do dispatches req. Any failure, including non-2xx statuses, is returned as *Error.
func (r *RestyClient) Do(ctx context.Context, req *Request) (Response, error) {
	if req == nil {
		return nil, fmt.Errorf("httpclient: nil request")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	rr := r.client.R().SetContext(ctx)
	if len(req.Headers) > 0 {
		rr.SetHeaders(req.Headers)
	}
	if len(req.Query) > 0 {
		rr.SetQueryParamsFromValues(req.Query)
	}
	if req.Body != nil {
		rr.SetBody(req.Body)
	}
	if len(req.FormData) > 0 {
		rr.SetFormData(req.FormData)
	}
	for _, f := range req.Files {
		rr.SetFileReader(f.Field, f.Name, f.Reader)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	resp, err := rr.Execute(method, req.Path)
	if err != nil {
		return nil, normalizeError(rr, err)
	}
	return &restyResponseAdapter{resp: resp}, nil
}

// restyResponseAdapter adapts resty.Response to the httpclient.Response interface.
type restyResponseAdapter struct {
	resp *resty.Response
}

func (r *restyResponseAdapter) Body() []byte        { return r.resp.Body() }
func (r *restyResponseAdapter) StatusCode() int     { return r.resp.StatusCode() }
func (r *restyResponseAdapter) Header() http.Header { return r.resp.Header() }
