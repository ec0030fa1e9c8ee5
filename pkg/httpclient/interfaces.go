package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/url"
)

// Response is a minimal HTTP response contract.
type Response interface {
	Body() []byte
	StatusCode() int
	Header() http.Header
}

// Client abstracts HTTP calls so callers can inject mocks or different transports.
type Client interface {
	Do(ctx context.Context, req *Request) (Response, error)
	Get(ctx context.Context, path string, headers map[string]string) (Response, error)
}

// Request describes one call relative to a client's base URL. Path may also
// be an absolute URL.
type Request struct {
	Method  string
	Path    string
	Headers map[string]string
	Query   url.Values
	// Body is JSON-encoded unless it is a string, []byte or io.Reader.
	Body     any
	FormData map[string]string
	Files    []File
}

// File is one multipart part. Setting Files switches the request to
// multipart/form-data regardless of the default Content-Type.
type File struct {
	Field  string
	Name   string
	Reader io.Reader
}
