package publishers

import (
	"context"
	"fmt"
	"time"

	"github.com/samvad-hq/inspectra/pkg/httpclient"
)

type httpPublisher struct {
	id      string
	method  string
	url     string
	headers map[string]string
	client  httpclient.Client
	typ     string
}

func newHTTPPublisher(_ context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("publisher %q missing http configuration", cfg.ID)
	}

	// Webhook sinks get no bearer token; failures are still logged.
	client := httpclient.New(httpclient.Config{
		Timeout: time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second,
	}, httpclient.NewInterceptor(nil, log))

	return &httpPublisher{
		id:      cfg.ID,
		typ:     TypeHTTP,
		method:  cfg.HTTP.Method,
		url:     cfg.HTTP.URL,
		headers: cfg.HTTP.Headers,
		client:  client,
	}, nil
}

func (h *httpPublisher) ID() string   { return h.id }
func (h *httpPublisher) Type() string { return h.typ }

func (h *httpPublisher) Publish(ctx context.Context, evt Event) error {
	_, err := h.client.Do(ctx, &httpclient.Request{
		Method:  h.method,
		Path:    h.url,
		Headers: h.headers,
		Body:    evt,
	})
	if err != nil {
		return fmt.Errorf("http publish: %w", err)
	}
	return nil
}
