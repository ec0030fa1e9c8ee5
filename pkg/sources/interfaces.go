package sources

import (
	"context"

	"github.com/samvad-hq/inspectra/internal/domain"
	"github.com/samvad-hq/inspectra/pkg/httpclient"
)

// Fetcher retrieves the records behind one source.
type Fetcher interface {
	ID() string
	Fetch(ctx context.Context, src Source) ([]domain.Record, error)
}

// FetcherRegistry resolves the fetcher for a source.
type FetcherRegistry interface {
	FetcherFor(src Source) (Fetcher, error)
}

// HTTPClient aliases the shared httpclient.Client interface.
type HTTPClient = httpclient.Client
