package sources

import (
	"fmt"
	"strings"
	"sync"
)

type fetcherRegistry struct {
	fetchersByID   map[string]Fetcher
	fetchersByKind map[string]Fetcher
	mu             sync.RWMutex
}

// NewFetcherRegistry builds a registry of source-specific fetchers keyed by source id.
func NewFetcherRegistry(fetchers ...Fetcher) FetcherRegistry {
	return NewKindFetcherRegistry(nil, fetchers...)
}

// NewKindFetcherRegistry builds a registry with kind-wide fetchers plus
// source-specific overrides.
func NewKindFetcherRegistry(kindFetchers map[string]Fetcher, fetchers ...Fetcher) FetcherRegistry {
	reg := &fetcherRegistry{
		fetchersByID:   make(map[string]Fetcher),
		fetchersByKind: make(map[string]Fetcher),
	}
	for _, f := range fetchers {
		if f != nil {
			reg.register(reg.fetchersByID, f.ID(), f)
		}
	}
	for kind, f := range kindFetchers {
		reg.register(reg.fetchersByKind, kind, f)
	}
	return reg
}

func (r *fetcherRegistry) register(into map[string]Fetcher, key string, f Fetcher) {
	key = strings.ToLower(strings.TrimSpace(key))
	if f == nil || key == "" {
		return
	}
	r.mu.Lock()
	into[key] = f
	r.mu.Unlock()
}

// FetcherFor prefers a fetcher registered for the source id, then its kind.
func (r *fetcherRegistry) FetcherFor(src Source) (Fetcher, error) {
	if r == nil {
		return nil, fmt.Errorf("fetcher registry is nil")
	}
	if strings.TrimSpace(src.ID) == "" {
		return nil, fmt.Errorf("source id is empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if f, ok := r.fetchersByID[strings.ToLower(strings.TrimSpace(src.ID))]; ok {
		return f, nil
	}
	if kind := strings.ToLower(strings.TrimSpace(src.Kind)); kind != "" {
		if f, ok := r.fetchersByKind[kind]; ok {
			return f, nil
		}
	}
	return nil, fmt.Errorf("no fetcher registered for source %q (kind %q)", src.ID, src.Kind)
}

// DefaultFetcherRegistry wires the record fetcher for every supported kind.
// client should be the scoped API client so requests carry the session token.
func DefaultFetcherRegistry(client HTTPClient) FetcherRegistry {
	return NewKindFetcherRegistry(map[string]Fetcher{
		KindDefects:     NewRecordFetcher(KindDefects, client),
		KindInspections: NewRecordFetcher(KindInspections, client),
	})
}
