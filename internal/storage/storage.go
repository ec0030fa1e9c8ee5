package storage

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Package storage provides the local persistence used by the client stack:
// named key-value slots (the session token lives here) and a TTL-bounded set
// of record fingerprints that the syncer has already delivered.

// Store is the persistent local store.
type Store interface {
	Close() error

	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error

	SeenRecord(id string) (bool, error)
	MarkRecord(id string) error
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	RecordTTL       time.Duration
	CleanupInterval time.Duration
}

const (
	TypeNone   = "none"
	TypeMemory = "memory"
	TypeBBolt  = "bbolt"

	defaultRecordTTL       = 30 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", TypeNone, "disabled":
		return noopStore{}, nil
	case TypeMemory:
		return NewMemoryStore(opts), nil
	case TypeBBolt:
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.RecordTTL <= 0 {
		opts.RecordTTL = defaultRecordTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

// ErrNotPersistent is returned when a value is written to the none backend.
var ErrNotPersistent = errors.New("storage: backend does not persist values")

// Persists reports whether s keeps what is written to it.
func Persists(s Store) bool {
	_, noop := s.(noopStore)
	return s != nil && !noop
}

// noopStore forgets everything: nothing is ever seen, and slot writes fail.
type noopStore struct{}

func (noopStore) Close() error                     { return nil }
func (noopStore) Get(string) (string, bool, error) { return "", false, nil }
func (noopStore) Set(string, string) error         { return ErrNotPersistent }
func (noopStore) Delete(string) error              { return nil }
func (noopStore) SeenRecord(string) (bool, error)  { return false, nil }
func (noopStore) MarkRecord(string) error          { return nil }
