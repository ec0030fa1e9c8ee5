package app

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/samvad-hq/inspectra/internal/config"
	"github.com/samvad-hq/inspectra/internal/logger"
	"github.com/samvad-hq/inspectra/internal/storage"
	"github.com/samvad-hq/inspectra/pkg/api"
	"github.com/samvad-hq/inspectra/pkg/auth"
	"github.com/samvad-hq/inspectra/pkg/httpclient"
)

// Session is the process-wide client stack: one token store, one credential
// provider and the two dispatchers sharing them. Build it once per process.
// Slots holds the token; it is Store unless Store is the none backend, in
// which case the token lives in memory for the life of the process.
type Session struct {
	Store   storage.Store
	Slots   auth.KeyValueStore
	Creds   *auth.StoreProvider
	Clients *httpclient.Clients
	API     *api.API
}

// SessionOptions lets callers override pieces of the stack, mainly in tests.
type SessionOptions struct {
	Store     storage.Store
	Transport http.RoundTripper
	Sugar     *zap.SugaredLogger
}

// OpenSession wires storage, credentials, clients and API services from cfg.
func OpenSession(cfg *config.Config, log logger.Logger, opts SessionOptions) (*Session, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = logger.NopLogger{}
	}

	store := opts.Store
	if store == nil {
		var err error
		store, err = storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
			RecordTTL:       cfg.StorageTTL,
			CleanupInterval: cfg.StorageCleanupInterval,
		})
		if err != nil {
			return nil, fmt.Errorf("init storage: %w", err)
		}
		log.InfoObj("storage initialized", "storage_config", map[string]any{
			"type":                     cfg.StorageType,
			"path":                     cfg.BBoltPath,
			"record_ttl_seconds":       int(cfg.StorageTTL.Seconds()),
			"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
		})
	}

	var slots auth.KeyValueStore = store
	if !storage.Persists(store) {
		slots = storage.NewMemoryStore(storage.Options{})
		log.WarnObj("storage disabled; session token kept in memory only", "storage_config", map[string]any{
			"type": cfg.StorageType,
		})
	}

	var jar http.CookieJar
	cookies := auth.MultiCookies{auth.StaticCookies(cfg.SessionCookie)}
	if cfg.WithCredentials {
		jar = httpclient.NewCookieJar()
		if root, err := url.Parse(cfg.APIRoot); err == nil {
			cookies = append(cookies, auth.JarCookies{Jar: jar, URL: root})
		}
	}

	creds := auth.NewStoreProvider(slots, cfg.TokenKey, cookies, auth.WithObserver(func(from, to auth.State) {
		log.InfoObj("session state changed", "session_state", map[string]string{
			"from": from.String(),
			"to":   to.String(),
		})
	}))

	var transportLog resty.Logger
	if opts.Sugar != nil {
		transportLog = opts.Sugar
	}

	clients := httpclient.NewClients(httpclient.Options{
		APIRoot:         cfg.APIRoot,
		Prefix:          cfg.APIPrefix,
		Timeout:         cfg.RequestTimeout,
		WithCredentials: cfg.WithCredentials,
		Jar:             jar,
		Transport:       opts.Transport,
		TransportLogger: transportLog,
	}, creds, log)

	return &Session{
		Store:   store,
		Slots:   slots,
		Creds:   creds,
		Clients: clients,
		API:     api.New(clients.Scoped, clients.Direct, creds),
	}, nil
}

// Close releases the token store.
func (s *Session) Close() error {
	if s == nil || s.Store == nil {
		return nil
	}
	return s.Store.Close()
}
