package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/samvad-hq/inspectra/internal/config"
	"github.com/samvad-hq/inspectra/internal/storage"
	"github.com/samvad-hq/inspectra/pkg/auth"
)

func TestOpenSessionWithoutStorageKeepsLoginToken(t *testing.T) {
	var gotAuth string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": map[string]any{
			"token": "tok-1",
			"user":  map[string]any{"id": "u1", "email": "qa@plant.io"},
		}})
	})
	mux.HandleFunc("/api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": map[string]any{"id": "u1"}})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	for _, typ := range []string{storage.TypeNone, ""} {
		cfg := &config.Config{
			APIRoot:        srv.URL,
			APIPrefix:      "/api",
			RequestTimeout: 2 * time.Second,
			TokenKey:       "token",
			StorageType:    typ,
		}
		session, err := OpenSession(cfg, nil, SessionOptions{})
		if err != nil {
			t.Fatalf("OpenSession(%q): %v", typ, err)
		}
		if storage.Persists(session.Store) {
			t.Fatalf("storage type %q should select the none backend", typ)
		}

		ctx := context.Background()
		if _, err := session.API.Auth.Login(ctx, "qa@plant.io", "pw"); err != nil {
			t.Fatalf("login: %v", err)
		}
		if got, err := session.Creds.State(); err != nil || got != auth.StatePresent {
			t.Fatalf("state after login = %v, %v; want present", got, err)
		}
		gotAuth = ""
		if _, err := session.API.Auth.Me(ctx); err != nil {
			t.Fatalf("me: %v", err)
		}
		if gotAuth != "Bearer tok-1" {
			t.Fatalf("Authorization = %q", gotAuth)
		}
		_ = session.Close()
	}
}
