package httpclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/samvad-hq/inspectra/internal/storage"
	"github.com/samvad-hq/inspectra/pkg/auth"
)

// capturedRequest is what the test server saw.
type capturedRequest struct {
	path        string
	auth        []string
	contentType string
	cookie      string
}

type recorder struct {
	mu   sync.Mutex
	reqs []capturedRequest
}

func (r *recorder) add(req *http.Request) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reqs = append(r.reqs, capturedRequest{
		path:        req.URL.Path,
		auth:        req.Header.Values("Authorization"),
		contentType: req.Header.Get("Content-Type"),
		cookie:      req.Header.Get("Cookie"),
	})
}

func (r *recorder) last(t *testing.T) capturedRequest {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.reqs) == 0 {
		t.Fatalf("server received no requests")
	}
	return r.reqs[len(r.reqs)-1]
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reqs)
}

func newTestServer(t *testing.T, rec *recorder) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/unauthorized", func(w http.ResponseWriter, r *http.Request) {
		rec.add(r)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"success":false,"error":"invalid token"}`)
	})
	mux.HandleFunc("/api/broken", func(w http.ResponseWriter, r *http.Request) {
		rec.add(r)
		http.Error(w, "kaput", http.StatusInternalServerError)
	})
	mux.HandleFunc("/api/session", func(w http.ResponseWriter, r *http.Request) {
		rec.add(r)
		http.SetCookie(w, &http.Cookie{Name: "token", Value: "jarTok", Path: "/"})
		_, _ = io.WriteString(w, `{"success":true}`)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		rec.add(r)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"success":true,"data":{"ok":true}}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClients(t *testing.T, srv *httptest.Server, store storage.Store, cookies auth.CookieSource) *Clients {
	t.Helper()
	creds := auth.NewStoreProvider(store, "token", cookies)
	return NewClients(Options{APIRoot: srv.URL, WithCredentials: true}, creds, nil)
}

func TestScopedClientAttachesBearerToken(t *testing.T) {
	rec := &recorder{}
	srv := newTestServer(t, rec)
	store := storage.NewMemoryStore(storage.Options{})
	_ = store.Set("token", "tok123")

	clients := newTestClients(t, srv, store, nil)
	resp, err := clients.Scoped.Get(context.Background(), "/defects", nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.StatusCode() != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode())
	}

	got := rec.last(t)
	if got.path != "/api/defects" {
		t.Fatalf("path = %q, want /api/defects", got.path)
	}
	if len(got.auth) != 1 || got.auth[0] != "Bearer tok123" {
		t.Fatalf("Authorization = %v", got.auth)
	}
	if got.contentType != "application/json" {
		t.Fatalf("Content-Type = %q", got.contentType)
	}
	if v, ok, _ := store.Get("token"); !ok || v != "tok123" {
		t.Fatalf("successful request must leave the token slot alone")
	}
}

func TestNoTokenMeansNoAuthorizationHeader(t *testing.T) {
	rec := &recorder{}
	srv := newTestServer(t, rec)
	clients := newTestClients(t, srv, storage.NewMemoryStore(storage.Options{}), auth.StaticCookies(""))

	for _, c := range []*RestyClient{clients.Scoped, clients.Direct} {
		if _, err := c.Get(context.Background(), "/ping", nil); err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got := rec.last(t); len(got.auth) != 0 {
			t.Fatalf("expected no Authorization header, got %v", got.auth)
		}
	}
}

func TestStorageTokenWinsOverCookie(t *testing.T) {
	rec := &recorder{}
	srv := newTestServer(t, rec)
	store := storage.NewMemoryStore(storage.Options{})
	_ = store.Set("token", "A")

	clients := newTestClients(t, srv, store, auth.StaticCookies("token=B"))
	if _, err := clients.Scoped.Get(context.Background(), "/me", nil); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got := rec.last(t); len(got.auth) != 1 || got.auth[0] != "Bearer A" {
		t.Fatalf("Authorization = %v, want Bearer A", got.auth)
	}
}

func TestCookieFallbackWhenStorageEmpty(t *testing.T) {
	rec := &recorder{}
	srv := newTestServer(t, rec)
	clients := newTestClients(t, srv, storage.NewMemoryStore(storage.Options{}), auth.StaticCookies("foo=bar; token=cookieTok; baz=qux"))

	if _, err := clients.Direct.Get(context.Background(), "/health", nil); err != nil {
		t.Fatalf("Get: %v", err)
	}
	got := rec.last(t)
	if got.path != "/health" {
		t.Fatalf("direct client must not prefix /api, got %q", got.path)
	}
	if len(got.auth) != 1 || got.auth[0] != "Bearer cookieTok" {
		t.Fatalf("Authorization = %v", got.auth)
	}
}

func TestTokenIsResolvedPerRequest(t *testing.T) {
	rec := &recorder{}
	srv := newTestServer(t, rec)
	store := storage.NewMemoryStore(storage.Options{})
	clients := newTestClients(t, srv, store, nil)

	_ = store.Set("token", "first")
	_, _ = clients.Scoped.Get(context.Background(), "/a", nil)
	_ = store.Set("token", "second")
	_, _ = clients.Scoped.Get(context.Background(), "/b", nil)
	_ = store.Delete("token")
	_, _ = clients.Scoped.Get(context.Background(), "/c", nil)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.reqs) != 3 {
		t.Fatalf("expected 3 requests, got %d", len(rec.reqs))
	}
	if rec.reqs[0].auth[0] != "Bearer first" || rec.reqs[1].auth[0] != "Bearer second" || len(rec.reqs[2].auth) != 0 {
		t.Fatalf("stale token reused: %+v", rec.reqs)
	}
}

func TestUnauthorizedClearsTokenAndStillFails(t *testing.T) {
	rec := &recorder{}
	srv := newTestServer(t, rec)

	for name, pick := range map[string]func(*Clients) (*RestyClient, string){
		"scoped": func(c *Clients) (*RestyClient, string) { return c.Scoped, "/unauthorized" },
		"direct": func(c *Clients) (*RestyClient, string) { return c.Direct, "/api/unauthorized" },
	} {
		t.Run(name, func(t *testing.T) {
			store := storage.NewMemoryStore(storage.Options{})
			_ = store.Set("token", "tok123")
			client, path := pick(newTestClients(t, srv, store, nil))

			resp, err := client.Get(context.Background(), path, nil)
			if err == nil {
				t.Fatalf("expected error for 401, got response %v", resp)
			}
			if !IsUnauthorized(err) {
				t.Fatalf("expected 401 error, got %v", err)
			}
			e, ok := AsError(err)
			if !ok || !strings.Contains(string(e.Body), "invalid token") {
				t.Fatalf("expected body preserved on error, got %#v", e)
			}
			if _, ok, _ := store.Get("token"); ok {
				t.Fatalf("token slot should be empty after 401")
			}
		})
	}
}

func TestOtherHTTPErrorsKeepToken(t *testing.T) {
	rec := &recorder{}
	srv := newTestServer(t, rec)
	store := storage.NewMemoryStore(storage.Options{})
	_ = store.Set("token", "tok123")
	clients := newTestClients(t, srv, store, nil)

	_, err := clients.Scoped.Get(context.Background(), "/broken", nil)
	if StatusCode(err) != http.StatusInternalServerError || !errors.Is(err, ErrStatus) {
		t.Fatalf("expected 500 status error, got %v", err)
	}
	if v, ok, _ := store.Get("token"); !ok || v != "tok123" {
		t.Fatalf("non-401 failure must not touch the token slot")
	}
}

// blockingTransport never completes until the request context ends.
type blockingTransport struct{}

func (blockingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	<-r.Context().Done()
	return nil, r.Context().Err()
}

func TestTimeoutSurfacesAsTransportFailure(t *testing.T) {
	store := storage.NewMemoryStore(storage.Options{})
	_ = store.Set("token", "tok123")
	creds := auth.NewStoreProvider(store, "token", nil)
	log := &recordingLogger{}

	clients := NewClients(Options{
		APIRoot:   "http://qc.invalid",
		Timeout:   50 * time.Millisecond,
		Transport: blockingTransport{},
	}, creds, log)

	start := time.Now()
	_, err := clients.Scoped.Get(context.Background(), "/defects", nil)
	if err == nil {
		t.Fatalf("expected timeout error")
	}
	if time.Since(start) > 5*time.Second {
		t.Fatalf("timeout not enforced")
	}
	if !IsTimeout(err) || !IsTransport(err) || StatusCode(err) != 0 {
		t.Fatalf("expected transport timeout without status, got %v", err)
	}
	if _, ok, _ := store.Get("token"); !ok {
		t.Fatalf("timeout must not clear the token")
	}
	if len(log.errors) == 0 {
		t.Fatalf("expected timeout to be logged")
	}
}

func TestDefaultTimeoutIsFifteenSeconds(t *testing.T) {
	clients := NewClients(Options{}, nil, nil)
	if got := clients.Scoped.Resty().GetClient().Timeout; got != 15*time.Second {
		t.Fatalf("scoped timeout = %v", got)
	}
	if got := clients.Direct.Resty().GetClient().Timeout; got != 15*time.Second {
		t.Fatalf("direct timeout = %v", got)
	}
	if clients.Scoped.BaseURL() != "http://localhost:5000/api" || clients.Direct.BaseURL() != "http://localhost:5000" {
		t.Fatalf("unexpected base URLs %q %q", clients.Scoped.BaseURL(), clients.Direct.BaseURL())
	}
}

// failingProvider fails every lookup.
type failingProvider struct{}

func (failingProvider) Token() (string, error) { return "", errors.New("keyring locked") }
func (failingProvider) Clear() error           { return nil }

func TestInterceptorFailureRejectsDispatch(t *testing.T) {
	rec := &recorder{}
	srv := newTestServer(t, rec)
	clients := NewClients(Options{APIRoot: srv.URL}, failingProvider{}, nil)

	_, err := clients.Scoped.Get(context.Background(), "/defects", nil)
	if !errors.Is(err, ErrInterceptor) {
		t.Fatalf("expected interceptor error, got %v", err)
	}
	if rec.count() != 0 {
		t.Fatalf("request must not be sent when the interceptor fails")
	}
}

func TestMultipartOverridesDefaultContentType(t *testing.T) {
	var (
		contentType string
		fileBody    string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		if f, _, err := r.FormFile("image"); err == nil {
			b, _ := io.ReadAll(f)
			fileBody = string(b)
		}
		_, _ = io.WriteString(w, `{"success":true}`)
	}))
	defer srv.Close()

	clients := NewClients(Options{APIRoot: srv.URL}, nil, nil)
	_, err := clients.Scoped.Do(context.Background(), &Request{
		Method: http.MethodPost,
		Path:   "/detection/analyze",
		Files:  []File{{Field: "image", Name: "weld.jpg", Reader: strings.NewReader("jpegbytes")}},
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if !strings.HasPrefix(contentType, "multipart/form-data") {
		t.Fatalf("Content-Type = %q, want multipart", contentType)
	}
	if fileBody != "jpegbytes" {
		t.Fatalf("file body = %q", fileBody)
	}
}

func TestCredentialsJarFeedsCookieFallback(t *testing.T) {
	rec := &recorder{}
	srv := newTestServer(t, rec)
	root, _ := url.Parse(srv.URL)
	jar := NewCookieJar()

	creds := auth.NewStoreProvider(storage.NewMemoryStore(storage.Options{}), "token", auth.JarCookies{Jar: jar, URL: root})
	clients := NewClients(Options{APIRoot: srv.URL, WithCredentials: true, Jar: jar}, creds, nil)

	if _, err := clients.Scoped.Get(context.Background(), "/session", nil); err != nil {
		t.Fatalf("Get session: %v", err)
	}
	if _, err := clients.Direct.Get(context.Background(), "/anything", nil); err != nil {
		t.Fatalf("Get: %v", err)
	}
	got := rec.last(t)
	if !strings.Contains(got.cookie, "token=jarTok") {
		t.Fatalf("cookie not sent with credentials, got %q", got.cookie)
	}
	if len(got.auth) != 1 || got.auth[0] != "Bearer jarTok" {
		t.Fatalf("Authorization = %v", got.auth)
	}
}

func TestJoinURL(t *testing.T) {
	cases := map[[2]string]string{
		{"http://h:5000", "/api"}:  "http://h:5000/api",
		{"http://h:5000/", "api/"}: "http://h:5000/api",
		{"http://h", ""}:           "http://h",
	}
	for in, want := range cases {
		if got := JoinURL(in[0], in[1]); got != want {
			t.Fatalf("JoinURL(%q, %q) = %q, want %q", in[0], in[1], got, want)
		}
	}
}
