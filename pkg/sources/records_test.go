package sources

import (
	"context"
	"net/http"
	"testing"

	"github.com/samvad-hq/inspectra/internal/domain"
	"github.com/samvad-hq/inspectra/pkg/httpclient"
)

type mockResponse struct {
	body   []byte
	status int
}

func (r mockResponse) Body() []byte        { return r.body }
func (r mockResponse) StatusCode() int     { return r.status }
func (r mockResponse) Header() http.Header { return http.Header{} }

type mockClient struct {
	t       *testing.T
	body    string
	err     error
	lastReq *httpclient.Request
}

func (m *mockClient) Do(ctx context.Context, req *httpclient.Request) (httpclient.Response, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return mockResponse{body: []byte(m.body), status: http.StatusOK}, nil
}

func (m *mockClient) Get(ctx context.Context, path string, headers map[string]string) (httpclient.Response, error) {
	return m.Do(ctx, &httpclient.Request{Path: path, Headers: headers})
}

const sampleDefects = `{"success":true,"data":[
  {"id":"d1","title":"Crack","updatedAt":"2026-01-02T10:00:00Z"},
  {"_id":"d2","title":"Dent","updated_at":"2026-01-03T10:00:00Z"},
  {"title":"no id"}
]}`

func TestRecordFetcherBuildsRecords(t *testing.T) {
	client := &mockClient{t: t, body: sampleDefects}
	f := NewRecordFetcher(KindDefects, client)

	recs, err := f.Fetch(context.Background(), Source{
		ID:    "open",
		Kind:  KindDefects,
		Path:  "/defects",
		Query: map[string]string{"status": "open"},
	})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if client.lastReq.Path != "/defects" || client.lastReq.Query.Get("status") != "open" {
		t.Fatalf("unexpected request: %+v", client.lastReq)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records (item without id skipped), got %d", len(recs))
	}
	if recs[0].ID != "d1" || recs[0].UpdatedAt != "2026-01-02T10:00:00Z" || recs[0].Kind != KindDefects {
		t.Fatalf("unexpected record: %+v", recs[0])
	}
	if recs[1].ID != "d2" || recs[1].UpdatedAt != "2026-01-03T10:00:00Z" {
		t.Fatalf("unexpected record: %+v", recs[1])
	}
	if len(recs[0].Data) == 0 {
		t.Fatalf("raw item should be carried in Data")
	}
}

func TestRecordFetcherRejectsOtherKinds(t *testing.T) {
	f := NewRecordFetcher(KindDefects, &mockClient{t: t, body: sampleDefects})
	if _, err := f.Fetch(context.Background(), Source{ID: "x", Kind: KindInspections, Path: "/inspections"}); err == nil {
		t.Fatalf("expected kind mismatch error")
	}
}

func TestRecordFetcherPropagatesUnauthorized(t *testing.T) {
	client := &mockClient{t: t, err: &httpclient.Error{StatusCode: http.StatusUnauthorized, Kind: httpclient.ErrStatus}}
	f := NewRecordFetcher(KindDefects, client)

	_, err := f.Fetch(context.Background(), Source{ID: "open", Kind: KindDefects, Path: "/defects"})
	if !httpclient.IsUnauthorized(err) {
		t.Fatalf("expected 401 to stay detectable, got %v", err)
	}
}

func TestDefaultFetcherRegistryResolvesByKindAndID(t *testing.T) {
	reg := DefaultFetcherRegistry(&mockClient{t: t})
	f, err := reg.FetcherFor(Source{ID: "any", Kind: "Inspections"})
	if err != nil || f.ID() != KindInspections {
		t.Fatalf("FetcherFor by kind: %v, %v", f, err)
	}

	special := NewRecordFetcher(KindDefects, &mockClient{t: t})
	reg = NewKindFetcherRegistry(nil, special)
	if _, err := reg.FetcherFor(Source{ID: "defects", Kind: "whatever"}); err != nil {
		t.Fatalf("FetcherFor by id: %v", err)
	}
	if _, err := reg.FetcherFor(Source{ID: "missing", Kind: "nope"}); err == nil {
		t.Fatalf("expected error for unknown source")
	}
}

func TestFingerprintChangesWithRevision(t *testing.T) {
	a := domain.Record{Kind: KindDefects, ID: "d1", UpdatedAt: "t1"}
	b := a
	b.UpdatedAt = "t2"
	if Fingerprint(a) == Fingerprint(b) {
		t.Fatalf("fingerprint should change when updatedAt changes")
	}
	if Fingerprint(a) != Fingerprint(a) || len(Fingerprint(a)) != 40 {
		t.Fatalf("fingerprint should be a stable sha1 hex")
	}
	c := a
	c.Kind = KindInspections
	if Fingerprint(a) == Fingerprint(c) {
		t.Fatalf("fingerprint should include kind")
	}
}
