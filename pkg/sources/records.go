package sources

import (
	"context"
	"crypto/sha1" //nolint:gosec // non-cryptographic fingerprint
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/samvad-hq/inspectra/internal/domain"
	"github.com/samvad-hq/inspectra/pkg/api"
	"github.com/samvad-hq/inspectra/pkg/httpclient"
)

// recordFetcher lists one backend collection and tags each item with its kind.
type recordFetcher struct {
	kind   string
	client HTTPClient
}

func NewRecordFetcher(kind string, client HTTPClient) Fetcher {
	return &recordFetcher{kind: strings.ToLower(strings.TrimSpace(kind)), client: client}
}

func (f *recordFetcher) ID() string { return f.kind }

func (f *recordFetcher) Fetch(ctx context.Context, src Source) ([]domain.Record, error) {
	if f.client == nil {
		return nil, fmt.Errorf("%s fetcher has no client", f.kind)
	}
	if !strings.EqualFold(src.Kind, f.kind) {
		return nil, fmt.Errorf("%s fetcher received incompatible source kind %q", f.kind, src.Kind)
	}
	if strings.TrimSpace(src.Path) == "" {
		return nil, fmt.Errorf("source %q path is empty", src.ID)
	}

	q := url.Values{}
	for k, v := range src.Query {
		q.Set(k, v)
	}
	resp, err := f.client.Do(ctx, &httpclient.Request{Path: src.Path, Query: q, Headers: src.Headers})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", src.ID, err)
	}

	var items []json.RawMessage
	if err := api.DecodeEnvelope(resp.Body(), &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", src.ID, err)
	}
	return buildRecords(f.kind, items), nil
}

// recordKeys are the only fields read from each item; the rest passes through untouched.
type recordKeys struct {
	ID         string `json:"id"`
	MongoID    string `json:"_id"`
	UpdatedAt  string `json:"updatedAt"`
	UpdatedAt2 string `json:"updated_at"`
}

func buildRecords(kind string, items []json.RawMessage) []domain.Record {
	out := make([]domain.Record, 0, len(items))
	for _, raw := range items {
		var keys recordKeys
		if err := json.Unmarshal(raw, &keys); err != nil {
			continue
		}
		id := firstNonEmpty(keys.ID, keys.MongoID)
		if id == "" {
			continue
		}
		out = append(out, domain.Record{
			Kind:      kind,
			ID:        id,
			UpdatedAt: firstNonEmpty(keys.UpdatedAt, keys.UpdatedAt2),
			Data:      raw,
		})
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// Fingerprint identifies one revision of a record: a change to updatedAt
// yields a new fingerprint.
func Fingerprint(r domain.Record) string {
	sum := sha1.Sum([]byte(r.Kind + "/" + r.ID + "/" + r.UpdatedAt))
	return hex.EncodeToString(sum[:])
}
