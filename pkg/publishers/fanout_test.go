package publishers

import (
	"context"
	"errors"
	"testing"
)

type stubPublisher struct {
	id     string
	typ    string
	err    error
	calls  int
	closed bool
}

func (s *stubPublisher) ID() string   { return s.id }
func (s *stubPublisher) Type() string { return s.typ }
func (s *stubPublisher) Publish(context.Context, Event) error {
	s.calls++
	return s.err
}
func (s *stubPublisher) Close() error {
	s.closed = true
	return nil
}

func TestFanoutPublishAggregatesErrors(t *testing.T) {
	fanout := NewFanout([]Publisher{
		&stubPublisher{id: "ok", typ: "http"},
		&stubPublisher{id: "bad", typ: "http", err: errors.New("failed")},
	})

	count, err := fanout.Publish(context.Background(), Event{})
	if count != 1 {
		t.Fatalf("expected 1 success, got %d", count)
	}
	if err == nil {
		t.Fatalf("expected aggregated error")
	}
}

func TestFanoutSkipsPublishersFilteredByKind(t *testing.T) {
	defectsOnly := &stubPublisher{id: "defects", typ: "http"}
	all := &stubPublisher{id: "all", typ: "http"}
	fanout := NewFanout([]Publisher{
		&filtered{Publisher: defectsOnly, cfg: PublisherConfig{Kinds: []string{"defects"}}},
		all,
	})

	count, err := fanout.Publish(context.Background(), Event{Kind: "inspections"})
	if err != nil || count != 1 {
		t.Fatalf("Publish = %d, %v", count, err)
	}
	if defectsOnly.calls != 0 || all.calls != 1 {
		t.Fatalf("calls = %d/%d", defectsOnly.calls, all.calls)
	}

	if err := fanout.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !defectsOnly.closed || !all.closed {
		t.Fatalf("Close should reach wrapped publishers")
	}
}

func TestBuildAllWithDefaultRegistry(t *testing.T) {
	reg := DefaultRegistry()
	pubs, err := BuildAll(context.Background(), reg, []PublisherConfig{
		{ID: "http", Type: TypeHTTP, HTTP: &HTTPPublisherConfig{URL: "https://example.com"}},
		{ID: "hook", Type: TypeHTTP, Kinds: []string{"defects"}, HTTP: &HTTPPublisherConfig{URL: "https://example.com/2"}},
	}, nil)
	if err != nil {
		t.Fatalf("BuildAll: %v", err)
	}
	if len(pubs) != 2 {
		t.Fatalf("expected 2 publishers, got %d", len(pubs))
	}
	if _, ok := pubs[1].(kindFilter); !ok {
		t.Fatalf("publisher with kinds should be filtered")
	}
}

func TestBuildAllRejectsUnknownType(t *testing.T) {
	_, err := BuildAll(context.Background(), DefaultRegistry(), []PublisherConfig{{ID: "x", Type: "carrier-pigeon"}}, nil)
	if err == nil {
		t.Fatalf("expected error for unknown type")
	}
}
