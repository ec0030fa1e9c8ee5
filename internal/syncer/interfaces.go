package syncer

import (
	"context"

	"github.com/samvad-hq/inspectra/pkg/publishers"
)

// EventPublisher delivers an event and reports how many sinks accepted it.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// Deduper remembers record fingerprints that were already delivered.
type Deduper interface {
	SeenRecord(id string) (bool, error)
	MarkRecord(id string) error
}
