package publishers

import (
	"time"

	"github.com/samvad-hq/inspectra/internal/domain"
)

// Event is the payload published downstream for one new or changed record.
type Event struct {
	SourceID    string        `json:"source_id"`
	Kind        string        `json:"kind"`
	Fingerprint string        `json:"fingerprint"`
	Record      domain.Record `json:"record"`
	CollectedAt time.Time     `json:"collected_at"`
}

// NewEvent constructs an Event for the given source + record.
func NewEvent(sourceID, fingerprint string, rec domain.Record) Event {
	return Event{
		SourceID:    sourceID,
		Kind:        rec.Kind,
		Fingerprint: fingerprint,
		Record:      rec,
		CollectedAt: time.Now().UTC(),
	}
}

// attributes are attached as message attributes by queue senders.
func (e Event) attributes() map[string]string {
	attrs := map[string]string{}
	if e.SourceID != "" {
		attrs["source_id"] = e.SourceID
	}
	if e.Kind != "" {
		attrs["kind"] = e.Kind
	}
	if e.Record.ID != "" {
		attrs["record_id"] = e.Record.ID
	}
	return attrs
}
