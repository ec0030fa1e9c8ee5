package publishers

import (
	"context"
	"io"
)

// queuePublisher adapts a Sender to the Publisher interface.
type queuePublisher struct {
	id     string
	typ    string
	sender Sender
}

func (q *queuePublisher) ID() string   { return q.id }
func (q *queuePublisher) Type() string { return q.typ }

func (q *queuePublisher) Publish(ctx context.Context, evt Event) error {
	return q.sender.Send(ctx, evt)
}

// Close releases the sender when it holds a client connection.
func (q *queuePublisher) Close() error {
	if c, ok := q.sender.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// filtered restricts a publisher to the record kinds listed in its config.
type filtered struct {
	Publisher
	cfg PublisherConfig
}

func (f *filtered) Accepts(kind string) bool { return f.cfg.Accepts(kind) }

func (f *filtered) Close() error {
	if c, ok := f.Publisher.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
