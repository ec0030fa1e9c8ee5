package publishers

import "context"

// Publisher sends events to a downstream sink (SQS, SNS, Pub/Sub, HTTP).
type Publisher interface {
	ID() string
	Type() string
	Publish(ctx context.Context, evt Event) error
}

// Sender is the transport behind a queue publisher.
type Sender interface {
	Send(ctx context.Context, evt Event) error
}

// kindFilter is implemented by publishers restricted to some record kinds.
type kindFilter interface {
	Accepts(kind string) bool
}
