package events

import (
	"context"
	"time"
)

// Event is the payload mirrored to subscribers for each lifecycle transition.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	TenantID   string    `json:"tenantId,omitempty"`
	ClientID   string    `json:"clientId,omitempty"`
	DocumentID string    `json:"documentId,omitempty"`
	ActorID    string    `json:"actorId"`
	Detail     string    `json:"detail,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Publisher delivers events to a subject.
type Publisher interface {
	Publish(ctx context.Context, subject string, evt Event) error
}

// Nop discards events.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(ctx context.Context, subject string, evt Event) error { return nil }
