package queue

import (
	"context"
	"encoding/json"
)

// Client sends handoff messages to a queue backend.
type Client interface {
	Send(ctx context.Context, msg Message) error
}

// Message asks a worker to hand one document off to the platform.
type Message struct {
	DocumentID string `json:"documentId"`
	ClientID   string `json:"clientId"`
	TenantID   string `json:"tenantId"`
	ActorID    string `json:"actorId,omitempty"`
	RequestID  string `json:"requestId"`
	EnqueuedAt string `json:"enqueuedAt"`
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}
