package queue

import (
	"context"
	"sync"
)

// Memory keeps sent messages in process. Used when no queue URL is configured.
type Memory struct {
	mu   sync.Mutex
	msgs []Message
}

// Send records the message.
func (m *Memory) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	m.msgs = append(m.msgs, msg)
	m.mu.Unlock()
	return nil
}

// Drain returns and forgets all recorded messages.
func (m *Memory) Drain() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.msgs
	m.msgs = nil
	return out
}

var _ Client = (*Memory)(nil)
