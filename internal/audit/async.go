package audit

import (
	"context"
	"sync"
	"time"

	"constructia-backend/internal/events"
	"constructia-backend/internal/shared/metrics"
	"constructia-backend/internal/shared/telemetry"
)

const writeTimeout = 5 * time.Second

// Sink accepts entries without blocking the caller on persistence.
type Sink interface {
	Submit(entry Entry)
}

type queued struct {
	entry   Entry
	flushed chan struct{}
}

// AsyncWriter persists entries on a background goroutine and mirrors each
// persisted entry to the event publisher. Failures are logged, never returned.
type AsyncWriter struct {
	writer    *Writer
	publisher events.Publisher

	mu     sync.RWMutex
	closed bool
	queue  chan queued
	done   chan struct{}
}

// NewAsyncWriter starts the background worker. A nil publisher disables mirroring.
func NewAsyncWriter(writer *Writer, publisher events.Publisher, buffer int) *AsyncWriter {
	if buffer <= 0 {
		buffer = 1
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	a := &AsyncWriter{
		writer:    writer,
		publisher: publisher,
		queue:     make(chan queued, buffer),
		done:      make(chan struct{}),
	}
	go a.run()
	return a
}

// Submit enqueues entry. When the buffer is full or the writer is closed the
// entry is persisted on the caller's goroutine instead of being dropped.
func (a *AsyncWriter) Submit(entry Entry) {
	a.mu.RLock()
	if !a.closed {
		select {
		case a.queue <- queued{entry: entry}:
			a.mu.RUnlock()
			return
		default:
		}
	}
	a.mu.RUnlock()
	a.persist(entry)
}

// Flush blocks until every entry submitted before the call has been handled.
func (a *AsyncWriter) Flush(ctx context.Context) error {
	marker := make(chan struct{})
	a.mu.RLock()
	if a.closed {
		a.mu.RUnlock()
		return nil
	}
	select {
	case a.queue <- queued{flushed: marker}:
	case <-ctx.Done():
		a.mu.RUnlock()
		return ctx.Err()
	}
	a.mu.RUnlock()

	select {
	case <-marker:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting queued entries and drains the buffer.
func (a *AsyncWriter) Close(ctx context.Context) error {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()

	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *AsyncWriter) run() {
	defer close(a.done)
	for item := range a.queue {
		if item.flushed != nil {
			close(item.flushed)
			continue
		}
		a.persist(item.entry)
	}
}

func (a *AsyncWriter) persist(entry Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	saved, err := a.writer.Record(ctx, entry)
	if err != nil {
		metrics.IncAuditWriteFailed()
		telemetry.Error("audit.write_failed", map[string]any{
			"action":      string(entry.Action),
			"tenant_id":   entry.TenantID,
			"client_id":   entry.ClientID,
			"document_id": entry.DocumentID,
			"actor_id":    entry.ActorID,
			"error":       err.Error(),
		})
		return
	}

	evt := events.Event{
		ID:         saved.ID,
		Type:       string(saved.Action),
		TenantID:   saved.TenantID,
		ClientID:   saved.ClientID,
		DocumentID: saved.DocumentID,
		ActorID:    saved.ActorID,
		Detail:     saved.Detail,
		OccurredAt: saved.CreatedAt,
	}
	if err := a.publisher.Publish(ctx, events.Subject(string(saved.Action)), evt); err != nil {
		telemetry.Warn("audit.publish_failed", map[string]any{
			"action":   string(saved.Action),
			"entry_id": saved.ID,
			"error":    err.Error(),
		})
	}
}
