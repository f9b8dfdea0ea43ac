package audit

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Writer validates and appends entries synchronously.
type Writer struct {
	Store Store
	Now   func() time.Time
	NewID func() string
}

// NewWriter constructs a Writer over store.
func NewWriter(store Store) *Writer {
	return &Writer{Store: store}
}

// Record appends entry and returns it with ID and CreatedAt filled in.
// Store failures are returned as *AuditWriteError.
func (w *Writer) Record(ctx context.Context, entry Entry) (Entry, error) {
	if !entry.Action.valid() {
		return Entry{}, ErrInvalidEntry
	}
	entry.ActorID = strings.TrimSpace(entry.ActorID)
	if entry.ActorID == "" {
		entry.ActorID = ActorSystem
	}
	if entry.ID == "" {
		entry.ID = w.newID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = w.now()
	}

	if err := w.Store.Append(ctx, entry); err != nil {
		return Entry{}, &AuditWriteError{Action: entry.Action, Err: err}
	}
	return entry, nil
}

// List proxies to the store.
func (w *Writer) List(ctx context.Context, filter Filter) ([]Entry, error) {
	if strings.TrimSpace(filter.TenantID) == "" {
		return nil, ErrInvalidEntry
	}
	return w.Store.List(ctx, filter)
}

func (w *Writer) now() time.Time {
	if w.Now != nil {
		return w.Now().UTC()
	}
	return time.Now().UTC()
}

func (w *Writer) newID() string {
	if w.NewID != nil {
		return w.NewID()
	}
	return uuid.NewString()
}
