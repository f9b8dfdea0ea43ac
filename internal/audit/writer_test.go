package audit

import (
	"context"
	"errors"
	"testing"
	"time"
)

type failingStore struct {
	err error
}

func (f failingStore) Append(ctx context.Context, entry Entry) error { return f.err }
func (f failingStore) List(ctx context.Context, filter Filter) ([]Entry, error) {
	return nil, f.err
}

func TestRecordFillsDefaults(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	w := &Writer{Store: store, Now: func() time.Time { return now }, NewID: func() string { return "entry-1" }}

	saved, err := w.Record(context.Background(), Entry{
		TenantID:   "tenant-1",
		DocumentID: "doc-1",
		Action:     ActionDocumentDeletedCleanup,
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if saved.ID != "entry-1" || !saved.CreatedAt.Equal(now) || saved.ActorID != ActorSystem {
		t.Fatalf("unexpected defaults: %+v", saved)
	}

	entries, err := store.List(context.Background(), Filter{TenantID: "tenant-1"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
}

func TestRecordRejectsUnknownAction(t *testing.T) {
	w := NewWriter(NewMemoryStore())
	if _, err := w.Record(context.Background(), Entry{Action: "SOMETHING_ELSE"}); !errors.Is(err, ErrInvalidEntry) {
		t.Fatalf("expected ErrInvalidEntry, got %v", err)
	}
}

func TestRecordWrapsStoreFailure(t *testing.T) {
	boom := errors.New("connection reset")
	w := NewWriter(failingStore{err: boom})

	_, err := w.Record(context.Background(), Entry{Action: ActionDocumentUploadedExternal})
	var writeErr *AuditWriteError
	if !errors.As(err, &writeErr) {
		t.Fatalf("expected AuditWriteError, got %T", err)
	}
	if writeErr.Action != ActionDocumentUploadedExternal {
		t.Fatalf("unexpected action %q", writeErr.Action)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped cause")
	}
}

func TestListRequiresTenant(t *testing.T) {
	w := NewWriter(NewMemoryStore())
	if _, err := w.List(context.Background(), Filter{}); !errors.Is(err, ErrInvalidEntry) {
		t.Fatalf("expected ErrInvalidEntry, got %v", err)
	}
}

func TestMemoryStoreFiltersAndPages(t *testing.T) {
	store := NewMemoryStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()
	for i, e := range []Entry{
		{ID: "a", TenantID: "t1", ClientID: "c1", Action: ActionDocumentUploadedExternal},
		{ID: "b", TenantID: "t1", ClientID: "c2", Action: ActionDocumentDeletedCleanup},
		{ID: "c", TenantID: "t1", ClientID: "c1", Action: ActionDocumentDeletedCleanup},
		{ID: "d", TenantID: "t2", ClientID: "c1", Action: ActionDocumentDeletedCleanup},
	} {
		e.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if err := store.Append(ctx, e); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	got, err := store.List(ctx, Filter{TenantID: "t1", ClientID: "c1"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 || got[0].ID != "c" || got[1].ID != "a" {
		t.Fatalf("unexpected entries %+v", got)
	}

	got, _ = store.List(ctx, Filter{TenantID: "t1", Action: ActionDocumentDeletedCleanup, Limit: 1, Offset: 1})
	if len(got) != 1 || got[0].ID != "b" {
		t.Fatalf("unexpected page %+v", got)
	}

	got, _ = store.List(ctx, Filter{TenantID: "t1", Offset: 10})
	if len(got) != 0 {
		t.Fatalf("expected empty page, got %d", len(got))
	}
}
