package documents

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of DocumentsRepo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Document
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Document)}
}

// Create stores a new document.
func (r *MemoryRepo) Create(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.data[doc.ID]; exists {
		return ErrInvalidInput
	}
	if doc.Version == 0 {
		doc.Version = 1
	}
	r.data[doc.ID] = doc
	return nil
}

// GetByID returns a document by ID.
func (r *MemoryRepo) GetByID(ctx context.Context, documentID string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.data[documentID]
	if !ok {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

// ListByTenant returns documents for a tenant, newest first, honoring limit/offset.
func (r *MemoryRepo) ListByTenant(ctx context.Context, tenantID string, filter ListFilter) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	docs := make([]Document, 0)
	for _, d := range r.data {
		if d.TenantID != tenantID {
			continue
		}
		if filter.ClientID != "" && d.ClientID != filter.ClientID {
			continue
		}
		docs = append(docs, d)
	}
	r.mu.RUnlock()

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})

	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(docs) {
		return []Document{}, nil
	}
	end := len(docs)
	if filter.Limit > 0 && offset+filter.Limit < end {
		end = offset + filter.Limit
	}
	return docs[offset:end], nil
}

// UpdateStatus applies a version-checked status write.
func (r *MemoryRepo) UpdateStatus(ctx context.Context, upd StatusUpdate) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.data[upd.DocumentID]
	if !ok {
		return Document{}, ErrNotFound
	}
	if doc.Version != upd.ExpectedVersion {
		return Document{}, ErrVersionConflict
	}
	doc = doc.Apply(upd)
	r.data[doc.ID] = doc
	return doc, nil
}

// ListDueForDeletion returns validated documents scheduled at or before now, oldest first.
func (r *MemoryRepo) ListDueForDeletion(ctx context.Context, now time.Time, limit int) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	due := make([]Document, 0)
	for _, d := range r.data {
		if d.ExternalStatus != ExternalValidated || d.DeletionScheduledAt == nil {
			continue
		}
		if d.DeletionScheduledAt.After(now) {
			continue
		}
		due = append(due, d)
	}
	r.mu.RUnlock()

	sort.Slice(due, func(i, j int) bool {
		if due[i].DeletionScheduledAt.Equal(*due[j].DeletionScheduledAt) {
			return due[i].ID < due[j].ID
		}
		return due[i].DeletionScheduledAt.Before(*due[j].DeletionScheduledAt)
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}
