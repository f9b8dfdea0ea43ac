package documents

import (
	"context"
	"time"
)

// DocumentsRepo defines persistence operations for documents.
type DocumentsRepo interface {
	Create(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, documentID string) (Document, error)
	ListByTenant(ctx context.Context, tenantID string, filter ListFilter) ([]Document, error)
	// UpdateStatus applies upd only if the stored version still equals
	// upd.ExpectedVersion, returning ErrVersionConflict otherwise.
	UpdateStatus(ctx context.Context, upd StatusUpdate) (Document, error)
	// ListDueForDeletion returns validated documents whose deletion time is at or before now.
	ListDueForDeletion(ctx context.Context, now time.Time, limit int) ([]Document, error)
}
