package documents

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"constructia-backend/internal/shared/util"
)

// PGRepo implements DocumentsRepo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const documentColumns = `id, tenant_id, client_id, file_path, file_name, mime_type, size_bytes, content_hash, version,
       classification, confidence, upload_status, external_status, external_id, deletion_scheduled_at, created_at, updated_at`

// Create inserts a new document.
func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO documents (
    id,
    tenant_id,
    client_id,
    file_path,
    file_name,
    mime_type,
    size_bytes,
    content_hash,
    version,
    classification,
    confidence,
    upload_status,
    external_status,
    created_at,
    updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	version := doc.Version
	if version == 0 {
		version = 1
	}
	var confidence any
	if doc.Confidence != nil {
		confidence = *doc.Confidence
	}

	_, err := r.DB.ExecContext(
		ctx,
		query,
		doc.ID,
		doc.TenantID,
		doc.ClientID,
		doc.FilePath,
		doc.FileName,
		doc.MimeType,
		doc.SizeBytes,
		doc.ContentHash,
		version,
		util.NullableString(doc.Classification),
		confidence,
		string(doc.UploadStatus),
		string(doc.ExternalStatus),
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	return err
}

// GetByID returns a document by ID.
func (r *PGRepo) GetByID(ctx context.Context, documentID string) (Document, error) {
	const query = `
SELECT ` + documentColumns + `
FROM documents
WHERE id = $1
LIMIT 1`

	doc, err := scanDocument(r.DB.QueryRowContext(ctx, query, documentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

// ListByTenant returns documents for a tenant, newest first.
func (r *PGRepo) ListByTenant(ctx context.Context, tenantID string, filter ListFilter) ([]Document, error) {
	const query = `
SELECT ` + documentColumns + `
FROM documents
WHERE tenant_id = $1 AND ($2 = '' OR client_id = $2)
ORDER BY created_at DESC
LIMIT $3 OFFSET $4`

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := r.DB.QueryContext(ctx, query, tenantID, filter.ClientID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDocuments(rows)
}

// UpdateStatus applies a version-checked status write.
func (r *PGRepo) UpdateStatus(ctx context.Context, upd StatusUpdate) (Document, error) {
	const query = `
UPDATE documents
SET upload_status = $3,
    external_status = $4,
    external_id = COALESCE($5, external_id),
    deletion_scheduled_at = $6,
    updated_at = $7,
    version = version + 1
WHERE id = $1 AND version = $2
RETURNING ` + documentColumns

	var deletion any
	if upd.DeletionScheduledAt != nil {
		deletion = *upd.DeletionScheduledAt
	}

	doc, err := scanDocument(r.DB.QueryRowContext(ctx, query,
		upd.DocumentID,
		upd.ExpectedVersion,
		string(upd.UploadStatus),
		string(upd.ExternalStatus),
		util.NullableString(upd.ExternalID),
		deletion,
		upd.UpdatedAt,
	))
	if err == nil {
		return doc, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Document{}, err
	}

	var current int
	if err := r.DB.QueryRowContext(ctx, `SELECT version FROM documents WHERE id = $1`, upd.DocumentID).Scan(&current); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return Document{}, ErrVersionConflict
}

// ListDueForDeletion returns validated documents scheduled at or before now, oldest first.
func (r *PGRepo) ListDueForDeletion(ctx context.Context, now time.Time, limit int) ([]Document, error) {
	const query = `
SELECT ` + documentColumns + `
FROM documents
WHERE external_status = 'validated'
  AND deletion_scheduled_at IS NOT NULL
  AND deletion_scheduled_at <= $1
ORDER BY deletion_scheduled_at ASC, id ASC
LIMIT $2`

	if limit <= 0 {
		limit = 500
	}
	rows, err := r.DB.QueryContext(ctx, query, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDocuments(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var (
		doc            Document
		classification sql.NullString
		confidence     sql.NullInt64
		uploadStatus   string
		externalStatus string
		externalID     sql.NullString
		deletionAt     sql.NullTime
	)
	if err := row.Scan(
		&doc.ID,
		&doc.TenantID,
		&doc.ClientID,
		&doc.FilePath,
		&doc.FileName,
		&doc.MimeType,
		&doc.SizeBytes,
		&doc.ContentHash,
		&doc.Version,
		&classification,
		&confidence,
		&uploadStatus,
		&externalStatus,
		&externalID,
		&deletionAt,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	); err != nil {
		return Document{}, err
	}
	doc.UploadStatus = UploadStatus(uploadStatus)
	doc.ExternalStatus = ExternalStatus(externalStatus)
	if classification.Valid {
		doc.Classification = classification.String
	}
	if confidence.Valid {
		c := int(confidence.Int64)
		doc.Confidence = &c
	}
	if externalID.Valid {
		doc.ExternalID = externalID.String
	}
	if deletionAt.Valid {
		t := deletionAt.Time
		doc.DeletionScheduledAt = &t
	}
	return doc, nil
}

func scanDocuments(rows *sql.Rows) ([]Document, error) {
	docs := []Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}
