package documents

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"constructia-backend/internal/audit"
	"constructia-backend/internal/classify"
	"constructia-backend/internal/shared/storage/object"
	"constructia-backend/internal/shared/telemetry"
	"constructia-backend/internal/shared/util"
)

// MaxUploadSize bounds a single document body.
const MaxUploadSize = 20 << 20

// Classifier labels document bodies.
type Classifier interface {
	Classify(ctx context.Context, data []byte, mimeType, fileName string) (classify.Result, error)
}

// ClientChecker confirms a client belongs to a tenant.
type ClientChecker interface {
	ClientBelongsTo(ctx context.Context, tenantID, clientID string) (bool, error)
}

// Service contains business logic for documents.
type Service struct {
	Store      object.ObjectStore
	Repo       DocumentsRepo
	Classifier Classifier
	Clients    ClientChecker
	Audit      audit.Sink
	Now        func() time.Time
}

// UploadInput describes one uploaded file.
type UploadInput struct {
	TenantID string
	ClientID string
	ActorID  string
	FileName string
	Body     io.Reader
	Origin   audit.Origin
}

// Upload hashes, classifies and stores the file, then records a pending document.
func (s *Service) Upload(ctx context.Context, in UploadInput) (Document, error) {
	in.FileName = strings.TrimSpace(in.FileName)
	if in.TenantID == "" || in.ClientID == "" || in.FileName == "" || in.Body == nil {
		return Document{}, ErrInvalidInput
	}

	if s.Clients != nil {
		ok, err := s.Clients.ClientBelongsTo(ctx, in.TenantID, in.ClientID)
		if err != nil {
			return Document{}, err
		}
		if !ok {
			return Document{}, fmt.Errorf("%w: unknown client", ErrInvalidInput)
		}
	}

	data, err := io.ReadAll(io.LimitReader(in.Body, MaxUploadSize+1))
	if err != nil {
		return Document{}, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return Document{}, fmt.Errorf("%w: empty file", ErrInvalidInput)
	}
	if len(data) > MaxUploadSize {
		return Document{}, ErrTooLarge
	}

	var (
		label      string
		confidence *int
	)
	if s.Classifier != nil {
		res, err := s.Classifier.Classify(ctx, data, http.DetectContentType(data), in.FileName)
		if err != nil {
			telemetry.Warn("documents.classify_failed", map[string]any{
				"tenant_id": in.TenantID,
				"file_name": in.FileName,
				"error":     err.Error(),
			})
		} else {
			label = string(res.Label)
			c := res.Confidence
			confidence = &c
		}
	}

	storageKey, size, mimeType, err := s.Store.Save(ctx, in.TenantID, in.FileName, bytes.NewReader(data))
	if err != nil {
		return Document{}, err
	}

	now := s.now()
	doc := Document{
		ID:             uuid.NewString(),
		TenantID:       in.TenantID,
		ClientID:       in.ClientID,
		FilePath:       storageKey,
		FileName:       in.FileName,
		MimeType:       mimeType,
		SizeBytes:      size,
		ContentHash:    util.ContentHash(data),
		Version:        1,
		Classification: label,
		Confidence:     confidence,
		UploadStatus:   UploadPending,
		ExternalStatus: ExternalPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.Repo.Create(ctx, doc); err != nil {
		if rmErr := s.Store.Remove(ctx, storageKey); rmErr != nil {
			telemetry.Warn("documents.orphan_object", map[string]any{"file_path": storageKey, "error": rmErr.Error()})
		}
		return Document{}, err
	}

	if s.Audit != nil {
		s.Audit.Submit(audit.Entry{
			TenantID:   doc.TenantID,
			ActorID:    in.ActorID,
			ClientID:   doc.ClientID,
			DocumentID: doc.ID,
			Action:     audit.ActionDocumentCreated,
			Detail:     fmt.Sprintf("%s (%s)", doc.FileName, doc.ContentHash[:12]),
			Origin:     in.Origin,
		})
	}
	return doc, nil
}

// Get returns a document visible to the tenant.
func (s *Service) Get(ctx context.Context, tenantID, documentID string) (Document, error) {
	if tenantID == "" || documentID == "" {
		return Document{}, ErrInvalidInput
	}
	doc, err := s.Repo.GetByID(ctx, documentID)
	if err != nil {
		return Document{}, err
	}
	if doc.TenantID != tenantID {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

// List returns the tenant's documents, newest first.
func (s *Service) List(ctx context.Context, tenantID string, filter ListFilter) ([]Document, error) {
	if tenantID == "" {
		return nil, ErrInvalidInput
	}
	return s.Repo.ListByTenant(ctx, tenantID, filter)
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
