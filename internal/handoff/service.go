package handoff

import (
	"context"
	"errors"
	"fmt"
	"time"

	"constructia-backend/internal/audit"
	"constructia-backend/internal/clients"
	"constructia-backend/internal/documents"
	"constructia-backend/internal/lock"
	"constructia-backend/internal/platform"
	"constructia-backend/internal/shared/metrics"
	"constructia-backend/internal/shared/retry"
	"constructia-backend/internal/shared/telemetry"
)

const (
	// DefaultTimeout bounds a single platform call.
	DefaultTimeout = 30 * time.Second
	// DefaultRetentionWindow is how long a validated document is kept before cleanup.
	DefaultRetentionWindow = 7 * 24 * time.Hour

	defaultLockTTL = 2 * time.Minute
)

var errNoReference = errors.New("platform returned no reference")

// ClientLookup loads clients with their credentials.
type ClientLookup interface {
	GetByID(ctx context.Context, clientID string) (clients.Client, error)
}

// Service moves documents from internal storage to the external platform.
type Service struct {
	Clients         ClientLookup
	Documents       documents.DocumentsRepo
	Uploader        platform.Uploader
	Retry           *retry.Policy
	Locker          lock.Locker
	LockTTL         time.Duration
	Audit           audit.Sink
	Timeout         time.Duration
	RetentionWindow time.Duration
	Now             func() time.Time
}

// Request identifies the document to hand off. Empty optional fields fall back
// to what is stored on the document.
type Request struct {
	TenantID       string
	DocumentID     string
	ClientID       string
	FilePath       string
	Classification string
	Confidence     *int
	ActorID        string
	Origin         audit.Origin
}

// Result describes a completed handoff.
type Result struct {
	Document   documents.Document
	ExternalID string
	Attempts   int
}

// Handoff uploads one document to the platform and schedules its deletion.
func (s *Service) Handoff(ctx context.Context, req Request) (Result, error) {
	if req.DocumentID == "" {
		return Result{}, ErrInvalidRequest
	}
	started := time.Now()
	metrics.IncHandoffStarted()

	doc, err := s.Documents.GetByID(ctx, req.DocumentID)
	if err != nil {
		return Result{}, err
	}
	if req.TenantID != "" && doc.TenantID != req.TenantID {
		return Result{}, documents.ErrNotFound
	}
	clientID := req.ClientID
	if clientID == "" {
		clientID = doc.ClientID
	}
	if clientID != doc.ClientID {
		return Result{}, ErrClientMismatch
	}

	client, err := s.Clients.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, clients.ErrNotFound) {
			metrics.IncHandoffRejected()
			return Result{}, &ConfigurationError{ClientID: clientID, Reason: "client not found"}
		}
		return Result{}, err
	}
	if client.TenantID != doc.TenantID {
		metrics.IncHandoffRejected()
		return Result{}, &ConfigurationError{ClientID: clientID, Reason: "client not found"}
	}
	if !client.Credentials.Configured {
		metrics.IncHandoffRejected()
		telemetry.Warn("handoff.not_configured", map[string]any{
			"tenant_id":   doc.TenantID,
			"client_id":   clientID,
			"document_id": doc.ID,
		})
		return Result{}, &ConfigurationError{ClientID: clientID, Reason: "platform credentials not configured"}
	}

	release, err := s.acquire(ctx, doc.ID)
	if err != nil {
		return Result{}, err
	}
	defer release()

	if err := documents.CheckTransition(doc, documents.UploadUploading, documents.ExternalPending, false); err != nil {
		return Result{}, fmt.Errorf("%w: %s/%s", err, doc.UploadStatus, doc.ExternalStatus)
	}
	from := doc.UploadStatus
	doc, err = s.Documents.UpdateStatus(ctx, documents.StatusUpdate{
		DocumentID:      doc.ID,
		ExpectedVersion: doc.Version,
		UploadStatus:    documents.UploadUploading,
		ExternalStatus:  documents.ExternalPending,
		UpdatedAt:       s.now(),
	})
	if err != nil {
		return Result{}, err
	}
	logTransition(doc, from)

	upload := platform.UploadRequest{
		DocumentID:     doc.ID,
		FilePath:       firstNonEmpty(req.FilePath, doc.FilePath),
		FileName:       doc.FileName,
		MimeType:       doc.MimeType,
		Classification: firstNonEmpty(req.Classification, doc.Classification),
		Confidence:     req.Confidence,
	}
	if upload.Confidence == nil {
		upload.Confidence = doc.Confidence
	}
	creds := platform.Credentials{
		Username: client.Credentials.Username,
		Password: client.Credentials.Password,
		APIKey:   client.Credentials.APIKey,
	}

	var accepted platform.UploadResult
	attempts, err := s.Retry.Do(ctx, func(ctx context.Context, attempt int) (bool, error) {
		res, err := s.call(ctx, creds, upload)
		if err != nil {
			telemetry.Warn("handoff.attempt_failed", map[string]any{
				"tenant_id":   doc.TenantID,
				"document_id": doc.ID,
				"attempt":     attempt,
				"error":       err.Error(),
			})
			return platform.IsRetryable(err), err
		}
		accepted = res
		return false, nil
	})
	metrics.IncHandoffRetries(attempts - 1)

	if err != nil {
		metrics.IncHandoffFailed()
		metrics.ObserveHandoffDurationMs(float64(time.Since(started).Milliseconds()))
		telemetry.Warn("handoff.failed", map[string]any{
			"tenant_id":   doc.TenantID,
			"client_id":   doc.ClientID,
			"document_id": doc.ID,
			"attempts":    attempts,
			"error":       err.Error(),
		})
		return Result{Document: doc, Attempts: attempts}, &ExternalUploadError{Message: err.Error(), Attempts: attempts, Err: err}
	}

	now := s.now()
	due := now.Add(s.retention())
	updated, err := s.Documents.UpdateStatus(ctx, documents.StatusUpdate{
		DocumentID:          doc.ID,
		ExpectedVersion:     doc.Version,
		UploadStatus:        documents.UploadUploaded,
		ExternalStatus:      documents.ExternalValidated,
		ExternalID:          accepted.ExternalID,
		DeletionScheduledAt: &due,
		UpdatedAt:           now,
	})
	if err != nil {
		metrics.IncHandoffFailed()
		telemetry.Error("handoff.persist_failed", map[string]any{
			"tenant_id":   doc.TenantID,
			"document_id": doc.ID,
			"external_id": accepted.ExternalID,
			"error":       err.Error(),
		})
		return Result{Document: doc, ExternalID: accepted.ExternalID, Attempts: attempts}, fmt.Errorf("record accepted upload: %w", err)
	}
	logTransition(updated, documents.UploadUploading)

	if s.Audit != nil {
		s.Audit.Submit(audit.Entry{
			TenantID:   updated.TenantID,
			ActorID:    req.ActorID,
			ClientID:   updated.ClientID,
			DocumentID: updated.ID,
			Action:     audit.ActionDocumentUploadedExternal,
			Detail:     fmt.Sprintf("external_id=%s attempts=%d deletion_scheduled_at=%s", accepted.ExternalID, attempts, due.Format(time.RFC3339)),
			Origin:     req.Origin,
		})
	}

	metrics.IncHandoffSucceeded()
	metrics.ObserveHandoffDurationMs(float64(time.Since(started).Milliseconds()))
	return Result{Document: updated, ExternalID: accepted.ExternalID, Attempts: attempts}, nil
}

// call runs one bounded platform call and folds unsuccessful answers into errors.
func (s *Service) call(ctx context.Context, creds platform.Credentials, req platform.UploadRequest) (platform.UploadResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()

	res, err := s.Uploader.Upload(callCtx, creds, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return platform.UploadResult{}, timeoutError{err: err}
		}
		return platform.UploadResult{}, err
	}
	if !res.Success {
		if res.Error == "" {
			return platform.UploadResult{}, errors.New("platform rejected upload")
		}
		return platform.UploadResult{}, errors.New(res.Error)
	}
	if res.ExternalID == "" {
		return platform.UploadResult{}, errNoReference
	}
	return res, nil
}

func (s *Service) acquire(ctx context.Context, documentID string) (func(), error) {
	if s.Locker == nil {
		return func() {}, nil
	}
	ttl := s.LockTTL
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	release, err := s.Locker.Acquire(ctx, lock.HandoffKey(documentID), ttl)
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			return nil, ErrInProgress
		}
		return nil, fmt.Errorf("acquire handoff lock: %w", err)
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := release(ctx); err != nil {
			telemetry.Warn("handoff.lock_release_failed", map[string]any{"document_id": documentID, "error": err.Error()})
		}
	}, nil
}

func (s *Service) timeout() time.Duration {
	if s.Timeout > 0 {
		return s.Timeout
	}
	return DefaultTimeout
}

func (s *Service) retention() time.Duration {
	if s.RetentionWindow > 0 {
		return s.RetentionWindow
	}
	return DefaultRetentionWindow
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

type timeoutError struct {
	err error
}

func (e timeoutError) Error() string { return "timeout" }

func (e timeoutError) Unwrap() error { return e.err }

func logTransition(doc documents.Document, from documents.UploadStatus) {
	telemetry.Info("handoff.status", map[string]any{
		"tenant_id":         doc.TenantID,
		"client_id":         doc.ClientID,
		"document_id":       doc.ID,
		"status_transition": fmt.Sprintf("%s->%s", from, doc.UploadStatus),
		"external_status":   string(doc.ExternalStatus),
		"version":           doc.Version,
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
