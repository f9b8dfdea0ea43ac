package cleanup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"constructia-backend/internal/audit"
	"constructia-backend/internal/documents"
	"constructia-backend/internal/lock"
	"constructia-backend/internal/shared/metrics"
	"constructia-backend/internal/shared/storage/object"
	"constructia-backend/internal/shared/telemetry"
)

const (
	// DefaultBatchLimit caps documents processed per sweep.
	DefaultBatchLimit = 500

	defaultLockTTL = 2 * time.Minute
)

// Sweeper removes stored files for documents whose retention has elapsed.
type Sweeper struct {
	Repo       documents.DocumentsRepo
	Store      object.ObjectStore
	Audit      audit.Sink
	Locker     lock.Locker
	BatchLimit int
	LockTTL    time.Duration
	// Clock stamps updated_at. Selection always uses the now passed to Sweep.
	Clock func() time.Time
}

// Result counts the outcome of one sweep.
type Result struct {
	Deleted int  `json:"deleted"`
	Errors  int  `json:"errors"`
	Skipped bool `json:"skipped,omitempty"`
}

// Sweep deletes every validated document scheduled for deletion at or before now.
// Per-document failures are counted and skipped. Only a failed query is returned as an error.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) (Result, error) {
	now = now.UTC()

	if s.Locker != nil {
		release, err := s.Locker.Acquire(ctx, lock.SweepKey, s.lockTTL())
		if err != nil {
			if errors.Is(err, lock.ErrNotAcquired) {
				metrics.IncSweepSkipped()
				telemetry.Info("sweep.skipped", map[string]any{"reason": "lock_held", "now": now.Format(time.RFC3339)})
				return Result{Skipped: true}, nil
			}
			return Result{}, fmt.Errorf("acquire sweep lock: %w", err)
		}
		defer func() {
			relCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := release(relCtx); err != nil {
				telemetry.Warn("sweep.lock_release_failed", map[string]any{"error": err.Error()})
			}
		}()
	}

	due, err := s.Repo.ListDueForDeletion(ctx, now, s.batchLimit())
	if err != nil {
		telemetry.Error("sweep.query_failed", map[string]any{"now": now.Format(time.RFC3339), "error": err.Error()})
		return Result{}, &SweepQueryError{Err: err}
	}

	var res Result
	for _, doc := range due {
		if err := ctx.Err(); err != nil {
			telemetry.Warn("sweep.interrupted", map[string]any{"remaining": len(due) - res.Deleted - res.Errors, "error": err.Error()})
			break
		}
		if s.sweepOne(ctx, doc) {
			res.Deleted++
		} else {
			res.Errors++
		}
	}

	metrics.ObserveSweep(res.Deleted, res.Errors)
	telemetry.Info("sweep.completed", map[string]any{
		"now":     now.Format(time.RFC3339),
		"due":     len(due),
		"deleted": res.Deleted,
		"errors":  res.Errors,
	})
	return res, nil
}

func (s *Sweeper) sweepOne(ctx context.Context, doc documents.Document) bool {
	fields := map[string]any{
		"tenant_id":   doc.TenantID,
		"client_id":   doc.ClientID,
		"document_id": doc.ID,
		"file_path":   doc.FilePath,
	}

	if err := documents.CheckTransition(doc, documents.UploadCompleted, doc.ExternalStatus, false); err != nil {
		fields["error"] = err.Error()
		telemetry.Warn("sweep.invalid_state", fields)
		return false
	}

	if err := s.Store.Remove(ctx, doc.FilePath); err != nil {
		fields["error"] = err.Error()
		telemetry.Warn("sweep.remove_failed", fields)
		return false
	}

	updated, err := s.Repo.UpdateStatus(ctx, documents.StatusUpdate{
		DocumentID:      doc.ID,
		ExpectedVersion: doc.Version,
		UploadStatus:    documents.UploadCompleted,
		ExternalStatus:  doc.ExternalStatus,
		UpdatedAt:       s.clock(),
	})
	if err != nil {
		fields["error"] = err.Error()
		telemetry.Warn("sweep.update_failed", fields)
		return false
	}

	fields["status_transition"] = fmt.Sprintf("%s->%s", doc.UploadStatus, updated.UploadStatus)
	telemetry.Info("sweep.document_deleted", fields)

	if s.Audit != nil {
		scheduled := ""
		if doc.DeletionScheduledAt != nil {
			scheduled = doc.DeletionScheduledAt.Format(time.RFC3339)
		}
		s.Audit.Submit(audit.Entry{
			TenantID:   doc.TenantID,
			ActorID:    audit.ActorSystem,
			ClientID:   doc.ClientID,
			DocumentID: doc.ID,
			Action:     audit.ActionDocumentDeletedCleanup,
			Detail:     fmt.Sprintf("file %s removed, scheduled %s", doc.FilePath, scheduled),
			Origin:     audit.Origin{Source: "cleanup"},
		})
	}
	return true
}

func (s *Sweeper) batchLimit() int {
	if s.BatchLimit > 0 {
		return s.BatchLimit
	}
	return DefaultBatchLimit
}

func (s *Sweeper) lockTTL() time.Duration {
	if s.LockTTL > 0 {
		return s.LockTTL
	}
	return defaultLockTTL
}

func (s *Sweeper) clock() time.Time {
	if s.Clock != nil {
		return s.Clock().UTC()
	}
	return time.Now().UTC()
}
