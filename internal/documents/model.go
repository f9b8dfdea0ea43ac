package documents

import "time"

// UploadStatus tracks the internal side of a document's lifecycle.
type UploadStatus string

const (
	UploadPending   UploadStatus = "pending"
	UploadUploading UploadStatus = "uploading"
	UploadUploaded  UploadStatus = "uploaded"
	UploadCompleted UploadStatus = "completed"
)

// ExternalStatus tracks validation on the external platform.
type ExternalStatus string

const (
	ExternalPending   ExternalStatus = "pending"
	ExternalValidated ExternalStatus = "validated"
)

// Document represents one uploaded file and its processing state.
type Document struct {
	ID                  string
	TenantID            string
	ClientID            string
	FilePath            string
	FileName            string
	MimeType            string
	SizeBytes           int64
	ContentHash         string
	Version             int
	Classification      string
	Confidence          *int
	UploadStatus        UploadStatus
	ExternalStatus      ExternalStatus
	ExternalID          string
	DeletionScheduledAt *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// StatusUpdate is a version-checked status write. DeletionScheduledAt is
// written as given, so nil clears it. An empty ExternalID keeps the stored one.
type StatusUpdate struct {
	DocumentID          string
	ExpectedVersion     int
	UploadStatus        UploadStatus
	ExternalStatus      ExternalStatus
	ExternalID          string
	DeletionScheduledAt *time.Time
	UpdatedAt           time.Time
}

// ListFilter narrows tenant listings.
type ListFilter struct {
	ClientID string
	Limit    int
	Offset   int
}

var uploadRank = map[UploadStatus]int{
	UploadPending:   0,
	UploadUploading: 1,
	UploadUploaded:  2,
	UploadCompleted: 3,
}

var externalRank = map[ExternalStatus]int{
	ExternalPending:   0,
	ExternalValidated: 1,
}

// CheckTransition reports whether moving doc to the given statuses only goes
// forward. Re-entering uploading is allowed so a failed handoff can be retried,
// and a deletion timestamp may only accompany validated.
func CheckTransition(doc Document, upload UploadStatus, external ExternalStatus, deletionScheduled bool) error {
	from, ok := uploadRank[doc.UploadStatus]
	if !ok {
		return ErrInvalidTransition
	}
	to, ok := uploadRank[upload]
	if !ok {
		return ErrInvalidTransition
	}
	if to < from || (to == from && upload != UploadUploading) {
		return ErrInvalidTransition
	}

	extFrom, ok := externalRank[doc.ExternalStatus]
	if !ok {
		return ErrInvalidTransition
	}
	extTo, ok := externalRank[external]
	if !ok || extTo < extFrom {
		return ErrInvalidTransition
	}

	if deletionScheduled && external != ExternalValidated {
		return ErrInvalidTransition
	}
	return nil
}

// Apply returns doc with the update applied and its version advanced.
func (d Document) Apply(upd StatusUpdate) Document {
	d.UploadStatus = upd.UploadStatus
	d.ExternalStatus = upd.ExternalStatus
	if upd.ExternalID != "" {
		d.ExternalID = upd.ExternalID
	}
	if upd.DeletionScheduledAt != nil {
		t := *upd.DeletionScheduledAt
		d.DeletionScheduledAt = &t
	} else {
		d.DeletionScheduledAt = nil
	}
	d.UpdatedAt = upd.UpdatedAt
	d.Version++
	return d
}
