package documents

import "time"

// DocumentResponse is the outward-facing representation of a document.
type DocumentResponse struct {
	DocumentID          string     `json:"documentId"`
	ClientID            string     `json:"clientId"`
	FileName            string     `json:"fileName"`
	MimeType            string     `json:"mimeType"`
	SizeBytes           int64      `json:"sizeBytes"`
	ContentHash         string     `json:"contentHash"`
	Version             int        `json:"version"`
	Classification      string     `json:"classification,omitempty"`
	Confidence          *int       `json:"confidence,omitempty"`
	UploadStatus        string     `json:"uploadStatus"`
	ExternalStatus      string     `json:"externalStatus"`
	ExternalID          string     `json:"externalId,omitempty"`
	DeletionScheduledAt *time.Time `json:"deletionScheduledAt,omitempty"`
	UploadedAt          time.Time  `json:"uploadedAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

// ToResponse maps a document to its API shape.
func ToResponse(doc Document) DocumentResponse {
	return DocumentResponse{
		DocumentID:          doc.ID,
		ClientID:            doc.ClientID,
		FileName:            doc.FileName,
		MimeType:            doc.MimeType,
		SizeBytes:           doc.SizeBytes,
		ContentHash:         doc.ContentHash,
		Version:             doc.Version,
		Classification:      doc.Classification,
		Confidence:          doc.Confidence,
		UploadStatus:        string(doc.UploadStatus),
		ExternalStatus:      string(doc.ExternalStatus),
		ExternalID:          doc.ExternalID,
		DeletionScheduledAt: doc.DeletionScheduledAt,
		UploadedAt:          doc.CreatedAt,
		UpdatedAt:           doc.UpdatedAt,
	}
}
