package handoff

import "time"

type handoffRequest struct {
	ClientID       string `json:"clientId"`
	Classification string `json:"classification"`
	Confidence     *int   `json:"confidence"`
}

// HandoffResponse reports the document state after a synchronous handoff.
type HandoffResponse struct {
	DocumentID          string     `json:"documentId"`
	UploadStatus        string     `json:"uploadStatus"`
	ExternalStatus      string     `json:"externalStatus"`
	ExternalID          string     `json:"externalId,omitempty"`
	DeletionScheduledAt *time.Time `json:"deletionScheduledAt,omitempty"`
	Attempts            int        `json:"attempts"`
}

// QueuedResponse acknowledges an asynchronous handoff.
type QueuedResponse struct {
	DocumentID string `json:"documentId"`
	Status     string `json:"status"`
}

func toResponse(res Result) HandoffResponse {
	return HandoffResponse{
		DocumentID:          res.Document.ID,
		UploadStatus:        string(res.Document.UploadStatus),
		ExternalStatus:      string(res.Document.ExternalStatus),
		ExternalID:          res.ExternalID,
		DeletionScheduledAt: res.Document.DeletionScheduledAt,
		Attempts:            res.Attempts,
	}
}
