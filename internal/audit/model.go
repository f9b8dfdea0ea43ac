package audit

import "time"

// Action is an enumerated audit action code.
type Action string

const (
	ActionDocumentCreated          Action = "DOCUMENT_CREATED"
	ActionDocumentUploadedExternal Action = "DOCUMENT_UPLOADED_EXTERNAL"
	ActionDocumentDeletedCleanup   Action = "DOCUMENT_DELETED_CLEANUP"
	ActionClientCredentialsUpdated Action = "CLIENT_CREDENTIALS_UPDATED"
)

// ActorSystem identifies entries written by background jobs.
const ActorSystem = "system"

// Origin records where an entry came from.
type Origin struct {
	RequestID string `json:"requestId,omitempty"`
	Source    string `json:"source,omitempty"`
	IP        string `json:"ip,omitempty"`
}

// Entry is one append-only audit record.
type Entry struct {
	ID         string    `json:"id"`
	TenantID   string    `json:"tenantId"`
	ActorID    string    `json:"actorId"`
	ClientID   string    `json:"clientId,omitempty"`
	DocumentID string    `json:"documentId,omitempty"`
	Action     Action    `json:"action"`
	Detail     string    `json:"detail,omitempty"`
	Origin     Origin    `json:"origin"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Filter narrows List queries. Empty fields match everything except TenantID,
// which is required.
type Filter struct {
	TenantID   string
	ClientID   string
	DocumentID string
	Action     Action
	Limit      int
	Offset     int
}

func (a Action) valid() bool {
	switch a {
	case ActionDocumentCreated, ActionDocumentUploadedExternal, ActionDocumentDeletedCleanup, ActionClientCredentialsUpdated:
		return true
	}
	return false
}
