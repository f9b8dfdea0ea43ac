package audit

import "time"

// EntryResponse is the outward-facing representation of an audit entry.
type EntryResponse struct {
	ID         string    `json:"id"`
	ActorID    string    `json:"actorId"`
	ClientID   string    `json:"clientId,omitempty"`
	DocumentID string    `json:"documentId,omitempty"`
	Action     string    `json:"action"`
	Detail     string    `json:"detail,omitempty"`
	Origin     Origin    `json:"origin"`
	CreatedAt  time.Time `json:"createdAt"`
}

func toResponse(e Entry) EntryResponse {
	return EntryResponse{
		ID:         e.ID,
		ActorID:    e.ActorID,
		ClientID:   e.ClientID,
		DocumentID: e.DocumentID,
		Action:     string(e.Action),
		Detail:     e.Detail,
		Origin:     e.Origin,
		CreatedAt:  e.CreatedAt,
	}
}
