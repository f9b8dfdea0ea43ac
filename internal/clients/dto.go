package clients

import "time"

// ClientResponse is the outward-facing representation of a client. The
// platform password is never returned.
type ClientResponse struct {
	ClientID           string    `json:"clientId"`
	Name               string    `json:"name"`
	PlatformUsername   string    `json:"platformUsername,omitempty"`
	PlatformConfigured bool      `json:"platformConfigured"`
	HasAPIKey          bool      `json:"hasApiKey"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

type createClientRequest struct {
	Name string `json:"name"`
}

type updateCredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	APIKey   string `json:"apiKey"`
}

func toResponse(c Client) ClientResponse {
	return ClientResponse{
		ClientID:           c.ID,
		Name:               c.Name,
		PlatformUsername:   c.Credentials.Username,
		PlatformConfigured: c.Credentials.Configured,
		HasAPIKey:          c.Credentials.APIKey != "",
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
}
