package clients

import "time"

// Credentials are the client's stored login for the external platform.
type Credentials struct {
	Username   string
	Password   string
	APIKey     string
	Configured bool
}

// Client is a construction company whose documents are handed off.
type Client struct {
	ID          string
	TenantID    string
	Name        string
	Credentials Credentials
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
