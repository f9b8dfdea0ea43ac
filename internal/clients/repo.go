package clients

import (
	"context"
	"time"
)

// Repo defines persistence operations for clients.
type Repo interface {
	Create(ctx context.Context, client Client) error
	GetByID(ctx context.Context, clientID string) (Client, error)
	ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]Client, error)
	UpdateCredentials(ctx context.Context, tenantID, clientID string, creds Credentials, updatedAt time.Time) error
}
