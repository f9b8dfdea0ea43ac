package clients

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"constructia-backend/internal/audit"
	"constructia-backend/internal/shared/telemetry"
)

// Service contains business logic for clients and their platform credentials.
type Service struct {
	Repo  Repo
	Audit audit.Sink
	Now   func() time.Time
}

// CredentialsInput is the caller-supplied credential update.
type CredentialsInput struct {
	Username string
	Password string
	APIKey   string
}

// Create registers a client under the tenant.
func (s *Service) Create(ctx context.Context, tenantID, name string) (Client, error) {
	name = strings.TrimSpace(name)
	if tenantID == "" || name == "" {
		return Client{}, ErrInvalidInput
	}
	now := s.now()
	client := Client{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Repo.Create(ctx, client); err != nil {
		return Client{}, err
	}
	return client, nil
}

// Get returns a client visible to the tenant.
func (s *Service) Get(ctx context.Context, tenantID, clientID string) (Client, error) {
	if tenantID == "" || clientID == "" {
		return Client{}, ErrInvalidInput
	}
	client, err := s.Repo.GetByID(ctx, clientID)
	if err != nil {
		return Client{}, err
	}
	if client.TenantID != tenantID {
		return Client{}, ErrNotFound
	}
	return client, nil
}

// ClientBelongsTo reports whether clientID exists under the tenant.
func (s *Service) ClientBelongsTo(ctx context.Context, tenantID, clientID string) (bool, error) {
	_, err := s.Get(ctx, tenantID, clientID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// List returns the tenant's clients.
func (s *Service) List(ctx context.Context, tenantID string, limit, offset int) ([]Client, error) {
	if tenantID == "" {
		return nil, ErrInvalidInput
	}
	return s.Repo.ListByTenant(ctx, tenantID, limit, offset)
}

// UpdateCredentials stores platform credentials. The client counts as
// configured once both username and password are present.
func (s *Service) UpdateCredentials(ctx context.Context, tenantID, clientID, actorID string, origin audit.Origin, in CredentialsInput) (Client, error) {
	client, err := s.Get(ctx, tenantID, clientID)
	if err != nil {
		return Client{}, err
	}

	creds := Credentials{
		Username: strings.TrimSpace(in.Username),
		Password: in.Password,
		APIKey:   strings.TrimSpace(in.APIKey),
	}
	creds.Configured = creds.Username != "" && creds.Password != ""

	now := s.now()
	if err := s.Repo.UpdateCredentials(ctx, tenantID, clientID, creds, now); err != nil {
		return Client{}, err
	}
	client.Credentials = creds
	client.UpdatedAt = now

	telemetry.Info("clients.credentials_updated", map[string]any{
		"tenant_id":  tenantID,
		"client_id":  clientID,
		"configured": creds.Configured,
	})
	if s.Audit != nil {
		detail := "platform credentials cleared"
		if creds.Configured {
			detail = "platform credentials configured"
		}
		s.Audit.Submit(audit.Entry{
			TenantID: tenantID,
			ActorID:  actorID,
			ClientID: clientID,
			Action:   audit.ActionClientCredentialsUpdated,
			Detail:   detail,
			Origin:   origin,
		})
	}
	return client, nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
