package clients

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Client
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Client)}
}

// Create stores a new client.
func (r *MemoryRepo) Create(ctx context.Context, client Client) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.data[client.ID]; exists {
		return ErrInvalidInput
	}
	r.data[client.ID] = client
	return nil
}

// GetByID returns a client by ID.
func (r *MemoryRepo) GetByID(ctx context.Context, clientID string) (Client, error) {
	if err := ctx.Err(); err != nil {
		return Client{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.data[clientID]
	if !ok {
		return Client{}, ErrNotFound
	}
	return client, nil
}

// ListByTenant returns a tenant's clients ordered by name.
func (r *MemoryRepo) ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]Client, 0)
	for _, c := range r.data {
		if c.TenantID == tenantID {
			out = append(out, c)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})

	if offset < 0 {
		offset = 0
	}
	if offset >= len(out) {
		return []Client{}, nil
	}
	end := len(out)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return out[offset:end], nil
}

// UpdateCredentials replaces the stored platform credentials.
func (r *MemoryRepo) UpdateCredentials(ctx context.Context, tenantID, clientID string, creds Credentials, updatedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	client, ok := r.data[clientID]
	if !ok || client.TenantID != tenantID {
		return ErrNotFound
	}
	client.Credentials = creds
	client.UpdatedAt = updatedAt
	r.data[clientID] = client
	return nil
}
