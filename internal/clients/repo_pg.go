package clients

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"constructia-backend/internal/shared/util"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const clientColumns = `id, tenant_id, name, platform_username, platform_password, platform_api_key, platform_configured, created_at, updated_at`

// Create inserts a new client.
func (r *PGRepo) Create(ctx context.Context, client Client) error {
	const query = `
INSERT INTO clients (` + clientColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.DB.ExecContext(ctx, query,
		client.ID,
		client.TenantID,
		client.Name,
		client.Credentials.Username,
		client.Credentials.Password,
		util.NullableString(client.Credentials.APIKey),
		client.Credentials.Configured,
		client.CreatedAt,
		client.UpdatedAt,
	)
	return err
}

// GetByID returns a client by ID.
func (r *PGRepo) GetByID(ctx context.Context, clientID string) (Client, error) {
	const query = `
SELECT ` + clientColumns + `
FROM clients
WHERE id = $1
LIMIT 1`

	client, err := scanClient(r.DB.QueryRowContext(ctx, query, clientID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Client{}, ErrNotFound
		}
		return Client{}, err
	}
	return client, nil
}

// ListByTenant returns a tenant's clients ordered by name.
func (r *PGRepo) ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]Client, error) {
	const query = `
SELECT ` + clientColumns + `
FROM clients
WHERE tenant_id = $1
ORDER BY name ASC, id ASC
LIMIT $2 OFFSET $3`

	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.DB.QueryContext(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Client{}
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, client)
	}
	return out, rows.Err()
}

// UpdateCredentials replaces the stored platform credentials.
func (r *PGRepo) UpdateCredentials(ctx context.Context, tenantID, clientID string, creds Credentials, updatedAt time.Time) error {
	const query = `
UPDATE clients
SET platform_username = $3,
    platform_password = $4,
    platform_api_key = $5,
    platform_configured = $6,
    updated_at = $7
WHERE id = $1 AND tenant_id = $2`

	res, err := r.DB.ExecContext(ctx, query,
		clientID,
		tenantID,
		creds.Username,
		creds.Password,
		util.NullableString(creds.APIKey),
		creds.Configured,
		updatedAt,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClient(row rowScanner) (Client, error) {
	var (
		c      Client
		apiKey sql.NullString
	)
	if err := row.Scan(
		&c.ID,
		&c.TenantID,
		&c.Name,
		&c.Credentials.Username,
		&c.Credentials.Password,
		&apiKey,
		&c.Credentials.Configured,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return Client{}, err
	}
	if apiKey.Valid {
		c.Credentials.APIKey = apiKey.String
	}
	return c, nil
}
