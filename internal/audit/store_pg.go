package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
)

// PGStore implements Store using Postgres.
type PGStore struct {
	DB *sql.DB
}

// Append inserts the entry.
func (s *PGStore) Append(ctx context.Context, entry Entry) error {
	const query = `
INSERT INTO audit_logs (id, tenant_id, actor_id, client_id, document_id, action, detail, origin, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	origin, err := json.Marshal(entry.Origin)
	if err != nil {
		return fmt.Errorf("marshal origin: %w", err)
	}
	_, err = s.DB.ExecContext(ctx, query,
		entry.ID,
		entry.TenantID,
		entry.ActorID,
		entry.ClientID,
		entry.DocumentID,
		string(entry.Action),
		entry.Detail,
		origin,
		entry.CreatedAt,
	)
	return err
}

// List returns matching entries newest first.
func (s *PGStore) List(ctx context.Context, filter Filter) ([]Entry, error) {
	var (
		where []string
		args  []any
	)
	add := func(clause string, value any) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	add("tenant_id = $%d", filter.TenantID)
	if filter.ClientID != "" {
		add("client_id = $%d", filter.ClientID)
	}
	if filter.DocumentID != "" {
		add("document_id = $%d", filter.DocumentID)
	}
	if filter.Action != "" {
		add("action = $%d", string(filter.Action))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)

	query := fmt.Sprintf(`
SELECT id, tenant_id, actor_id, client_id, document_id, action, detail, origin, created_at
FROM audit_logs
WHERE %s
ORDER BY created_at DESC
LIMIT $%d OFFSET $%d`, strings.Join(where, " AND "), len(args)-1, len(args))

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e      Entry
			action string
			origin []byte
		)
		if err := rows.Scan(&e.ID, &e.TenantID, &e.ActorID, &e.ClientID, &e.DocumentID, &action, &e.Detail, &origin, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Action = Action(action)
		if len(origin) > 0 {
			if err := json.Unmarshal(origin, &e.Origin); err != nil {
				return nil, fmt.Errorf("decode origin: %w", err)
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
