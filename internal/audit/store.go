package audit

import "context"

// Store persists audit entries. Implementations never update or delete rows.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	List(ctx context.Context, filter Filter) ([]Entry, error)
}
