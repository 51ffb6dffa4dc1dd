package directory

import "context"

// Store describes persistence operations required by the directory.
type Store interface {
	// Upsert inserts or partially updates the account identified by
	// subjectID and returns the resulting record.
	Upsert(ctx context.Context, subjectID string, fields Fields) (*Account, error)
	// Get returns ErrNotFound when the subject id is unknown.
	Get(ctx context.Context, subjectID string) (*Account, error)
	// GetByEmail returns ErrNotFound when no account carries the email.
	GetByEmail(ctx context.Context, email string) (*Account, error)
	// SetRole overwrites the stored role.
	SetRole(ctx context.Context, subjectID string, role Role) error
	// List returns all accounts ordered by creation time.
	List(ctx context.Context) ([]*Account, error)
}
