package membership

import (
	"context"
	"time"
)

// Store describes persistence operations for membership records.
type Store interface {
	Insert(ctx context.Context, m *Membership) error
	// ActiveForSubject returns the active, unexpired record with the
	// latest end date, or ErrNotFound.
	ActiveForSubject(ctx context.Context, subjectID string, asOf time.Time) (*Membership, error)
	// ListForSubject returns every record for the subject, newest first.
	ListForSubject(ctx context.Context, subjectID string) ([]*Membership, error)
}
