package directory

import (
	"context"
	"strings"
	"time"
)

// Directory applies the account contract on top of a Store: subject ids are
// mandatory, every successful upsert touches last-login, and the configured
// owner subject id is force-promoted to admin regardless of caller input.
type Directory struct {
	store          Store
	ownerSubjectID string
	now            func() time.Time
}

// Option configures a Directory.
type Option func(*Directory)

// WithOwnerSubjectID sets the bootstrap owner identifier.
func WithOwnerSubjectID(id string) Option {
	return func(d *Directory) {
		d.ownerSubjectID = strings.TrimSpace(id)
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(d *Directory) {
		if fn != nil {
			d.now = fn
		}
	}
}

// New constructs a Directory over the given store.
func New(store Store, opts ...Option) *Directory {
	d := &Directory{store: store, now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Upsert inserts or partially updates an account. Omitted fields are left
// untouched on update. LastLoginAt is stamped to now when the caller supplies
// no explicit value, so every successful auth touches the record.
func (d *Directory) Upsert(ctx context.Context, subjectID string, fields Fields) (*Account, error) {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return nil, ErrMissingSubject
	}
	if fields.LastLoginAt == nil {
		now := d.now().UTC()
		fields.LastLoginAt = &now
	}
	if d.ownerSubjectID != "" && subjectID == d.ownerSubjectID {
		admin := RoleAdmin
		fields.Role = &admin
	}
	if fields.Email != nil {
		normalized := strings.TrimSpace(strings.ToLower(*fields.Email))
		fields.Email = &normalized
	}
	return d.store.Upsert(ctx, subjectID, fields)
}

// GetBySubjectID is a point lookup; absence is ErrNotFound, not a failure.
func (d *Directory) GetBySubjectID(ctx context.Context, subjectID string) (*Account, error) {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return nil, ErrNotFound
	}
	return d.store.Get(ctx, subjectID)
}

// GetByEmail is a point lookup by normalized email.
func (d *Directory) GetByEmail(ctx context.Context, email string) (*Account, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil, ErrNotFound
	}
	return d.store.GetByEmail(ctx, email)
}

// SetRole overwrites the stored role. The owner subject id cannot be demoted.
func (d *Directory) SetRole(ctx context.Context, subjectID string, role Role) error {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return ErrMissingSubject
	}
	if !role.Valid() {
		return ErrInvalidRole
	}
	if d.ownerSubjectID != "" && subjectID == d.ownerSubjectID {
		role = RoleAdmin
	}
	return d.store.SetRole(ctx, subjectID, role)
}

// List returns every account, oldest first.
func (d *Directory) List(ctx context.Context) ([]*Account, error) {
	return d.store.List(ctx)
}
