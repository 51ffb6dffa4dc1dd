package membership

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"speakeasy.club/internal/dbstore"
)

var _ Store = (*PostgresStore)(nil)

// PostgresStore implements Store using PostgreSQL.
type PostgresStore struct {
	db dbstore.DBTX
}

func NewPostgresStore(db dbstore.DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

const membershipColumns = `id, subject_id, status, starts_at, ends_at, payment_ref, payment_provider, amount_cents, created_at`

func (s *PostgresStore) Insert(ctx context.Context, m *Membership) error {
	err := s.db.QueryRowContext(ctx, `
		insert into memberships (id, subject_id, status, starts_at, ends_at, payment_ref, payment_provider, amount_cents)
		values ($1, $2, $3, $4, $5, $6, $7, $8)
		returning created_at`,
		m.ID, m.SubjectID, string(m.Status), m.StartsAt, m.EndsAt, m.PaymentRef, m.PaymentProvider, m.AmountCents,
	).Scan(&m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert membership: %w", err)
	}
	return nil
}

func (s *PostgresStore) ActiveForSubject(ctx context.Context, subjectID string, asOf time.Time) (*Membership, error) {
	row := s.db.QueryRowContext(ctx, `
		select `+membershipColumns+`
		from memberships
		where subject_id = $1 and status = 'active' and ends_at > $2
		order by ends_at desc
		limit 1`,
		subjectID, asOf)
	m, err := scanMembership(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("active membership: %w", err)
	}
	return m, nil
}

func (s *PostgresStore) ListForSubject(ctx context.Context, subjectID string) ([]*Membership, error) {
	rows, err := s.db.QueryContext(ctx, `
		select `+membershipColumns+`
		from memberships
		where subject_id = $1
		order by created_at desc`,
		subjectID)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	defer rows.Close()

	var memberships []*Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		memberships = append(memberships, m)
	}
	return memberships, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMembership(row rowScanner) (*Membership, error) {
	var (
		m      Membership
		status string
	)
	if err := row.Scan(&m.ID, &m.SubjectID, &status, &m.StartsAt, &m.EndsAt, &m.PaymentRef, &m.PaymentProvider, &m.AmountCents, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.Status = Status(status)
	return &m, nil
}
