package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

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

const accountColumns = `subject_id, email, password_hash, display_name, role, created_at, updated_at, last_login_at`

func (s *PostgresStore) Upsert(ctx context.Context, subjectID string, fields Fields) (*Account, error) {
	query := `
		insert into accounts (subject_id, email, password_hash, display_name, role, last_login_at)
		values ($1, $2, $3, coalesce($4, ''), coalesce($5, 'user'), $6)
		on conflict (subject_id) do update set
			email         = coalesce($2, accounts.email),
			password_hash = coalesce($3, accounts.password_hash),
			display_name  = coalesce($4, accounts.display_name),
			role          = coalesce($5, accounts.role),
			last_login_at = coalesce($6, accounts.last_login_at),
			updated_at    = now()
		returning ` + accountColumns

	var roleArg *string
	if fields.Role != nil {
		v := string(*fields.Role)
		roleArg = &v
	}
	row := s.db.QueryRowContext(ctx, query,
		subjectID, fields.Email, fields.PasswordHash, fields.DisplayName, roleArg, fields.LastLoginAt)
	account, err := scanAccount(row)
	if err != nil {
		return nil, fmt.Errorf("upsert account: %w", err)
	}
	return account, nil
}

func (s *PostgresStore) Get(ctx context.Context, subjectID string) (*Account, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+accountColumns+` from accounts where subject_id = $1`, subjectID)
	account, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return account, nil
}

func (s *PostgresStore) GetByEmail(ctx context.Context, email string) (*Account, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+accountColumns+` from accounts where email = $1`, email)
	account, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get account by email: %w", err)
	}
	return account, nil
}

func (s *PostgresStore) SetRole(ctx context.Context, subjectID string, role Role) error {
	res, err := s.db.ExecContext(ctx,
		`update accounts set role = $2, updated_at = now() where subject_id = $1`,
		subjectID, string(role))
	if err != nil {
		return fmt.Errorf("set role: %w", err)
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

func (s *PostgresStore) List(ctx context.Context) ([]*Account, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+accountColumns+` from accounts order by created_at asc`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*Account, error) {
	var (
		a     Account
		email sql.NullString
		hash  sql.NullString
		role  string
		login sql.NullTime
	)
	if err := row.Scan(&a.SubjectID, &email, &hash, &a.DisplayName, &role, &a.CreatedAt, &a.UpdatedAt, &login); err != nil {
		return nil, err
	}
	if email.Valid {
		a.Email = &email.String
	}
	if hash.Valid {
		a.PasswordHash = &hash.String
	}
	if login.Valid {
		t := login.Time
		a.LastLoginAt = &t
	}
	a.Role = Role(role)
	return &a, nil
}
