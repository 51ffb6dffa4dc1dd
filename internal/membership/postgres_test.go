package membership

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPostgresActiveForSubject(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "subject_id", "status", "starts_at", "ends_at", "payment_ref", "payment_provider", "amount_cents", "created_at"}).
		AddRow("01ABC", "subj-5", "active", now, now.AddDate(1, 0, 0), "int_1", "airwallex", int64(9900), now)

	mock.ExpectQuery("select (.+) from memberships").
		WithArgs("subj-5", sqlmock.AnyArg()).
		WillReturnRows(rows)

	store := NewPostgresStore(db)
	m, err := store.ActiveForSubject(context.Background(), "subj-5", now)
	if err != nil {
		t.Fatalf("ActiveForSubject: %v", err)
	}
	if m.Status != StatusActive || m.SubjectID != "subj-5" {
		t.Fatalf("unexpected membership: %+v", m)
	}
}

func TestPostgresActiveForSubjectNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("select (.+) from memberships").
		WithArgs("ghost", sqlmock.AnyArg()).
		WillReturnError(sql.ErrNoRows)

	store := NewPostgresStore(db)
	if _, err := store.ActiveForSubject(context.Background(), "ghost", time.Now()); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgresInsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("insert into memberships").
		WithArgs("01ABC", "subj-5", "active", sqlmock.AnyArg(), sqlmock.AnyArg(), "int_1", "airwallex", int64(9900)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))

	store := NewPostgresStore(db)
	m := &Membership{
		ID:              "01ABC",
		SubjectID:       "subj-5",
		Status:          StatusActive,
		StartsAt:        now,
		EndsAt:          now.AddDate(1, 0, 0),
		PaymentRef:      "int_1",
		PaymentProvider: "airwallex",
		AmountCents:     9900,
	}
	if err := store.Insert(context.Background(), m); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if m.CreatedAt.IsZero() {
		t.Fatal("created_at not scanned")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
