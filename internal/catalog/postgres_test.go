package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPostgresAddSubscriberNewRow(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(`insert into subscribers`).
		WithArgs("a@b.co", "footer").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "source", "created_at"}).
			AddRow(int64(1), "a@b.co", "footer", now))

	store := NewPostgresStore(db)
	sub, created, err := store.AddSubscriber(context.Background(), "a@b.co", "footer")
	if err != nil {
		t.Fatalf("AddSubscriber: %v", err)
	}
	if !created {
		t.Fatal("expected created=true for a new address")
	}
	if sub.Email != "a@b.co" {
		t.Fatalf("email = %q", sub.Email)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestPostgresAddSubscriberExisting(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	// on conflict do nothing returns no rows, then the existing row is read.
	mock.ExpectQuery(`insert into subscribers`).
		WithArgs("a@b.co", "popup").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "source", "created_at"}))
	mock.ExpectQuery(`select id, email, source, created_at from subscribers`).
		WithArgs("a@b.co").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "source", "created_at"}).
			AddRow(int64(1), "a@b.co", "footer", now))

	store := NewPostgresStore(db)
	sub, created, err := store.AddSubscriber(context.Background(), "a@b.co", "popup")
	if err != nil {
		t.Fatalf("AddSubscriber: %v", err)
	}
	if created {
		t.Fatal("expected created=false for an existing address")
	}
	if sub.Source != "footer" {
		t.Fatalf("source = %q, want the original signup source", sub.Source)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestPostgresBlogPostBySlugNotFound(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`select .+ from blog_posts where slug`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	store := NewPostgresStore(db)
	_, err = store.BlogPostBySlug(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestPostgresDeleteVendorMissing(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`delete from vendors`).
		WithArgs(int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	store := NewPostgresStore(db)
	if err := store.DeleteVendor(context.Background(), 9); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
