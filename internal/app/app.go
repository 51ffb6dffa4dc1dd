// Package app wires configuration, stores and services into the HTTP API.
// Both binaries (the long-lived server and the serverless adapter) build the
// same application through it.
package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"

	"speakeasy.club/internal/catalog"
	"speakeasy.club/internal/community"
	"speakeasy.club/internal/config"
	"speakeasy.club/internal/dbstore"
	"speakeasy.club/internal/directory"
	"speakeasy.club/internal/httpapi"
	"speakeasy.club/internal/mailer"
	"speakeasy.club/internal/membership"
	"speakeasy.club/internal/migrations"
	"speakeasy.club/internal/obs"
	"speakeasy.club/internal/payments"
	"speakeasy.club/internal/revoke"
	"speakeasy.club/internal/session"
)

// App is the assembled application.
type App struct {
	API *httpapi.API
	DB  *sql.DB // nil in degraded (in-memory) mode
}

// Build assembles the full service from configuration. With no database DSN
// the app runs on in-memory stores: useful for local hacking and a deliberate
// degraded mode in production (stay up, log the condition).
func Build(ctx context.Context, cfg *config.Config, version string) (*App, error) {
	codec, err := session.NewCodec(cfg.SessionSecret)
	if err != nil {
		return nil, fmt.Errorf("session codec: %w", err)
	}

	var (
		db             *sql.DB
		directoryStore directory.Store
		memberStore    membership.Store
		forumStore     community.Store
		catalogStore   catalog.Store
	)
	if cfg.DatabaseDSN != "" {
		db, err = dbstore.Open(cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		if err := runMigrations(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		directoryStore = directory.NewPostgresStore(db)
		memberStore = membership.NewPostgresStore(db)
		forumStore = community.NewPostgresStore(db)
		catalogStore = catalog.NewPostgresStore(db)
	} else {
		obs.Warn("no database DSN configured, running on in-memory stores", nil)
		directoryStore = directory.NewMemoryStore()
		memberStore = membership.NewMemoryStore()
		forumStore = community.NewMemoryStore()
		catalogStore = catalog.NewMemoryStore()
	}

	accounts := directory.New(directoryStore,
		directory.WithOwnerSubjectID(cfg.OwnerSubjectID))
	memberships := membership.NewService(memberStore,
		membership.WithPriceCents(cfg.MembershipPriceCents))
	forum := community.NewService(forumStore)

	listSync := mailer.NewClient(cfg.MailerAPIKey, cfg.MailerListID)
	var catalogOpts []catalog.ServiceOption
	if listSync.Configured() {
		catalogOpts = append(catalogOpts, catalog.WithListSyncer(listSync))
	}
	cat := catalog.NewService(catalogStore, catalogOpts...)

	var revoker revoke.Checker = revoke.Noop{}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			obs.Warn("redis unreachable, session revocation disabled", map[string]any{
				"addr": cfg.RedisAddr, "error": err.Error(),
			})
		} else {
			revoker = revoke.NewRedisChecker(rdb)
		}
	}

	pay := payments.NewClient(cfg.PaymentsClientID, cfg.PaymentsAPIKey, cfg.PaymentsSandbox)

	api := httpapi.New(httpapi.Deps{
		Codec:       codec,
		Cookies:     session.CookiePolicy{CrossSiteOrigins: cfg.FrontendOrigins},
		Accounts:    accounts,
		Memberships: memberships,
		Forum:       forum,
		Catalog:     cat,
		Payments:    pay,
		Revoker:     revoker,
		Probe:       httpapi.ReadyProbe{DB: db},
		Config:      cfg,
		Version:     version,
	})
	return &App{API: api, DB: db}, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}
