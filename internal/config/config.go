// Package config loads runtime settings from the environment, with an
// optional .env overlay for local development.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultPort              = "8080"
	defaultSessionTTL        = 365 * 24 * time.Hour
	defaultMembershipPrice   = 9900
	defaultPaymentsSandboxed = true
)

// Config holds every recognized option.
//
// Fields:
//   - DatabaseDSN: PostgreSQL DSN (pgx). Empty DSN degrades to in-memory stores.
//   - SessionSecret: HMAC secret for signing session tokens (HS256).
//   - OwnerSubjectID: subject id unconditionally promoted to admin on upsert.
//   - FrontendOrigins: allowed cross-origin frontend URLs (split hosting).
//   - MembershipPriceCents: yearly membership price in minor currency units.
//   - Payments / Mailer / Portal: third-party integration credentials.
//   - RedisAddr: optional; enables the session revocation set when non-empty.
type Config struct {
	Port                 string
	DatabaseDSN          string
	SessionSecret        string
	OwnerSubjectID       string
	FrontendOrigins      []string
	SessionTTL           time.Duration
	MembershipPriceCents int64

	PaymentsClientID string
	PaymentsAPIKey   string
	PaymentsSandbox  bool

	MailerAPIKey string
	MailerListID string

	PortalURL   string
	PortalAppID string

	RedisAddr string
}

var errMissingSecret = errors.New("config: SPEAKEASY_SESSION_SECRET is required")

// Load reads configuration from the process environment. A .env file in the
// working directory is applied first when present; real environment variables
// win over the overlay.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:                 getEnv("PORT", defaultPort),
		DatabaseDSN:          strings.TrimSpace(os.Getenv("SPEAKEASY_PG_DSN")),
		SessionSecret:        strings.TrimSpace(os.Getenv("SPEAKEASY_SESSION_SECRET")),
		OwnerSubjectID:       strings.TrimSpace(os.Getenv("SPEAKEASY_OWNER_SUBJECT")),
		SessionTTL:           defaultSessionTTL,
		MembershipPriceCents: defaultMembershipPrice,
		PaymentsClientID:     strings.TrimSpace(os.Getenv("AIRWALLEX_CLIENT_ID")),
		PaymentsAPIKey:       strings.TrimSpace(os.Getenv("AIRWALLEX_API_KEY")),
		PaymentsSandbox:      !strings.EqualFold(os.Getenv("AIRWALLEX_ENV"), "production"),
		MailerAPIKey:         strings.TrimSpace(os.Getenv("KLAVIYO_API_KEY")),
		MailerListID:         strings.TrimSpace(os.Getenv("KLAVIYO_LIST_ID")),
		PortalURL:            strings.TrimSpace(os.Getenv("PORTAL_URL")),
		PortalAppID:          strings.TrimSpace(os.Getenv("PORTAL_APP_ID")),
		RedisAddr:            strings.TrimSpace(os.Getenv("SPEAKEASY_REDIS_ADDR")),
	}

	if cfg.SessionSecret == "" {
		return nil, errMissingSecret
	}

	if raw := strings.TrimSpace(os.Getenv("SPEAKEASY_FRONTEND_ORIGINS")); raw != "" {
		for _, origin := range strings.Split(raw, ",") {
			origin = strings.TrimRight(strings.TrimSpace(origin), "/")
			if origin != "" {
				cfg.FrontendOrigins = append(cfg.FrontendOrigins, origin)
			}
		}
	}

	if raw := strings.TrimSpace(os.Getenv("SPEAKEASY_SESSION_TTL")); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil || ttl <= 0 {
			return nil, errors.New("config: SPEAKEASY_SESSION_TTL must be a positive duration")
		}
		cfg.SessionTTL = ttl
	}

	if raw := strings.TrimSpace(os.Getenv("SPEAKEASY_MEMBERSHIP_PRICE_CENTS")); raw != "" {
		price, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || price < 0 {
			return nil, errors.New("config: SPEAKEASY_MEMBERSHIP_PRICE_CENTS must be a non-negative integer")
		}
		cfg.MembershipPriceCents = price
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && strings.TrimSpace(value) != "" {
		return value
	}
	return defaultValue
}
