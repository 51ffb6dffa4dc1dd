// Package httpapi is the HTTP layer: one RPC endpoint carrying the typed
// procedure namespaces, a handful of plain REST endpoints for auth and
// payments, and the usual health/metrics surface.
package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"speakeasy.club/internal/catalog"
	"speakeasy.club/internal/community"
	"speakeasy.club/internal/config"
	"speakeasy.club/internal/directory"
	"speakeasy.club/internal/membership"
	"speakeasy.club/internal/obs"
	"speakeasy.club/internal/payments"
	"speakeasy.club/internal/revoke"
	"speakeasy.club/internal/session"
)

// ReadyProbe checks readiness (datastore ping when one is configured).
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Deps carries everything the HTTP layer needs. All services are required;
// Payments and Revoker may be unconfigured/no-op.
type Deps struct {
	Codec       *session.Codec
	Cookies     session.CookiePolicy
	Accounts    *directory.Directory
	Memberships *membership.Service
	Forum       *community.Service
	Catalog     *catalog.Service
	Payments    *payments.Client
	Revoker     revoke.Checker
	Probe       ReadyProbe
	Config      *config.Config
	Version     string
}

// API is the HTTP layer.
type API struct {
	router      *mux.Router
	codec       *session.Codec
	cookies     session.CookiePolicy
	accounts    *directory.Directory
	memberships *membership.Service
	forum       *community.Service
	catalog     *catalog.Service
	payments    *payments.Client
	revoker     revoke.Checker
	probe       ReadyProbe
	cfg         *config.Config
	version     string

	procedures map[string]procedure
}

func New(d Deps) *API {
	a := &API{
		router:      mux.NewRouter(),
		codec:       d.Codec,
		cookies:     d.Cookies,
		accounts:    d.Accounts,
		memberships: d.Memberships,
		forum:       d.Forum,
		catalog:     d.Catalog,
		payments:    d.Payments,
		revoker:     d.Revoker,
		probe:       d.Probe,
		cfg:         d.Config,
		version:     d.Version,
	}
	if a.revoker == nil {
		a.revoker = revoke.Noop{}
	}
	a.registerProcedures()

	r := a.router
	r.HandleFunc("/rpc/{procedure}", a.RPC).Methods(http.MethodPost, http.MethodOptions)

	r.HandleFunc("/auth/register", a.Register).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/auth/login", a.Login).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/auth/logout", a.Logout).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/auth/me", a.Me).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/admin/bootstrap", a.AdminBootstrap).Methods(http.MethodPost)

	r.HandleFunc("/payments/intent", a.PaymentIntent).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/payments/confirm", a.PaymentConfirm).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/subscribe", a.SubscribeHandler).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/setup/seed", a.Seed).Methods(http.MethodPost)

	r.HandleFunc("/healthz", a.Healthz).Methods(http.MethodGet)
	r.HandleFunc("/readyz", a.Ready).Methods(http.MethodGet)
	r.HandleFunc("/v1/info", a.Info).Methods(http.MethodGet)
	r.Handle("/metrics", obs.Handler()).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	return a
}

// Handler returns the full middleware-wrapped handler for the server.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.router
	h = a.withSession(h)
	h = MaxBodyBytes(h, 1<<20)
	h = RateLimit(h, 60, 20)
	h = a.CORS(h)
	h = SecurityHeaders(h)
	h = Logging(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

// --- service handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "speakeasy-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.probe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

// Info reports service identity plus the public client configuration the
// frontend needs (OAuth portal location, membership price).
func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"name":    "speakeasy-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	}
	if a.cfg != nil {
		body["membershipPriceCents"] = a.cfg.MembershipPriceCents
		if a.cfg.PortalURL != "" {
			body["portal"] = map[string]string{
				"url":   a.cfg.PortalURL,
				"appId": a.cfg.PortalAppID,
			}
		}
	}
	writeJSON(w, http.StatusOK, body)
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
