package httpapi

import (
	"errors"
	"net/http"

	"speakeasy.club/internal/audit"
	"speakeasy.club/internal/catalog"
	"speakeasy.club/internal/payments"
)

const membershipCurrency = "USD"

// PaymentIntent creates a provider payment intent for one membership year
// and hands the client secret to the browser for hosted-fields checkout.
func (a *API) PaymentIntent(w http.ResponseWriter, r *http.Request) {
	account := AccountFromContext(r.Context())
	if account == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if !a.payments.Configured() {
		writeError(w, http.StatusServiceUnavailable, "payments not configured")
		return
	}
	price := a.cfg.MembershipPriceCents
	intent, err := a.payments.CreateIntent(r.Context(), price, membershipCurrency)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "payment provider error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"intentId":     intent.ID,
		"clientSecret": intent.ClientSecret,
		"amountCents":  price,
		"currency":     membershipCurrency,
	})
}

// PaymentConfirm checks the intent settled with the provider, then records
// the membership year. The provider is the source of truth: the client only
// supplies the intent id.
func (a *API) PaymentConfirm(w http.ResponseWriter, r *http.Request) {
	account := AccountFromContext(r.Context())
	if account == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	var req struct {
		IntentID string `json:"intentId"`
	}
	if err := decodeJSON(r, &req); err != nil || req.IntentID == "" {
		writeError(w, http.StatusBadRequest, "intentId is required")
		return
	}
	intent, err := a.payments.GetIntent(r.Context(), req.IntentID)
	if err != nil {
		if errors.Is(err, payments.ErrDeclined) {
			writeError(w, http.StatusBadRequest, "unknown payment intent")
			return
		}
		writeError(w, http.StatusInternalServerError, "payment provider error")
		return
	}
	if !intent.Succeeded() {
		writeError(w, http.StatusBadRequest, "payment not settled")
		return
	}

	m, err := a.memberships.Create(r.Context(), account.SubjectID, intent.ID, "airwallex")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "membership creation failed")
		return
	}
	_ = audit.LogEvent(r.Context(), "payments.confirm", map[string]any{
		"intent_id": intent.ID, "membership_id": m.ID,
	})
	writeJSON(w, http.StatusOK, map[string]any{"membership": m})
}

// SubscribeHandler is the public mailing-list signup.
func (a *API) SubscribeHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email  string `json:"email"`
		Source string `json:"source"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	sub, err := a.catalog.Subscribe(r.Context(), req.Email, req.Source)
	if err != nil {
		if errors.Is(err, catalog.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, "a valid email is required")
			return
		}
		writeError(w, http.StatusInternalServerError, "subscription failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"subscribed": true, "email": sub.Email})
}

// Seed populates reference data: forum spaces and the vendor/resource
// categories. Idempotent; callable by an admin or with the signing secret
// during first boot.
func (a *API) Seed(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Secret string `json:"secret"`
	}
	_ = decodeJSON(r, &req)
	account := AccountFromContext(r.Context())
	secretOK := a.cfg != nil && req.Secret != "" && req.Secret == a.cfg.SessionSecret
	if !secretOK && (account == nil || !account.IsAdmin()) {
		writeError(w, http.StatusForbidden, "admin required")
		return
	}

	ctx := r.Context()
	spaces := []struct{ slug, name, desc string }{
		{"introductions", "Introductions", "Say hello and tell us what brought you here."},
		{"integration", "Integration", "Making sense of the experience afterwards."},
		{"trip-reports", "Trip Reports", "First-hand accounts, long form welcome."},
		{"harm-reduction", "Harm Reduction", "Testing, dosing, set and setting."},
	}
	for _, s := range spaces {
		if _, err := a.forum.EnsureSpace(ctx, s.slug, s.name, s.desc); err != nil {
			writeError(w, http.StatusInternalServerError, "seed failed")
			return
		}
	}
	vendorCats := []struct{ slug, name string }{
		{"retreats", "Retreats"},
		{"guides", "Guides & Sitters"},
		{"supplies", "Supplies"},
	}
	for _, c := range vendorCats {
		if _, err := a.catalog.EnsureVendorCategory(ctx, c.slug, c.name); err != nil {
			writeError(w, http.StatusInternalServerError, "seed failed")
			return
		}
	}
	resourceCats := []struct{ slug, name string }{
		{"harm-reduction", "Harm Reduction"},
		{"books", "Books"},
		{"research", "Research"},
		{"support", "Support Lines"},
	}
	for _, c := range resourceCats {
		if _, err := a.catalog.EnsureResourceCategory(ctx, c.slug, c.name); err != nil {
			writeError(w, http.StatusInternalServerError, "seed failed")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"seeded": true})
}
