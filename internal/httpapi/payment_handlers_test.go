package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"speakeasy.club/internal/directory"
	"speakeasy.club/internal/payments"
)

func fakeProvider(t *testing.T, status string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/authentication/login", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"token": "tok"})
	})
	mux.HandleFunc("/api/v1/pa/payment_intents/create", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"id": "int_1", "client_secret": "cs_1", "status": "REQUIRES_PAYMENT_METHOD", "currency": "USD",
		})
	})
	mux.HandleFunc("/api/v1/pa/payment_intents/int_1", func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"id": "int_1", "status": status, "currency": "USD"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestPaymentFlowGrantsMembership(t *testing.T) {
	f := newFixture(t)
	srv := fakeProvider(t, "SUCCEEDED")
	f.api.payments = payments.NewClient("cid", "key", true, payments.WithBaseURL(srv.URL))

	account, cookie := f.addAccount(t, directory.RoleUser)

	rec := postJSON(t, f.handler, "/payments/intent", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("intent status = %d: %s", rec.Code, rec.Body.String())
	}
	var intentResp map[string]any
	json.Unmarshal(rec.Body.Bytes(), &intentResp)
	if intentResp["clientSecret"] != "cs_1" {
		t.Fatalf("clientSecret = %v", intentResp["clientSecret"])
	}
	if intentResp["amountCents"].(float64) != 9900 {
		t.Fatalf("amountCents = %v", intentResp["amountCents"])
	}

	rec = postJSON(t, f.handler, "/payments/confirm", map[string]string{"intentId": "int_1"}, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("confirm status = %d: %s", rec.Code, rec.Body.String())
	}

	status, err := f.members.Status(context.Background(), account)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.HasMembership {
		t.Fatal("confirm did not create a membership")
	}
	if status.Membership.PaymentRef != "int_1" {
		t.Fatalf("paymentRef = %q", status.Membership.PaymentRef)
	}
}

func TestPaymentConfirmRejectsUnsettledIntent(t *testing.T) {
	f := newFixture(t)
	srv := fakeProvider(t, "REQUIRES_PAYMENT_METHOD")
	f.api.payments = payments.NewClient("cid", "key", true, payments.WithBaseURL(srv.URL))

	account, cookie := f.addAccount(t, directory.RoleUser)

	rec := postJSON(t, f.handler, "/payments/confirm", map[string]string{"intentId": "int_1"}, cookie)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("confirm status = %d, want 400", rec.Code)
	}
	status, err := f.members.Status(context.Background(), account)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.HasMembership {
		t.Fatal("unsettled payment must not grant membership")
	}
}

func TestPaymentIntentRequiresAuth(t *testing.T) {
	f := newFixture(t)
	rec := postJSON(t, f.handler, "/payments/intent", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestPaymentIntentUnconfiguredProvider(t *testing.T) {
	f := newFixture(t)
	_, cookie := f.addAccount(t, directory.RoleUser)
	rec := postJSON(t, f.handler, "/payments/intent", nil, cookie)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	f := newFixture(t)
	_, admin := f.addAccount(t, directory.RoleAdmin)

	for i := 0; i < 2; i++ {
		rec := postJSON(t, f.handler, "/setup/seed", nil, admin)
		if rec.Code != http.StatusOK {
			t.Fatalf("seed #%d status = %d: %s", i+1, rec.Code, rec.Body.String())
		}
	}
	spaces, err := f.forum.ListSpaces(context.Background())
	if err != nil {
		t.Fatalf("ListSpaces: %v", err)
	}
	if len(spaces) != 4 {
		t.Fatalf("spaces = %d, want 4 after double seed", len(spaces))
	}
}

func TestSeedRejectsAnonymous(t *testing.T) {
	f := newFixture(t)
	rec := postJSON(t, f.handler, "/setup/seed", nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestSubscribeEndpoint(t *testing.T) {
	f := newFixture(t)
	rec := postJSON(t, f.handler, "/subscribe", map[string]string{"email": "new@x.com", "source": "footer"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	rec = postJSON(t, f.handler, "/subscribe", map[string]string{"email": "garbage"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
