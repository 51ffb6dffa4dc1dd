package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func newFakeProvider(t *testing.T, intentStatus string, logins *int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/authentication/login", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(logins, 1)
		if r.Header.Get("x-client-id") != "cid" || r.Header.Get("x-api-key") != "key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"token": "tok-1"})
	})
	mux.HandleFunc("/api/v1/pa/payment_intents/create", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["request_id"] == "" || body["currency"] != "USD" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"id": "int_123", "client_secret": "cs_abc", "status": "REQUIRES_PAYMENT_METHOD", "currency": "USD",
		})
	})
	mux.HandleFunc("/api/v1/pa/payment_intents/int_123", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"id": "int_123", "status": intentStatus, "currency": "USD",
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestCreateIntentAndConfirmFlow(t *testing.T) {
	var logins int32
	srv := newFakeProvider(t, "SUCCEEDED", &logins)
	c := NewClient("cid", "key", true, WithBaseURL(srv.URL))
	ctx := context.Background()

	intent, err := c.CreateIntent(ctx, 9900, "USD")
	if err != nil {
		t.Fatalf("CreateIntent: %v", err)
	}
	if intent.ID != "int_123" || intent.ClientSecret != "cs_abc" {
		t.Fatalf("unexpected intent: %+v", intent)
	}
	if intent.Amount != 9900 {
		t.Fatalf("amount = %d", intent.Amount)
	}
	if intent.Succeeded() {
		t.Fatal("fresh intent must not read as settled")
	}

	got, err := c.GetIntent(ctx, "int_123")
	if err != nil {
		t.Fatalf("GetIntent: %v", err)
	}
	if !got.Succeeded() {
		t.Fatalf("status %q should read as settled", got.Status)
	}
}

func TestBearerTokenIsCached(t *testing.T) {
	var logins int32
	srv := newFakeProvider(t, "SUCCEEDED", &logins)
	c := NewClient("cid", "key", true, WithBaseURL(srv.URL))
	ctx := context.Background()

	if _, err := c.CreateIntent(ctx, 100, "USD"); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if _, err := c.GetIntent(ctx, "int_123"); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if n := atomic.LoadInt32(&logins); n != 1 {
		t.Fatalf("login called %d times, want 1", n)
	}
}

func TestUnconfiguredClient(t *testing.T) {
	c := NewClient("", "", true)
	if c.Configured() {
		t.Fatal("empty credentials must read as unconfigured")
	}
	if _, err := c.CreateIntent(context.Background(), 100, "USD"); err != ErrNotConfigured {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}
}

func TestPendingIntentNotSettled(t *testing.T) {
	var logins int32
	srv := newFakeProvider(t, "REQUIRES_CAPTURE", &logins)
	c := NewClient("cid", "key", true, WithBaseURL(srv.URL))

	got, err := c.GetIntent(context.Background(), "int_123")
	if err != nil {
		t.Fatalf("GetIntent: %v", err)
	}
	if got.Succeeded() {
		t.Fatal("REQUIRES_CAPTURE must not count as settled")
	}
}
