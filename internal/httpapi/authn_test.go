package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"speakeasy.club/internal/directory"
	"speakeasy.club/internal/session"
)

func (f *fixture) probeAccount(cookie *http.Cookie) *directory.Account {
	var resolved *directory.Account
	probe := f.api.withSession(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		resolved = AccountFromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	probe.ServeHTTP(httptest.NewRecorder(), req)
	return resolved
}

func TestAuthenticateNoCookie(t *testing.T) {
	f := newFixture(t)
	if acc := f.probeAccount(nil); acc != nil {
		t.Fatalf("expected anonymous, got %+v", acc)
	}
}

func TestAuthenticateGarbageCookie(t *testing.T) {
	f := newFixture(t)
	cookie := &http.Cookie{Name: session.CookieName, Value: "not.a.token"}
	if acc := f.probeAccount(cookie); acc != nil {
		t.Fatalf("expected anonymous, got %+v", acc)
	}
}

func TestAuthenticateValidCookie(t *testing.T) {
	f := newFixture(t)
	account, cookie := f.addAccount(t, directory.RoleUser)
	acc := f.probeAccount(cookie)
	if acc == nil {
		t.Fatal("expected an account")
	}
	if acc.SubjectID != account.SubjectID {
		t.Fatalf("subject = %q, want %q", acc.SubjectID, account.SubjectID)
	}
}

func TestAuthenticateDeletedAccount(t *testing.T) {
	f := newFixture(t)
	// Token is valid but no account row exists for its subject.
	token, err := f.codec.Mint("ghost-subject", session.MintOptions{TTL: time.Hour})
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	cookie := &http.Cookie{Name: session.CookieName, Value: token}
	if acc := f.probeAccount(cookie); acc != nil {
		t.Fatalf("expected anonymous for vanished account, got %+v", acc)
	}
}

func TestAuthenticateForeignSecret(t *testing.T) {
	f := newFixture(t)
	other, err := session.NewCodec("another-secret-another-secret")
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	account, _ := f.addAccount(t, directory.RoleUser)
	token, err := other.Mint(account.SubjectID, session.MintOptions{TTL: time.Hour})
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	cookie := &http.Cookie{Name: session.CookieName, Value: token}
	if acc := f.probeAccount(cookie); acc != nil {
		t.Fatalf("token signed with a foreign secret must be anonymous, got %+v", acc)
	}
}
