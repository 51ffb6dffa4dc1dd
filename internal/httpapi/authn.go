package httpapi

import (
	"context"
	"net/http"

	"speakeasy.club/internal/audit"
	"speakeasy.club/internal/directory"
	"speakeasy.club/internal/session"
)

const accountCtxKey ctxKey = "account"

// withSession resolves the session cookie to an account and attaches it to
// the request context. Every failure mode collapses to anonymous: no cookie,
// malformed token, revoked token, and valid token whose account has been
// deleted are all indistinguishable to the caller. The middleware never
// rejects a request; gates do that downstream.
func (a *API) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		account := a.authenticate(r)
		if account == nil {
			next.ServeHTTP(w, r)
			return
		}
		ctx := context.WithValue(r.Context(), accountCtxKey, account)
		ctx = audit.WithSubject(ctx, account.SubjectID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *API) authenticate(r *http.Request) *directory.Account {
	cookie, err := r.Cookie(session.CookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	claims, err := a.codec.Verify(cookie.Value)
	if err != nil {
		return nil
	}
	issuedAt, err := a.codec.IssuedAt(cookie.Value)
	if err != nil {
		return nil
	}
	revoked, err := a.revoker.Revoked(r.Context(), claims.SubjectID, issuedAt)
	if err != nil || revoked {
		// A revocation-store outage fails closed for the session rather
		// than letting possibly-revoked tokens through.
		return nil
	}
	account, err := a.accounts.GetBySubjectID(r.Context(), claims.SubjectID)
	if err != nil {
		return nil
	}
	return account
}

// AccountFromContext returns the authenticated account, or nil for anonymous.
func AccountFromContext(ctx context.Context) *directory.Account {
	if ctx == nil {
		return nil
	}
	if acc, ok := ctx.Value(accountCtxKey).(*directory.Account); ok {
		return acc
	}
	return nil
}
