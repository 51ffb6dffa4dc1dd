package httpapi

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"speakeasy.club/internal/audit"
	"speakeasy.club/internal/directory"
	"speakeasy.club/internal/ids"
	"speakeasy.club/internal/session"
)

const minPasswordLength = 8

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"error": message})
}

// Register creates an account from credentials and signs the caller in.
func (a *API) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		Password    string `json:"password"`
		DisplayName string `json:"displayName"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, "a valid email is required")
		return
	}
	if len(req.Password) < minPasswordLength {
		writeError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	if _, err := a.accounts.GetByEmail(r.Context(), req.Email); err == nil {
		writeError(w, http.StatusConflict, "email already registered")
		return
	} else if !errors.Is(err, directory.ErrNotFound) {
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	hash, err := directory.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}
	subjectID := ids.NewSubjectID()
	account, err := a.accounts.Upsert(r.Context(), subjectID, directory.Fields{
		Email:        &req.Email,
		PasswordHash: &hash,
		DisplayName:  &req.DisplayName,
	})
	if err != nil {
		if errors.Is(err, directory.ErrConflict) {
			writeError(w, http.StatusConflict, "email already registered")
			return
		}
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	if err := a.issueSession(w, r, account); err != nil {
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.register", map[string]any{"subject_id": account.SubjectID})
	writeJSON(w, http.StatusCreated, map[string]any{"account": account})
}

// Login verifies credentials and reissues the session cookie. Wrong password
// and unknown email produce the same response, so the endpoint does not leak
// which emails exist.
func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	account, err := a.accounts.GetByEmail(r.Context(), req.Email)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if account.PasswordHash == nil ||
		directory.VerifyPassword(*account.PasswordHash, req.Password) != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	// Stamp last login.
	account, err = a.accounts.Upsert(r.Context(), account.SubjectID, directory.Fields{})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	if err := a.issueSession(w, r, account); err != nil {
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.login", map[string]any{"subject_id": account.SubjectID})
	writeJSON(w, http.StatusOK, map[string]any{"account": account})
}

// Logout clears the session cookie. The token itself stays valid until
// expiry unless a revocation store is configured and logoutEverywhere is used.
func (a *API) Logout(w http.ResponseWriter, r *http.Request) {
	a.cookies.Clear(w, r)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// Me mirrors auth.me for plain REST consumers.
func (a *API) Me(w http.ResponseWriter, r *http.Request) {
	account := AccountFromContext(r.Context())
	if account == nil {
		writeJSON(w, http.StatusOK, map[string]any{"account": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"account": account})
}

// AdminBootstrap promotes an email to admin, gated by the signing secret.
// It exists for first-boot setup on deployments where the owner-subject
// promotion cannot be used; it delegates to the same SetRole path.
func (a *API) AdminBootstrap(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Secret string `json:"secret"`
		Email  string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if a.cfg == nil || req.Secret == "" || req.Secret != a.cfg.SessionSecret {
		writeError(w, http.StatusUnauthorized, "invalid secret")
		return
	}
	account, err := a.accounts.GetByEmail(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		writeError(w, http.StatusNotFound, "no account with that email")
		return
	}
	if err := a.accounts.SetRole(r.Context(), account.SubjectID, directory.RoleAdmin); err != nil {
		writeError(w, http.StatusInternalServerError, "promotion failed")
		return
	}
	_ = audit.LogEvent(r.Context(), "admin.bootstrap", map[string]any{"subject_id": account.SubjectID})
	writeJSON(w, http.StatusOK, map[string]any{"promoted": true})
}

func (a *API) issueSession(w http.ResponseWriter, r *http.Request, account *directory.Account) error {
	ttl := a.sessionTTL()
	token, err := a.codec.Mint(account.SubjectID, session.MintOptions{
		DisplayName: account.DisplayName,
		TTL:         ttl,
	})
	if err != nil {
		return err
	}
	a.cookies.Set(w, r, token, int(ttl.Seconds()))
	return nil
}
