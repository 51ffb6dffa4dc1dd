package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"speakeasy.club/internal/catalog"
	"speakeasy.club/internal/community"
	"speakeasy.club/internal/directory"
	"speakeasy.club/internal/membership"
	"speakeasy.club/internal/obs"
)

// Error codes of the RPC surface. Internal details never leak past INTERNAL.
const (
	codeUnauthorized = "UNAUTHORIZED"
	codeForbidden    = "FORBIDDEN"
	codeNotFound     = "NOT_FOUND"
	codeConflict     = "CONFLICT"
	codeBadRequest   = "BAD_REQUEST"
	codeInternal     = "INTERNAL"
)

// gate is the authorization stage a procedure declares at definition time.
type gate int

const (
	gateNone gate = iota
	gateUser
	gateMember
	gateAdmin
)

// rpcContext is what a procedure handler sees: the resolved account (nil for
// gateNone procedures hit anonymously) and, for gateMember procedures, the
// membership status so handlers don't re-query.
type rpcContext struct {
	account *directory.Account
	status  membership.StatusResult
}

func (rc *rpcContext) isAdmin() bool {
	return rc.account != nil && rc.account.IsAdmin()
}

type procedureFunc func(ctx context.Context, rc *rpcContext, params json.RawMessage) (any, error)

type procedure struct {
	gate   gate
	handle procedureFunc
}

// rpcError is a typed failure a handler can return to pick its own code.
type rpcError struct {
	code    string
	message string
}

func (e *rpcError) Error() string { return e.message }

func rpcFail(code, message string) error {
	return &rpcError{code: code, message: message}
}

// RPC dispatches POST /rpc/{namespace.procedure}.
func (a *API) RPC(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["procedure"]
	proc, ok := a.procedures[name]
	if !ok {
		writeRPCError(w, codeNotFound, "unknown procedure")
		return
	}

	rc := &rpcContext{account: AccountFromContext(r.Context())}
	switch proc.gate {
	case gateNone:
	case gateUser:
		if rc.account == nil {
			writeRPCError(w, codeUnauthorized, "authentication required")
			return
		}
	case gateAdmin:
		if rc.account == nil {
			writeRPCError(w, codeUnauthorized, "authentication required")
			return
		}
		if !rc.account.IsAdmin() {
			writeRPCError(w, codeForbidden, "admin required")
			return
		}
	case gateMember:
		if rc.account == nil {
			writeRPCError(w, codeUnauthorized, "authentication required")
			return
		}
		status, err := a.memberships.Status(r.Context(), rc.account)
		if err != nil {
			a.writeRPCInternal(w, r, err)
			return
		}
		if !status.HasMembership {
			writeRPCError(w, codeForbidden, "active membership required")
			return
		}
		rc.status = status
	}

	params, err := readParams(r)
	if err != nil {
		writeRPCError(w, codeBadRequest, "malformed request body")
		return
	}

	result, err := proc.handle(r.Context(), rc, params)
	if err != nil {
		a.writeRPCFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "result": result})
}

// readParams reads the raw JSON body. An empty body is legal: many
// procedures take no parameters.
func readParams(r *http.Request) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	return raw, nil
}

func (a *API) writeRPCFailure(w http.ResponseWriter, r *http.Request, err error) {
	var typed *rpcError
	if errors.As(err, &typed) {
		writeRPCError(w, typed.code, typed.message)
		return
	}
	switch {
	case errors.Is(err, directory.ErrNotFound),
		errors.Is(err, community.ErrNotFound),
		errors.Is(err, membership.ErrNotFound),
		errors.Is(err, catalog.ErrNotFound):
		writeRPCError(w, codeNotFound, "not found")
	case errors.Is(err, directory.ErrConflict),
		errors.Is(err, community.ErrConflict):
		writeRPCError(w, codeConflict, err.Error())
	case errors.Is(err, community.ErrNoProfile):
		writeRPCError(w, codeForbidden, "community profile required")
	case errors.Is(err, community.ErrNotOwner):
		writeRPCError(w, codeForbidden, "not the author")
	case errors.Is(err, community.ErrInvalidInput),
		errors.Is(err, catalog.ErrInvalidInput),
		errors.Is(err, directory.ErrInvalidRole):
		writeRPCError(w, codeBadRequest, err.Error())
	default:
		a.writeRPCInternal(w, r, err)
	}
}

func (a *API) writeRPCInternal(w http.ResponseWriter, r *http.Request, err error) {
	obs.Warn("rpc internal error", map[string]any{
		"error":      err.Error(),
		"path":       r.URL.Path,
		"request_id": RequestIDFromContext(r.Context()),
	})
	writeRPCError(w, codeInternal, "internal error")
}

func writeRPCError(w http.ResponseWriter, code, message string) {
	writeJSON(w, httpStatusFor(code), map[string]any{
		"ok": false,
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

func httpStatusFor(code string) int {
	switch code {
	case codeUnauthorized:
		return http.StatusUnauthorized
	case codeForbidden:
		return http.StatusForbidden
	case codeNotFound:
		return http.StatusNotFound
	case codeConflict:
		return http.StatusConflict
	case codeBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// unmarshalParams decodes params into v. A nil/absent body decodes as the
// zero value, matching procedures with optional parameters.
func unmarshalParams(params json.RawMessage, v any) error {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, v); err != nil {
		return rpcFail(codeBadRequest, "malformed parameters")
	}
	return nil
}
