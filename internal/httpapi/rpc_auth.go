package httpapi

import (
	"context"
	"encoding/json"
	"time"

	"speakeasy.club/internal/audit"
	"speakeasy.club/internal/directory"
	"speakeasy.club/internal/session"
)

func (a *API) register(name string, g gate, fn procedureFunc) {
	if a.procedures == nil {
		a.procedures = make(map[string]procedure)
	}
	a.procedures[name] = procedure{gate: g, handle: fn}
}

func (a *API) registerProcedures() {
	a.registerAuthProcedures()
	a.registerForumProcedures()
	a.registerCatalogProcedures()
}

func (a *API) registerAuthProcedures() {
	a.register("auth.me", gateNone, a.rpcAuthMe)
	a.register("auth.logoutEverywhere", gateUser, a.rpcLogoutEverywhere)

	a.register("membership.status", gateUser, a.rpcMembershipStatus)
	a.register("membership.history", gateUser, a.rpcMembershipHistory)
	a.register("membership.create", gateUser, a.rpcMembershipCreate)
	a.register("membership.grant", gateAdmin, a.rpcMembershipGrant)

	a.register("admin.users", gateAdmin, a.rpcAdminUsers)
	a.register("admin.setRole", gateAdmin, a.rpcAdminSetRole)
}

// auth.me returns the calling account, or null for anonymous. Open to all so
// the frontend can probe session state without triggering a 401.
func (a *API) rpcAuthMe(_ context.Context, rc *rpcContext, _ json.RawMessage) (any, error) {
	if rc.account == nil {
		return map[string]any{"account": nil}, nil
	}
	return map[string]any{"account": rc.account}, nil
}

// auth.logoutEverywhere invalidates every token issued to the subject so far.
// With no revocation store configured this is a no-op beyond the local cookie.
func (a *API) rpcLogoutEverywhere(ctx context.Context, rc *rpcContext, _ json.RawMessage) (any, error) {
	if err := a.revoker.RevokeAll(ctx, rc.account.SubjectID, a.sessionTTL()); err != nil {
		return nil, err
	}
	_ = audit.LogEvent(ctx, "auth.logout_everywhere", nil)
	return map[string]any{"revoked": true}, nil
}

func (a *API) sessionTTL() time.Duration {
	if a.cfg != nil && a.cfg.SessionTTL > 0 {
		return a.cfg.SessionTTL
	}
	return session.DefaultTTL
}

func (a *API) rpcMembershipStatus(ctx context.Context, rc *rpcContext, _ json.RawMessage) (any, error) {
	return a.memberships.Status(ctx, rc.account)
}

func (a *API) rpcMembershipHistory(ctx context.Context, rc *rpcContext, _ json.RawMessage) (any, error) {
	return a.memberships.History(ctx, rc.account.SubjectID)
}

// membership.create records a paid membership year for the caller. The REST
// payment-confirm flow is the normal entry; this procedure exists for
// flows where the payment reference arrives from the client (e.g. a hosted
// checkout redirect).
func (a *API) rpcMembershipCreate(ctx context.Context, rc *rpcContext, params json.RawMessage) (any, error) {
	var p struct {
		PaymentRef string `json:"paymentRef"`
		Provider   string `json:"provider"`
	}
	if err := unmarshalParams(params, &p); err != nil {
		return nil, err
	}
	m, err := a.memberships.Create(ctx, rc.account.SubjectID, p.PaymentRef, p.Provider)
	if err != nil {
		return nil, err
	}
	_ = audit.LogEvent(ctx, "membership.create", map[string]any{"membership_id": m.ID})
	return m, nil
}

func (a *API) rpcMembershipGrant(ctx context.Context, rc *rpcContext, params json.RawMessage) (any, error) {
	var p struct {
		SubjectID string `json:"subjectId"`
		Months    int    `json:"months"`
	}
	if err := unmarshalParams(params, &p); err != nil {
		return nil, err
	}
	if p.SubjectID == "" {
		return nil, rpcFail(codeBadRequest, "subjectId is required")
	}
	if _, err := a.accounts.GetBySubjectID(ctx, p.SubjectID); err != nil {
		return nil, err
	}
	m, err := a.memberships.Grant(ctx, p.SubjectID, p.Months)
	if err != nil {
		return nil, err
	}
	_ = audit.LogEvent(ctx, "membership.grant", map[string]any{
		"target": p.SubjectID, "months": p.Months,
	})
	return m, nil
}

func (a *API) rpcAdminUsers(ctx context.Context, _ *rpcContext, _ json.RawMessage) (any, error) {
	accounts, err := a.accounts.List(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{"accounts": accounts}, nil
}

func (a *API) rpcAdminSetRole(ctx context.Context, _ *rpcContext, params json.RawMessage) (any, error) {
	var p struct {
		SubjectID string `json:"subjectId"`
		Role      string `json:"role"`
	}
	if err := unmarshalParams(params, &p); err != nil {
		return nil, err
	}
	if p.SubjectID == "" {
		return nil, rpcFail(codeBadRequest, "subjectId is required")
	}
	if err := a.accounts.SetRole(ctx, p.SubjectID, directory.Role(p.Role)); err != nil {
		return nil, err
	}
	_ = audit.LogEvent(ctx, "admin.set_role", map[string]any{
		"target": p.SubjectID, "role": p.Role,
	})
	return map[string]any{"updated": true}, nil
}
