package membership

import (
	"context"
	"errors"
	"strings"
	"time"

	"speakeasy.club/internal/directory"
	"speakeasy.club/internal/ids"
)

const membershipYears = 1

// Service implements the membership lifecycle over a Store.
type Service struct {
	store      Store
	priceCents int64
	now        func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithPriceCents sets the yearly membership price in minor currency units.
func WithPriceCents(price int64) Option {
	return func(s *Service) {
		if price >= 0 {
			s.priceCents = price
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs a Service.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store, priceCents: 9900, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create inserts a fresh one-year membership tied to a payment reference.
// Repeated calls create additional rows; the operation is additive, not
// idempotent.
func (s *Service) Create(ctx context.Context, subjectID, paymentRef, provider string) (*Membership, error) {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return nil, ErrMissingSubject
	}
	now := s.now().UTC()
	m := &Membership{
		ID:              ids.New(),
		SubjectID:       subjectID,
		Status:          StatusActive,
		StartsAt:        now,
		EndsAt:          now.AddDate(membershipYears, 0, 0),
		PaymentRef:      strings.TrimSpace(paymentRef),
		PaymentProvider: strings.TrimSpace(provider),
		AmountCents:     s.priceCents,
	}
	if err := s.store.Insert(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Grant inserts an admin-comped membership with a chosen duration and a zero
// recorded amount.
func (s *Service) Grant(ctx context.Context, subjectID string, durationMonths int) (*Membership, error) {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return nil, ErrMissingSubject
	}
	if durationMonths <= 0 {
		durationMonths = 12 * membershipYears
	}
	now := s.now().UTC()
	m := &Membership{
		ID:        ids.New(),
		SubjectID: subjectID,
		Status:    StatusActive,
		StartsAt:  now,
		EndsAt:    now.AddDate(0, durationMonths, 0),
	}
	if err := s.store.Insert(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// StatusResult answers "is this account entitled right now".
type StatusResult struct {
	HasMembership bool        `json:"hasMembership"`
	Membership    *Membership `json:"membership,omitempty"`
	IsAdmin       bool        `json:"isAdmin"`
}

// Status reports entitlement for the account. Admins are always entitled
// regardless of membership rows; everyone else needs an active record whose
// end timestamp lies in the future.
func (s *Service) Status(ctx context.Context, account *directory.Account) (StatusResult, error) {
	result := StatusResult{IsAdmin: account.IsAdmin()}

	m, err := s.store.ActiveForSubject(ctx, account.SubjectID, s.now().UTC())
	switch {
	case err == nil:
		result.HasMembership = true
		result.Membership = m
	case errors.Is(err, ErrNotFound):
		result.HasMembership = result.IsAdmin
	default:
		return StatusResult{}, err
	}
	return result, nil
}

// History returns every record for the subject, newest first.
func (s *Service) History(ctx context.Context, subjectID string) ([]*Membership, error) {
	return s.store.ListForSubject(ctx, subjectID)
}
