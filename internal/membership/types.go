// Package membership manages the time-bounded entitlement records that gate
// member-only content. Records are additive: new purchases and grants insert
// rows, nothing is deleted, and expiry is computed at query time from the end
// timestamp rather than swept into a stored status.
package membership

import (
	"errors"
	"time"
)

// Status is the stored membership status. Nothing in this system transitions
// a row to expired or cancelled automatically; those values are reachable
// only by administrative data edits, and a non-active row never satisfies an
// entitlement check.
type Status string

const (
	StatusActive    Status = "active"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

// Membership is one entitlement record.
type Membership struct {
	ID              string    `json:"id"`
	SubjectID       string    `json:"subjectId"`
	Status          Status    `json:"status"`
	StartsAt        time.Time `json:"startsAt"`
	EndsAt          time.Time `json:"endsAt"`
	PaymentRef      string    `json:"paymentRef,omitempty"`
	PaymentProvider string    `json:"paymentProvider,omitempty"`
	AmountCents     int64     `json:"amountCents"`
	CreatedAt       time.Time `json:"createdAt"`
}

// ActiveAt reports whether the record grants access at the given instant.
func (m *Membership) ActiveAt(at time.Time) bool {
	return m != nil && m.Status == StatusActive && m.EndsAt.After(at)
}

var (
	ErrNotFound       = errors.New("membership: not found")
	ErrMissingSubject = errors.New("membership: subject id is required")
)
