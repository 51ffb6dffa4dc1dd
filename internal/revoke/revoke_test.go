package revoke

import (
	"context"
	"testing"
	"time"
)

func TestRevokedAtCutoff(t *testing.T) {
	cutoff := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name     string
		issuedAt time.Time
		want     bool
	}{
		{"issued before cutoff", cutoff.Add(-time.Hour), true},
		{"issued exactly at cutoff", cutoff, true},
		{"issued after cutoff", cutoff.Add(time.Second), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := revokedAt(cutoff.Unix(), tc.issuedAt); got != tc.want {
				t.Fatalf("revokedAt = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestNoopNeverRevokes(t *testing.T) {
	var c Checker = Noop{}
	revoked, err := c.Revoked(context.Background(), "subject-1", time.Unix(0, 0))
	if err != nil {
		t.Fatalf("Revoked: %v", err)
	}
	if revoked {
		t.Fatal("noop checker must never revoke")
	}
	if err := c.RevokeAll(context.Background(), "subject-1", time.Hour); err != nil {
		t.Fatalf("RevokeAll: %v", err)
	}
}
