package session

import (
	"strings"
	"testing"
	"time"
)

func TestMintVerifyRoundTrip(t *testing.T) {
	codec, err := NewCodec("unit-test-secret")
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}

	token, err := codec.Mint("subject-42", MintOptions{DisplayName: "Luna", TTL: time.Hour})
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}

	claims, err := codec.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.SubjectID != "subject-42" {
		t.Fatalf("unexpected subject: %s", claims.SubjectID)
	}
	if claims.IssuerID != "speakeasy" {
		t.Fatalf("unexpected issuer: %s", claims.IssuerID)
	}
	if claims.DisplayName != "Luna" {
		t.Fatalf("unexpected display name: %s", claims.DisplayName)
	}
}

func TestVerifyRejectsTampering(t *testing.T) {
	codec, err := NewCodec("unit-test-secret")
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	token, err := codec.Mint("subject-42", MintOptions{TTL: time.Hour})
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape")
	}
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))
	if _, err := codec.Verify(tampered); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	mint, _ := NewCodec("secret-one")
	verify, _ := NewCodec("secret-two")

	token, err := mint.Mint("subject-42", MintOptions{TTL: time.Hour})
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if _, err := verify.Verify(token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	current := time.Now().UTC()
	codec, err := NewCodec("unit-test-secret", WithClock(func() time.Time { return current }))
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}

	token, err := codec.Mint("subject-42", MintOptions{TTL: time.Minute})
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if _, err := codec.Verify(token); err != nil {
		t.Fatalf("token should be valid before expiry: %v", err)
	}

	current = current.Add(2 * time.Minute)
	if _, err := codec.Verify(token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken after expiry, got %v", err)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	codec, _ := NewCodec("unit-test-secret")
	for _, raw := range []string{"", "   ", "not-a-token", "a.b", "a.b.c.d"} {
		if _, err := codec.Verify(raw); err != ErrInvalidToken {
			t.Fatalf("Verify(%q): expected ErrInvalidToken, got %v", raw, err)
		}
	}
}

func TestMintRequiresSubject(t *testing.T) {
	codec, _ := NewCodec("unit-test-secret")
	if _, err := codec.Mint("  ", MintOptions{}); err == nil {
		t.Fatal("expected error for missing subject")
	}
}

func TestIssuedAt(t *testing.T) {
	current := time.Unix(1_700_000_000, 0).UTC()
	codec, _ := NewCodec("unit-test-secret", WithClock(func() time.Time { return current }))

	token, err := codec.Mint("subject-42", MintOptions{TTL: time.Hour})
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	iat, err := codec.IssuedAt(token)
	if err != nil {
		t.Fatalf("IssuedAt: %v", err)
	}
	if !iat.Equal(current) {
		t.Fatalf("expected issued-at %v, got %v", current, iat)
	}
}
