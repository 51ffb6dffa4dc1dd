// Package session implements the signed cookie session: a time-limited HS256
// token carrying the subject id, issuing application id and display name,
// plus the cookie attribute policy for single- and split-origin deployments.
package session

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const defaultIssuer = "speakeasy"

// DefaultTTL is the token lifetime used when the caller does not override it.
// Tokens are reissued wholesale at each login; there is no refresh flow.
const DefaultTTL = 365 * 24 * time.Hour

// ErrInvalidToken is the single failure result of Verify. Bad signature,
// unexpected algorithm, missing claims and expiry all collapse into it so
// callers cannot distinguish the reasons.
var ErrInvalidToken = errors.New("session: invalid token")

// Claims are the verified contents of a session token.
type Claims struct {
	SubjectID   string
	IssuerID    string
	DisplayName string
}

type tokenClaims struct {
	DisplayName string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Codec mints and verifies session tokens against a server-held secret.
type Codec struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// CodecOption configures a Codec.
type CodecOption func(*Codec)

// WithIssuer overrides the issuer/application identifier claim.
func WithIssuer(issuer string) CodecOption {
	return func(c *Codec) {
		if strings.TrimSpace(issuer) != "" {
			c.issuer = strings.TrimSpace(issuer)
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) CodecOption {
	return func(c *Codec) {
		if fn != nil {
			c.now = fn
		}
	}
}

// NewCodec constructs a Codec. The secret must be non-empty.
func NewCodec(secret string, opts ...CodecOption) (*Codec, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("session: secret is required")
	}
	c := &Codec{
		secret: []byte(secret),
		issuer: defaultIssuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// MintOptions carry the optional claims for Mint.
type MintOptions struct {
	DisplayName string
	TTL         time.Duration
}

// Mint signs a session token for the given subject.
func (c *Codec) Mint(subjectID string, opts MintOptions) (string, error) {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return "", errors.New("session: subject id is required")
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	now := c.now().UTC()
	claims := tokenClaims{
		DisplayName: opts.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// Verify validates signature and claims and fails closed: every failure mode
// is reported as ErrInvalidToken.
func (c *Codec) Verify(token string) (Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Claims{}, ErrInvalidToken
	}

	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(c.now))
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}
	if err := c.validateClaims(claims); err != nil {
		return Claims{}, ErrInvalidToken
	}
	return Claims{
		SubjectID:   claims.Subject,
		IssuerID:    claims.Issuer,
		DisplayName: claims.DisplayName,
	}, nil
}

func (c *Codec) validateClaims(claims *tokenClaims) error {
	if claims.Issuer != c.issuer {
		return errors.New("unexpected issuer")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return errors.New("subject missing")
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return errors.New("timestamps missing")
	}
	now := c.now().UTC()
	if now.After(claims.ExpiresAt.Time) {
		return errors.New("token expired")
	}
	// Allow a small clock skew of 5 seconds when validating issued-at.
	if claims.IssuedAt.Time.After(now.Add(5 * time.Second)) {
		return errors.New("token issued in the future")
	}
	if claims.ExpiresAt.Time.Before(claims.IssuedAt.Time) {
		return errors.New("token expiry precedes issued-at")
	}
	return nil
}

// IssuedAt extracts the unverified issued-at timestamp from a token the codec
// already verified. Used by the revocation set to key logout records.
func (c *Codec) IssuedAt(token string) (time.Time, error) {
	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(c.now))
	if err != nil {
		return time.Time{}, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || claims.IssuedAt == nil {
		return time.Time{}, ErrInvalidToken
	}
	return claims.IssuedAt.Time, nil
}
