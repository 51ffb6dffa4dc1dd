// Package revoke invalidates issued session tokens before they expire.
// Tokens are stateless, so revocation is a per-subject cutoff: any token
// issued at or before the cutoff is dead. The cutoff lives in Redis with a
// TTL matching the longest possible session, after which it is irrelevant.
package revoke

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Checker answers whether a token is revoked. The zero-value Noop never
// revokes, for deployments without Redis.
type Checker interface {
	// Revoked reports whether a token issued at issuedAt for subjectID has
	// been invalidated.
	Revoked(ctx context.Context, subjectID string, issuedAt time.Time) (bool, error)
	// RevokeAll invalidates every token issued to subjectID up to now.
	RevokeAll(ctx context.Context, subjectID string, ttl time.Duration) error
}

// revokedAt reports whether a token issued at issuedAt falls under cutoff.
// Second precision: JWT iat claims carry seconds.
func revokedAt(cutoffUnix int64, issuedAt time.Time) bool {
	return issuedAt.Unix() <= cutoffUnix
}

// RedisChecker stores cutoffs in Redis.
type RedisChecker struct {
	rdb *redis.Client
}

func NewRedisChecker(rdb *redis.Client) *RedisChecker {
	return &RedisChecker{rdb: rdb}
}

func key(subjectID string) string {
	return "session:revoked:" + subjectID
}

func (c *RedisChecker) Revoked(ctx context.Context, subjectID string, issuedAt time.Time) (bool, error) {
	val, err := c.rdb.Get(ctx, key(subjectID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("revoke lookup: %w", err)
	}
	cutoff, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return false, fmt.Errorf("revoke lookup: bad cutoff %q", val)
	}
	return revokedAt(cutoff, issuedAt), nil
}

func (c *RedisChecker) RevokeAll(ctx context.Context, subjectID string, ttl time.Duration) error {
	cutoff := strconv.FormatInt(time.Now().Unix(), 10)
	if err := c.rdb.Set(ctx, key(subjectID), cutoff, ttl).Err(); err != nil {
		return fmt.Errorf("revoke set: %w", err)
	}
	return nil
}

// Noop is the Checker used when no Redis address is configured.
type Noop struct{}

func (Noop) Revoked(context.Context, string, time.Time) (bool, error) { return false, nil }

func (Noop) RevokeAll(context.Context, string, time.Duration) error { return nil }
