package session

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store keeps short-lived auth state in Redis: revoked token ids and
// failed-login counters. A Store without a client allows everything.
type Store struct {
	redis       *redis.Client
	maxAttempts int
	lockout     time.Duration
}

func NewStore(client *redis.Client, maxAttempts int, lockout time.Duration) *Store {
	return &Store{redis: client, maxAttempts: maxAttempts, lockout: lockout}
}

func (s *Store) Enabled() bool {
	return s != nil && s.redis != nil
}

// Revoke denies tokenID until expiresAt.
func (s *Store) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if !s.Enabled() || tokenID == "" {
		return nil
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return s.redis.Set(ctx, revokedKey(tokenID), "1", ttl).Err()
}

func (s *Store) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if !s.Enabled() || tokenID == "" {
		return false, nil
	}
	n, err := s.redis.Exists(ctx, revokedKey(tokenID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// LoginLocked reports whether identity has used up its failed attempts.
func (s *Store) LoginLocked(ctx context.Context, role, identity string) (bool, error) {
	if !s.Enabled() || s.maxAttempts <= 0 {
		return false, nil
	}
	value, err := s.redis.Get(ctx, attemptsKey(role, identity)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	attempts, err := strconv.Atoi(value)
	if err != nil {
		return false, nil
	}
	return attempts >= s.maxAttempts, nil
}

func (s *Store) RecordLoginFailure(ctx context.Context, role, identity string) error {
	if !s.Enabled() || s.maxAttempts <= 0 {
		return nil
	}
	key := attemptsKey(role, identity)
	pipe := s.redis.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, s.lockout)
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	return incr.Err()
}

func (s *Store) ClearLoginFailures(ctx context.Context, role, identity string) error {
	if !s.Enabled() {
		return nil
	}
	return s.redis.Del(ctx, attemptsKey(role, identity)).Err()
}

func revokedKey(tokenID string) string {
	return "hostel:revoked:" + tokenID
}

func attemptsKey(role, identity string) string {
	return "hostel:login_attempts:" + role + ":" + strings.ToLower(strings.TrimSpace(identity))
}
