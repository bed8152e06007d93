package auth

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrNoSession = errors.New("session not found")

const sessionKeyPrefix = "session:"

// SessionStore is the allowlist of live session tokens. A token's jti is
// stored with the session TTL; logout deletes it, so a signed but logged-out
// token no longer verifies.
type SessionStore struct {
	rdb *redis.Client
}

func NewSessionStore(rdb *redis.Client) *SessionStore {
	return &SessionStore{rdb: rdb}
}

func (s *SessionStore) Put(ctx context.Context, jti, consultantID string, ttl time.Duration) error {
	return s.rdb.Set(ctx, sessionKeyPrefix+jti, consultantID, ttl).Err()
}

func (s *SessionStore) Get(ctx context.Context, jti string) (string, error) {
	val, err := s.rdb.Get(ctx, sessionKeyPrefix+jti).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNoSession
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (s *SessionStore) Delete(ctx context.Context, jti string) error {
	return s.rdb.Del(ctx, sessionKeyPrefix+jti).Err()
}
