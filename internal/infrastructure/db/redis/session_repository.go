package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/celanai/celan/internal/core/domain"
)

// SessionRepository keeps refresh sessions in Redis.
// Key format: session:<refresh_token>, value is the user id.
type SessionRepository struct {
	client *redis.Client
}

func NewSessionRepository(client *redis.Client) *SessionRepository {
	return &SessionRepository{client: client}
}

// Save stores or overwrites the session and resets its expiry to ttl.
func (r *SessionRepository) Save(ctx context.Context, refreshToken, userID string, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.key(refreshToken), userID, ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (r *SessionRepository) Lookup(ctx context.Context, refreshToken string) (string, error) {
	userID, err := r.client.Get(ctx, r.key(refreshToken)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", domain.ErrNoSession
		}
		return "", fmt.Errorf("lookup session: %w", err)
	}
	return userID, nil
}

func (r *SessionRepository) Delete(ctx context.Context, refreshToken string) error {
	if err := r.client.Del(ctx, r.key(refreshToken)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (r *SessionRepository) key(refreshToken string) string {
	return "session:" + refreshToken
}
