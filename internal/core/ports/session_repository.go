package ports

import (
	"context"
	"time"
)

// RefreshSessionRepository maps opaque refresh tokens to the user they were
// issued for. Entries expire on their own after ttl.
type RefreshSessionRepository interface {
	Save(ctx context.Context, refreshToken, userID string, ttl time.Duration) error
	// Lookup returns domain.ErrNoSession when the token is unknown or expired.
	Lookup(ctx context.Context, refreshToken string) (userID string, err error)
	Delete(ctx context.Context, refreshToken string) error
}
