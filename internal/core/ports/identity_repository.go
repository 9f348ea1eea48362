package ports

import (
	"context"

	"github.com/celanai/celan/internal/core/domain"
)

// IdentityRepository persists login identities for the session store.
type IdentityRepository interface {
	// Create returns domain.ErrUserExists when the email is taken.
	Create(ctx context.Context, identity *domain.Identity) (*domain.Identity, error)
	FindByEmail(ctx context.Context, email string) (*domain.Identity, error)
	FindByID(ctx context.Context, id string) (*domain.Identity, error)
	Delete(ctx context.Context, id string) error
}
