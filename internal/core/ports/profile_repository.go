package ports

import (
	"context"

	"github.com/celanai/celan/internal/core/domain"
)

// ProfileRepository is the users table of the relational store.
type ProfileRepository interface {
	Insert(ctx context.Context, user *domain.User) (*domain.User, error)
	// FindByID returns domain.ErrUserNotFound when no row matches.
	FindByID(ctx context.Context, id string) (*domain.User, error)
	UpdatePlan(ctx context.Context, id string, plan domain.Plan) (*domain.User, error)
}
