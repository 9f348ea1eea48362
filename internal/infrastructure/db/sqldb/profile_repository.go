package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/celanai/celan/internal/core/domain"
)

type ProfileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

const userColumns = `id, email, name, plan, created_at`

func (r *ProfileRepository) Insert(ctx context.Context, user *domain.User) (*domain.User, error) {
	var plan sql.NullString
	if user.Plan != nil {
		plan = sql.NullString{String: string(*user.Plan), Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5)`,
		user.ID, user.Email, user.Name, plan, toNanos(user.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return r.FindByID(ctx, user.ID)
}

func (r *ProfileRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// UpdatePlan returns domain.ErrUserNotFound when id matches no row.
func (r *ProfileRepository) UpdatePlan(ctx context.Context, id string, plan domain.Plan) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`UPDATE users SET plan = $1 WHERE id = $2 RETURNING `+userColumns,
		string(plan), id)
	return scanUser(row)
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		u         domain.User
		plan      sql.NullString
		createdAt int64
	)
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &plan, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user row: %w", err)
	}
	if plan.Valid {
		p := domain.Plan(plan.String)
		u.Plan = &p
	}
	u.CreatedAt = fromNanos(createdAt)
	return &u, nil
}
