package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/celanai/celan/internal/core/domain"
	"github.com/celanai/celan/internal/core/ports"
)

// AuthService implements signup, login, and plan changes on top of a
// session store and the users table.
type AuthService struct {
	sessions ports.SessionStore
	profiles ports.ProfileRepository
	now      func() time.Time
	log      zerolog.Logger
}

func NewAuthService(sessions ports.SessionStore, profiles ports.ProfileRepository, log zerolog.Logger) *AuthService {
	return &AuthService{sessions: sessions, profiles: profiles, now: time.Now, log: log}
}

// Signup creates the identity first and the profile second. If the profile
// insert fails the identity is deleted again so the email can be reused.
func (s *AuthService) Signup(ctx context.Context, in ports.SignupInput) (*ports.AuthResult, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.ErrEmptyName
	}

	var plan *domain.Plan
	if in.Plan != "" {
		p, err := domain.ParsePlan(in.Plan)
		if err != nil {
			return nil, err
		}
		plan = &p
	}

	identity, session, err := s.sessions.SignUp(ctx, in.Email, in.Password)
	if err != nil {
		if identity != nil {
			s.compensate(ctx, identity, nil)
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrAuth, err)
	}

	user, err := s.profiles.Insert(ctx, &domain.User{
		ID:        identity.ID,
		Email:     identity.Email,
		Name:      name,
		Plan:      plan,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		s.log.Error().Err(err).Str("user_id", identity.ID).Msg("profile insert failed after identity creation")
		s.compensate(ctx, identity, session)
		return nil, fmt.Errorf("%w: %w", domain.ErrProfile, err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("user signed up")
	return &ports.AuthResult{User: user, Session: session}, nil
}

func (s *AuthService) compensate(ctx context.Context, identity *domain.Identity, session *domain.Session) {
	if session != nil {
		if err := s.sessions.SignOut(ctx, session.RefreshToken); err != nil {
			s.log.Error().Err(err).Str("user_id", identity.ID).Msg("failed to revoke session of orphaned identity")
		}
	}
	if err := s.sessions.DeleteIdentity(ctx, identity.ID); err != nil {
		s.log.Error().Err(err).Str("user_id", identity.ID).Msg("failed to delete orphaned identity")
	}
}

// Login authenticates and loads the profile. A missing profile is reported
// the same way as a bad password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	identity, session, err := s.sessions.SignIn(ctx, email, password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	user, err := s.profiles.FindByID(ctx, identity.ID)
	if err != nil {
		if revokeErr := s.sessions.SignOut(ctx, session.RefreshToken); revokeErr != nil {
			s.log.Warn().Err(revokeErr).Str("user_id", identity.ID).Msg("failed to revoke session")
		}
		if errors.Is(err, domain.ErrUserNotFound) {
			s.log.Warn().Str("user_id", identity.ID).Msg("identity without profile")
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	return &ports.AuthResult{User: user, Session: session}, nil
}

// Logout revokes the session behind refreshToken.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if err := s.sessions.SignOut(ctx, refreshToken); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrLogout, err)
	}
	return nil
}

// CurrentUser returns nil when there is no usable session or the profile
// lookup fails.
func (s *AuthService) CurrentUser(ctx context.Context, tokens domain.Tokens) *domain.User {
	session, _, err := s.sessions.Resolve(ctx, tokens)
	if err != nil {
		return nil
	}

	user, err := s.profiles.FindByID(ctx, session.UserID)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", session.UserID).Msg("get current user failed")
		return nil
	}
	return user
}

// IsAuthenticated reports whether tokens resolve to a session.
func (s *AuthService) IsAuthenticated(ctx context.Context, tokens domain.Tokens) bool {
	_, _, err := s.sessions.Resolve(ctx, tokens)
	return err == nil
}

// UpdateUserPlan sets the plan on userID's profile.
func (s *AuthService) UpdateUserPlan(ctx context.Context, userID string, plan domain.Plan) (*domain.User, error) {
	if _, err := domain.ParsePlan(string(plan)); err != nil {
		return nil, err
	}

	user, err := s.profiles.UpdatePlan(ctx, userID, plan)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUpdate, err)
	}

	s.log.Info().Str("user_id", userID).Str("plan", string(plan)).Msg("plan updated")
	return user, nil
}
