package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/celanai/celan/internal/core/domain"
	"github.com/celanai/celan/internal/core/ports"
)

const (
	defaultAccessTTL  = time.Hour
	defaultRefreshTTL = 30 * 24 * time.Hour
)

// dummyHash is compared against when the email is unknown so that SignIn
// spends the same bcrypt work whether or not the identity exists.
var dummyHash = sync.OnceValue(func() []byte {
	h, err := bcrypt.GenerateFromPassword([]byte("celan-dummy-password"), bcrypt.DefaultCost)
	if err != nil {
		panic(fmt.Sprintf("generate dummy hash: %v", err))
	}
	return h
})

// SessionConfig holds token signing settings.
type SessionConfig struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// SessionService is the session store: identities live in an
// IdentityRepository, access tokens are stateless HS256 JWTs, and refresh
// tokens are opaque ids kept in a RefreshSessionRepository.
type SessionService struct {
	identities ports.IdentityRepository
	refresh    ports.RefreshSessionRepository
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
	compare    func(hash, password []byte) error
	log        zerolog.Logger
}

func NewSessionService(identities ports.IdentityRepository, refresh ports.RefreshSessionRepository, cfg SessionConfig, log zerolog.Logger) *SessionService {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = defaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = defaultRefreshTTL
	}
	return &SessionService{
		identities: identities,
		refresh:    refresh,
		secret:     []byte(cfg.Secret),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        time.Now,
		compare:    bcrypt.CompareHashAndPassword,
		log:        log,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp creates an identity and opens a session for it.
func (s *SessionService) SignUp(ctx context.Context, email, password string) (*domain.Identity, *domain.Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, nil, domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	identity, err := s.identities.Create(ctx, &domain.Identity{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		return nil, nil, err
	}

	session, err := s.issue(ctx, identity)
	if err != nil {
		return identity, nil, err
	}
	return identity, session, nil
}

// SignIn checks the password and opens a session. Unknown emails and wrong
// passwords both yield domain.ErrInvalidCredentials.
func (s *SessionService) SignIn(ctx context.Context, email, password string) (*domain.Identity, *domain.Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, nil, domain.ErrInvalidCredentials
	}

	identity, err := s.identities.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			_ = s.compare(dummyHash(), []byte(password))
			return nil, nil, domain.ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if s.compare([]byte(identity.PasswordHash), []byte(password)) != nil {
		return nil, nil, domain.ErrInvalidCredentials
	}

	session, err := s.issue(ctx, identity)
	if err != nil {
		return nil, nil, err
	}
	return identity, session, nil
}

// SignOut revokes the refresh token. An empty token is a no-op.
func (s *SessionService) SignOut(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if err := s.refresh.Delete(ctx, refreshToken); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// Resolve accepts a valid access token as is. When the access token is
// missing, expired, or otherwise unusable, a live refresh token mints a new
// one and slides the refresh expiry; the refresh token itself is kept.
func (s *SessionService) Resolve(ctx context.Context, tokens domain.Tokens) (*domain.Session, bool, error) {
	if tokens.Empty() {
		return nil, false, domain.ErrNoSession
	}

	if tokens.Access != "" {
		session, err := s.parseAccess(tokens.Access)
		if err == nil {
			session.RefreshToken = tokens.Refresh
			return session, false, nil
		}
		s.log.Debug().Err(err).Msg("access token rejected, trying refresh")
	}

	if tokens.Refresh == "" {
		return nil, false, domain.ErrSessionExpired
	}

	userID, err := s.refresh.Lookup(ctx, tokens.Refresh)
	if err != nil {
		return nil, false, err
	}

	identity, err := s.identities.FindByID(ctx, userID)
	if err != nil {
		return nil, false, fmt.Errorf("resolve session: %w", err)
	}

	if err := s.refresh.Save(ctx, tokens.Refresh, identity.ID, s.refreshTTL); err != nil {
		return nil, false, fmt.Errorf("extend session: %w", err)
	}

	access, expiresAt, err := s.signAccess(identity)
	if err != nil {
		return nil, false, err
	}

	return &domain.Session{
		UserID:       identity.ID,
		Email:        identity.Email,
		AccessToken:  access,
		RefreshToken: tokens.Refresh,
		ExpiresAt:    expiresAt,
	}, true, nil
}

// DeleteIdentity removes an identity. Used to undo a half-finished signup.
func (s *SessionService) DeleteIdentity(ctx context.Context, identityID string) error {
	return s.identities.Delete(ctx, identityID)
}

func (s *SessionService) issue(ctx context.Context, identity *domain.Identity) (*domain.Session, error) {
	access, expiresAt, err := s.signAccess(identity)
	if err != nil {
		return nil, err
	}

	refreshToken := uuid.NewString()
	if err := s.refresh.Save(ctx, refreshToken, identity.ID, s.refreshTTL); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	return &domain.Session{
		UserID:       identity.ID,
		Email:        identity.Email,
		AccessToken:  access,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *SessionService) signAccess(identity *domain.Identity) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.accessTTL)
	claims := jwt.MapClaims{
		"sub":   identity.ID,
		"email": identity.Email,
		"iat":   now.Unix(),
		"exp":   expiresAt.Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return signed, expiresAt, nil
}

func (s *SessionService) parseAccess(token string) (*domain.Session, error) {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, domain.ErrSessionExpired
	}

	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	if sub == "" {
		return nil, domain.ErrNoSession
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, domain.ErrSessionExpired
	}

	return &domain.Session{
		UserID:      sub,
		Email:       email,
		AccessToken: token,
		ExpiresAt:   exp.Time,
	}, nil
}
