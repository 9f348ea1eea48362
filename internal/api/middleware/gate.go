package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/celanai/celan/internal/api/metrics"
	"github.com/celanai/celan/internal/core/domain"
)

// SessionResolver validates cookie tokens, refreshing them when needed.
type SessionResolver interface {
	Resolve(ctx context.Context, tokens domain.Tokens) (*domain.Session, bool, error)
}

type Decision int

const (
	Continue Decision = iota
	RedirectLogin
	RedirectDashboard
)

func (d Decision) String() string {
	switch d {
	case RedirectLogin:
		return "redirect_login"
	case RedirectDashboard:
		return "redirect_dashboard"
	default:
		return "continue"
	}
}

// DefaultExcluded are never gated.
var DefaultExcluded = []string{"/api", "/static", "/health", "/metrics", "/swagger", "/favicon.ico", "/icon.svg"}

type GateConfig struct {
	Protected []string
	Auth      []string
	Excluded  []string
}

// Decide maps a path and login state to a gate action.
func (g GateConfig) Decide(path string, authenticated bool) Decision {
	if g.IsExcluded(path) {
		return Continue
	}
	if !authenticated && matchAny(g.Protected, path) {
		return RedirectLogin
	}
	if authenticated && matchAny(g.Auth, path) {
		return RedirectDashboard
	}
	return Continue
}

// IsExcluded reports whether path bypasses the gate entirely. A nil
// Excluded list means DefaultExcluded.
func (g GateConfig) IsExcluded(path string) bool {
	if g.Excluded == nil {
		return matchAny(DefaultExcluded, path)
	}
	return matchAny(g.Excluded, path)
}

// matchedPrefix returns the configured prefix that path falls under, or path
// itself when none does.
func matchedPrefix(prefixes []string, path string) string {
	for _, p := range prefixes {
		p = strings.TrimRight(p, "/")
		if p != "" && matchAny([]string{p}, path) {
			return p
		}
	}
	return path
}

// matchAny is segment aware: "/app" matches "/app" and "/app/x" but not
// "/application".
func matchAny(prefixes []string, path string) bool {
	for _, p := range prefixes {
		p = strings.TrimRight(p, "/")
		if p == "" {
			continue
		}
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

// SessionGate resolves the session for every page request, writes refreshed
// cookies back, and redirects according to Decide. Resolver failures count as
// logged out.
func SessionGate(cfg GateConfig, resolver SessionResolver, cookies *Cookies, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			if cfg.IsExcluded(path) {
				return next(c)
			}

			var session *domain.Session
			if tokens := cookies.Read(c); !tokens.Empty() {
				s, refreshed, err := resolver.Resolve(c.Request().Context(), tokens)
				switch {
				case err == nil:
					session = s
					if refreshed {
						cookies.Write(c, s)
					}
					c.Set(sessionKey, s)
				case errors.Is(err, domain.ErrNoSession), errors.Is(err, domain.ErrSessionExpired):
					log.Debug().Str("path", path).Msg("stale session cookies")
				default:
					log.Warn().Err(err).Str("path", path).Msg("session resolve failed")
				}
			}

			decision := cfg.Decide(path, session != nil)
			metrics.GateDecisionsTotal.WithLabelValues(decision.String()).Inc()

			// Form posts are answered with 303 so the browser follows up with
			// a GET, and the login target is the page owning the form.
			status, target := http.StatusTemporaryRedirect, path
			if m := c.Request().Method; m != http.MethodGet && m != http.MethodHead {
				status, target = http.StatusSeeOther, matchedPrefix(cfg.Protected, path)
			}

			switch decision {
			case RedirectLogin:
				q := url.Values{"redirect": {target}}
				return c.Redirect(status, "/login?"+q.Encode())
			case RedirectDashboard:
				return c.Redirect(status, "/dashboard")
			}
			return next(c)
		}
	}
}
