package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/celanai/celan/internal/core/domain"
)

const (
	AccessCookie  = "celan_access_token"
	RefreshCookie = "celan_refresh_token"
)

// Cookies reads and writes the two session cookies.
type Cookies struct {
	Secure bool
	MaxAge time.Duration
}

func (k *Cookies) Read(c echo.Context) domain.Tokens {
	var t domain.Tokens
	if ck, err := c.Cookie(AccessCookie); err == nil {
		t.Access = ck.Value
	}
	if ck, err := c.Cookie(RefreshCookie); err == nil {
		t.Refresh = ck.Value
	}
	return t
}

func (k *Cookies) Write(c echo.Context, s *domain.Session) {
	c.SetCookie(k.cookie(AccessCookie, s.AccessToken, int(k.MaxAge.Seconds())))
	c.SetCookie(k.cookie(RefreshCookie, s.RefreshToken, int(k.MaxAge.Seconds())))
}

func (k *Cookies) Clear(c echo.Context) {
	c.SetCookie(k.cookie(AccessCookie, "", -1))
	c.SetCookie(k.cookie(RefreshCookie, "", -1))
}

func (k *Cookies) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   k.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

const sessionKey = "session"

// SessionFrom returns the session stored by SessionGate or RequireSession.
func SessionFrom(c echo.Context) *domain.Session {
	s, _ := c.Get(sessionKey).(*domain.Session)
	return s
}
