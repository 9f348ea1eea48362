package handler

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
)

const flashCookie = "celan_flash"

type flashKind string

const (
	flashSuccess flashKind = "success"
	flashError   flashKind = "error"
)

// setFlash stores a one-shot message for the page the browser is redirected to.
func setFlash(c echo.Context, kind flashKind, msg string) {
	c.SetCookie(&http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(string(kind) + ":" + msg),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash reads and clears the pending message.
func popFlash(c echo.Context) (kind flashKind, msg string) {
	ck, err := c.Cookie(flashCookie)
	if err != nil || ck.Value == "" {
		return "", ""
	}
	c.SetCookie(&http.Cookie{Name: flashCookie, Path: "/", MaxAge: -1, HttpOnly: true, SameSite: http.SameSiteLaxMode})

	raw, err := url.QueryUnescape(ck.Value)
	if err != nil {
		return "", ""
	}
	k, m, ok := strings.Cut(raw, ":")
	if !ok {
		return "", ""
	}
	switch flashKind(k) {
	case flashSuccess, flashError:
		return flashKind(k), m
	}
	return "", ""
}

// safeRedirect accepts only local absolute paths. Anything else, including
// protocol-relative and backslash forms, yields fallback.
func safeRedirect(target, fallback string) string {
	if target == "" || !strings.HasPrefix(target, "/") ||
		strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return fallback
	}
	u, err := url.Parse(target)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return fallback
	}
	return target
}
