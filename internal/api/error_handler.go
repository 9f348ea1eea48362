package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/celanai/celan/internal/core/domain"
	"github.com/celanai/celan/internal/web"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders the JSON envelope {"error": "<message>"} for /api routes and
//     JSON clients, and the error page for browser routes.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		if wantsHTML(c) {
			view := web.ErrorView{Base: web.Base{Title: http.StatusText(code)}, Status: code, Message: msg}
			rerr := c.Render(code, web.PageError, view)
			if rerr == nil {
				return
			}
			log.Error().Err(rerr).Msg("render error page")
		}
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

// wantsHTML reports whether the failed request came from a page route and
// the client did not ask for JSON.
func wantsHTML(c echo.Context) bool {
	if c.Echo().Renderer == nil {
		return false
	}
	path := c.Request().URL.Path
	if path == "/api" || strings.HasPrefix(path, "/api/") {
		return false
	}
	return !strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON)
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrAgentNotFound):
		return http.StatusNotFound, "agent not found"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid email or password"
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusConflict, "user already exists"
	case errors.Is(err, domain.ErrEmptyAgentName),
		errors.Is(err, domain.ErrInvalidAgentType),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrInvalidPlan),
		errors.Is(err, domain.ErrEmptyName):
		return http.StatusBadRequest, err.Error()
	}

	// Failures with a public message; the cause is still logged.
	for _, public := range []error{domain.ErrAuth, domain.ErrProfile, domain.ErrLogout, domain.ErrUpdate, domain.ErrCreate} {
		if errors.Is(err, public) {
			logUnhandled(log, c, err)
			return http.StatusInternalServerError, public.Error()
		}
	}

	// Unexpected error: log the real cause, return a generic message.
	logUnhandled(log, c, err)
	return http.StatusInternalServerError, "internal server error"
}

func logUnhandled(log zerolog.Logger, c echo.Context, err error) {
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")
}
