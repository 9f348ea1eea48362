package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireSession guards JSON routes with the session cookies and injects the
// session into context. Refreshed tokens are written back like the gate does.
func RequireSession(resolver SessionResolver, cookies *Cookies) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokens := cookies.Read(c)
			if tokens.Empty() {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}

			session, refreshed, err := resolver.Resolve(c.Request().Context(), tokens)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid session")
			}
			if refreshed {
				cookies.Write(c, session)
			}

			c.Set(sessionKey, session)
			return next(c)
		}
	}
}
