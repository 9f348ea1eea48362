package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/celanai/celan/internal/api/middleware"
	"github.com/celanai/celan/internal/core/domain"
)

// ctxSession returns the session injected by RequireSession. A missing
// session means the route was mounted without the middleware; reject with
// 401 rather than act for nobody.
func ctxSession(c echo.Context) (*domain.Session, error) {
	s := middleware.SessionFrom(c)
	if s == nil || s.UserID == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return s, nil
}

// bindAndValidate decodes the JSON body and runs the struct validator.
// Malformed JSON is a 400, failed validation a 422. Requests that trim their
// own fields do so before validation.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if n, ok := req.(interface{ normalize() }); ok {
		n.normalize()
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return nil
}
