package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/webinar-system/internal/api/middleware"
	"github.com/99minutos/webinar-system/internal/core/domain"
)

// ctxUser returns the caller identity injected by the Identity middleware.
// A missing user id means the middleware did not run; reject with 401
// before any service call.
func ctxUser(c echo.Context) (domain.User, error) {
	id, _ := c.Get(middleware.ContextUserID).(string)
	if id == "" {
		return domain.User{}, echo.NewHTTPError(http.StatusUnauthorized, "missing caller identity")
	}
	email, _ := c.Get(middleware.ContextUserEmail).(string)
	return domain.User{ID: id, Email: email}, nil
}
