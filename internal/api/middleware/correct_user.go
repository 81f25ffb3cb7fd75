package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/messagely/messagely-api/internal/api/metrics"
	"github.com/messagely/messagely-api/internal/core/domain"
	"github.com/messagely/messagely-api/internal/core/policy"
)

// CorrectUser only lets a caller through when the authenticated username
// matches the :username path parameter. It must run after Auth.
func CorrectUser() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity, _ := c.Get("username").(string)
			if !policy.CanViewMailbox(identity, c.Param("username")) {
				metrics.PolicyDenialsTotal.WithLabelValues(metrics.ActionViewMailbox).Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "cannot access another user's data").
					SetInternal(domain.ErrUnauthorized)
			}
			return next(c)
		}
	}
}
