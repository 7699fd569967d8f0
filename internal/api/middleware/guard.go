package middleware

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/aiemr/emr-console/internal/api/metrics"
	"github.com/aiemr/emr-console/internal/core/domain"
	"github.com/aiemr/emr-console/internal/core/service"
)

// Protect gates a route behind the Guard with its declarative access rule.
// Denials propagate as the guard's sentinels so the central error handler
// renders 401 for unauthenticated callers and 403 for forbidden ones.
func Protect(guard *service.Guard, rule service.AccessRule) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := guard.CanAccess(c.Path(), rule)
			metrics.GuardDecisionsTotal.WithLabelValues(decisionLabel(err)).Inc()
			if err != nil {
				return err
			}
			return next(c)
		}
	}
}

func decisionLabel(err error) string {
	switch {
	case err == nil:
		return "allow"
	case errors.Is(err, domain.ErrNotAuthenticated):
		return "not_authenticated"
	default:
		return "forbidden"
	}
}
