package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/aiemr/emr-console/internal/api/metrics"
	"github.com/aiemr/emr-console/internal/core/domain"
	"github.com/aiemr/emr-console/internal/core/service"
)

// RequireSession ensures the request carries the current session's token.
// The gateway holds exactly one session; the UI echoes its token back as a
// bearer credential so a stale tab cannot act against a replaced session.
//
// When the token is a JWT whose expiry has passed, the session is cleared
// proactively; a dead token must never read as allowed downstream.
func RequireSession(store *service.SessionStore, jwtSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !store.Authenticated() {
				return domain.ErrNotAuthenticated
			}

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			session := store.Snapshot()
			if parts[1] != session.Token {
				return domain.ErrNotAuthenticated
			}

			if tokenExpired(session.Token, jwtSecret) {
				store.Expire(c.Request().Context())
				metrics.SessionExpiriesTotal.Inc()
				return domain.ErrSessionExpired
			}

			return next(c)
		}
	}
}

// tokenExpired reports whether tok is a JWT past its expiry. Opaque tokens
// from a real backend do not parse and are left to the backend to judge, so
// only jwt.ErrTokenExpired counts.
func tokenExpired(tok, secret string) bool {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tok, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(secret), nil
	})
	return errors.Is(err, jwt.ErrTokenExpired)
}
