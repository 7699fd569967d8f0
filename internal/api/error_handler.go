package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/aiemr/emr-console/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps the auth sentinels to their HTTP status codes, keeping the two
//     guard denials (401 vs 403) distinguishable for the presentation layer.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	// Expected rejections map to deterministic HTTP codes. Messages are the
	// sentinels' own short, non-technical texts.
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, domain.ErrInvalidCredentials.Error()
	case errors.Is(err, domain.ErrNotAuthenticated):
		return http.StatusUnauthorized, domain.ErrNotAuthenticated.Error()
	case errors.Is(err, domain.ErrSessionExpired):
		return http.StatusUnauthorized, domain.ErrSessionExpired.Error()
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, domain.ErrForbidden.Error()
	case errors.Is(err, domain.ErrInvalidToken):
		return http.StatusUnprocessableEntity, domain.ErrInvalidToken.Error()
	case errors.Is(err, domain.ErrInvalidCode):
		return http.StatusUnprocessableEntity, domain.ErrInvalidCode.Error()
	case errors.Is(err, domain.ErrLoginSuperseded):
		return http.StatusConflict, domain.ErrLoginSuperseded.Error()
	}

	var te *domain.TransportError
	if errors.As(err, &te) {
		log.Warn().Err(te).Str("op", te.Op).Int("backend_status", te.Status).Msg("auth backend failure")
		return http.StatusBadGateway, "authentication service unavailable"
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
