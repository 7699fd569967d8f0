package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/aiemr/emr-console/internal/core/domain"
)

func render(t *testing.T, err error) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	NewHTTPErrorHandler(zerolog.Nop())(err, c)
	return rec
}

func TestErrorHandler_SentinelMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{domain.ErrInvalidInput, http.StatusBadRequest},
		{domain.ErrInvalidCredentials, http.StatusUnauthorized},
		{domain.ErrNotAuthenticated, http.StatusUnauthorized},
		{domain.ErrSessionExpired, http.StatusUnauthorized},
		{domain.ErrForbidden, http.StatusForbidden},
		{domain.ErrInvalidToken, http.StatusUnprocessableEntity},
		{domain.ErrInvalidCode, http.StatusUnprocessableEntity},
		{domain.ErrLoginSuperseded, http.StatusConflict},
		{&domain.TransportError{Op: "login", Status: 503}, http.StatusBadGateway},
		{errors.New("something internal"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		rec := render(t, tc.err)
		if rec.Code != tc.code {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.code, rec.Code)
		}
	}
}

func TestErrorHandler_DistinguishesGuardDenials(t *testing.T) {
	notAuthed := render(t, domain.ErrNotAuthenticated)
	forbidden := render(t, domain.ErrForbidden)

	if notAuthed.Code == forbidden.Code {
		t.Fatalf("the two guard denials must stay distinguishable: %d vs %d", notAuthed.Code, forbidden.Code)
	}
}

func TestErrorHandler_InternalErrorsNotLeaked(t *testing.T) {
	rec := render(t, errors.New("pq: connection reset by peer"))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if body := rec.Body.String(); body == "" || body != "{\"error\":\"internal server error\"}\n" {
		t.Fatalf("internal detail leaked to the client: %s", body)
	}
}

func TestErrorHandler_WrappedSentinel(t *testing.T) {
	wrapped := errors.Join(errors.New("context"), domain.ErrInvalidInput)
	rec := render(t, wrapped)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("wrapped sentinel lost its mapping: %d", rec.Code)
	}
}
