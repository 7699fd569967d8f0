package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/aiemr/emr-console/internal/core/service"
)

type sectionResponse struct {
	Section string `json:"section"`
	Role    string `json:"role"`
}

// Section serves a protected console section. The real content is rendered
// client-side; the gateway's job ends at the access decision, so the
// response just confirms which section was granted and as whom.
func Section(name string, store *service.SessionStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		session := store.Snapshot()
		return c.JSON(http.StatusOK, sectionResponse{
			Section: name,
			Role:    string(session.Role),
		})
	}
}
