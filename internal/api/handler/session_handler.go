package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/aiemr/emr-console/internal/core/domain"
	"github.com/aiemr/emr-console/internal/core/service"
)

// SessionHandler exposes read access to the current session state.
type SessionHandler struct {
	store *service.SessionStore
}

func NewSessionHandler(store *service.SessionStore) *SessionHandler {
	return &SessionHandler{store: store}
}

// Current returns the session snapshot the UI renders from.
//
// @Summary      Current session
// @Tags         session
// @Produce      json
// @Success      200  {object}  domain.Session
// @Router       /session [get]
func (h *SessionHandler) Current(c echo.Context) error {
	return c.JSON(http.StatusOK, h.store.Snapshot())
}

type permissionCheckResponse struct {
	Permission string `json:"permission"`
	Granted    bool   `json:"granted"`
}

// HasPermission answers a single capability membership test. False whenever
// no session is established.
//
// @Summary      Check a permission
// @Tags         session
// @Produce      json
// @Param        tag  path      string  true  "Permission tag"
// @Success      200  {object}  permissionCheckResponse
// @Router       /session/permissions/{tag} [get]
func (h *SessionHandler) HasPermission(c echo.Context) error {
	tag := c.Param("tag")
	return c.JSON(http.StatusOK, permissionCheckResponse{
		Permission: tag,
		Granted:    h.store.HasPermission(domain.Permission(tag)),
	})
}

type roleCheckResponse struct {
	Role string `json:"role"`
	Held bool   `json:"held"`
}

// HasRole answers an exact role equality test. False whenever no session is
// established.
//
// @Summary      Check a role
// @Tags         session
// @Produce      json
// @Param        role  path      string  true  "Role name"
// @Success      200   {object}  roleCheckResponse
// @Router       /session/roles/{role} [get]
func (h *SessionHandler) HasRole(c echo.Context) error {
	role := c.Param("role")
	return c.JSON(http.StatusOK, roleCheckResponse{
		Role: role,
		Held: h.store.HasRole(domain.Role(role)),
	})
}
