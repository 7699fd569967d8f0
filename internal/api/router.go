package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/aiemr/emr-console/internal/api/handler"
	"github.com/aiemr/emr-console/internal/api/middleware"
	"github.com/aiemr/emr-console/internal/core/domain"
	"github.com/aiemr/emr-console/internal/core/service"
)

// consoleSection pairs a protected console route with its declarative
// access rule. This table is the single source of truth for the
// authorization policy; nothing else compares roles or permissions.
type consoleSection struct {
	Path string
	Name string
	Rule service.AccessRule
}

// consoleSections mirrors the product's navigation. Roles are any-of; an
// empty rule means any authenticated operator.
var consoleSections = []consoleSection{
	{Path: "/dashboard", Name: "dashboard"},
	{Path: "/appointments", Name: "appointments"},
	{Path: "/staff", Name: "staff", Rule: service.AccessRule{
		Roles: []domain.Role{domain.RoleAdmin},
	}},
	{Path: "/organization-settings", Name: "organization-settings", Rule: service.AccessRule{
		Roles: []domain.Role{domain.RoleAdmin},
	}},
	{Path: "/system-settings", Name: "system-settings", Rule: service.AccessRule{
		Roles:       []domain.Role{domain.RoleAdmin},
		Permissions: []domain.Permission{"manage_system"},
	}},
	{Path: "/analytics", Name: "analytics", Rule: service.AccessRule{
		Roles:       []domain.Role{domain.RoleAdmin},
		Permissions: []domain.Permission{"view_analytics"},
	}},
	{Path: "/records", Name: "records", Rule: service.AccessRule{
		Roles: []domain.Role{domain.RoleDoctor, domain.RoleAdmin},
	}},
	{Path: "/patients", Name: "patients", Rule: service.AccessRule{
		Roles: []domain.Role{domain.RoleDoctor, domain.RoleNurse, domain.RoleAdmin},
	}},
	{Path: "/laboratory", Name: "laboratory", Rule: service.AccessRule{
		Roles: []domain.Role{domain.RoleDoctor, domain.RoleNurse, domain.RoleAdmin},
	}},
	{Path: "/pharmacy", Name: "pharmacy", Rule: service.AccessRule{
		Roles: []domain.Role{domain.RoleDoctor, domain.RolePharmacist, domain.RoleAdmin},
	}},
}

// Deps carries everything the router wires together.
type Deps struct {
	Store     *service.SessionStore
	Auth      *service.Authenticator
	Guard     *service.Guard
	JWTSecret string
	Mongo     *mongo.Database // nil when running against a real backend
	Redis     *redis.Client
	Log       zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddleware("emr_console"))

	// --- Auth routes (no session required) ---
	authHandler := handler.NewAuthHandler(deps.Store, deps.Auth)
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/logout", authHandler.Logout)
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/forgot-password", authHandler.ForgotPassword)
	e.POST("/auth/reset-password", authHandler.ResetPassword)
	e.POST("/auth/verify-email", authHandler.VerifyEmail)
	e.POST("/auth/resend-verification", authHandler.ResendVerification)

	// --- Session state (readable without a session: the UI decides what
	// to render from the authenticated flag) ---
	sessionHandler := handler.NewSessionHandler(deps.Store)
	e.GET("/session", sessionHandler.Current)
	e.GET("/session/permissions/:tag", sessionHandler.HasPermission)
	e.GET("/session/roles/:role", sessionHandler.HasRole)

	// --- Protected console sections ---
	requireSession := middleware.RequireSession(deps.Store, deps.JWTSecret)
	for _, section := range consoleSections {
		e.GET(section.Path, handler.Section(section.Name, deps.Store),
			requireSession, middleware.Protect(deps.Guard, section.Rule))
	}

	// --- Health probes and metrics ---
	e.GET("/health", handler.NewHealthHandler().Liveness)
	e.GET("/health/ready", handler.NewReadinessHandler(deps.Mongo, deps.Redis).Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
