package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/habitloop/signup-api/internal/auth"
	"github.com/habitloop/signup-api/internal/config"
	"github.com/habitloop/signup-api/internal/handler"
	middlewarepkg "github.com/habitloop/signup-api/internal/middleware"
)

// Handlers aggregates HTTP handlers used by the router. Auth and Users are
// optional: hosted data API deployments run without operator accounts.
type Handlers struct {
	Signup      *handler.SignupHandler
	SignupAdmin *handler.SignupAdminHandler
	Auth        *handler.AuthHandler
	Users       *handler.UserAdminHandler
}

// Register wires all HTTP routes for the API.
func Register(e *echo.Echo, cfg *config.Config, jwtManager *auth.JWTManager, handlers Handlers) {
	e.GET("/healthz", func(c echo.Context) error {
		return handler.Success(c, http.StatusOK, "service healthy", map[string]any{"status": "ok"})
	})

	e.POST("/signups", handlers.Signup.Submit, middlewarepkg.SignupRateLimiter(cfg.RateLimitSignup))

	if handlers.Auth != nil {
		e.POST("/auth/login", handlers.Auth.Login)
	}

	secured := e.Group("", middlewarepkg.JWT(jwtManager))

	admin := secured.Group("/admin", middlewarepkg.RequireRole("admin"))
	admin.GET("/signups", handlers.SignupAdmin.List)
	admin.GET("/signups/stats", handlers.SignupAdmin.Stats)
	admin.GET("/signups/export", handlers.SignupAdmin.ExportCSV)

	if handlers.Users != nil {
		admin.GET("/users", handlers.Users.List)
		admin.POST("/users", handlers.Users.Create)
		admin.PATCH("/users/:id", handlers.Users.Update)
		admin.DELETE("/users/:id", handlers.Users.Delete)
	}
}
