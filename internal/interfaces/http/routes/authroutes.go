package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/blink-inc/blink/internal/interfaces/http/handlers"
	"github.com/blink-inc/blink/internal/interfaces/http/middleware"
	"github.com/blink-inc/blink/internal/shared/authorization"
)

// AuthRouteConfig holds dependencies for authentication routes.
type AuthRouteConfig struct {
	PasskeyHandler       *handlers.PasskeyHandler
	PasswordHandler      *handlers.PasswordHandler
	AuthorizationHandler *handlers.AuthorizationHandler
	AuthMiddleware       *middleware.AuthMiddleware
	// RateLimit guards the unauthenticated ceremony and login endpoints. Nil disables it.
	RateLimit gin.HandlerFunc
}

// SetupAuthRoutes configures authentication routes.
func SetupAuthRoutes(engine *gin.Engine, cfg *AuthRouteConfig) {
	limit := cfg.RateLimit
	if limit == nil {
		limit = func(c *gin.Context) { c.Next() }
	}
	requireUser := []gin.HandlerFunc{
		cfg.AuthMiddleware.RequireAuth(),
		authorization.RequireScope(authorization.ScopeUser),
	}
	withUser := func(h gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, requireUser...), h)
	}

	auth := engine.Group("/api/auth")

	passkey := auth.Group("/passkey")
	{
		passkey.GET("/register-option", withUser(cfg.PasskeyHandler.RegisterOption)...)
		passkey.POST("/register", withUser(cfg.PasskeyHandler.Register)...)
		passkey.GET("/auth-option", limit, cfg.PasskeyHandler.AuthOption)
		passkey.POST("/login", limit, cfg.PasskeyHandler.Login)

		passkey.GET("", withUser(cfg.PasskeyHandler.List)...)
		passkey.PATCH("/:sid", withUser(cfg.PasskeyHandler.Rename)...)
		passkey.DELETE("/:sid", withUser(cfg.PasskeyHandler.Delete)...)

		passkey.GET("/aaguid/:theme/:aaguid", cfg.PasskeyHandler.AuthenticatorIcon)
	}

	password := auth.Group("/password")
	{
		password.POST("/register", limit, cfg.PasswordHandler.Register)
		password.POST("/login", limit, cfg.PasswordHandler.Login)
		password.PUT("", withUser(cfg.PasswordHandler.ChangePassword)...)
	}

	auth.POST("/authorization", cfg.AuthorizationHandler.Authorize)
}
