package http

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/blink-inc/blink/internal/interfaces/http/middleware"
	"github.com/blink-inc/blink/internal/interfaces/http/routes"
	"github.com/blink-inc/blink/internal/shared/constants"
)

// Router owns the gin engine and the route table.
type Router struct {
	engine    *gin.Engine
	container *Container
}

func NewRouter(c *Container) *Router {
	gin.SetMode(ginMode(c.cfg.Server.Mode))
	return &Router{
		engine:    gin.New(),
		container: c,
	}
}

// SetupRoutes configures all HTTP routes
func (r *Router) SetupRoutes() {
	c := r.container
	log := c.log.Named("http")

	r.engine.Use(middleware.RequestID())
	r.engine.Use(middleware.CustomLogger(log))
	r.engine.Use(middleware.Recovery(log))
	r.engine.Use(middleware.Metrics())
	r.engine.Use(middleware.SecurityHeaders())
	r.engine.Use(middleware.CORS(append(slices.Clone(c.cfg.WebAuthn.RPOrigins), c.cfg.Server.AllowedOrigins...)))
	r.engine.Use(middleware.ErrorHandler(log))

	r.engine.GET("/health", c.healthHandler.Health)
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	var limit gin.HandlerFunc
	if c.rateLimiter != nil {
		limit = middleware.RateLimit(c.rateLimiter, log)
	}

	routes.SetupAuthRoutes(r.engine, &routes.AuthRouteConfig{
		PasskeyHandler:       c.passkeyHandler,
		PasswordHandler:      c.passwordHandler,
		AuthorizationHandler: c.authorizationHandler,
		AuthMiddleware:       c.authMiddleware,
		RateLimit:            limit,
	})
}

// Handler returns the engine as an http.Handler.
func (r *Router) Handler() http.Handler {
	return r.engine
}

func ginMode(mode string) string {
	switch mode {
	case constants.EnvProduction, gin.ReleaseMode:
		return gin.ReleaseMode
	case gin.TestMode:
		return gin.TestMode
	default:
		return gin.DebugMode
	}
}
