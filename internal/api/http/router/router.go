package router

import (
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apiErrors "github.com/dtroode/gophauth-server/internal/api/errors"
	"github.com/dtroode/gophauth-server/internal/api/http/handler"
	"github.com/dtroode/gophauth-server/internal/api/http/middleware"
	"github.com/dtroode/gophauth-server/internal/logger"
	"github.com/dtroode/gophauth-server/internal/metrics"
	"github.com/dtroode/gophauth-server/internal/model"
)

// AuthService is the auth service as used by the HTTP surface.
type AuthService interface {
	handler.AuthService
	middleware.Authenticator
}

// Router represents the HTTP router.
// It wires handlers, middleware and the operational endpoints.
type Router struct {
	authService    AuthService
	contextManager model.ContextManager
	pingers        map[string]model.Pinger
	gatherer       prometheus.Gatherer
	allowedOrigins []string
	metrics        *metrics.Metrics
	logger         *logger.Logger
}

// New creates new HTTP Router instance.
//
// Parameters:
//   - authService: The authentication service
//   - contextManager: Carries the authenticated identifier through requests
//   - pingers: Stores checked by the readiness probe, by name
//   - gatherer: Source of the /metrics endpoint, nil disables it
//   - allowedOrigins: CORS origins, "*" allows any
//   - metrics: Request counters, may be nil
//   - logger: The logger for request logging
func New(
	authService AuthService,
	contextManager model.ContextManager,
	pingers map[string]model.Pinger,
	gatherer prometheus.Gatherer,
	allowedOrigins []string,
	metrics *metrics.Metrics,
	logger *logger.Logger,
) *Router {
	return &Router{
		authService:    authService,
		contextManager: contextManager,
		pingers:        pingers,
		gatherer:       gatherer,
		allowedOrigins: allowedOrigins,
		metrics:        metrics,
		logger:         logger,
	}
}

// Register builds the gin engine with all routes and middleware.
func (r *Router) Register() *gin.Engine {
	engine := gin.New()
	engine.HandleMethodNotAllowed = true

	engine.Use(
		middleware.NewLogging(r.logger, r.metrics).Handle(),
		gin.CustomRecovery(r.recover),
		cors.New(r.corsConfig()),
	)

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, handler.MessageResponse{Msg: "not found"})
	})
	engine.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, handler.MessageResponse{Msg: "method not allowed"})
	})

	r.registerAuthRoutes(engine.Group("/auth"))
	r.registerAuthRoutes(engine.Group("/api/auth"))
	r.registerOperationalRoutes(engine)

	return engine
}

func (r *Router) registerAuthRoutes(group *gin.RouterGroup) {
	authHandler := handler.NewAuth(r.authService, r.contextManager, r.logger)
	authenticate := middleware.NewAuthenticate(r.authService, r.contextManager, r.logger).Handle()

	group.POST("/register", authHandler.Register)
	group.POST("/login", authHandler.Login)
	group.POST("/logout", authHandler.Logout)

	protected := group.Group("", authenticate)
	protected.POST("/logout/all", authHandler.LogoutAll)
	protected.GET("/me", authHandler.Me)
}

func (r *Router) registerOperationalRoutes(engine *gin.Engine) {
	health := handler.NewHealth(r.pingers, r.logger)
	engine.GET("/healthz", health.Live)
	engine.GET("/readyz", health.Ready)

	if r.gatherer != nil {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})))
	}
}

func (r *Router) corsConfig() cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders: []string{middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(r.allowedOrigins) == 0 || slices.Contains(r.allowedOrigins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = r.allowedOrigins
	}
	return cfg
}

func (r *Router) recover(c *gin.Context, recovered any) {
	r.logger.Error("HTTP router: panic recovered",
		"path", c.Request.URL.Path,
		"panic", recovered)
	c.AbortWithStatusJSON(http.StatusInternalServerError, apiErrors.NewResponse(fmt.Errorf("panic: %v", recovered)))
}
