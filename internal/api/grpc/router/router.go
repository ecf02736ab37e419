package router

import (
	"context"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/auth"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/selector"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/dtroode/gophauth-server/internal/api/grpc/handler"
	"github.com/dtroode/gophauth-server/internal/api/grpc/middleware"
	"github.com/dtroode/gophauth-server/internal/logger"
	"github.com/dtroode/gophauth-server/internal/metrics"
	"github.com/dtroode/gophauth-server/internal/model"
)

// AuthService is the auth service as used by the gRPC surface.
type AuthService interface {
	handler.AuthService
	middleware.Authenticator
}

// Router represents a gRPC router for gophauth operations.
// It manages gRPC service registration and middleware configuration.
type Router struct {
	authService    AuthService
	contextManager model.ContextManager
	health         *health.Server
	metrics        *metrics.Metrics
	logger         *logger.Logger
}

// New creates new gRPC Router instance.
//
// Parameters:
//   - authService: The authentication service
//   - contextManager: Carries the authenticated identifier through calls
//   - metrics: Request counters, may be nil
//   - logger: The logger for request logging
func New(
	authService AuthService,
	contextManager model.ContextManager,
	metrics *metrics.Metrics,
	logger *logger.Logger,
) *Router {
	return &Router{
		authService:    authService,
		contextManager: contextManager,
		health:         health.NewServer(),
		metrics:        metrics,
		logger:         logger,
	}
}

// authRequired selects the methods that need a valid bearer token.
func authRequired(_ context.Context, c interceptors.CallMeta) bool {
	return c.FullMethod() == handler.WhoAmIFullMethod
}

// Register registers all gRPC services and middleware.
// It sets up the gRPC server with request logging and authentication interceptors.
//
// Returns the configured gRPC server instance.
func (r *Router) Register() *grpc.Server {
	logging := middleware.NewLogging(r.logger, r.metrics)
	authenticate := middleware.NewAuthenticate(r.authService, r.contextManager, r.logger)

	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			logging.HandleGRPC,
			selector.UnaryServerInterceptor(
				auth.UnaryServerInterceptor(authenticate.AuthFunc),
				selector.MatchFunc(authRequired),
			),
		),
	)
	r.registerAuthRoutes(s)
	r.registerHealth(s)

	return s
}

// Shutdown marks every service as not serving so health checks fail while
// in-flight calls drain.
func (r *Router) Shutdown() {
	r.health.Shutdown()
}

func (r *Router) registerAuthRoutes(server *grpc.Server) {
	authHandler := handler.NewAuth(r.authService, r.contextManager, r.logger)
	server.RegisterService(&handler.AuthServiceDesc, authHandler)
}

func (r *Router) registerHealth(server *grpc.Server) {
	r.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	r.health.SetServingStatus(handler.AuthServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(server, r.health)
}
