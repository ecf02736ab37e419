package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"google.golang.org/grpc/reflection"

	apiContext "github.com/dtroode/gophauth-server/internal/api/context"
	grpcRouter "github.com/dtroode/gophauth-server/internal/api/grpc/router"
	grpcServer "github.com/dtroode/gophauth-server/internal/api/grpc/server"
	httpRouter "github.com/dtroode/gophauth-server/internal/api/http/router"
	httpServer "github.com/dtroode/gophauth-server/internal/api/http/server"
	"github.com/dtroode/gophauth-server/internal/config"
	"github.com/dtroode/gophauth-server/internal/logger"
	"github.com/dtroode/gophauth-server/internal/metrics"
	"github.com/dtroode/gophauth-server/internal/model"
	"github.com/dtroode/gophauth-server/internal/server"
)

const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP (and optionally gRPC) auth server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
			defer stop()

			cfg, lg, err := loadConfig()
			if err != nil {
				return err
			}
			return runServe(ctx, cfg, lg)
		},
	}
}

type listener struct {
	server   model.Server
	security model.SecurityLayer
}

func runServe(ctx context.Context, cfg *config.Config, lg *logger.Logger) error {
	registry, m := metrics.NewRegistry()

	d, err := buildDeps(ctx, cfg, lg, m)
	if err != nil {
		lg.LogError("failed to initialize dependencies", err)
		return err
	}
	defer func() {
		if err := d.Close(); err != nil {
			lg.Error("failed to close connections", "error", err)
		}
	}()

	ctxMgr := apiContext.NewManager()

	if cfg.LogLevel > int(slog.LevelDebug) {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := httpRouter.New(d.auth, ctxMgr, d.pingers, registry, cfg.HTTP.CORSAllowedOrigins, m, lg).Register()

	servers := []listener{{
		server:   httpServer.NewHTTPServer(engine, fmt.Sprintf(":%s", cfg.HTTP.Port)),
		security: server.NewSecurityLayer(cfg.HTTP.EnableHTTPS, cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName),
	}}

	var grpcR *grpcRouter.Router
	if cfg.GRPC.Enabled {
		grpcR = grpcRouter.New(d.auth, ctxMgr, m, lg)
		s := grpcR.Register()
		reflection.Register(s)
		servers = append(servers, listener{
			server:   grpcServer.NewGRPCServer(s, fmt.Sprintf(":%s", cfg.GRPC.Port)),
			security: server.NewSecurityLayer(cfg.GRPC.EnableHTTPS, cfg.GRPC.CertFileName, cfg.GRPC.PrivateKeyFileName),
		})
	}

	purgeCtx, stopPurge := context.WithCancel(ctx)
	defer stopPurge()
	var wg sync.WaitGroup
	if cfg.Session.PurgeInterval > 0 && cfg.Session.Backend != config.BackendRedis {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.tokens.RunPurge(purgeCtx, cfg.Session.PurgeInterval)
		}()
	}

	errCh := make(chan error, len(servers))
	for _, l := range servers {
		wg.Add(1)
		go func(l listener) {
			defer wg.Done()
			lg.Info("Starting server on", "address", l.server.Address())
			if err := l.server.Start(l.security); err != nil {
				lg.Error("failed to start server", "error", err, "address", l.server.Address())
				errCh <- err
			}
		}(l)
	}

	logAppVersion(lg)

	var runErr error
	select {
	case <-ctx.Done():
		lg.Info("received interruption signal, shutting down")
	case runErr = <-errCh:
		lg.Info("server failed, shutting down")
	}

	if grpcR != nil {
		grpcR.Shutdown()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	for _, l := range servers {
		if err := l.server.Stop(shutdownCtx); err != nil {
			lg.Error("error during server shutdown", "error", err, "address", l.server.Address())
		}
	}
	stopPurge()

	wg.Wait()
	lg.Info("shutdown complete")
	return runErr
}

func logAppVersion(lg *logger.Logger) {
	lg.Info("gophauth server",
		"version", buildVersion,
		"date", buildDate,
		"commit", buildCommit)
}
