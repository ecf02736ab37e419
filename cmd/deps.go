package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/oops"

	"github.com/dtroode/gophauth-server/internal/config"
	"github.com/dtroode/gophauth-server/internal/logger"
	"github.com/dtroode/gophauth-server/internal/metrics"
	"github.com/dtroode/gophauth-server/internal/model"
	"github.com/dtroode/gophauth-server/internal/password"
	"github.com/dtroode/gophauth-server/internal/repository/memory"
	"github.com/dtroode/gophauth-server/internal/repository/postgres"
	"github.com/dtroode/gophauth-server/internal/repository/redis"
	"github.com/dtroode/gophauth-server/internal/service"
	"github.com/dtroode/gophauth-server/internal/token"
)

// redisRetention keeps expired sessions readable for a while so that they
// are reported as expired rather than unknown.
const redisRetention = time.Hour

// deps holds the wired stores and services of one process.
type deps struct {
	accounts model.AccountStore
	sessions model.SessionStore
	pingers  map[string]model.Pinger
	tokens   *service.TokenService
	auth     *service.Auth
	closers  []func() error
}

// Close releases every connection opened by buildDeps.
func (d *deps) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		errs = append(errs, d.closers[i]())
	}
	return errors.Join(errs...)
}

// buildDeps connects the configured backends and builds the services on top.
func buildDeps(ctx context.Context, cfg *config.Config, lg *logger.Logger, m *metrics.Metrics) (*deps, error) {
	d := &deps{pingers: map[string]model.Pinger{}}

	if err := d.connectStores(ctx, cfg, lg); err != nil {
		_ = d.Close()
		return nil, err
	}

	hasher, err := buildHasher(cfg.Hash, lg)
	if err != nil {
		_ = d.Close()
		return nil, err
	}

	codec, err := buildCodec(cfg.Session)
	if err != nil {
		_ = d.Close()
		return nil, err
	}

	d.tokens = service.NewTokenService(codec, d.sessions, service.TokenSettings{
		TTL:                cfg.Session.TTL(),
		ClockSkewTolerance: cfg.Session.ClockSkewTolerance(),
	}, lg, m)

	d.auth, err = service.NewAuth(ctx, d.accounts, hasher, d.tokens, cfg.OperationTimeout, lg, m)
	if err != nil {
		_ = d.Close()
		return nil, err
	}

	return d, nil
}

func (d *deps) connectStores(ctx context.Context, cfg *config.Config, lg *logger.Logger) error {
	var pg *postgres.Connection
	if cfg.StoreBackend == config.BackendPostgres || cfg.Session.Backend == config.BackendPostgres {
		conn, err := postgres.NewConnection(ctx, cfg.Database.ConnectionURI, lg)
		if err != nil {
			return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to postgres").Wrap(err)
		}
		d.closers = append(d.closers, conn.Close)
		d.pingers["postgres"] = conn
		pg = conn
	}

	switch cfg.StoreBackend {
	case config.BackendPostgres:
		d.accounts = postgres.NewAccountRepository(pg)
	default:
		accounts := memory.NewAccountRepository()
		d.accounts = accounts
		d.pingers["accounts"] = accounts
	}

	switch cfg.Session.Backend {
	case config.BackendPostgres:
		d.sessions = postgres.NewSessionRepository(pg)
	case config.BackendRedis:
		rdb, err := redis.NewClient(ctx, cfg.Redis.URL, lg)
		if err != nil {
			return oops.Code("REDIS_CONNECT_FAILED").With("operation", "connect to redis").Wrap(err)
		}
		d.closers = append(d.closers, rdb.Close)
		sessions := redis.NewSessionRepository(rdb, cfg.Session.ClockSkewTolerance()+redisRetention)
		d.sessions = sessions
		d.pingers["redis"] = sessions
	default:
		sessions := memory.NewSessionRepository()
		d.sessions = sessions
		d.pingers["sessions"] = sessions
	}

	return nil
}

// buildHasher returns the worker pool hashing with the configured algorithm.
// Verifiers of the other supported algorithm still compare.
func buildHasher(cfg config.Hash, lg *logger.Logger) (*password.Pool, error) {
	params := password.Params{
		Cost:        cfg.Cost,
		MemoryKiB:   cfg.MemoryKiB,
		Parallelism: cfg.Parallelism,
	}
	primary, err := password.New(cfg.Algorithm, params)
	if err != nil {
		return nil, fmt.Errorf("failed to build password hasher: %w", err)
	}

	var legacy password.Hasher = password.NewBcrypt(0)
	if primary.Algorithm() == password.AlgorithmBcrypt {
		legacy = password.NewArgon2id(password.Params{})
	}

	return password.NewPool(password.NewRegistry(primary, lg, legacy), cfg.Concurrency), nil
}

func buildCodec(cfg config.Session) (model.TokenCodec, error) {
	switch cfg.TokenFormat {
	case config.TokenFormatJWT:
		return token.NewJWT(cfg.JWTSecret), nil
	case config.TokenFormatOpaque, "":
		return token.NewOpaque(), nil
	default:
		return nil, fmt.Errorf("unknown token format %q", cfg.TokenFormat)
	}
}
