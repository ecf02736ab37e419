package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/gophauth-server/internal/logger"
	"github.com/dtroode/gophauth-server/internal/metrics"
	"github.com/dtroode/gophauth-server/internal/model"
	"github.com/dtroode/gophauth-server/internal/token"
)

// Token events recorded in metrics.
const (
	tokenEventIssued  = "issued"
	tokenEventValid   = "valid"
	tokenEventExpired = "expired"
	tokenEventUnknown = "unknown"
	tokenEventRevoked = "revoked"
)

// TokenSettings configures session lifetime.
type TokenSettings struct {
	TTL                time.Duration
	ClockSkewTolerance time.Duration
}

// TokenService issues, verifies and revokes opaque session tokens. Only the
// SHA-256 hash of a token's secret is persisted.
type TokenService struct {
	codec    model.TokenCodec
	store    model.SessionStore
	settings TokenSettings
	now      func() time.Time
	logger   *logger.Logger
	metrics  *metrics.Metrics
}

func NewTokenService(
	codec model.TokenCodec,
	store model.SessionStore,
	settings TokenSettings,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *TokenService {
	return &TokenService{
		codec:    codec,
		store:    store,
		settings: settings,
		now:      time.Now,
		logger:   logger,
		metrics:  metrics,
	}
}

// WithClock replaces the time source, for tests.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	s.now = now
	return s
}

// Issue creates a session bound to accountIdentifier and returns its token.
func (s *TokenService) Issue(ctx context.Context, accountIdentifier string) (model.IssuedToken, error) {
	secret := make([]byte, token.SecretSize)
	if _, err := rand.Read(secret); err != nil {
		return model.IssuedToken{}, fmt.Errorf("failed to generate token secret: %w", err)
	}

	issuedAt := s.now()
	expiresAt := issuedAt.Add(s.settings.TTL)

	value, err := s.codec.Encode(secret, issuedAt, expiresAt)
	if err != nil {
		return model.IssuedToken{}, fmt.Errorf("failed to encode token: %w", err)
	}

	session := model.Session{
		ID:                uuid.New(),
		TokenHash:         hashSecret(secret),
		AccountIdentifier: accountIdentifier,
		IssuedAt:          issuedAt,
		ExpiresAt:         expiresAt,
	}

	if err := s.store.Create(ctx, session); err != nil {
		return model.IssuedToken{}, fmt.Errorf("failed to persist session: %w", err)
	}

	s.metrics.RecordTokenEvent(tokenEventIssued)
	s.logger.Debug("Token service: session issued",
		"identifier", accountIdentifier,
		"session_id", session.ID,
		"expires_at", expiresAt)

	return model.IssuedToken{
		Value:     value,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

// Verify reports whether presented maps to a live session. An error is
// returned only when the session store fails.
func (s *TokenService) Verify(ctx context.Context, presented string) (model.Verification, error) {
	secret, err := s.codec.Decode(presented)
	if err != nil {
		s.metrics.RecordTokenEvent(tokenEventUnknown)
		s.logger.Debug("Token service: undecodable token", "error", err.Error())
		return model.Verification{Status: model.TokenUnknown}, nil
	}

	tokenHash := hashSecret(secret)
	session, err := s.store.GetByTokenHash(ctx, tokenHash)
	if errors.Is(err, model.ErrNotFound) {
		s.metrics.RecordTokenEvent(tokenEventUnknown)
		return model.Verification{Status: model.TokenUnknown}, nil
	}
	if err != nil {
		return model.Verification{}, fmt.Errorf("failed to get session: %w", err)
	}

	if session.IsExpiredAt(s.now(), s.settings.ClockSkewTolerance) {
		if err := s.store.DeleteByTokenHash(ctx, tokenHash); err != nil {
			s.logger.Warn("Token service: failed to evict expired session",
				"session_id", session.ID,
				"error", err.Error())
		}
		s.metrics.RecordTokenEvent(tokenEventExpired)
		return model.Verification{
			Status:            model.TokenExpired,
			AccountIdentifier: session.AccountIdentifier,
			ExpiresAt:         session.ExpiresAt,
		}, nil
	}

	s.metrics.RecordTokenEvent(tokenEventValid)
	return model.Verification{
		Status:            model.TokenValid,
		AccountIdentifier: session.AccountIdentifier,
		ExpiresAt:         session.ExpiresAt,
	}, nil
}

// Revoke removes the session behind presented. Unknown or undecodable tokens
// are not an error.
func (s *TokenService) Revoke(ctx context.Context, presented string) error {
	secret, err := s.codec.Decode(presented)
	if err != nil {
		return nil
	}

	if err := s.store.DeleteByTokenHash(ctx, hashSecret(secret)); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	s.metrics.RecordTokenEvent(tokenEventRevoked)
	return nil
}

// RevokeAll removes every session of accountIdentifier.
func (s *TokenService) RevokeAll(ctx context.Context, accountIdentifier string) (int64, error) {
	n, err := s.store.DeleteByAccount(ctx, accountIdentifier)
	if err != nil {
		return 0, fmt.Errorf("failed to delete account sessions: %w", err)
	}

	s.logger.Info("Token service: revoked all sessions",
		"identifier", accountIdentifier,
		"count", n)
	return n, nil
}

// PurgeExpired removes sessions that Verify would report as expired.
func (s *TokenService) PurgeExpired(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.settings.ClockSkewTolerance)
	n, err := s.store.DeleteExpired(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return n, nil
}

// RunPurge calls PurgeExpired every interval until ctx is done.
func (s *TokenService) RunPurge(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.PurgeExpired(ctx)
			if err != nil {
				s.logger.Error("Token service: purge failed", "error", err.Error())
				continue
			}
			if n > 0 {
				s.logger.Info("Token service: purged expired sessions", "count", n)
			}
		}
	}
}

func hashSecret(secret []byte) []byte {
	h := sha256.Sum256(secret)
	return h[:]
}
