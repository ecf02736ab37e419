package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SessionStore persists issued sessions keyed by the SHA-256 hash of the token secret.
type SessionStore interface {
	Create(ctx context.Context, session Session) error
	GetByTokenHash(ctx context.Context, tokenHash []byte) (Session, error)
	// DeleteByTokenHash is idempotent: deleting an absent session is not an error.
	DeleteByTokenHash(ctx context.Context, tokenHash []byte) error
	DeleteByAccount(ctx context.Context, accountIdentifier string) (int64, error)
	// DeleteExpired removes sessions whose ExpiresAt is at or before cutoff.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// Session describes a live session bound to an account identifier.
type Session struct {
	ID                uuid.UUID
	TokenHash         []byte
	AccountIdentifier string
	IssuedAt          time.Time
	ExpiresAt         time.Time
}

// IsExpiredAt reports whether the session is expired at t, allowing skew of grace.
func (s Session) IsExpiredAt(t time.Time, skew time.Duration) bool {
	return !t.Add(-skew).Before(s.ExpiresAt)
}
