package model

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// AccountStore defines persistence operations for accounts.
//
// Create must guarantee that two concurrent calls with the same identifier
// never both succeed; the loser gets ErrAlreadyExists.
type AccountStore interface {
	Create(ctx context.Context, account Account) (Account, error)
	GetByIdentifier(ctx context.Context, identifier string) (Account, error)
}

// Account represents a registered account with its password verifier.
type Account struct {
	ID         uuid.UUID
	Identifier string
	Verifier   []byte
	CreatedAt  time.Time
}

// LogValue keeps the verifier out of structured logs.
func (a Account) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("id", a.ID.String()),
		slog.String("identifier", a.Identifier),
		slog.Time("created_at", a.CreatedAt),
	)
}

// Credentials is the identifier/password pair submitted by a client.
type Credentials struct {
	Identifier string
	Password   string
}

// LogValue keeps the password out of structured logs.
func (c Credentials) LogValue() slog.Value {
	return slog.StringValue(c.Identifier)
}

// LoginResult is returned to the caller after a successful login.
type LoginResult struct {
	Token      string
	Identifier string
	ExpiresAt  time.Time
}
