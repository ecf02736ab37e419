package context

import (
	"context"

	"github.com/dtroode/gophauth-server/internal/model"
)

type identifierKey struct{}

var _ model.ContextManager = (*Manager)(nil)

// Manager represents a request context manager for the authenticated identifier.
// It is shared by the HTTP and gRPC transports.
type Manager struct{}

// NewManager creates a new context manager instance.
func NewManager() *Manager {
	return &Manager{}
}

// SetIdentifierToContext returns a copy of ctx carrying the account identifier.
//
// Parameters:
//   - ctx: The request context
//   - identifier: The authenticated account identifier
//
// Returns a new context with the identifier attached.
func (m *Manager) SetIdentifierToContext(ctx context.Context, identifier string) context.Context {
	return context.WithValue(ctx, identifierKey{}, identifier)
}

// GetIdentifierFromContext retrieves the account identifier set by
// SetIdentifierToContext. An empty identifier is reported as absent.
func (m *Manager) GetIdentifierFromContext(ctx context.Context) (string, bool) {
	identifier, ok := ctx.Value(identifierKey{}).(string)
	if !ok || identifier == "" {
		return "", false
	}
	return identifier, true
}
