package middleware

import (
	"context"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/auth"
	"google.golang.org/grpc/status"

	apiErrors "github.com/dtroode/gophauth-server/internal/api/errors"
	"github.com/dtroode/gophauth-server/internal/logger"
	"github.com/dtroode/gophauth-server/internal/model"
)

// Authenticator resolves a bearer token to an account identifier.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (string, error)
}

// Authenticate validates bearer tokens and injects the identifier into context.
type Authenticate struct {
	authenticator  Authenticator
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuthenticate creates a new Authenticate middleware instance.
func NewAuthenticate(authenticator Authenticator, contextManager model.ContextManager, logger *logger.Logger) *Authenticate {
	return &Authenticate{authenticator: authenticator, contextManager: contextManager, logger: logger}
}

// AuthFunc reads the bearer token from the authorization metadata, validates
// it and returns a context carrying the account identifier.
func (m *Authenticate) AuthFunc(ctx context.Context) (context.Context, error) {
	// A missing or non-bearer header leaves the token empty; the
	// authenticator reports that as a missing token.
	token, _ := auth.AuthFromMD(ctx, "bearer")

	identifier, err := m.authenticator.Authenticate(ctx, token)
	if err != nil {
		kind := apiErrors.KindOf(err)
		m.logger.Debug("gRPC middleware: authentication failed", "kind", kind.String())
		return nil, status.Error(apiErrors.GRPCCode(kind), apiErrors.PublicMessage(err))
	}

	return m.contextManager.SetIdentifierToContext(ctx, identifier), nil
}
