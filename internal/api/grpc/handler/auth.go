package handler

import (
	"context"
	"time"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/auth"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	apiErrors "github.com/dtroode/gophauth-server/internal/api/errors"
	"github.com/dtroode/gophauth-server/internal/logger"
	"github.com/dtroode/gophauth-server/internal/model"
)

var _ AuthServer = (*Auth)(nil)

// AuthService defines the account operations exposed over gRPC.
type AuthService interface {
	Register(ctx context.Context, creds model.Credentials) error
	Login(ctx context.Context, creds model.Credentials) (model.LoginResult, error)
	Logout(ctx context.Context, token string) error
}

// Auth handles gRPC endpoints for authentication.
type Auth struct {
	authService    AuthService
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuth creates a new Auth handler.
func NewAuth(authService AuthService, contextManager model.ContextManager, logger *logger.Logger) *Auth {
	return &Auth{
		authService:    authService,
		contextManager: contextManager,
		logger:         logger,
	}
}

// Register creates an account from {identifier, password}.
func (h *Auth) Register(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	creds, err := credentialsFromStruct(req)
	if err != nil {
		return nil, handleError(ctx, err)
	}

	h.logger.Debug("Auth handler: processing registration request", "identifier", creds)

	if err := h.authService.Register(ctx, creds); err != nil {
		h.logger.Debug("Auth handler: registration failed",
			"identifier", creds,
			"kind", apiErrors.KindOf(err).String())
		return nil, handleError(ctx, err)
	}

	return structpb.NewStruct(map[string]any{"msg": "account registered"})
}

// Login returns {token, identifier, expires_at} for valid credentials.
func (h *Auth) Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	creds, err := credentialsFromStruct(req)
	if err != nil {
		return nil, handleError(ctx, err)
	}

	h.logger.Debug("Auth handler: processing login request", "identifier", creds)

	result, err := h.authService.Login(ctx, creds)
	if err != nil {
		h.logger.Debug("Auth handler: login failed",
			"identifier", creds,
			"kind", apiErrors.KindOf(err).String())
		return nil, handleError(ctx, err)
	}

	return structpb.NewStruct(map[string]any{
		"token":      result.Token,
		"identifier": result.Identifier,
		"expires_at": result.ExpiresAt.UTC().Format(time.RFC3339Nano),
	})
}

// Logout revokes the bearer token from the call metadata.
func (h *Auth) Logout(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	token, err := auth.AuthFromMD(ctx, "bearer")
	if err != nil || token == "" {
		return nil, handleError(ctx, apiErrors.NewErrMissingToken())
	}

	if err := h.authService.Logout(ctx, token); err != nil {
		return nil, handleError(ctx, err)
	}

	return &emptypb.Empty{}, nil
}

// WhoAmI returns the identifier bound to the caller's token.
func (h *Auth) WhoAmI(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	identifier, ok := h.contextManager.GetIdentifierFromContext(ctx)
	if !ok {
		return nil, handleError(ctx, apiErrors.NewErrMissingToken())
	}

	return structpb.NewStruct(map[string]any{"identifier": identifier})
}

// credentialsFromStruct reads identifier (or its alias username) and password.
func credentialsFromStruct(req *structpb.Struct) (model.Credentials, error) {
	fields := req.GetFields()

	identifier, err := stringField(fields, "identifier")
	if err != nil {
		return model.Credentials{}, err
	}
	if identifier == "" {
		if identifier, err = stringField(fields, "username"); err != nil {
			return model.Credentials{}, err
		}
	}

	password, err := stringField(fields, "password")
	if err != nil {
		return model.Credentials{}, err
	}

	return model.Credentials{Identifier: identifier, Password: password}, nil
}

func stringField(fields map[string]*structpb.Value, name string) (string, error) {
	v, ok := fields[name]
	if !ok {
		return "", nil
	}
	s, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", apiErrors.NewErrValidation(name + " must be a string")
	}
	return s.StringValue, nil
}
