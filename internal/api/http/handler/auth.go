package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apiErrors "github.com/dtroode/gophauth-server/internal/api/errors"
	"github.com/dtroode/gophauth-server/internal/api/http/middleware"
	"github.com/dtroode/gophauth-server/internal/logger"
	"github.com/dtroode/gophauth-server/internal/model"
)

// maxBodyBytes caps a credentials request body.
const maxBodyBytes = 8 << 10

// AuthService defines the account operations exposed over HTTP.
type AuthService interface {
	Register(ctx context.Context, creds model.Credentials) error
	Login(ctx context.Context, creds model.Credentials) (model.LoginResult, error)
	Logout(ctx context.Context, token string) error
	LogoutAll(ctx context.Context, identifier string) (int64, error)
}

// Auth handles the /auth endpoints.
type Auth struct {
	authService    AuthService
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuth creates a new Auth handler.
func NewAuth(authService AuthService, contextManager model.ContextManager, logger *logger.Logger) *Auth {
	return &Auth{authService: authService, contextManager: contextManager, logger: logger}
}

// credentialsRequest accepts "username" as an alias of "identifier".
type credentialsRequest struct {
	Identifier string `json:"identifier"`
	Username   string `json:"username"`
	Password   string `json:"password"`
}

func (r credentialsRequest) credentials() model.Credentials {
	identifier := r.Identifier
	if identifier == "" {
		identifier = r.Username
	}
	return model.Credentials{Identifier: identifier, Password: r.Password}
}

// MessageResponse is the body of successful requests that return no data.
type MessageResponse struct {
	Msg string `json:"msg"`
}

// LoginResponse is the body of a successful login.
type LoginResponse struct {
	Token      string    `json:"token"`
	Identifier string    `json:"identifier"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// IdentityResponse names the account behind a bearer token.
type IdentityResponse struct {
	Identifier string `json:"identifier"`
}

// LogoutAllResponse reports how many sessions were revoked.
type LogoutAllResponse struct {
	Msg     string `json:"msg"`
	Revoked int64  `json:"revoked"`
}

// Register handles POST /auth/register.
func (h *Auth) Register(c *gin.Context) {
	creds, err := h.bindCredentials(c)
	if err != nil {
		h.writeError(c, err)
		return
	}

	if err := h.authService.Register(c.Request.Context(), creds); err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, MessageResponse{Msg: "account registered"})
}

// Login handles POST /auth/login.
func (h *Auth) Login(c *gin.Context) {
	creds, err := h.bindCredentials(c)
	if err != nil {
		h.writeError(c, err)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), creds)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:      result.Token,
		Identifier: result.Identifier,
		ExpiresAt:  result.ExpiresAt.UTC(),
	})
}

// Logout handles POST /auth/logout. It succeeds for unknown or expired tokens.
func (h *Auth) Logout(c *gin.Context) {
	token := middleware.BearerToken(c.GetHeader("Authorization"))
	if token == "" {
		h.writeError(c, apiErrors.NewErrMissingToken())
		return
	}

	if err := h.authService.Logout(c.Request.Context(), token); err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Msg: "logged out"})
}

// LogoutAll handles POST /auth/logout/all. Requires authentication.
func (h *Auth) LogoutAll(c *gin.Context) {
	identifier, ok := h.contextManager.GetIdentifierFromContext(c.Request.Context())
	if !ok {
		h.writeError(c, apiErrors.NewErrMissingToken())
		return
	}

	n, err := h.authService.LogoutAll(c.Request.Context(), identifier)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, LogoutAllResponse{Msg: "logged out everywhere", Revoked: n})
}

// Me handles GET /auth/me. Requires authentication.
func (h *Auth) Me(c *gin.Context) {
	identifier, ok := h.contextManager.GetIdentifierFromContext(c.Request.Context())
	if !ok {
		h.writeError(c, apiErrors.NewErrMissingToken())
		return
	}

	c.JSON(http.StatusOK, IdentityResponse{Identifier: identifier})
}

func (h *Auth) bindCredentials(c *gin.Context) (model.Credentials, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)

	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debug("HTTP handler: malformed request body", "error", err.Error())

		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return model.Credentials{}, apiErrors.NewErrValidation("request body is too large")
		}
		return model.Credentials{}, apiErrors.NewErrValidation("request body must be a JSON object with identifier and password")
	}

	return req.credentials(), nil
}

func (h *Auth) writeError(c *gin.Context, err error) {
	kind := apiErrors.KindOf(err)
	if kind == apiErrors.KindInternal {
		h.logger.LogError("HTTP handler: request failed", err, "path", c.Request.URL.Path)
	}
	c.AbortWithStatusJSON(apiErrors.HTTPStatus(kind), apiErrors.NewResponse(err))
}
