package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	apiErrors "github.com/dtroode/gophauth-server/internal/api/errors"
	"github.com/dtroode/gophauth-server/internal/logger"
	"github.com/dtroode/gophauth-server/internal/model"
)

// IdentifierKey is the gin context key holding the authenticated identifier.
const IdentifierKey = "identifier"

const bearerPrefix = "bearer "

// Authenticator resolves a bearer token to an account identifier.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (string, error)
}

// Authenticate rejects requests without a valid bearer token and stores the
// resolved identifier in the request context.
type Authenticate struct {
	authenticator  Authenticator
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuthenticate creates a new Authenticate middleware instance.
func NewAuthenticate(authenticator Authenticator, contextManager model.ContextManager, logger *logger.Logger) *Authenticate {
	return &Authenticate{authenticator: authenticator, contextManager: contextManager, logger: logger}
}

// Handle returns the gin handler.
func (m *Authenticate) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c.GetHeader("Authorization"))

		identifier, err := m.authenticator.Authenticate(c.Request.Context(), token)
		if err != nil {
			m.logger.Debug("HTTP middleware: authentication failed",
				"path", c.Request.URL.Path,
				"kind", apiErrors.KindOf(err).String())
			c.AbortWithStatusJSON(apiErrors.HTTPStatus(apiErrors.KindOf(err)), apiErrors.NewResponse(err))
			return
		}

		c.Request = c.Request.WithContext(m.contextManager.SetIdentifierToContext(c.Request.Context(), identifier))
		c.Set(IdentifierKey, identifier)
		c.Next()
	}
}

// BearerToken extracts the token from an Authorization header value. The
// scheme is matched case-insensitively. It returns "" when no bearer token is present.
func BearerToken(header string) string {
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(header[len(bearerPrefix):])
}
