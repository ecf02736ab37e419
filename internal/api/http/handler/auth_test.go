package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apiContext "github.com/dtroode/gophauth-server/internal/api/context"
	apiErrors "github.com/dtroode/gophauth-server/internal/api/errors"
	"github.com/dtroode/gophauth-server/internal/mocks"
	"github.com/dtroode/gophauth-server/internal/model"
	"github.com/dtroode/gophauth-server/internal/testutil"
)

func newTestEngine(h *Auth, identifier string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	withIdentity := func(c *gin.Context) {
		if identifier != "" {
			ctx := apiContext.NewManager().SetIdentifierToContext(c.Request.Context(), identifier)
			c.Request = c.Request.WithContext(ctx)
		}
	}
	engine.POST("/auth/register", h.Register)
	engine.POST("/auth/login", h.Login)
	engine.POST("/auth/logout", h.Logout)
	engine.POST("/auth/logout/all", withIdentity, h.LogoutAll)
	engine.GET("/auth/me", withIdentity, h.Me)
	return engine
}

func do(engine *gin.Engine, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apiErrors.Response {
	t.Helper()
	var body apiErrors.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestAuth_Register(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		creds      *model.Credentials
		svcErr     error
		wantStatus int
		wantKind   apiErrors.Kind
		wantMsg    string
	}{
		{
			name:       "created",
			body:       `{"identifier":"bob","password":"s3cret!"}`,
			creds:      &model.Credentials{Identifier: "bob", Password: "s3cret!"},
			wantStatus: http.StatusCreated,
			wantMsg:    "account registered",
		},
		{
			name:       "username alias",
			body:       `{"username":"bob","password":"s3cret!"}`,
			creds:      &model.Credentials{Identifier: "bob", Password: "s3cret!"},
			wantStatus: http.StatusCreated,
			wantMsg:    "account registered",
		},
		{
			name:       "duplicate",
			body:       `{"identifier":"bob","password":"s3cret!"}`,
			creds:      &model.Credentials{Identifier: "bob", Password: "s3cret!"},
			svcErr:     apiErrors.NewErrDuplicateIdentifier("bob"),
			wantStatus: http.StatusConflict,
			wantKind:   apiErrors.KindDuplicateIdentifier,
			wantMsg:    "identifier already exists",
		},
		{
			name:       "validation from service",
			body:       `{"identifier":"","password":"x"}`,
			creds:      &model.Credentials{Password: "x"},
			svcErr:     apiErrors.NewErrValidation("identifier is required"),
			wantStatus: http.StatusBadRequest,
			wantKind:   apiErrors.KindValidation,
			wantMsg:    "identifier is required",
		},
		{
			name:       "malformed json",
			body:       `{"identifier":`,
			wantStatus: http.StatusBadRequest,
			wantKind:   apiErrors.KindValidation,
		},
		{
			name:       "body too large",
			body:       `{"identifier":"bob","password":"` + strings.Repeat("a", maxBodyBytes) + `"}`,
			wantStatus: http.StatusBadRequest,
			wantKind:   apiErrors.KindValidation,
			wantMsg:    "request body is too large",
		},
		{
			name:       "store unavailable",
			body:       `{"identifier":"bob","password":"s3cret!"}`,
			creds:      &model.Credentials{Identifier: "bob", Password: "s3cret!"},
			svcErr:     apiErrors.NewErrStoreUnavailable("create account", assert.AnError),
			wantStatus: http.StatusServiceUnavailable,
			wantKind:   apiErrors.KindStoreUnavailable,
			wantMsg:    "service temporarily unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := mocks.NewAuthService(t)
			if tt.creds != nil {
				svc.On("Register", mock.Anything, *tt.creds).Return(tt.svcErr)
			}

			engine := newTestEngine(NewAuth(svc, apiContext.NewManager(), testutil.MakeNoopLogger()), "")
			rec := do(engine, http.MethodPost, "/auth/register", tt.body, nil)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantKind == "" {
				var body MessageResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, tt.wantMsg, body.Msg)
				return
			}
			body := decodeError(t, rec)
			assert.Equal(t, tt.wantKind, body.Kind)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, body.Msg)
			}
		})
	}
}

func TestAuth_Login(t *testing.T) {
	t.Parallel()

	expires := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		svc := mocks.NewAuthService(t)
		svc.On("Login", mock.Anything, model.Credentials{Identifier: "bob", Password: "s3cret!"}).
			Return(model.LoginResult{Token: "tok", Identifier: "bob", ExpiresAt: expires}, nil)

		engine := newTestEngine(NewAuth(svc, apiContext.NewManager(), testutil.MakeNoopLogger()), "")
		rec := do(engine, http.MethodPost, "/auth/login", `{"identifier":"bob","password":"s3cret!"}`, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var body LoginResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "tok", body.Token)
		assert.Equal(t, "bob", body.Identifier)
		assert.True(t, expires.Equal(body.ExpiresAt))
	})

	t.Run("invalid credentials", func(t *testing.T) {
		t.Parallel()

		svc := mocks.NewAuthService(t)
		svc.On("Login", mock.Anything, mock.Anything).Return(model.LoginResult{}, apiErrors.NewErrInvalidCredentials())

		engine := newTestEngine(NewAuth(svc, apiContext.NewManager(), testutil.MakeNoopLogger()), "")
		rec := do(engine, http.MethodPost, "/auth/login", `{"identifier":"bob","password":"wrong"}`, nil)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"kind":"INVALID_CREDENTIALS","msg":"invalid credentials"}`, rec.Body.String())
	})

	t.Run("internal error hides cause", func(t *testing.T) {
		t.Parallel()

		svc := mocks.NewAuthService(t)
		svc.On("Login", mock.Anything, mock.Anything).Return(model.LoginResult{}, assert.AnError)

		engine := newTestEngine(NewAuth(svc, apiContext.NewManager(), testutil.MakeNoopLogger()), "")
		rec := do(engine, http.MethodPost, "/auth/login", `{"identifier":"bob","password":"x"}`, nil)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"kind":"INTERNAL","msg":"internal server error"}`, rec.Body.String())
	})
}

func TestAuth_Logout(t *testing.T) {
	t.Parallel()

	t.Run("revokes bearer token", func(t *testing.T) {
		t.Parallel()

		svc := mocks.NewAuthService(t)
		svc.On("Logout", mock.Anything, "tok").Return(nil)

		engine := newTestEngine(NewAuth(svc, apiContext.NewManager(), testutil.MakeNoopLogger()), "")
		rec := do(engine, http.MethodPost, "/auth/logout", "", map[string]string{"Authorization": "Bearer tok"})

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing token", func(t *testing.T) {
		t.Parallel()

		svc := mocks.NewAuthService(t)

		engine := newTestEngine(NewAuth(svc, apiContext.NewManager(), testutil.MakeNoopLogger()), "")
		rec := do(engine, http.MethodPost, "/auth/logout", "", nil)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, apiErrors.KindTokenInvalid, decodeError(t, rec).Kind)
	})
}

func TestAuth_LogoutAll(t *testing.T) {
	t.Parallel()

	svc := mocks.NewAuthService(t)
	svc.On("LogoutAll", mock.Anything, "bob").Return(int64(3), nil)

	engine := newTestEngine(NewAuth(svc, apiContext.NewManager(), testutil.MakeNoopLogger()), "bob")
	rec := do(engine, http.MethodPost, "/auth/logout/all", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body LogoutAllResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(3), body.Revoked)
}

func TestAuth_Me(t *testing.T) {
	t.Parallel()

	t.Run("identified", func(t *testing.T) {
		t.Parallel()

		engine := newTestEngine(NewAuth(mocks.NewAuthService(t), apiContext.NewManager(), testutil.MakeNoopLogger()), "bob")
		rec := do(engine, http.MethodGet, "/auth/me", "", nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"identifier":"bob"}`, rec.Body.String())
	})

	t.Run("no identity in context", func(t *testing.T) {
		t.Parallel()

		engine := newTestEngine(NewAuth(mocks.NewAuthService(t), apiContext.NewManager(), testutil.MakeNoopLogger()), "")
		rec := do(engine, http.MethodGet, "/auth/me", "", nil)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
