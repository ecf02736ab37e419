package router

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apiContext "github.com/dtroode/gophauth-server/internal/api/context"
	"github.com/dtroode/gophauth-server/internal/api/http/handler"
	"github.com/dtroode/gophauth-server/internal/metrics"
	"github.com/dtroode/gophauth-server/internal/model"
	"github.com/dtroode/gophauth-server/internal/password"
	"github.com/dtroode/gophauth-server/internal/repository/memory"
	"github.com/dtroode/gophauth-server/internal/service"
	"github.com/dtroode/gophauth-server/internal/testutil"
	"github.com/dtroode/gophauth-server/internal/token"
)

func newTestEngine(t *testing.T, origins ...string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	lg := testutil.MakeNoopLogger()
	registry, m := metrics.NewRegistry()
	accounts := memory.NewAccountRepository()
	sessions := memory.NewSessionRepository()

	tokens := service.NewTokenService(token.NewOpaque(), sessions, service.TokenSettings{TTL: time.Hour}, lg, m)
	auth, err := service.NewAuth(context.Background(), accounts, password.NewPool(password.NewBcrypt(4), 4), tokens, 5*time.Second, lg, m)
	require.NoError(t, err)

	pingers := map[string]model.Pinger{"accounts": accounts, "sessions": sessions}
	return New(auth, apiContext.NewManager(), pingers, registry, origins, m, lg).Register()
}

func call(engine *gin.Engine, method, path, body, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Scenario(t *testing.T) {
	engine := newTestEngine(t)

	rec := call(engine, http.MethodPost, "/auth/register", `{"identifier":"bob","password":"s3cret!"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	wrong := call(engine, http.MethodPost, "/auth/login", `{"identifier":"bob","password":"wrong"}`, "")
	assert.Equal(t, http.StatusUnauthorized, wrong.Code)

	rec = call(engine, http.MethodPost, "/auth/login", `{"identifier":"bob","password":"s3cret!"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var login handler.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	assert.NotEmpty(t, login.Token)
	assert.Equal(t, "bob", login.Identifier)

	unknown := call(engine, http.MethodPost, "/auth/login", `{"identifier":"nobody","password":"x"}`, "")
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, wrong.Body.String(), unknown.Body.String())

	rec = call(engine, http.MethodGet, "/auth/me", "", login.Token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"identifier":"bob"}`, rec.Body.String())

	rec = call(engine, http.MethodPost, "/auth/logout", "", login.Token)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = call(engine, http.MethodGet, "/auth/me", "", login.Token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "TOKEN_INVALID")

	rec = call(engine, http.MethodPost, "/auth/logout", "", login.Token)
	assert.Equal(t, http.StatusOK, rec.Code, "logout is idempotent")
}

func TestRouter_Duplicate(t *testing.T) {
	engine := newTestEngine(t)

	rec := call(engine, http.MethodPost, "/auth/register", `{"identifier":"alice","password":"one"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = call(engine, http.MethodPost, "/auth/register", `{"identifier":"alice","password":"two"}`, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"kind":"DUPLICATE_IDENTIFIER","msg":"identifier already exists"}`, rec.Body.String())
}

func TestRouter_ConcurrentRegister(t *testing.T) {
	engine := newTestEngine(t)

	const n = 12
	codes := make([]int, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			body := fmt.Sprintf(`{"identifier":"alice","password":"pw-%d"}`, i)
			codes[i] = call(engine, http.MethodPost, "/auth/register", body, "").Code
		}()
	}
	wg.Wait()

	created, conflicts := 0, 0
	for _, c := range codes {
		switch c {
		case http.StatusCreated:
			created++
		case http.StatusConflict:
			conflicts++
		}
	}
	assert.Equal(t, 1, created)
	assert.Equal(t, n-1, conflicts)
}

func TestRouter_APIAlias(t *testing.T) {
	engine := newTestEngine(t)

	rec := call(engine, http.MethodPost, "/api/auth/register", `{"username":"carol","password":"pw"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = call(engine, http.MethodPost, "/api/auth/login", `{"username":"carol","password":"pw"}`, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_LogoutAll(t *testing.T) {
	engine := newTestEngine(t)

	require.Equal(t, http.StatusCreated, call(engine, http.MethodPost, "/auth/register", `{"identifier":"dave","password":"pw"}`, "").Code)

	var tokens []string
	for range 2 {
		rec := call(engine, http.MethodPost, "/auth/login", `{"identifier":"dave","password":"pw"}`, "")
		require.Equal(t, http.StatusOK, rec.Code)
		var login handler.LoginResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
		tokens = append(tokens, login.Token)
	}

	rec := call(engine, http.MethodPost, "/auth/logout/all", "", tokens[0])
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"revoked":2`)

	for _, tok := range tokens {
		assert.Equal(t, http.StatusUnauthorized, call(engine, http.MethodGet, "/auth/me", "", tok).Code)
	}

	assert.Equal(t, http.StatusUnauthorized, call(engine, http.MethodPost, "/auth/logout/all", "", "").Code)
}

func TestRouter_Operational(t *testing.T) {
	engine := newTestEngine(t)

	assert.Equal(t, http.StatusOK, call(engine, http.MethodGet, "/healthz", "", "").Code)
	assert.Equal(t, http.StatusOK, call(engine, http.MethodGet, "/readyz", "", "").Code)

	call(engine, http.MethodPost, "/auth/login", `{"identifier":"x","password":"y"}`, "")
	rec := call(engine, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "gophauth_auth_operations_total")
	assert.Contains(t, rec.Body.String(), "gophauth_http_requests_total")

	assert.Equal(t, http.StatusNotFound, call(engine, http.MethodGet, "/nope", "", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, call(engine, http.MethodGet, "/auth/login", "", "").Code)
}

func TestRouter_CORS(t *testing.T) {
	t.Run("any origin", func(t *testing.T) {
		engine := newTestEngine(t, "*")

		req := httptest.NewRequest(http.MethodOptions, "/api/auth/login", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("restricted origins", func(t *testing.T) {
		engine := newTestEngine(t, "http://localhost:3000")

		req := httptest.NewRequest(http.MethodOptions, "/auth/login", nil)
		req.Header.Set("Origin", "http://evil.example")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
