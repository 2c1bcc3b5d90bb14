package routes_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-app/backend/internal/logging"
	"todo-app/backend/internal/models"
	"todo-app/backend/internal/routes"
	"todo-app/backend/internal/services"
	"todo-app/backend/testutil"
)

func TestRouter_AuthMiddleware_ValidToken(t *testing.T) {
	_, r, _, _ := testutil.SetupTestDB(t)

	token, err := testutil.LoginAndGetToken(t, r, testutil.NormalEmail, testutil.NormalPassword)
	require.NoError(t, err)

	w := testutil.DoJSON(r, http.MethodGet, "/user", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"normal_user"`)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouter_AuthMiddleware_Rejects(t *testing.T) {
	_, r, _, _ := testutil.SetupTestDB(t)

	expired, err := services.NewJWTService(testutil.TestJWTSecret, -time.Minute).
		GenerateToken(&models.User{ID: 1, Username: testutil.NormalUsername, Role: models.RoleUser})
	require.NoError(t, err)
	foreign, err := services.NewJWTService("another-secret", time.Minute).
		GenerateToken(&models.User{ID: 1, Username: testutil.NormalUsername, Role: models.RoleUser})
	require.NoError(t, err)

	for name, token := range map[string]string{
		"no token":       "",
		"malformed":      "invalid.jwt.token",
		"expired":        expired,
		"foreign secret": foreign,
	} {
		t.Run(name, func(t *testing.T) {
			// 不正なボディでも認証エラーが先
			w := testutil.DoJSON(r, http.MethodPost, "/todos", token, `{"title":`)
			require.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
			assert.JSONEq(t, `{"detail":"Could not validate credentials."}`, w.Body.String())
		})
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	_, r, _, _ := testutil.SetupTestDB(t)

	req := httptest.NewRequest(http.MethodOptions, "/todos", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization,Content-Type")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/healthcheck", nil)
	req.Header.Set("Origin", "http://evil.example.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRouter_Metrics(t *testing.T) {
	_, r, _, _ := testutil.SetupTestDB(t)

	testutil.DoJSON(r, http.MethodGet, "/healthcheck", "", nil)
	testutil.DoJSON(r, http.MethodPost, "/auth/token", "", map[string]string{"username": "ghost", "password": "nope"})

	w := testutil.DoJSON(r, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `todo_api_http_requests_total{method="GET",route="/healthcheck",status="200"} 1`)
	assert.Contains(t, body, "todo_api_auth_login_failures_total 1")
	assert.NotContains(t, body, `route="/metrics"`)
}

func TestRouter_TrustedProxies(t *testing.T) {
	cfg := testutil.TestConfig(t)
	cfg.LoginRateLimit = 0.001
	cfg.LoginRateBurst = 1
	// httptest のリクエストは 192.0.2.1 から届く
	cfg.TrustedProxies = "192.0.2.0/24"
	env := testutil.SetupTestEnv(t, cfg)

	login := func(forwardedFor string) int {
		req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(`{"username":"ghost","password":"nope"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", forwardedFor)
		w := httptest.NewRecorder()
		env.Router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusUnauthorized, login("203.0.113.1"))
	assert.Equal(t, http.StatusTooManyRequests, login("203.0.113.1"))
	assert.Equal(t, http.StatusUnauthorized, login("203.0.113.2"), "each client behind the proxy has its own bucket")
}

func TestRouter_InvalidTrustedProxies(t *testing.T) {
	cfg := testutil.TestConfig(t)
	cfg.TrustedProxies = "not-an-ip"
	db := testutil.NewTestDB(t, cfg)

	_, err := routes.SetupRouter(cfg, db, logging.Discard(), &testutil.RecordingMailer{})
	assert.ErrorContains(t, err, "TRUSTED_PROXIES")
}
