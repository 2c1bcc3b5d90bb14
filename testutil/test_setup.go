package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"todo-app/backend/internal/config"
	"todo-app/backend/internal/database"
	"todo-app/backend/internal/logging"
	"todo-app/backend/internal/models"
	"todo-app/backend/internal/repositories"
	"todo-app/backend/internal/routes"
)

// テスト用の固定値
const (
	TestJWTSecret = "test-secret"

	NormalUsername = "normal_user"
	NormalEmail    = "normal_user@example.com"
	NormalPassword = "password123"

	AdminUsername = "admin_user"
	AdminEmail    = "admin@example.com"
	AdminPassword = "adminpass"
)

// SentMail はRecordingMailerが受け取ったメールです。
type SentMail struct {
	To  string
	URL string
}

// RecordingMailer は送信せずに内容を記録するMailerです。
type RecordingMailer struct {
	mu   sync.Mutex
	Sent []SentMail
}

func (m *RecordingMailer) SendPasswordReset(_ context.Context, to, resetURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, SentMail{To: to, URL: resetURL})
	return nil
}

// Last は最後に送られたメールを返します。
func (m *RecordingMailer) Last() (SentMail, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return SentMail{}, false
	}
	return m.Sent[len(m.Sent)-1], true
}

// TestConfig はテスト用の設定を返します。DBはテストごとの一時SQLiteファイルです。
func TestConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Env:       "test",
		LogLevel:  "panic",
		LogFormat: "text",
		DB: config.DBConfig{
			Driver:       config.DriverSQLite,
			Path:         filepath.Join(t.TempDir(), "todos.db"),
			MaxOpenConns: 1,
			MaxIdleConns: 1,
		},
		JWTSecret:                 TestJWTSecret,
		AccessTokenTTL:            20 * time.Minute,
		CORSAllowOrigins:          "http://localhost:3000",
		FrontendURL:               "http://localhost:3000",
		LoginRateLimit:            1000,
		LoginRateBurst:            1000,
		ResetTokenCleanupSchedule: "@hourly",
	}
}

// NewTestDB はマイグレーション済みの空のSQLiteデータベースを返します。
func NewTestDB(t *testing.T, cfg *config.Config) *sqlx.DB {
	t.Helper()
	require.NoError(t, database.Migrate(cfg.DB, database.Up, logging.Discard()))

	db, err := database.Open(context.Background(), cfg.DB)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// TestEnv は SetupTestEnv が組み立てた一式です。
type TestEnv struct {
	Config   *config.Config
	DB       *sqlx.DB
	App      *routes.App
	Router   *gin.Engine
	TodoRepo *repositories.TodoRepository
	UserRepo *repositories.UserRepository
	Mailer   *RecordingMailer
}

// SetupTestEnv はデータベース・ルーター・初期ユーザー (normal_user と admin_user) を用意します。
// cfg が nil の場合は TestConfig を使います。
func SetupTestEnv(t *testing.T, cfg *config.Config) *TestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	if cfg == nil {
		cfg = TestConfig(t)
	}

	db := NewTestDB(t, cfg)
	userRepo := repositories.NewUserRepository(db)
	CreateTestUser(t, userRepo, NormalUsername, NormalEmail, NormalPassword, models.RoleUser)
	CreateTestUser(t, userRepo, AdminUsername, AdminEmail, AdminPassword, models.RoleAdmin)

	mailer := &RecordingMailer{}
	app, err := routes.SetupRouter(cfg, db, logging.Discard(), mailer)
	require.NoError(t, err)

	return &TestEnv{
		Config:   cfg,
		DB:       db,
		App:      app,
		Router:   app.Router,
		TodoRepo: repositories.NewTodoRepository(db),
		UserRepo: userRepo,
		Mailer:   mailer,
	}
}

// SetupTestDB はテスト用のデータベース接続を確立し、テーブルを作成し、テストデータを投入します。
func SetupTestDB(t *testing.T) (*sqlx.DB, *gin.Engine, *repositories.TodoRepository, *repositories.UserRepository) {
	t.Helper()
	env := SetupTestEnv(t, nil)
	return env.DB, env.Router, env.TodoRepo, env.UserRepo
}

func CreateTestUser(t *testing.T, userRepo *repositories.UserRepository, username, email, password, role string) *models.User {
	t.Helper()
	hashedPassword, err := repositories.HashPassword(password)
	require.NoError(t, err)

	newUser := models.User{
		Username:     username,
		Email:        email,
		FirstName:    "Test",
		LastName:     "User",
		PasswordHash: hashedPassword,
		Role:         role,
		PhoneNumber:  "0123456789",
		IsActive:     true,
	}

	createdUser, err := userRepo.Create(context.Background(), &newUser)
	require.NoError(t, err)
	require.NotNil(t, createdUser)
	require.NotEqual(t, 0, createdUser.ID)
	return createdUser
}

// CreateTestTodo はAPI経由でTODOを作成します。
func CreateTestTodo(t *testing.T, router *gin.Engine, token, title string, completed bool) *models.Todo {
	t.Helper()
	todoPayload := map[string]interface{}{
		"title":       title,
		"description": "description of " + title,
		"priority":    3,
		"completed":   completed,
	}
	resp := DoJSON(router, http.MethodPost, "/todos", token, todoPayload)
	require.Equal(t, http.StatusCreated, resp.Code, "TODO作成に失敗しました: %s", resp.Body.String())

	var createdTodo models.Todo
	err := json.Unmarshal(resp.Body.Bytes(), &createdTodo)
	require.NoError(t, err)
	return &createdTodo
}

// LoginAndGetToken は /auth/token にJSONでログインしてアクセストークンを返します。
// username にはユーザー名かメールアドレスを指定します。
func LoginAndGetToken(t *testing.T, router *gin.Engine, username, password string) (string, error) {
	t.Helper()
	resp := DoJSON(router, http.MethodPost, "/auth/token", "", map[string]string{
		"username": username,
		"password": password,
	})
	if resp.Code != http.StatusOK {
		return "", fmt.Errorf("login failed with status %d: %s", resp.Code, resp.Body.String())
	}

	var loginRes map[string]interface{}
	if err := json.Unmarshal(resp.Body.Bytes(), &loginRes); err != nil {
		return "", fmt.Errorf("failed to unmarshal login response: %w", err)
	}

	token, ok := loginRes["access_token"].(string)
	if !ok {
		return "", errors.New("access_token not found or not a string in login response")
	}
	return token, nil
}

// DoJSON はJSONボディ付きのリクエストをルーターに送ります。token が空なら認証ヘッダーを付けません。
// body が string の場合はそのまま送ります (不正なJSONのテスト用)。
func DoJSON(router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf *bytes.Buffer
	switch b := body.(type) {
	case nil:
		buf = &bytes.Buffer{}
	case string:
		buf = bytes.NewBufferString(b)
	default:
		raw, _ := json.Marshal(b)
		buf = bytes.NewBuffer(raw)
	}

	req := httptest.NewRequest(method, path, buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

// DoForm はフォームでリクエストを送ります。
func DoForm(router *gin.Engine, method, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}
