package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"todo-app/backend/internal/auth"
	"todo-app/backend/internal/handlers"
	"todo-app/backend/internal/models"
)

const requestIDHeader = "X-Request-ID"

// Authenticator はベアラートークンを検証してIdentityを返します (services.JWTService が満たします)。
type Authenticator interface {
	ValidateToken(token string) (*models.Identity, error)
}

// AuthMiddleware はJWTトークンを検証し、Identityをコンテキストに設定するミドルウェアです。
// 失敗時はボディを読む前に401で止めるため、不正なボディでも422にはなりません。
func AuthMiddleware(authenticator Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := auth.BearerToken(c.GetHeader("Authorization"))
		if !ok {
			unauthorized(c)
			return
		}

		ident, err := authenticator.ValidateToken(token)
		if err != nil {
			unauthorized(c)
			return
		}

		auth.SetIdentity(c, *ident)
		c.Next()
	}
}

func unauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Could not validate credentials."})
}

// RequireRole は指定ロール以外を401で拒否します。AuthMiddleware の後に置きます。
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := auth.IdentityFrom(c)
		if !ok || ident.Role != role {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Authentication Failed"})
			return
		}
		c.Next()
	}
}

// RequestID はリクエストIDを発行 (または引き継ぎ) してレスポンスヘッダーにも付けます。
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(handlers.RequestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// RequestLogger はリクエストごとに1行の構造化ログを出します。
func RequestLogger(logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := handlers.RequestLogger(c, logger).WithFields(logrus.Fields{
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    c.Writer.Status(),
			"latency":   time.Since(start).String(),
			"client_ip": c.ClientIP(),
		})
		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			entry.Error("request completed")
		case status >= http.StatusBadRequest:
			entry.Warn("request completed")
		default:
			entry.Info("request completed")
		}
	}
}
