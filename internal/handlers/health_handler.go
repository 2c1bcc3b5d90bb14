package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Pinger はデータベースの疎通確認に使います (*sqlx.DB が満たします)。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler はヘルスチェックを扱います。
type HealthHandler struct {
	db     Pinger
	logger logrus.FieldLogger
}

func NewHealthHandler(db Pinger, logger logrus.FieldLogger) *HealthHandler {
	return &HealthHandler{db: db, logger: logger}
}

// Healthcheck はプロセスが応答できることだけを返します。
func (h *HealthHandler) Healthcheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "Healthy"})
}

// DBCheck はデータベースへのPingを行います。
func (h *HealthHandler) DBCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		RequestLogger(c, h.logger).WithError(err).Warn("database ping failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "detail": "Database connection failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
