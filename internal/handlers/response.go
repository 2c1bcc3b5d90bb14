// Package handlers はHTTPリクエストを処理するginハンドラーを提供します。
// エラーレスポンスはすべて {"detail": ...} の形です。
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"todo-app/backend/internal/auth"
	"todo-app/backend/internal/models"
	"todo-app/backend/internal/validation"
)

// RequestIDKey はリクエストIDを gin.Context に保存するキーです。
const RequestIDKey = "request_id"

// エラーメッセージ
const (
	msgCouldNotValidate = "Could not validate credentials."
	msgInternal         = "Internal server error"
)

// respondDetail は {"detail": msg} を返してハンドラーチェーンを止めます。
func respondDetail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": msg})
}

// respondValidation は422の構造化エラーを返します。
func respondValidation(c *gin.Context, err *validation.Error) {
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Fields})
}

// respondBindError はボディの解析・検証エラーを422で返します。
func respondBindError(c *gin.Context, err error) {
	respondValidation(c, validation.FromBindError(err))
}

// respondInternal は詳細をログにだけ出し、クライアントには汎用メッセージを返します。
func respondInternal(c *gin.Context, logger logrus.FieldLogger, err error) {
	RequestLogger(c, logger).WithError(err).Error("request failed")
	respondDetail(c, http.StatusInternalServerError, msgInternal)
}

// asValidation はerrが検証エラーなら422を返して true を返します。
func asValidation(c *gin.Context, err error) bool {
	var verr *validation.Error
	if errors.As(err, &verr) {
		respondValidation(c, verr)
		return true
	}
	return false
}

// RequestLogger はリクエストIDと呼び出し元を付けたログエントリーを返します。
func RequestLogger(c *gin.Context, logger logrus.FieldLogger) logrus.FieldLogger {
	entry := logger.WithField(RequestIDKey, c.GetString(RequestIDKey))
	if ident, ok := auth.IdentityFrom(c); ok {
		entry = entry.WithField("user_id", ident.UserID)
	}
	return entry
}

// currentIdentity は認証ミドルウェアが設定したIdentityを返します。
// 無い場合は401を返して ok=false です。
func currentIdentity(c *gin.Context) (models.Identity, bool) {
	ident, ok := auth.IdentityFrom(c)
	if !ok {
		c.Header("WWW-Authenticate", "Bearer")
		respondDetail(c, http.StatusUnauthorized, msgCouldNotValidate)
		return models.Identity{}, false
	}
	return ident, true
}
