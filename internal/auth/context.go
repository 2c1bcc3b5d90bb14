// Package auth はgin.Contextに検証済みの呼び出し元 (Identity) を出し入れします。
package auth

import (
	"strings"

	"github.com/gin-gonic/gin"

	"todo-app/backend/internal/models"
)

const identityKey = "identity"

// SetIdentity は認証ミドルウェアが検証済みのIdentityを保存するために使います。
func SetIdentity(c *gin.Context, ident models.Identity) {
	c.Set(identityKey, ident)
}

// IdentityFrom は保存されたIdentityを返します。無い場合は ok=false です。
func IdentityFrom(c *gin.Context) (models.Identity, bool) {
	v, exists := c.Get(identityKey)
	if !exists {
		return models.Identity{}, false
	}
	ident, ok := v.(models.Identity)
	return ident, ok
}

// BearerToken は Authorization ヘッダーからトークンを取り出します。
// スキーム名の大文字小文字は区別しません。トークンが空の場合は ok=false です。
func BearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
