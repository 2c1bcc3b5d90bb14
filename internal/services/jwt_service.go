package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"todo-app/backend/internal/models"
)

// ErrInvalidToken はアクセストークンの検証に失敗した場合のエラーです。
var ErrInvalidToken = errors.New("invalid token")

// accessClaims はアクセストークンのクレームです。sub にはユーザー名が入ります。
type accessClaims struct {
	ID   int    `json:"id"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWTService はJWTトークンの生成と検証を扱います。
type JWTService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTService は新しいJWTServiceを作成します。
func NewJWTService(secret string, ttl time.Duration) *JWTService {
	return &JWTService{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// GenerateToken はユーザーのアクセストークンを生成します。
func (s *JWTService) GenerateToken(user *models.User) (string, error) {
	now := s.now()
	claims := accessClaims{
		ID:   user.ID,
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign JWT token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken はJWTトークンを検証し、呼び出し元の Identity を返します。
// HS256 以外の署名方式、期限切れ、必須クレームの欠落はすべて ErrInvalidToken です。
func (s *JWTService) ValidateToken(tokenString string) (*models.Identity, error) {
	var claims accessClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" || claims.ID <= 0 {
		return nil, fmt.Errorf("%w: missing subject or id", ErrInvalidToken)
	}
	return &models.Identity{
		UserID:   claims.ID,
		Username: claims.Subject,
		Role:     claims.Role,
	}, nil
}
