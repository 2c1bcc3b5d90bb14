package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"todo-app/backend/internal/models"
	"todo-app/backend/internal/repositories"
	"todo-app/backend/internal/validation"
)

// リセットトークンの有効期限
const resetTokenTTL = time.Hour

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidResetToken  = errors.New("invalid reset token")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenUsed          = errors.New("token already used")
)

// UserStore はUserServiceが必要とするユーザーの永続化操作です。
type UserStore interface {
	Create(ctx context.Context, u *models.User) (*models.User, error)
	FindByID(ctx context.Context, id int) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByLogin(ctx context.Context, login string) (*models.User, error)
	UpdatePassword(ctx context.Context, userID int, newHash string) error
	UpdatePhoneNumber(ctx context.Context, userID int, phoneNumber string) error
}

// ResetTokenStore はパスワードリセットトークンの永続化操作です。
type ResetTokenStore interface {
	Save(ctx context.Context, t *models.PasswordResetToken) error
	FindByToken(ctx context.Context, token string) (*models.PasswordResetToken, error)
	MarkUsed(ctx context.Context, id int, now int64) error
	CleanupExpired(ctx context.Context, now int64) (int64, error)
}

// UserService はユーザー関連のビジネスロジックを扱います。
type UserService struct {
	userRepo       UserStore
	resetTokenRepo ResetTokenStore
	mailer         Mailer
	frontendURL    string
	logger         logrus.FieldLogger
	now            func() time.Time
}

// NewUserService は新しいUserServiceを作成します。
func NewUserService(userRepo UserStore, resetTokenRepo ResetTokenStore, mailer Mailer, frontendURL string, logger logrus.FieldLogger) *UserService {
	return &UserService{
		userRepo:       userRepo,
		resetTokenRepo: resetTokenRepo,
		mailer:         mailer,
		frontendURL:    strings.TrimRight(frontendURL, "/"),
		logger:         logger,
		now:            time.Now,
	}
}

// RegisterUser はユーザーを登録します。管理者は登録APIからは作れません。
func (s *UserService) RegisterUser(ctx context.Context, req models.UserRegisterRequest) (*models.User, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	hashedPassword, err := repositories.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	newUser := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: hashedPassword,
		Role:         models.RoleUser,
		PhoneNumber:  req.PhoneNumber,
		IsActive:     true,
	}

	return s.userRepo.Create(ctx, newUser)
}

// AuthenticateUser はユーザー名またはメールアドレスとパスワードで認証します。
// ユーザーが存在しない・無効・パスワード不一致はすべて ErrInvalidCredentials です。
func (s *UserService) AuthenticateUser(ctx context.Context, req models.UserLoginRequest) (*models.User, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	foundUser, err := s.userRepo.FindByLogin(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !foundUser.IsActive {
		return nil, ErrInvalidCredentials
	}
	if err := repositories.VerifyPassword(foundUser.PasswordHash, req.Password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return foundUser, nil
}

// GetProfile は呼び出し元のユーザー情報を返します。
func (s *UserService) GetProfile(ctx context.Context, ident models.Identity) (*models.User, error) {
	if err := requireIdentity(ident); err != nil {
		return nil, err
	}
	return s.userRepo.FindByID(ctx, ident.UserID)
}

// ChangePassword は現在のパスワードを確認してから新しいパスワードに変更します。
func (s *UserService) ChangePassword(ctx context.Context, ident models.Identity, req models.UserChangePasswordRequest) error {
	if err := requireIdentity(ident); err != nil {
		return err
	}
	if err := validation.Struct(req); err != nil {
		return err
	}

	u, err := s.userRepo.FindByID(ctx, ident.UserID)
	if err != nil {
		return err
	}
	if err := repositories.VerifyPassword(u.PasswordHash, req.Password); err != nil {
		return ErrInvalidCredentials
	}

	hashedPassword, err := repositories.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	return s.userRepo.UpdatePassword(ctx, u.ID, hashedPassword)
}

// ChangePhoneNumber は呼び出し元の電話番号を変更します。
func (s *UserService) ChangePhoneNumber(ctx context.Context, ident models.Identity, phoneNumber string) error {
	if err := requireIdentity(ident); err != nil {
		return err
	}
	switch n := len([]rune(phoneNumber)); {
	case n == 0:
		return validation.NewError([]string{"path", "phone_number"}, "string_too_short", "String should have at least 1 character")
	case n > 20:
		return validation.NewError([]string{"path", "phone_number"}, "string_too_long", "String should have at most 20 characters")
	}
	return s.userRepo.UpdatePhoneNumber(ctx, ident.UserID, phoneNumber)
}

// ForgotPasswordUser はリセットトークンを発行してメールで送ります。
// アカウントの存在を漏らさないため、ユーザーが居なくても成功を返します。
func (s *UserService) ForgotPasswordUser(ctx context.Context, req models.UserForgotPasswordRequest) error {
	if err := validation.Struct(req); err != nil {
		return err
	}

	u, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			s.logger.Debug("password reset requested for unknown email")
			return nil
		}
		return err
	}

	token, err := generateResetToken()
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}

	resetToken := &models.PasswordResetToken{
		UserID:    u.ID,
		Token:     token,
		ExpiresAt: s.now().Add(resetTokenTTL).Unix(),
	}
	if err := s.resetTokenRepo.Save(ctx, resetToken); err != nil {
		return fmt.Errorf("failed to save reset token: %w", err)
	}

	resetURL := fmt.Sprintf("%s/reset-password/%s", s.frontendURL, token)
	if err := s.mailer.SendPasswordReset(ctx, u.Email, resetURL); err != nil {
		// メールが送れなくてもリクエスト自体は成功扱い
		s.logger.WithError(err).WithField("user_id", u.ID).Warn("failed to send password reset email")
	}
	return nil
}

// generateResetToken はパスワードリセット用のランダムトークン (16進64文字) を生成します。
func generateResetToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// ResetPasswordUser はトークンを使ってパスワードをリセットします。
// トークンは先に使用済みにするため、同時に2回使われても成功するのは1回だけです。
func (s *UserService) ResetPasswordUser(ctx context.Context, token string, req models.UserResetPasswordRequest) error {
	if err := validation.Struct(req); err != nil {
		return err
	}

	resetToken, err := s.resetTokenRepo.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repositories.ErrResetTokenNotFound) {
			return ErrInvalidResetToken
		}
		return err
	}

	now := s.now().Unix()
	if resetToken.UsedAt != nil {
		return ErrTokenUsed
	}
	if now > resetToken.ExpiresAt {
		return ErrTokenExpired
	}

	hashedPassword, err := repositories.HashPassword(req.Password)
	if err != nil {
		return err
	}

	if err := s.resetTokenRepo.MarkUsed(ctx, resetToken.ID, now); err != nil {
		if errors.Is(err, repositories.ErrResetTokenNotFound) {
			return ErrTokenUsed
		}
		return err
	}
	if err := s.userRepo.UpdatePassword(ctx, resetToken.UserID, hashedPassword); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// CleanupResetTokens は期限切れ・使用済みのリセットトークンを削除します。
func (s *UserService) CleanupResetTokens(ctx context.Context) (int64, error) {
	return s.resetTokenRepo.CleanupExpired(ctx, s.now().Unix())
}
