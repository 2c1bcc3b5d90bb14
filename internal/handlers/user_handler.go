package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"todo-app/backend/internal/models"
	"todo-app/backend/internal/repositories"
	"todo-app/backend/internal/services"
)

// LoginRecorder はログイン失敗を記録します (metrics.Metrics が満たします)。
type LoginRecorder interface {
	LoginFailed()
}

// UserHandler は認証とユーザー関連のハンドラーを管理します。
type UserHandler struct {
	userService *services.UserService
	jwtService  *services.JWTService
	recorder    LoginRecorder
	logger      logrus.FieldLogger
}

// NewUserHandler は新しいUserHandlerを作成します。
func NewUserHandler(userService *services.UserService, jwtService *services.JWTService, recorder LoginRecorder, logger logrus.FieldLogger) *UserHandler {
	return &UserHandler{userService: userService, jwtService: jwtService, recorder: recorder, logger: logger}
}

// RegisterHandler はユーザー登録を処理します。
func (h *UserHandler) RegisterHandler(c *gin.Context) {
	var req models.UserRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.userService.RegisterUser(c.Request.Context(), req)
	if err != nil {
		if asValidation(c, err) {
			return
		}
		if errors.Is(err, repositories.ErrDuplicateUser) {
			respondDetail(c, http.StatusConflict, "Username or email already exists")
			return
		}
		respondInternal(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

// LoginHandler はユーザー名 (またはメールアドレス) とパスワードでアクセストークンを発行します。
// JSONとフォーム (OAuth2 パスワードフロー) の両方を受け付けます。
func (h *UserHandler) LoginHandler(c *gin.Context) {
	var req models.UserLoginRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.userService.AuthenticateUser(c.Request.Context(), req)
	if err != nil {
		if asValidation(c, err) {
			return
		}
		if errors.Is(err, services.ErrInvalidCredentials) {
			h.recorder.LoginFailed()
			RequestLogger(c, h.logger).WithField("username", req.Username).Info("login rejected")
			respondDetail(c, http.StatusUnauthorized, "Could not validate user.")
			return
		}
		respondInternal(c, h.logger, err)
		return
	}

	token, err := h.jwtService.GenerateToken(user)
	if err != nil {
		respondInternal(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "bearer"})
}

// ForgotPasswordHandler はリセットメールを送ります。アカウントの有無に関わらず200です。
func (h *UserHandler) ForgotPasswordHandler(c *gin.Context) {
	var req models.UserForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.userService.ForgotPasswordUser(c.Request.Context(), req); err != nil {
		if asValidation(c, err) {
			return
		}
		respondInternal(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "If the email exists, a password reset link has been sent"})
}

// ResetPasswordHandler はトークンを使ってパスワードを再設定します。
func (h *UserHandler) ResetPasswordHandler(c *gin.Context) {
	var req models.UserResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	err := h.userService.ResetPasswordUser(c.Request.Context(), c.Param("token"), req)
	if err != nil {
		if asValidation(c, err) {
			return
		}
		switch {
		case errors.Is(err, services.ErrInvalidResetToken):
			respondDetail(c, http.StatusBadRequest, "Invalid reset token")
		case errors.Is(err, services.ErrTokenExpired):
			respondDetail(c, http.StatusBadRequest, "Reset token expired")
		case errors.Is(err, services.ErrTokenUsed):
			respondDetail(c, http.StatusBadRequest, "Reset token already used")
		default:
			respondInternal(c, h.logger, err)
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password has been reset"})
}

// GetUserHandler は呼び出し元のプロフィールを返します。
func (h *UserHandler) GetUserHandler(c *gin.Context) {
	ident, ok := currentIdentity(c)
	if !ok {
		return
	}

	user, err := h.userService.GetProfile(c.Request.Context(), ident)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			respondDetail(c, http.StatusNotFound, "User not found")
			return
		}
		respondInternal(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// ChangePasswordHandler は現在のパスワードを確認して変更します。
func (h *UserHandler) ChangePasswordHandler(c *gin.Context) {
	ident, ok := currentIdentity(c)
	if !ok {
		return
	}
	var req models.UserChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.userService.ChangePassword(c.Request.Context(), ident, req); err != nil {
		if asValidation(c, err) {
			return
		}
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			respondDetail(c, http.StatusUnauthorized, "Error on password change")
		case errors.Is(err, repositories.ErrUserNotFound):
			respondDetail(c, http.StatusNotFound, "User not found")
		default:
			respondInternal(c, h.logger, err)
		}
		return
	}
	c.Status(http.StatusNoContent)
}

// ChangePhoneNumberHandler は電話番号を変更します。
func (h *UserHandler) ChangePhoneNumberHandler(c *gin.Context) {
	ident, ok := currentIdentity(c)
	if !ok {
		return
	}

	if err := h.userService.ChangePhoneNumber(c.Request.Context(), ident, c.Param("phone_number")); err != nil {
		if asValidation(c, err) {
			return
		}
		respondInternal(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
