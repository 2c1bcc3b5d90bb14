package models

// ロール
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User はユーザーのデータベース構造体を表します。
type User struct {
	ID           int    `json:"id" db:"id"`
	Email        string `json:"email" db:"email"`
	Username     string `json:"username" db:"username"`
	FirstName    string `json:"first_name" db:"first_name"`
	LastName     string `json:"last_name" db:"last_name"`
	PasswordHash string `json:"-" db:"password_hash"` // JSONに出さない
	Role         string `json:"role" db:"role"`
	PhoneNumber  string `json:"phone_number" db:"phone_number"`
	IsActive     bool   `json:"is_active" db:"is_active"`
}

// UserRegisterRequest は公開の登録リクエストです。ロールは受け付けず、常に user で作成します。
type UserRegisterRequest struct {
	Username    string `json:"username" binding:"required,min=3,max=50"`
	Email       string `json:"email" binding:"required,email"`
	FirstName   string `json:"first_name" binding:"max=50"`
	LastName    string `json:"last_name" binding:"max=50"`
	Password    string `json:"password" binding:"required,min=8"` // 生パスワード
	PhoneNumber string `json:"phone_number" binding:"max=20"`
}

// UserLoginRequest は OAuth2 のパスワードフォームと同じ形です。
// username にはユーザー名またはメールアドレスを指定できます。
type UserLoginRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

type UserForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type UserResetPasswordRequest struct {
	Password string `json:"password" binding:"required,min=8"`
}

type UserChangePasswordRequest struct {
	Password    string `json:"password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

// PasswordResetToken は一回限り有効なリセットトークンです。時刻はUNIX秒で保存します。
type PasswordResetToken struct {
	ID        int    `json:"id" db:"id"`
	UserID    int    `json:"user_id" db:"user_id"`
	Token     string `json:"token" db:"token"`
	ExpiresAt int64  `json:"expires_at" db:"expires_at"`
	UsedAt    *int64 `json:"used_at" db:"used_at"`
}

// Identity は検証済みのアクセストークンから得られる呼び出し元の情報です。
// ハンドラーからサービスへ明示的な引数として渡します。
type Identity struct {
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// IsAdmin は管理者ロールかどうかを返します。
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}
