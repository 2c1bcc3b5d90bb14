package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt" // パスワードのハッシュ化用

	"todo-app/backend/internal/models"
)

var (
	ErrDuplicateUser = errors.New("duplicate username or email")
	ErrUserNotFound  = errors.New("user not found")
)

const userColumns = "id, email, username, first_name, last_name, password_hash, role, phone_number, is_active"

// UserRepository はusersテーブルへのアクセスを提供します。
type UserRepository struct {
	DB *sqlx.DB
}

// NewUserRepository は新しいUserRepositoryインスタンスを作成します。
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{DB: db}
}

// HashPassword は与えられたパスワードをbcryptでハッシュ化します。
func HashPassword(password string) (string, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashedPassword), nil
}

// VerifyPassword はハッシュ化されたパスワードと平文のパスワードを比較します。
func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// Create は新しいユーザーを挿入します。ユーザー名かメールアドレスが重複する場合は ErrDuplicateUser を返します。
func (r *UserRepository) Create(ctx context.Context, u *models.User) (*models.User, error) {
	query := "INSERT INTO users (email, username, first_name, last_name, password_hash, role, phone_number, is_active) VALUES (?, ?, ?, ?, ?, ?, ?, ?)"
	id, err := insertReturningID(ctx, r.DB, query, u.Email, u.Username, u.FirstName, u.LastName, u.PasswordHash, u.Role, u.PhoneNumber, u.IsActive)
	if err != nil {
		if isDuplicateKey(err) {
			return nil, ErrDuplicateUser
		}
		return nil, fmt.Errorf("could not insert user: %w", err)
	}
	u.ID = id
	return u, nil
}

// FindByID はIDでユーザーを検索します。
func (r *UserRepository) FindByID(ctx context.Context, id int) (*models.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByEmail はメールアドレスでユーザーを検索します。
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

// FindByLogin はユーザー名またはメールアドレスでユーザーを検索します。
func (r *UserRepository) FindByLogin(ctx context.Context, login string) (*models.User, error) {
	return r.findOne(ctx, "username = ? OR email = ?", login, login)
}

func (r *UserRepository) findOne(ctx context.Context, where string, args ...interface{}) (*models.User, error) {
	var u models.User
	query := r.DB.Rebind("SELECT " + userColumns + " FROM users WHERE " + where)
	if err := r.DB.GetContext(ctx, &u, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("could not query user: %w", err)
	}
	return &u, nil
}

// UpdatePassword はユーザーのパスワードハッシュを更新します。
func (r *UserRepository) UpdatePassword(ctx context.Context, userID int, newHash string) error {
	res, err := r.DB.ExecContext(ctx, r.DB.Rebind("UPDATE users SET password_hash = ? WHERE id = ?"), newHash, userID)
	if err != nil {
		return fmt.Errorf("could not update password: %w", err)
	}
	return requireAffected(res, ErrUserNotFound)
}

// UpdatePhoneNumber はユーザーの電話番号を更新します。
// 同じ値での更新でも成功とするため、存在確認はしません。
func (r *UserRepository) UpdatePhoneNumber(ctx context.Context, userID int, phoneNumber string) error {
	if _, err := r.DB.ExecContext(ctx, r.DB.Rebind("UPDATE users SET phone_number = ? WHERE id = ?"), phoneNumber, userID); err != nil {
		return fmt.Errorf("could not update phone number: %w", err)
	}
	return nil
}
