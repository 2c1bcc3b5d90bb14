package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"todo-app/backend/internal/models"
)

var ErrResetTokenNotFound = errors.New("reset token not found")

// ResetTokenRepository はpassword_reset_tokensテーブルへのアクセスを提供します。
// 時刻はすべてUNIX秒で扱います。
type ResetTokenRepository struct {
	DB *sqlx.DB
}

func NewResetTokenRepository(db *sqlx.DB) *ResetTokenRepository {
	return &ResetTokenRepository{DB: db}
}

func (r *ResetTokenRepository) Save(ctx context.Context, t *models.PasswordResetToken) error {
	id, err := insertReturningID(ctx, r.DB,
		"INSERT INTO password_reset_tokens (user_id, token, expires_at) VALUES (?, ?, ?)",
		t.UserID, t.Token, t.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("could not insert reset token: %w", err)
	}
	t.ID = id
	return nil
}

func (r *ResetTokenRepository) FindByToken(ctx context.Context, token string) (*models.PasswordResetToken, error) {
	var pr models.PasswordResetToken
	query := r.DB.Rebind("SELECT id, user_id, token, expires_at, used_at FROM password_reset_tokens WHERE token = ?")
	if err := r.DB.GetContext(ctx, &pr, query, token); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrResetTokenNotFound
		}
		return nil, fmt.Errorf("could not query reset token: %w", err)
	}
	return &pr, nil
}

// MarkUsed はトークンを使用済みにします。既に使用済みの場合は ErrResetTokenNotFound です。
func (r *ResetTokenRepository) MarkUsed(ctx context.Context, id int, now int64) error {
	res, err := r.DB.ExecContext(ctx,
		r.DB.Rebind("UPDATE password_reset_tokens SET used_at = ? WHERE id = ? AND used_at IS NULL"),
		now, id,
	)
	if err != nil {
		return fmt.Errorf("could not mark reset token used: %w", err)
	}
	return requireAffected(res, ErrResetTokenNotFound)
}

// CleanupExpired は使用済みまたは期限切れのトークンを削除し、削除件数を返します。
func (r *ResetTokenRepository) CleanupExpired(ctx context.Context, now int64) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		r.DB.Rebind("DELETE FROM password_reset_tokens WHERE used_at IS NOT NULL OR expires_at < ?"),
		now,
	)
	if err != nil {
		return 0, fmt.Errorf("could not cleanup reset tokens: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("could not get rows affected: %w", err)
	}
	return n, nil
}
