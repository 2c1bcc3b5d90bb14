package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"todo-app/backend/internal/models"
)

// ErrTodoNotFound はTODOが見つからない (または呼び出し元の所有でない) 場合のエラーです。
var ErrTodoNotFound = errors.New("todo not found")

// ErrOwnerNotFound は作成時に所有者のユーザーが存在しない場合のエラーです。
var ErrOwnerNotFound = errors.New("todo owner not found")

const todoColumns = "id, title, description, priority, completed, owner_id"

// TodoRepository はtodosテーブルへのアクセスを提供します。
// 所有者付きのメソッドは常に (id, owner_id) の両方で絞り込みます。
type TodoRepository struct {
	DB *sqlx.DB
}

// NewTodoRepository は新しいTodoRepositoryインスタンスを作成します。
func NewTodoRepository(db *sqlx.DB) *TodoRepository {
	return &TodoRepository{DB: db}
}

// Create は新しいTodoを挿入し、採番されたIDをセットして返します。
func (r *TodoRepository) Create(ctx context.Context, t *models.Todo) (*models.Todo, error) {
	query := "INSERT INTO todos (title, description, priority, completed, owner_id) VALUES (?, ?, ?, ?, ?)"
	id, err := insertReturningID(ctx, r.DB, query, t.Title, t.Description, t.Priority, t.Completed, t.OwnerID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrOwnerNotFound
		}
		return nil, fmt.Errorf("could not insert todo: %w", err)
	}
	t.ID = id
	return t, nil
}

// FindByOwner は指定ユーザーのTodoをID順で返します。0件の場合は空スライスです。
func (r *TodoRepository) FindByOwner(ctx context.Context, ownerID int) ([]*models.Todo, error) {
	todos := []*models.Todo{}
	query := r.DB.Rebind("SELECT " + todoColumns + " FROM todos WHERE owner_id = ? ORDER BY id")
	if err := r.DB.SelectContext(ctx, &todos, query, ownerID); err != nil {
		return nil, fmt.Errorf("could not query todos: %w", err)
	}
	return todos, nil
}

// FindAll はすべてのTodoを返します (管理者用)。
func (r *TodoRepository) FindAll(ctx context.Context) ([]*models.Todo, error) {
	todos := []*models.Todo{}
	if err := r.DB.SelectContext(ctx, &todos, "SELECT "+todoColumns+" FROM todos ORDER BY id"); err != nil {
		return nil, fmt.Errorf("could not query todos: %w", err)
	}
	return todos, nil
}

// FindByIDAndOwner は所有者で絞り込んでTodoを1件取得します。
func (r *TodoRepository) FindByIDAndOwner(ctx context.Context, id, ownerID int) (*models.Todo, error) {
	var t models.Todo
	query := r.DB.Rebind("SELECT " + todoColumns + " FROM todos WHERE id = ? AND owner_id = ?")
	if err := r.DB.GetContext(ctx, &t, query, id, ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTodoNotFound
		}
		return nil, fmt.Errorf("could not query todo: %w", err)
	}
	return &t, nil
}

// FindByID は所有者に関係なくTodoを取得します (管理者用)。
func (r *TodoRepository) FindByID(ctx context.Context, id int) (*models.Todo, error) {
	var t models.Todo
	if err := r.DB.GetContext(ctx, &t, r.DB.Rebind("SELECT "+todoColumns+" FROM todos WHERE id = ?"), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTodoNotFound
		}
		return nil, fmt.Errorf("could not query todo: %w", err)
	}
	return &t, nil
}

// Update は変更可能なフィールドをすべて置き換えます。
// 値が変わらない更新では MySQL の affected rows が0になるため、存在確認は呼び出し側で行います。
func (r *TodoRepository) Update(ctx context.Context, t *models.Todo) error {
	query := r.DB.Rebind("UPDATE todos SET title = ?, description = ?, priority = ?, completed = ? WHERE id = ? AND owner_id = ?")
	if _, err := r.DB.ExecContext(ctx, query, t.Title, t.Description, t.Priority, t.Completed, t.ID, t.OwnerID); err != nil {
		return fmt.Errorf("could not update todo: %w", err)
	}
	return nil
}

// Delete は所有者で絞り込んで1件削除します。
func (r *TodoRepository) Delete(ctx context.Context, id, ownerID int) error {
	result, err := r.DB.ExecContext(ctx, r.DB.Rebind("DELETE FROM todos WHERE id = ? AND owner_id = ?"), id, ownerID)
	if err != nil {
		return fmt.Errorf("could not delete todo: %w", err)
	}
	return requireAffected(result, ErrTodoNotFound)
}

// DeleteByID は所有者に関係なく1件削除します (管理者用)。
func (r *TodoRepository) DeleteByID(ctx context.Context, id int) error {
	result, err := r.DB.ExecContext(ctx, r.DB.Rebind("DELETE FROM todos WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("could not delete todo: %w", err)
	}
	return requireAffected(result, ErrTodoNotFound)
}

func requireAffected(result sql.Result, notFound error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return notFound
	}
	return nil
}
