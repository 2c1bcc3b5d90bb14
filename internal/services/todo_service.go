package services

import (
	"context"
	"errors"

	"todo-app/backend/internal/models"
	"todo-app/backend/internal/repositories"
	"todo-app/backend/internal/validation"
)

var (
	// ErrUnauthenticated は検証済みの呼び出し元が無い場合のエラーです。
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrNotAdmin は管理者専用の操作を一般ユーザーが呼んだ場合のエラーです。
	ErrNotAdmin = errors.New("admin role required")
)

// TodoStore はTodoServiceが必要とする永続化の操作です。
// repositories.TodoRepository がこれを満たします。
type TodoStore interface {
	FindByOwner(ctx context.Context, ownerID int) ([]*models.Todo, error)
	FindByIDAndOwner(ctx context.Context, id, ownerID int) (*models.Todo, error)
	Create(ctx context.Context, t *models.Todo) (*models.Todo, error)
	Update(ctx context.Context, t *models.Todo) error
	Delete(ctx context.Context, id, ownerID int) error
	FindAll(ctx context.Context) ([]*models.Todo, error)
	DeleteByID(ctx context.Context, id int) error
}

// TodoService はTodo関連のビジネスロジックを扱います。
// すべての操作は 認証 → 検証 → ストア の順で行い、検証に失敗した場合はストアに触れません。
// 他人のTodoと存在しないTodoは区別せず repositories.ErrTodoNotFound を返します。
type TodoService struct {
	todoRepo TodoStore
}

// NewTodoService は新しいTodoServiceを作成します。
func NewTodoService(todoRepo TodoStore) *TodoService {
	return &TodoService{todoRepo: todoRepo}
}

// GetTodos は呼び出し元が所有するTodoをID順で返します。
func (s *TodoService) GetTodos(ctx context.Context, ident models.Identity) ([]*models.Todo, error) {
	if err := requireIdentity(ident); err != nil {
		return nil, err
	}
	return s.todoRepo.FindByOwner(ctx, ident.UserID)
}

// GetTodoByID は呼び出し元が所有するTodoを1件返します。
func (s *TodoService) GetTodoByID(ctx context.Context, ident models.Identity, id int) (*models.Todo, error) {
	if err := requireIdentity(ident); err != nil {
		return nil, err
	}
	if err := checkTodoID(id); err != nil {
		return nil, err
	}
	return s.todoRepo.FindByIDAndOwner(ctx, id, ident.UserID)
}

// CreateTodo は検証済みのリクエストから呼び出し元所有のTodoを作成します。
func (s *TodoService) CreateTodo(ctx context.Context, ident models.Identity, req models.TodoRequest) (*models.Todo, error) {
	if err := requireIdentity(ident); err != nil {
		return nil, err
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	todo := &models.Todo{OwnerID: ident.UserID}
	req.Apply(todo)
	created, err := s.todoRepo.Create(ctx, todo)
	if err != nil {
		// トークンは有効でもアカウントが削除済み
		if errors.Is(err, repositories.ErrOwnerNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	return created, nil
}

// UpdateTodo は変更可能なフィールドをすべて置き換えます。
// 同じ内容で2回更新しても両方成功します。
func (s *TodoService) UpdateTodo(ctx context.Context, ident models.Identity, id int, req models.TodoRequest) error {
	if err := requireIdentity(ident); err != nil {
		return err
	}
	if err := checkTodoID(id); err != nil {
		return err
	}
	if err := validation.Struct(req); err != nil {
		return err
	}

	existing, err := s.todoRepo.FindByIDAndOwner(ctx, id, ident.UserID)
	if err != nil {
		return err
	}
	req.Apply(existing)
	// id と owner_id は既存の値を保持
	return s.todoRepo.Update(ctx, existing)
}

// DeleteTodo は呼び出し元が所有するTodoを削除します。
func (s *TodoService) DeleteTodo(ctx context.Context, ident models.Identity, id int) error {
	if err := requireIdentity(ident); err != nil {
		return err
	}
	if err := checkTodoID(id); err != nil {
		return err
	}
	if _, err := s.todoRepo.FindByIDAndOwner(ctx, id, ident.UserID); err != nil {
		return err
	}
	return s.todoRepo.Delete(ctx, id, ident.UserID)
}

// GetAllTodos は全ユーザーのTodoを返します。管理者のみ。
func (s *TodoService) GetAllTodos(ctx context.Context, ident models.Identity) ([]*models.Todo, error) {
	if err := requireAdmin(ident); err != nil {
		return nil, err
	}
	return s.todoRepo.FindAll(ctx)
}

// DeleteAnyTodo は所有者に関係なくTodoを削除します。管理者のみ。
func (s *TodoService) DeleteAnyTodo(ctx context.Context, ident models.Identity, id int) error {
	if err := requireAdmin(ident); err != nil {
		return err
	}
	if err := checkTodoID(id); err != nil {
		return err
	}
	return s.todoRepo.DeleteByID(ctx, id)
}

func requireIdentity(ident models.Identity) error {
	if ident.UserID <= 0 {
		return ErrUnauthenticated
	}
	return nil
}

func requireAdmin(ident models.Identity) error {
	if err := requireIdentity(ident); err != nil {
		return err
	}
	if !ident.IsAdmin() {
		return ErrNotAdmin
	}
	return nil
}

func checkTodoID(id int) error {
	if id <= 0 {
		return validation.NewError([]string{"path", "todo_id"}, "greater_than", "Input should be greater than 0")
	}
	return nil
}
