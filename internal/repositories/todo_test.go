package repositories_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-app/backend/internal/models"
	"todo-app/backend/internal/repositories"
	"todo-app/backend/testutil"
)

func newRepos(t *testing.T) (*sqlx.DB, *repositories.TodoRepository, *repositories.UserRepository) {
	t.Helper()
	db := testutil.NewTestDB(t, testutil.TestConfig(t))
	return db, repositories.NewTodoRepository(db), repositories.NewUserRepository(db)
}

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return sqlx.NewDb(mockDB, "sqlmock"), mock
}

func TestTodoRepository_OwnerScoping(t *testing.T) {
	ctx := context.Background()
	_, todoRepo, userRepo := newRepos(t)
	alice := testutil.CreateTestUser(t, userRepo, "alice", "alice@example.com", "password123", models.RoleUser)
	bob := testutil.CreateTestUser(t, userRepo, "bob", "bob@example.com", "password123", models.RoleUser)

	empty, err := todoRepo.FindByOwner(ctx, alice.ID)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	a1, err := todoRepo.Create(ctx, &models.Todo{Title: "Alice one", Description: "first", Priority: 1, OwnerID: alice.ID})
	require.NoError(t, err)
	b1, err := todoRepo.Create(ctx, &models.Todo{Title: "Bob one", Description: "first", Priority: 2, Completed: true, OwnerID: bob.ID})
	require.NoError(t, err)
	a2, err := todoRepo.Create(ctx, &models.Todo{Title: "Alice two", Description: "second", Priority: 3, OwnerID: alice.ID})
	require.NoError(t, err)
	assert.Less(t, a1.ID, b1.ID)

	list, err := todoRepo.FindByOwner(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, a1.ID, list[0].ID)
	assert.Equal(t, a2.ID, list[1].ID)

	_, err = todoRepo.FindByIDAndOwner(ctx, b1.ID, alice.ID)
	assert.ErrorIs(t, err, repositories.ErrTodoNotFound)

	got, err := todoRepo.FindByIDAndOwner(ctx, b1.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, got.Completed)

	all, err := todoRepo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	assert.ErrorIs(t, todoRepo.Delete(ctx, b1.ID, alice.ID), repositories.ErrTodoNotFound)
	require.NoError(t, todoRepo.Delete(ctx, b1.ID, bob.ID))
	assert.ErrorIs(t, todoRepo.Delete(ctx, b1.ID, bob.ID), repositories.ErrTodoNotFound)
}

func TestTodoRepository_UpdateKeepsOwner(t *testing.T) {
	ctx := context.Background()
	_, todoRepo, userRepo := newRepos(t)
	alice := testutil.CreateTestUser(t, userRepo, "alice", "alice@example.com", "password123", models.RoleUser)
	bob := testutil.CreateTestUser(t, userRepo, "bob", "bob@example.com", "password123", models.RoleUser)

	todo, err := todoRepo.Create(ctx, &models.Todo{Title: "Original", Description: "desc", Priority: 2, OwnerID: alice.ID})
	require.NoError(t, err)

	// 他人のowner_idでの更新は何も変えない
	require.NoError(t, todoRepo.Update(ctx, &models.Todo{ID: todo.ID, Title: "Hijacked", Description: "x", Priority: 5, OwnerID: bob.ID}))
	got, err := todoRepo.FindByID(ctx, todo.ID)
	require.NoError(t, err)
	assert.Equal(t, "Original", got.Title)

	updated := *got
	updated.Title = "Changed"
	updated.Completed = true
	require.NoError(t, todoRepo.Update(ctx, &updated))
	require.NoError(t, todoRepo.Update(ctx, &updated))

	got, err = todoRepo.FindByID(ctx, todo.ID)
	require.NoError(t, err)
	assert.Equal(t, "Changed", got.Title)
	assert.True(t, got.Completed)
	assert.Equal(t, alice.ID, got.OwnerID)

	require.NoError(t, todoRepo.DeleteByID(ctx, todo.ID))
	_, err = todoRepo.FindByID(ctx, todo.ID)
	assert.ErrorIs(t, err, repositories.ErrTodoNotFound)
	assert.ErrorIs(t, todoRepo.DeleteByID(ctx, todo.ID), repositories.ErrTodoNotFound)
}

func TestTodoRepository_CascadeOnUserDelete(t *testing.T) {
	ctx := context.Background()
	db, todoRepo, userRepo := newRepos(t)
	alice := testutil.CreateTestUser(t, userRepo, "alice", "alice@example.com", "password123", models.RoleUser)

	_, err := todoRepo.Create(ctx, &models.Todo{Title: "Task", Description: "desc", Priority: 1, OwnerID: alice.ID})
	require.NoError(t, err)

	_, err = db.Exec("DELETE FROM users WHERE id = ?", alice.ID)
	require.NoError(t, err)

	all, err := todoRepo.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestTodoRepository_CreateWithMissingOwner(t *testing.T) {
	ctx := context.Background()
	_, todoRepo, _ := newRepos(t)

	_, err := todoRepo.Create(ctx, &models.Todo{Title: "Orphan", Description: "desc", Priority: 1, OwnerID: 999})
	assert.ErrorIs(t, err, repositories.ErrOwnerNotFound)

	all, err := todoRepo.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestTodoRepository_DatabaseErrors(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDB(t)
	repo := repositories.NewTodoRepository(db)
	dbErr := errors.New("connection reset")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, title, description, priority, completed, owner_id FROM todos WHERE owner_id = ?")).
		WithArgs(7).WillReturnError(dbErr)
	_, err := repo.FindByOwner(ctx, 7)
	assert.ErrorIs(t, err, dbErr)

	mock.ExpectQuery("SELECT .* FROM todos WHERE id = \\? AND owner_id = \\?").
		WithArgs(1, 7).WillReturnError(dbErr)
	_, err = repo.FindByIDAndOwner(ctx, 1, 7)
	assert.ErrorIs(t, err, dbErr)
	assert.NotErrorIs(t, err, repositories.ErrTodoNotFound)

	mock.ExpectExec("INSERT INTO todos").WillReturnError(dbErr)
	_, err = repo.Create(ctx, &models.Todo{Title: "x", OwnerID: 7})
	assert.ErrorIs(t, err, dbErr)

	mock.ExpectExec("UPDATE todos SET").WillReturnError(dbErr)
	assert.ErrorIs(t, repo.Update(ctx, &models.Todo{ID: 1, OwnerID: 7}), dbErr)

	mock.ExpectExec("DELETE FROM todos").WithArgs(1, 7).WillReturnResult(sqlmock.NewErrorResult(dbErr))
	assert.ErrorIs(t, repo.Delete(ctx, 1, 7), dbErr)

	assert.NoError(t, mock.ExpectationsWereMet())
}
