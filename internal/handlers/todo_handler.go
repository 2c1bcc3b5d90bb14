package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"todo-app/backend/internal/models"
	"todo-app/backend/internal/repositories"
	"todo-app/backend/internal/services"
	"todo-app/backend/internal/validation"
)

// TodoHandler はTodo関連のハンドラーを管理します。
// 処理順は 認証 → パスID → ボディ → ストア で固定です。
type TodoHandler struct {
	todoService *services.TodoService
	logger      logrus.FieldLogger
}

// NewTodoHandler は新しいTodoHandlerを作成します。
func NewTodoHandler(todoService *services.TodoService, logger logrus.FieldLogger) *TodoHandler {
	return &TodoHandler{todoService: todoService, logger: logger}
}

// GetTodosHandler は呼び出し元のTodoリストを返します。
func (h *TodoHandler) GetTodosHandler(c *gin.Context) {
	ident, ok := currentIdentity(c)
	if !ok {
		return
	}

	todos, err := h.todoService.GetTodos(c.Request.Context(), ident)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, todos)
}

// GetTodoByIDHandler は指定IDのTodoを返します。
func (h *TodoHandler) GetTodoByIDHandler(c *gin.Context) {
	ident, ok := currentIdentity(c)
	if !ok {
		return
	}
	id, ok := todoID(c)
	if !ok {
		return
	}

	todo, err := h.todoService.GetTodoByID(c.Request.Context(), ident, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, todo)
}

// CreateTodoHandler は新しいTodoを作成し、201で作成したTodoを返します。
func (h *TodoHandler) CreateTodoHandler(c *gin.Context) {
	ident, ok := currentIdentity(c)
	if !ok {
		return
	}
	var req models.TodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	createdTodo, err := h.todoService.CreateTodo(c.Request.Context(), ident, req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, createdTodo)
}

// UpdateTodoHandler はTodoのフィールドをすべて置き換えます。
func (h *TodoHandler) UpdateTodoHandler(c *gin.Context) {
	ident, ok := currentIdentity(c)
	if !ok {
		return
	}
	id, ok := todoID(c)
	if !ok {
		return
	}
	var req models.TodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.todoService.UpdateTodo(c.Request.Context(), ident, id, req); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteTodoHandler はTodoを削除します。
func (h *TodoHandler) DeleteTodoHandler(c *gin.Context) {
	ident, ok := currentIdentity(c)
	if !ok {
		return
	}
	id, ok := todoID(c)
	if !ok {
		return
	}

	if err := h.todoService.DeleteTodo(c.Request.Context(), ident, id); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TodoHandler) handleError(c *gin.Context, err error) {
	if asValidation(c, err) {
		return
	}
	switch {
	case errors.Is(err, repositories.ErrTodoNotFound):
		respondDetail(c, http.StatusNotFound, "Todo not found")
	case errors.Is(err, services.ErrUnauthenticated):
		c.Header("WWW-Authenticate", "Bearer")
		respondDetail(c, http.StatusUnauthorized, msgCouldNotValidate)
	case errors.Is(err, services.ErrNotAdmin):
		respondDetail(c, http.StatusUnauthorized, "Authentication Failed")
	default:
		respondInternal(c, h.logger, err)
	}
}

// todoID はパスの :id を1以上の整数として取り出します。失敗時は422を返します。
func todoID(c *gin.Context) (int, bool) {
	id, err := validation.PositiveInt("todo_id", c.Param("id"))
	if err != nil {
		asValidation(c, err)
		return 0, false
	}
	return id, true
}
