package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"todo-app/backend/internal/services"
)

// AdminHandler は管理者用のTodo操作を扱います。
type AdminHandler struct {
	todos *TodoHandler
}

func NewAdminHandler(todoService *services.TodoService, logger logrus.FieldLogger) *AdminHandler {
	return &AdminHandler{todos: NewTodoHandler(todoService, logger)}
}

// ListAllTodosHandler は全ユーザーのTodoを返します。
func (h *AdminHandler) ListAllTodosHandler(c *gin.Context) {
	ident, ok := currentIdentity(c)
	if !ok {
		return
	}

	todos, err := h.todos.todoService.GetAllTodos(c.Request.Context(), ident)
	if err != nil {
		h.todos.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, todos)
}

// DeleteTodoHandler は所有者に関係なくTodoを削除します。
func (h *AdminHandler) DeleteTodoHandler(c *gin.Context) {
	ident, ok := currentIdentity(c)
	if !ok {
		return
	}
	id, ok := todoID(c)
	if !ok {
		return
	}

	if err := h.todos.todoService.DeleteAnyTodo(c.Request.Context(), ident, id); err != nil {
		h.todos.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
