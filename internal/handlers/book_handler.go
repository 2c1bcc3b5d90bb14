package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"todo-app/backend/internal/models"
	"todo-app/backend/internal/services"
	"todo-app/backend/internal/validation"
)

// BookHandler は公開書籍カタログのハンドラーです。
type BookHandler struct {
	bookService *services.BookService
	logger      logrus.FieldLogger
}

func NewBookHandler(bookService *services.BookService, logger logrus.FieldLogger) *BookHandler {
	return &BookHandler{bookService: bookService, logger: logger}
}

// ListBooksHandler は全書籍を返します。?rating=N で絞り込めます。
func (h *BookHandler) ListBooksHandler(c *gin.Context) {
	var rating *int
	if raw, ok := c.GetQuery("rating"); ok {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondValidation(c, validation.NewError([]string{"query", "rating"}, "int_parsing", "Input should be a valid integer, unable to parse string as an integer"))
			return
		}
		rating = &n
	}

	list, err := h.bookService.ListBooks(rating)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *BookHandler) GetBookHandler(c *gin.Context) {
	id, ok := bookID(c)
	if !ok {
		return
	}
	b, err := h.bookService.GetBook(id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookHandler) CreateBookHandler(c *gin.Context) {
	var req models.BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	b, err := h.bookService.CreateBook(req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h *BookHandler) UpdateBookHandler(c *gin.Context) {
	id, ok := bookID(c)
	if !ok {
		return
	}
	var req models.BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if err := h.bookService.UpdateBook(id, req); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *BookHandler) DeleteBookHandler(c *gin.Context) {
	id, ok := bookID(c)
	if !ok {
		return
	}
	if err := h.bookService.DeleteBook(id); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *BookHandler) handleError(c *gin.Context, err error) {
	if asValidation(c, err) {
		return
	}
	if errors.Is(err, services.ErrBookNotFound) {
		respondDetail(c, http.StatusNotFound, "Book not found")
		return
	}
	respondInternal(c, h.logger, err)
}

func bookID(c *gin.Context) (int, bool) {
	id, err := validation.PositiveInt("book_id", c.Param("id"))
	if err != nil {
		asValidation(c, err)
		return 0, false
	}
	return id, true
}
