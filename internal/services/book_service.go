package services

import (
	"todo-app/backend/internal/books"
	"todo-app/backend/internal/models"
	"todo-app/backend/internal/validation"
)

// ErrBookNotFound は書籍が存在しない場合のエラーです。
var ErrBookNotFound = books.ErrNotFound

// BookService は公開書籍カタログの操作を扱います。認証は不要です。
type BookService struct {
	store *books.Store
}

func NewBookService(store *books.Store) *BookService {
	return &BookService{store: store}
}

// ListBooks は全書籍、または rating が指定された場合はその評価の書籍を返します。
func (s *BookService) ListBooks(rating *int) ([]models.Book, error) {
	if rating == nil {
		return s.store.All()
	}
	switch {
	case *rating < 1:
		return nil, validation.NewError([]string{"query", "rating"}, "greater_than", "Input should be greater than 0")
	case *rating > 5:
		return nil, validation.NewError([]string{"query", "rating"}, "less_than", "Input should be less than 6")
	}
	return s.store.ByRating(*rating)
}

func (s *BookService) GetBook(id int) (models.Book, error) {
	return s.store.Get(id)
}

// CreateBook は検証後に書籍を追加します。リクエストのIDは無視されます。
func (s *BookService) CreateBook(req models.BookRequest) (models.Book, error) {
	if err := validation.Struct(req); err != nil {
		return models.Book{}, err
	}
	return s.store.Create(req.ToBook())
}

func (s *BookService) UpdateBook(id int, req models.BookRequest) error {
	if err := validation.Struct(req); err != nil {
		return err
	}
	b := req.ToBook()
	b.ID = id
	return s.store.Update(b)
}

func (s *BookService) DeleteBook(id int) error {
	return s.store.Delete(id)
}
