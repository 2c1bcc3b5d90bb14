package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-app/backend/internal/books"
	"todo-app/backend/internal/models"
	"todo-app/backend/internal/validation"
)

func newBookService(t *testing.T) *BookService {
	seed, err := books.LoadSeed()
	require.NoError(t, err)
	store, err := books.NewStore(seed)
	require.NoError(t, err)
	return NewBookService(store)
}

func TestBookService_ListWithRating(t *testing.T) {
	svc := newBookService(t)

	all, err := svc.ListBooks(nil)
	require.NoError(t, err)
	assert.Len(t, all, 6)

	two := 2
	rated, err := svc.ListBooks(&two)
	require.NoError(t, err)
	require.Len(t, rated, 1)
	assert.Equal(t, "HP1", rated[0].Title)

	for _, bad := range []int{0, 6} {
		r := bad
		_, err := svc.ListBooks(&r)
		var verr *validation.Error
		assert.True(t, errors.As(err, &verr), "rating %d", bad)
	}
}

func TestBookService_CreateValidatesAndIgnoresID(t *testing.T) {
	svc := newBookService(t)

	id := 100
	created, err := svc.CreateBook(models.BookRequest{ID: &id, Title: "Book title", Author: "Some Author", Description: "Book description", Rating: 2})
	require.NoError(t, err)
	assert.Equal(t, 7, created.ID)

	_, err = svc.CreateBook(models.BookRequest{Title: "ab", Author: "Some Author", Description: "d", Rating: 6})
	var verr *validation.Error
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Fields, 2)

	all, err := svc.ListBooks(nil)
	require.NoError(t, err)
	assert.Len(t, all, 7)
}

func TestBookService_UpdateDelete(t *testing.T) {
	svc := newBookService(t)
	req := models.BookRequest{Title: "Updated", Author: "Some Author", Description: "Updated description", Rating: 4}

	require.NoError(t, svc.UpdateBook(1, req))
	b, err := svc.GetBook(1)
	require.NoError(t, err)
	assert.Equal(t, "Updated", b.Title)

	assert.ErrorIs(t, svc.UpdateBook(99, req), ErrBookNotFound)
	require.NoError(t, svc.DeleteBook(1))
	_, err = svc.GetBook(1)
	assert.ErrorIs(t, err, ErrBookNotFound)
}
