package books

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-app/backend/internal/models"
)

func newSeededStore(t *testing.T) *Store {
	seed, err := LoadSeed()
	require.NoError(t, err)
	store, err := NewStore(seed)
	require.NoError(t, err)
	return store
}

func TestLoadSeed(t *testing.T) {
	seed, err := LoadSeed()
	require.NoError(t, err)
	require.Len(t, seed, 6)
	assert.Equal(t, 1, seed[0].ID)
	assert.Equal(t, "Computer Science Pro", seed[0].Title)
	assert.Equal(t, 1, seed[5].Rating)
}

func TestStore_AllIsSortedByID(t *testing.T) {
	store := newSeededStore(t)

	all, err := store.All()
	require.NoError(t, err)
	require.Len(t, all, 6)
	for i, b := range all {
		assert.Equal(t, i+1, b.ID)
	}
}

func TestStore_ByRating(t *testing.T) {
	store := newSeededStore(t)

	five, err := store.ByRating(5)
	require.NoError(t, err)
	require.Len(t, five, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{five[0].ID, five[1].ID, five[2].ID})

	none, err := store.ByRating(4)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestStore_CreateAssignsLastPlusOne(t *testing.T) {
	store := newSeededStore(t)

	created, err := store.Create(models.Book{ID: 99, Title: "New Book", Author: "Someone", Description: "d", Rating: 4})
	require.NoError(t, err)
	assert.Equal(t, 7, created.ID, "リクエストのIDは無視される")

	got, err := store.Get(7)
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func TestStore_CreateOnEmptyStartsAtOne(t *testing.T) {
	store, err := NewStore(nil)
	require.NoError(t, err)

	created, err := store.Create(models.Book{Title: "First", Author: "Someone", Description: "d", Rating: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, created.ID)
}

func TestStore_UpdateAndDelete(t *testing.T) {
	store := newSeededStore(t)

	err := store.Update(models.Book{ID: 4, Title: "HP1 Revised", Author: "Author 1", Description: "New", Rating: 4})
	require.NoError(t, err)
	got, err := store.Get(4)
	require.NoError(t, err)
	assert.Equal(t, "HP1 Revised", got.Title)
	assert.Equal(t, 4, got.Rating)

	// 評価インデックスも更新される
	four, err := store.ByRating(4)
	require.NoError(t, err)
	require.Len(t, four, 1)
	assert.Equal(t, 4, four[0].ID)

	require.NoError(t, store.Delete(4))
	_, err = store.Get(4)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Delete(4), ErrNotFound)
	assert.ErrorIs(t, store.Update(models.Book{ID: 42, Title: "Nope"}), ErrNotFound)
}

func TestStore_ReturnedBooksAreCopies(t *testing.T) {
	store := newSeededStore(t)

	b, err := store.Get(1)
	require.NoError(t, err)
	b.Title = "mutated"

	again, err := store.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "Computer Science Pro", again.Title)
}

func TestStore_ConcurrentCreatesGetUniqueIDs(t *testing.T) {
	store := newSeededStore(t)

	var wg sync.WaitGroup
	ids := make(chan int, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b, err := store.Create(models.Book{Title: "Parallel", Author: "Someone", Description: "d", Rating: 3})
			if assert.NoError(t, err) {
				ids <- b.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[int]bool{}
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, 20)
}
