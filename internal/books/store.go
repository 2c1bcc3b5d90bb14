// Package books は公開書籍カタログのインメモリストアです。
// go-memdb のトランザクションで読み書きし、起動時に埋め込みYAMLから初期データを投入します。
package books

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"

	"github.com/hashicorp/go-memdb"
	"gopkg.in/yaml.v3"

	"todo-app/backend/internal/models"
)

const (
	tableBooks  = "books"
	indexID     = "id"
	indexRating = "rating"
)

// ErrNotFound は書籍が存在しない場合のエラーです。
var ErrNotFound = errors.New("book not found")

//go:embed seed.yaml
var seedYAML []byte

func schema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			tableBooks: {
				Name: tableBooks,
				Indexes: map[string]*memdb.IndexSchema{
					indexID: {
						Name:    indexID,
						Unique:  true,
						Indexer: &memdb.IntFieldIndex{Field: "ID"},
					},
					indexRating: {
						Name:    indexRating,
						Indexer: &memdb.IntFieldIndex{Field: "Rating"},
					},
				},
			},
		},
	}
}

// Store は書籍カタログです。並行に使って安全です。
type Store struct {
	db *memdb.MemDB
}

// LoadSeed は埋め込みの初期データを読み込みます。
func LoadSeed() ([]models.Book, error) {
	var seed []models.Book
	if err := yaml.Unmarshal(seedYAML, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse book seed: %w", err)
	}
	return seed, nil
}

// NewStore は初期データを投入したStoreを作成します。
func NewStore(seed []models.Book) (*Store, error) {
	db, err := memdb.NewMemDB(schema())
	if err != nil {
		return nil, fmt.Errorf("failed to create book store: %w", err)
	}

	txn := db.Txn(true)
	defer txn.Abort()
	for i := range seed {
		b := seed[i]
		if err := txn.Insert(tableBooks, &b); err != nil {
			return nil, fmt.Errorf("failed to seed book %d: %w", b.ID, err)
		}
	}
	txn.Commit()

	return &Store{db: db}, nil
}

// All は全書籍をID順で返します。
func (s *Store) All() ([]models.Book, error) {
	txn := s.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(tableBooks, indexID)
	if err != nil {
		return nil, err
	}
	return collect(it), nil
}

// ByRating は指定した評価の書籍をID順で返します。
func (s *Store) ByRating(rating int) ([]models.Book, error) {
	txn := s.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(tableBooks, indexRating, rating)
	if err != nil {
		return nil, err
	}
	return collect(it), nil
}

// Get はIDで書籍を1件返します。
func (s *Store) Get(id int) (models.Book, error) {
	txn := s.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(tableBooks, indexID, id)
	if err != nil {
		return models.Book{}, err
	}
	if raw == nil {
		return models.Book{}, ErrNotFound
	}
	return *raw.(*models.Book), nil
}

// Create は最後のID + 1 (空なら1) を採番して書籍を追加します。
func (s *Store) Create(b models.Book) (models.Book, error) {
	txn := s.db.Txn(true)
	defer txn.Abort()

	it, err := txn.Get(tableBooks, indexID)
	if err != nil {
		return models.Book{}, err
	}
	last := 0
	for obj := it.Next(); obj != nil; obj = it.Next() {
		if id := obj.(*models.Book).ID; id > last {
			last = id
		}
	}
	b.ID = last + 1

	if err := txn.Insert(tableBooks, &b); err != nil {
		return models.Book{}, fmt.Errorf("failed to insert book: %w", err)
	}
	txn.Commit()
	return b, nil
}

// Update は既存の書籍を置き換えます。
func (s *Store) Update(b models.Book) error {
	txn := s.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tableBooks, indexID, b.ID)
	if err != nil {
		return err
	}
	if raw == nil {
		return ErrNotFound
	}
	if err := txn.Insert(tableBooks, &b); err != nil {
		return fmt.Errorf("failed to update book: %w", err)
	}
	txn.Commit()
	return nil
}

// Delete はIDで書籍を削除します。
func (s *Store) Delete(id int) error {
	txn := s.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tableBooks, indexID, id)
	if err != nil {
		return err
	}
	if raw == nil {
		return ErrNotFound
	}
	if err := txn.Delete(tableBooks, raw); err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}
	txn.Commit()
	return nil
}

// collect はイテレーターの内容をコピーしてID順に並べます。
// IntFieldIndex のキーは数値順に並ばないため、ここでソートする。
func collect(it memdb.ResultIterator) []models.Book {
	out := []models.Book{}
	for obj := it.Next(); obj != nil; obj = it.Next() {
		out = append(out, *obj.(*models.Book))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
