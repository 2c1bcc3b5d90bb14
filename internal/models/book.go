package models

// Book は公開カタログの書籍です。
type Book struct {
	ID          int    `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Author      string `json:"author" yaml:"author"`
	Description string `json:"description" yaml:"description"`
	Rating      int    `json:"rating" yaml:"rating"`
}

// BookRequest の id は作成時には無視されます。
type BookRequest struct {
	ID          *int   `json:"id,omitempty"`
	Title       string `json:"title" binding:"required,min=3,max=20"`
	Author      string `json:"author" binding:"required,min=3,max=30"`
	Description string `json:"description" binding:"required,min=1,max=100"`
	Rating      int    `json:"rating" binding:"gte=1,lte=5"`
}

// ToBook はリクエストから新しいBookを組み立てます (IDは未設定)。
func (r BookRequest) ToBook() Book {
	return Book{
		Title:       r.Title,
		Author:      r.Author,
		Description: r.Description,
		Rating:      r.Rating,
	}
}
