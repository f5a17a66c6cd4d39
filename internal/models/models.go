package models

type Post struct {
	ID      int64  `json:"id"      db:"id"`
	Title   string `json:"title"   db:"title"`
	Content string `json:"content" db:"content"`
}

// CreatePostRequest - тело запроса POST /posts.
// Указатели отличают отсутствующее поле от пустой строки.
type CreatePostRequest struct {
	Title   *string `json:"title"   binding:"required,min=1"`
	Content *string `json:"content" binding:"required"`
}
