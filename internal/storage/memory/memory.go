package memory

import (
	"context"
	"sync"

	"github.com/ButyrinIA/blog/internal/models"
)

type MemoryStorage struct {
	posts  []models.Post
	lastID int64
	mu     sync.Mutex
}

func New() *MemoryStorage {
	return &MemoryStorage{
		posts: make([]models.Post, 0),
	}
}

// CreatePost назначает id и добавляет пост под одной блокировкой,
// поэтому параллельные вызовы не получат одинаковый id.
func (s *MemoryStorage) CreatePost(ctx context.Context, title, content string) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastID++
	post := models.Post{
		ID:      s.lastID,
		Title:   title,
		Content: content,
	}
	s.posts = append(s.posts, post)

	return &post, nil
}

// ListPosts возвращает копию: id монотонны, так что порядок вставки
// совпадает с порядком по id.
func (s *MemoryStorage) ListPosts(ctx context.Context) ([]models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	posts := make([]models.Post, len(s.posts))
	copy(posts, s.posts)
	return posts, nil
}

func (s *MemoryStorage) Close() error {
	return nil
}
