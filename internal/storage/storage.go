package storage

import (
	"context"

	"github.com/ButyrinIA/blog/internal/models"
)

// Storage хранит посты. ListPosts возвращает посты по возрастанию id,
// CreatePost назначает следующий id и никогда не выдает его дважды.
type Storage interface {
	ListPosts(ctx context.Context) ([]models.Post, error)
	CreatePost(ctx context.Context, title, content string) (*models.Post, error)
	Close() error
}
