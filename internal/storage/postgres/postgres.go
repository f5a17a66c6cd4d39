package postgres

import (
	"context"
	"fmt"

	"github.com/ButyrinIA/blog/internal/config"
	"github.com/ButyrinIA/blog/internal/logger"
	"github.com/ButyrinIA/blog/internal/models"
	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
	CREATE TABLE IF NOT EXISTS posts (
		id SERIAL PRIMARY KEY,
		title TEXT NOT NULL,
		content TEXT NOT NULL
	);`

// DB - минимальный набор методов пула, нужный хранилищу.
// Его реализуют *pgxpool.Pool и pgxmock.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

type PostgresStorage struct {
	db DB
}

// New открывает пул соединений, проверяет его и создает таблицу posts.
// Каждый запрос берет соединение из пула и возвращает его по завершении.
func New(ctx context.Context, cfg config.PostgresConfig) (*PostgresStorage, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	store, err := NewWithDB(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	logger.FromContext(ctx).Info("Хранилище PostgreSQL готово",
		"host", cfg.Host,
		"port", cfg.Port,
		"db", cfg.DB,
		"max_conns", poolCfg.MaxConns,
	)
	return store, nil
}

// NewWithDB оборачивает готовое подключение и создает схему.
func NewWithDB(ctx context.Context, db DB) (*PostgresStorage, error) {
	s := &PostgresStorage{db: db}
	if err := s.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// EnsureSchema идемпотентна: повторный вызов не меняет существующую таблицу.
func (s *PostgresStorage) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	logger.FromContext(ctx).Info("Database initialized: table 'posts' ready")
	return nil
}

func (s *PostgresStorage) ListPosts(ctx context.Context) ([]models.Post, error) {
	query, args, err := squirrel.Select("id", "title", "content").
		From("posts").
		OrderBy("id ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}

	posts := make([]models.Post, 0)
	if err := pgxscan.Select(ctx, s.db, &posts, query, args...); err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	if posts == nil {
		posts = []models.Post{}
	}
	return posts, nil
}

// CreatePost полагается на SERIAL: уникальность id обеспечивает база,
// блокировки на стороне процесса не нужны.
func (s *PostgresStorage) CreatePost(ctx context.Context, title, content string) (*models.Post, error) {
	query, args, err := squirrel.Insert("posts").
		Columns("title", "content").
		Values(title, content).
		Suffix("RETURNING id").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building insert query: %w", err)
	}

	post := models.Post{Title: title, Content: content}
	if err := s.db.QueryRow(ctx, query, args...).Scan(&post.ID); err != nil {
		return nil, fmt.Errorf("inserting post: %w", err)
	}
	return &post, nil
}

func (s *PostgresStorage) Close() error {
	s.db.Close()
	return nil
}
