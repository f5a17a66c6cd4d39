package postgres

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ButyrinIA/blog/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startPostgres поднимает тестовый контейнер PostgreSQL и возвращает настройки подключения.
func startPostgres(ctx context.Context, t *testing.T) config.PostgresConfig {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test requires docker")
	}

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("posts"),
		tcpostgres.WithUsername("user"),
		tcpostgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err, "Не удалось запустить контейнер PostgreSQL")
	t.Cleanup(func() {
		terminateCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := pgContainer.Terminate(terminateCtx); err != nil {
			t.Logf("Warning: failed to terminate container: %s", err)
		}
	})

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err, "Не удалось получить хост контейнера")
	port, err := pgContainer.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err, "Не удалось получить порт контейнера")

	return config.PostgresConfig{
		Host:     host,
		Port:     port.Port(),
		DB:       "posts",
		User:     "user",
		Password: "password",
		SSLMode:  "disable",
		MaxConns: 10,
	}
}

func TestPostgresStorage_Integration(t *testing.T) {
	ctx := context.Background()
	cfg := startPostgres(ctx, t)

	store, err := New(ctx, cfg)
	require.NoError(t, err, "Не удалось инициализировать PostgresStorage")

	t.Run("Empty table", func(t *testing.T) {
		posts, err := store.ListPosts(ctx)
		require.NoError(t, err)
		assert.NotNil(t, posts)
		assert.Empty(t, posts)
	})

	t.Run("CreatePost and ListPosts", func(t *testing.T) {
		post, err := store.CreatePost(ctx, "Hello", "World")
		require.NoError(t, err, "Ошибка при создании поста")
		assert.Equal(t, int64(1), post.ID)

		second, err := store.CreatePost(ctx, "B", "2")
		require.NoError(t, err)
		assert.Equal(t, int64(2), second.ID)

		posts, err := store.ListPosts(ctx)
		require.NoError(t, err)
		require.Len(t, posts, 2)
		assert.Equal(t, *post, posts[0])
		assert.Equal(t, *second, posts[1])
	})

	t.Run("Concurrent creates produce distinct ids", func(t *testing.T) {
		const m = 50
		var (
			mu  sync.Mutex
			ids = make(map[int64]struct{}, m)
			wg  sync.WaitGroup
		)
		for i := 0; i < m; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				post, err := store.CreatePost(ctx, fmt.Sprintf("Пост %d", i), "Содержимое")
				if !assert.NoError(t, err) {
					return
				}
				mu.Lock()
				ids[post.ID] = struct{}{}
				mu.Unlock()
			}(i)
		}
		wg.Wait()
		assert.Len(t, ids, m, "id должны быть уникальны")
	})

	t.Run("Data survives reopening the store", func(t *testing.T) {
		before, err := store.ListPosts(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, before)
		require.NoError(t, store.Close())

		reopened, err := New(ctx, cfg)
		require.NoError(t, err, "Повторное создание схемы должно быть идемпотентным")
		defer reopened.Close()

		after, err := reopened.ListPosts(ctx)
		require.NoError(t, err)
		assert.Equal(t, before, after)

		next, err := reopened.CreatePost(ctx, "После перезапуска", "")
		require.NoError(t, err)
		assert.Equal(t, before[len(before)-1].ID+1, next.ID)
	})
}

func TestNew_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	store, err := New(ctx, config.PostgresConfig{
		Host:     "127.0.0.1",
		Port:     "1",
		DB:       "posts",
		User:     "user",
		Password: "password",
		SSLMode:  "disable",
	})
	assert.Nil(t, store)
	assert.ErrorContains(t, err, "failed to connect to postgres")
}
