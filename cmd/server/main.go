package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ButyrinIA/blog/internal/config"
	"github.com/ButyrinIA/blog/internal/logger"
	"github.com/ButyrinIA/blog/internal/server"
	"github.com/ButyrinIA/blog/internal/storage"
	"github.com/ButyrinIA/blog/internal/storage/memory"
	"github.com/ButyrinIA/blog/internal/storage/postgres"
	"github.com/spf13/cobra"
)

func main() {
	// Ошибки уже записаны в лог внутри команды.
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath  string
		storageType string
		port        string
		logLevel    string
		logJSON     bool
	)

	cmd := &cobra.Command{
		Use:           "blog-api",
		Short:         "HTTP API для списка и создания постов",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			cfg, err := config.Load(configPath, func(c *config.Config) {
				if flags.Changed("storage") {
					c.Storage = storageType
				}
				if flags.Changed("port") {
					c.Server.Port = port
				}
				if flags.Changed("log-level") {
					c.Log.Level = logLevel
				}
				if flags.Changed("log-json") {
					c.Log.JSON = logJSON
				}
			})
			if err != nil {
				err = fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
				logger.Default().Error("Сервер завершился с ошибкой", "error", err)
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg, cmd.OutOrStdout())
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		logger.Default().Error("Неверные аргументы", "error", err)
		return err
	})

	cmd.Flags().StringVar(&configPath, "config", "config.yaml", "путь к файлу конфигурации")
	cmd.Flags().StringVar(&storageType, "storage", config.StorageMemory, "тип хранилища: memory или postgres")
	cmd.Flags().StringVar(&port, "port", "", "порт HTTP-сервера")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "уровень логирования: debug, info, warn, error")
	cmd.Flags().BoolVar(&logJSON, "log-json", false, "логи в формате JSON")
	return cmd
}

// run пишет фатальную ошибку в лог до закрытия файла журнала.
func run(ctx context.Context, cfg *config.Config, out io.Writer) (err error) {
	log, closer, err := logger.Setup(&logger.Config{
		Level:      logger.LogLevel(cfg.Log.Level),
		Output:     out,
		JSON:       cfg.Log.JSON,
		TimeFormat: "2006-01-02 15:04:05",
		Dir:        cfg.Log.Dir,
	})
	if err != nil {
		logger.Default().Error("Сервер завершился с ошибкой", "error", err)
		return err
	}
	defer closer.Close()
	defer func() {
		if err != nil {
			log.Error("Сервер завершился с ошибкой", "error", err)
		}
	}()
	ctx = logger.ContextWithLogger(ctx, log)

	store, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	log.Info("Application started")
	return server.New(cfg, store, log).Run(ctx)
}

func openStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	log := logger.FromContext(ctx)
	switch cfg.Storage {
	case config.StoragePostgres:
		log.Info("Инициализация хранилища PostgreSQL")
		store, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("не удалось инициализировать PostgreSQL: %w", err)
		}
		return store, nil
	case config.StorageMemory:
		log.Info("Инициализация хранилища Memory")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("неизвестный тип хранилища: %s", cfg.Storage)
	}
}
