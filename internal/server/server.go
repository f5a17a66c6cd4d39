package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ButyrinIA/blog/internal/config"
	"github.com/ButyrinIA/blog/internal/logger"
	"github.com/ButyrinIA/blog/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

type Server struct {
	cfg     *config.Config
	storage storage.Storage
	log     logger.Logger
	metrics *metrics
	handler http.Handler
}

func New(cfg *config.Config, storage storage.Storage, log logger.Logger) *Server {
	if log == nil {
		log = logger.Default()
	}
	s := &Server{
		cfg:     cfg,
		storage: storage,
		log:     log,
		metrics: newMetrics(prometheus.NewRegistry()),
	}
	s.handler = s.buildRouter()
	return s
}

func (s *Server) buildRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware(s.log))
	router.Use(loggerMiddleware())
	router.Use(s.metrics.middleware())

	router.GET("/posts", s.listPosts)
	router.POST("/posts", s.createPost)

	if s.cfg.Server.Metrics {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{})))
	}
	return router
}

// Handler возвращает http.Handler со всеми маршрутами.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run обслуживает запросы до отмены ctx, затем корректно останавливает сервер.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         ":" + s.cfg.Server.Port,
		Handler:      s.handler,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("Запуск сервера", "addr", srv.Addr, "storage", s.cfg.Storage)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		s.log.Info("Сервер остановлен")
		return nil
	})
	return g.Wait()
}
