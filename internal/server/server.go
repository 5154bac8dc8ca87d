// Пакет server — HTTP-сервер с graceful shutdown.
// Без TLS — HTTP внутри кластера, TLS termination на reverse proxy.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/godrive/internal/api/handlers"
	"github.com/bigkaa/godrive/internal/api/middleware"
	"github.com/bigkaa/godrive/internal/config"
)

// Server — HTTP-сервер сервиса.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт новый HTTP-сервер с настроенными routes и middleware.
// tokenAuth защищает все файловые маршруты; регистрация, вход,
// health и metrics — публичные.
func New(cfg *config.Config, logger *slog.Logger, handler *handlers.APIHandler, tokenAuth *middleware.TokenAuth) *Server {
	router := chi.NewRouter()

	// Глобальные middleware (применяются ко ВСЕМ маршрутам)
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger(logger))

	// Публичные маршруты
	router.Get("/api/health", handler.Health)
	router.Get("/metrics", handler.GetMetrics)
	router.Post("/api/auth/register", handler.Register)
	router.Post("/api/auth/login", handler.Login)

	// Файловые маршруты — только с валидным токеном
	router.Group(func(r chi.Router) {
		r.Use(tokenAuth.Middleware())

		r.Post("/api/files/upload", handler.UploadFile)
		r.Get("/api/files/my-files", handler.MyFiles)
		r.Get("/api/files/download/{file_id}", handler.DownloadFile)
		r.Delete("/api/files/delete/{file_id}", handler.DeleteFile)

		r.Get("/api/files/admin/all-files", handler.AllFiles)
		r.Put("/api/files/admin/update-status/{file_id}", handler.UpdateFileStatus)
		r.Delete("/api/files/admin/delete/{file_id}", handler.AdminDeleteFile)
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	// Канал для ошибок сервера
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
