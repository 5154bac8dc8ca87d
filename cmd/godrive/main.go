// Точка входа сервиса обмена файлами.
// Загружает конфигурацию, применяет миграции, подключается к PostgreSQL,
// инициализирует файловое хранилище, сервисный слой и API handlers,
// создаёт начального администратора и запускает HTTP-сервер
// с graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/bigkaa/godrive/internal/api/handlers"
	"github.com/bigkaa/godrive/internal/api/middleware"
	"github.com/bigkaa/godrive/internal/config"
	"github.com/bigkaa/godrive/internal/database"
	"github.com/bigkaa/godrive/internal/repository"
	"github.com/bigkaa/godrive/internal/server"
	"github.com/bigkaa/godrive/internal/service"
	"github.com/bigkaa/godrive/internal/storage/blobstore"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("Сервис запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
	)

	// 3. Применение миграций БД
	logger.Info("Применение миграций БД...")
	if err := database.Migrate(cfg, logger); err != nil {
		logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Подключение к PostgreSQL (pgxpool)
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 5. Файловое хранилище
	blobs, err := blobstore.New(cfg.DataDir)
	if err != nil {
		logger.Error("Ошибка инициализации хранилища файлов", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Хранилище файлов инициализировано", slog.String("data_dir", cfg.DataDir))

	// 6. Repositories
	userRepo := repository.NewUserRepository(pool)
	fileRepo := repository.NewFileRepository(pool)

	// 7. Services
	authSvc := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenTTL, logger)
	filesSvc := service.NewFileService(fileRepo, blobs, cfg.MaxUploadSize, logger)

	// 8. Начальный администратор
	created, err := authSvc.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		logger.Error("Ошибка создания начального администратора", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if created && cfg.DefaultAdminCredentials() {
		logger.Warn("Начальный администратор создан с учётными данными по умолчанию — смените пароль",
			slog.String("username", cfg.AdminUsername),
			slog.String("email", cfg.AdminEmail),
		)
	}

	// 9. Health handler (PostgreSQL + хранилище)
	pgChecker := database.NewReadinessChecker(pool)
	healthHandler := handlers.NewHealthHandler(pgChecker, blobs)

	// 10. API handler
	apiHandler := handlers.NewAPIHandler(
		healthHandler,
		authSvc,
		filesSvc,
		blobs,
		cfg.MaxUploadSize,
		logger,
	)

	// 11. Token middleware
	tokenAuth := middleware.NewTokenAuth(authSvc, logger)

	// 12. Создание и запуск HTTP-сервера
	srv := server.New(cfg, logger, apiHandler, tokenAuth)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Сервис остановлен")
}
