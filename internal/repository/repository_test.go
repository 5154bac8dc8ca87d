package repository

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/bigkaa/godrive/internal/config"
	"github.com/bigkaa/godrive/internal/database"
	"github.com/bigkaa/godrive/internal/domain/model"

	"github.com/jackc/pgx/v5/pgxpool"
)

// setupTestDB запускает PostgreSQL контейнер, применяет миграции.
// Возвращает pgxpool.Pool; контейнер и пул закрываются через t.Cleanup.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("Пропуск интеграционного теста: TEST_INTEGRATION не установлена")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("godrive_test"),
		postgres.WithUsername("godrive"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("Не удалось запустить PostgreSQL контейнер: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Ошибка остановки контейнера: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Не удалось получить host контейнера: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Не удалось получить port контейнера: %v", err)
	}

	// Настраиваем env для config.Load()
	t.Setenv("DRIVE_DB_HOST", host)
	t.Setenv("DRIVE_DB_PORT", port.Port())
	t.Setenv("DRIVE_DB_NAME", "godrive_test")
	t.Setenv("DRIVE_DB_USER", "godrive")
	t.Setenv("DRIVE_DB_PASSWORD", "test-password")
	t.Setenv("DRIVE_DB_SSL_MODE", "disable")
	t.Setenv("DRIVE_JWT_SECRET", "test-secret")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	// Применяем миграции
	if err := database.Migrate(cfg, logger); err != nil {
		t.Fatalf("Ошибка миграций: %v", err)
	}

	// Подключаемся
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		t.Fatalf("Ошибка подключения: %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	return pool
}

// newTestUser вставляет пользователя и возвращает его.
func newTestUser(t *testing.T, ctx context.Context, repo UserRepository, username, email, role string) *model.User {
	t.Helper()
	u := &model.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: "$2a$10$test-hash",
		Role:         role,
	}
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("Create() пользователя ошибка: %v", err)
	}
	return u
}

// newTestFile вставляет файл и возвращает его.
func newTestFile(t *testing.T, ctx context.Context, repo FileRepository, ownerID, storedName string) *model.File {
	t.Helper()
	f := &model.File{
		ID:               uuid.New().String(),
		StoredName:       storedName,
		OriginalFilename: "report.pdf",
		Size:             1024,
		ContentType:      "application/pdf",
		Status:           model.StatusPending,
		OwnerID:          ownerID,
	}
	if err := repo.Create(ctx, f); err != nil {
		t.Fatalf("Create() файла ошибка: %v", err)
	}
	return f
}

// --- Тесты UserRepository ---

func TestUserCRUD(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewUserRepository(pool)

	u := newTestUser(t, ctx, repo, "alice", "Alice@Example.com", model.RoleUser)
	if u.CreatedAt.IsZero() {
		t.Error("CreatedAt не установлен")
	}

	// GetByID
	got, err := repo.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID() ошибка: %v", err)
	}
	if got.Username != "alice" {
		t.Errorf("Username = %q, хотели %q", got.Username, "alice")
	}
	// Email сохраняется в нижнем регистре
	if got.Email != "alice@example.com" {
		t.Errorf("Email = %q, хотели %q", got.Email, "alice@example.com")
	}

	// GetByEmail — регистр не учитывается
	if _, err := repo.GetByEmail(ctx, "ALICE@EXAMPLE.COM"); err != nil {
		t.Errorf("GetByEmail() в верхнем регистре ошибка: %v", err)
	}

	// GetByUsername
	if _, err := repo.GetByUsername(ctx, "alice"); err != nil {
		t.Errorf("GetByUsername() ошибка: %v", err)
	}

	// Несуществующий пользователь
	if _, err := repo.GetByID(ctx, uuid.New().String()); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() несуществующего: хотели ErrNotFound, получили %v", err)
	}

	// Delete
	if err := repo.Delete(ctx, u.ID); err != nil {
		t.Fatalf("Delete() ошибка: %v", err)
	}
	if err := repo.Delete(ctx, u.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("повторный Delete(): хотели ErrNotFound, получили %v", err)
	}
}

func TestUserConflicts(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewUserRepository(pool)

	newTestUser(t, ctx, repo, "alice", "alice@example.com", model.RoleUser)

	t.Run("дублирующийся username", func(t *testing.T) {
		u := &model.User{
			ID: uuid.New().String(), Username: "alice",
			Email: "other@example.com", PasswordHash: "h", Role: model.RoleUser,
		}
		if err := repo.Create(ctx, u); !errors.Is(err, ErrConflict) {
			t.Errorf("хотели ErrConflict, получили %v", err)
		}
	})

	t.Run("дублирующийся email в другом регистре", func(t *testing.T) {
		u := &model.User{
			ID: uuid.New().String(), Username: "bob",
			Email: "ALICE@example.com", PasswordHash: "h", Role: model.RoleUser,
		}
		if err := repo.Create(ctx, u); !errors.Is(err, ErrConflict) {
			t.Errorf("хотели ErrConflict, получили %v", err)
		}
	})
}

func TestHasAdmin(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewUserRepository(pool)

	exists, err := repo.HasAdmin(ctx)
	if err != nil {
		t.Fatalf("HasAdmin() ошибка: %v", err)
	}
	if exists {
		t.Error("HasAdmin() = true для пустой БД")
	}

	newTestUser(t, ctx, repo, "admin", "admin@drive.com", model.RoleAdmin)

	exists, err = repo.HasAdmin(ctx)
	if err != nil {
		t.Fatalf("HasAdmin() ошибка: %v", err)
	}
	if !exists {
		t.Error("HasAdmin() = false после создания администратора")
	}
}

// --- Тесты FileRepository ---

func TestFileCRUD(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	userRepo := NewUserRepository(pool)
	fileRepo := NewFileRepository(pool)

	owner := newTestUser(t, ctx, userRepo, "alice", "alice@example.com", model.RoleUser)
	f := newTestFile(t, ctx, fileRepo, owner.ID, "report_20260901_120000.pdf")

	if f.UploadedAt.IsZero() || f.UpdatedAt.IsZero() {
		t.Error("временные метки не установлены")
	}

	// GetByID
	got, err := fileRepo.GetByID(ctx, f.ID)
	if err != nil {
		t.Fatalf("GetByID() ошибка: %v", err)
	}
	if got.Status != model.StatusPending {
		t.Errorf("Status = %q, хотели %q", got.Status, model.StatusPending)
	}

	// GetWithOwner — JOIN с users
	withOwner, err := fileRepo.GetWithOwner(ctx, f.ID)
	if err != nil {
		t.Fatalf("GetWithOwner() ошибка: %v", err)
	}
	if withOwner.OwnerUsername != "alice" || withOwner.OwnerEmail != "alice@example.com" {
		t.Errorf("аннотация владельца: %s / %s", withOwner.OwnerUsername, withOwner.OwnerEmail)
	}

	// Дублирующийся stored_name
	dup := &model.File{
		ID: uuid.New().String(), StoredName: f.StoredName,
		OriginalFilename: "x.pdf", Size: 1, ContentType: "application/pdf",
		Status: model.StatusPending, OwnerID: owner.ID,
	}
	if err := fileRepo.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Errorf("хотели ErrConflict, получили %v", err)
	}

	// Delete
	if err := fileRepo.Delete(ctx, f.ID); err != nil {
		t.Fatalf("Delete() ошибка: %v", err)
	}
	if _, err := fileRepo.GetByID(ctx, f.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("хотели ErrNotFound, получили %v", err)
	}
}

func TestFileLists(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	userRepo := NewUserRepository(pool)
	fileRepo := NewFileRepository(pool)

	alice := newTestUser(t, ctx, userRepo, "alice", "alice@example.com", model.RoleUser)
	bob := newTestUser(t, ctx, userRepo, "bob", "bob@example.com", model.RoleUser)

	newTestFile(t, ctx, fileRepo, alice.ID, "a1.pdf")
	time.Sleep(10 * time.Millisecond)
	newTestFile(t, ctx, fileRepo, alice.ID, "a2.pdf")
	newTestFile(t, ctx, fileRepo, bob.ID, "b1.pdf")

	// ListByOwner — только файлы владельца, новые первыми
	own, err := fileRepo.ListByOwner(ctx, alice.ID)
	if err != nil {
		t.Fatalf("ListByOwner() ошибка: %v", err)
	}
	if len(own) != 2 {
		t.Fatalf("ListByOwner() вернул %d записей, хотели 2", len(own))
	}
	if own[0].StoredName != "a2.pdf" {
		t.Errorf("порядок: хотели a2.pdf первым, получили %s", own[0].StoredName)
	}

	// ListAllWithOwner — все файлы с аннотацией
	all, err := fileRepo.ListAllWithOwner(ctx)
	if err != nil {
		t.Fatalf("ListAllWithOwner() ошибка: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("ListAllWithOwner() вернул %d записей, хотели 3", len(all))
	}
	for _, f := range all {
		if f.OwnerUsername == "" {
			t.Errorf("файл %s без аннотации владельца", f.ID)
		}
	}
}

func TestFileUpdateStatus(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	userRepo := NewUserRepository(pool)
	fileRepo := NewFileRepository(pool)

	owner := newTestUser(t, ctx, userRepo, "alice", "alice@example.com", model.RoleUser)
	f := newTestFile(t, ctx, fileRepo, owner.ID, "report.pdf")

	time.Sleep(10 * time.Millisecond)
	if err := fileRepo.UpdateStatus(ctx, f.ID, model.StatusAccepted); err != nil {
		t.Fatalf("UpdateStatus() ошибка: %v", err)
	}

	got, err := fileRepo.GetByID(ctx, f.ID)
	if err != nil {
		t.Fatalf("GetByID() ошибка: %v", err)
	}
	if got.Status != model.StatusAccepted {
		t.Errorf("Status = %q, хотели %q", got.Status, model.StatusAccepted)
	}
	if !got.UpdatedAt.After(got.UploadedAt) {
		t.Error("updated_at не поднят относительно uploaded_at")
	}

	// Несуществующий файл
	if err := fileRepo.UpdateStatus(ctx, uuid.New().String(), model.StatusRejected); !errors.Is(err, ErrNotFound) {
		t.Errorf("хотели ErrNotFound, получили %v", err)
	}
}

// TestCascadeDelete — удаление пользователя каскадно удаляет его файлы (FK).
func TestCascadeDelete(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	userRepo := NewUserRepository(pool)
	fileRepo := NewFileRepository(pool)

	owner := newTestUser(t, ctx, userRepo, "alice", "alice@example.com", model.RoleUser)
	f := newTestFile(t, ctx, fileRepo, owner.ID, "report.pdf")

	if err := userRepo.Delete(ctx, owner.ID); err != nil {
		t.Fatalf("Delete() пользователя ошибка: %v", err)
	}

	if _, err := fileRepo.GetByID(ctx, f.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("файл пережил каскадное удаление владельца: %v", err)
	}
}
