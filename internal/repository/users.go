package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/godrive/internal/domain/model"
)

// UserRepository — интерфейс CRUD для таблицы users.
type UserRepository interface {
	// Create создаёт нового пользователя.
	Create(ctx context.Context, u *model.User) error
	// GetByID возвращает пользователя по UUID.
	GetByID(ctx context.Context, id string) (*model.User, error)
	// GetByEmail возвращает пользователя по email (регистр не учитывается).
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// GetByUsername возвращает пользователя по имени.
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	// HasAdmin сообщает, существует ли хотя бы один администратор.
	HasAdmin(ctx context.Context) (bool, error)
	// Delete удаляет пользователя; его файлы удаляются каскадно (FK).
	Delete(ctx context.Context, id string) error
}

// userRepo — реализация UserRepository.
type userRepo struct {
	db DBTX
}

// NewUserRepository создаёт репозиторий пользователей.
func NewUserRepository(db DBTX) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, u *model.User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	err := r.db.QueryRow(ctx, query,
		u.ID, u.Username, strings.ToLower(u.Email), u.PasswordHash, u.Role,
	).Scan(&u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: username или email уже заняты", ErrConflict)
		}
		return fmt.Errorf("ошибка создания пользователя: %w", err)
	}
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.getBy(ctx, "id = $1", id)
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getBy(ctx, "email = lower($1)", email)
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.getBy(ctx, "username = $1", username)
}

// getBy возвращает одного пользователя по условию WHERE.
func (r *userRepo) getBy(ctx context.Context, where string, arg any) (*model.User, error) {
	query := fmt.Sprintf(`
		SELECT id, username, email, password_hash, role, created_at
		FROM users
		WHERE %s`, where)

	u := &model.User{}
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения пользователя: %w", err)
	}
	return u, nil
}

func (r *userRepo) HasAdmin(ctx context.Context) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE role = 'admin')`

	var exists bool
	if err := r.db.QueryRow(ctx, query).Scan(&exists); err != nil {
		return false, fmt.Errorf("ошибка проверки наличия администратора: %w", err)
	}
	return exists, nil
}

func (r *userRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления пользователя: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
