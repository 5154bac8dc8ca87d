package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/godrive/internal/domain/model"
)

// FileRepository — интерфейс CRUD для таблицы files.
type FileRepository interface {
	// Create создаёт новую запись файла.
	Create(ctx context.Context, f *model.File) error
	// GetByID возвращает файл по UUID.
	GetByID(ctx context.Context, id string) (*model.File, error)
	// GetWithOwner возвращает файл, аннотированный данными владельца.
	GetWithOwner(ctx context.Context, id string) (*model.FileWithOwner, error)
	// ListByOwner возвращает файлы владельца, новые загрузки первыми.
	ListByOwner(ctx context.Context, ownerID string) ([]*model.File, error)
	// ListAllWithOwner возвращает все файлы с данными владельцев,
	// новые загрузки первыми.
	ListAllWithOwner(ctx context.Context) ([]*model.FileWithOwner, error)
	// UpdateStatus меняет статус файла и поднимает updated_at.
	UpdateStatus(ctx context.Context, id, status string) error
	// Delete удаляет запись файла.
	Delete(ctx context.Context, id string) error
}

// fileRepo — реализация FileRepository.
type fileRepo struct {
	db DBTX
}

// NewFileRepository создаёт репозиторий файлового реестра.
func NewFileRepository(db DBTX) FileRepository {
	return &fileRepo{db: db}
}

func (r *fileRepo) Create(ctx context.Context, f *model.File) error {
	query := `
		INSERT INTO files (id, stored_name, original_filename, size, content_type, status, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING uploaded_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		f.ID, f.StoredName, f.OriginalFilename, f.Size, f.ContentType, f.Status, f.OwnerID,
	).Scan(&f.UploadedAt, &f.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: файл с таким stored_name уже зарегистрирован", ErrConflict)
		}
		return fmt.Errorf("ошибка регистрации файла: %w", err)
	}
	return nil
}

func (r *fileRepo) GetByID(ctx context.Context, id string) (*model.File, error) {
	query := `
		SELECT id, stored_name, original_filename, size, content_type, status,
			owner_id, uploaded_at, updated_at
		FROM files
		WHERE id = $1`

	f := &model.File{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&f.ID, &f.StoredName, &f.OriginalFilename, &f.Size, &f.ContentType,
		&f.Status, &f.OwnerID, &f.UploadedAt, &f.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения файла: %w", err)
	}
	return f, nil
}

func (r *fileRepo) GetWithOwner(ctx context.Context, id string) (*model.FileWithOwner, error) {
	query := `
		SELECT f.id, f.stored_name, f.original_filename, f.size, f.content_type,
			f.status, f.owner_id, f.uploaded_at, f.updated_at,
			u.username, u.email
		FROM files f
		JOIN users u ON u.id = f.owner_id
		WHERE f.id = $1`

	f := &model.FileWithOwner{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&f.ID, &f.StoredName, &f.OriginalFilename, &f.Size, &f.ContentType,
		&f.Status, &f.OwnerID, &f.UploadedAt, &f.UpdatedAt,
		&f.OwnerUsername, &f.OwnerEmail,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения файла с владельцем: %w", err)
	}
	return f, nil
}

func (r *fileRepo) ListByOwner(ctx context.Context, ownerID string) ([]*model.File, error) {
	query := `
		SELECT id, stored_name, original_filename, size, content_type, status,
			owner_id, uploaded_at, updated_at
		FROM files
		WHERE owner_id = $1
		ORDER BY uploaded_at DESC`

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка файлов: %w", err)
	}
	defer rows.Close()

	var result []*model.File
	for rows.Next() {
		f := &model.File{}
		if err := rows.Scan(
			&f.ID, &f.StoredName, &f.OriginalFilename, &f.Size, &f.ContentType,
			&f.Status, &f.OwnerID, &f.UploadedAt, &f.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования файла: %w", err)
		}
		result = append(result, f)
	}
	return result, rows.Err()
}

func (r *fileRepo) ListAllWithOwner(ctx context.Context) ([]*model.FileWithOwner, error) {
	query := `
		SELECT f.id, f.stored_name, f.original_filename, f.size, f.content_type,
			f.status, f.owner_id, f.uploaded_at, f.updated_at,
			u.username, u.email
		FROM files f
		JOIN users u ON u.id = f.owner_id
		ORDER BY f.uploaded_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка всех файлов: %w", err)
	}
	defer rows.Close()

	var result []*model.FileWithOwner
	for rows.Next() {
		f := &model.FileWithOwner{}
		if err := rows.Scan(
			&f.ID, &f.StoredName, &f.OriginalFilename, &f.Size, &f.ContentType,
			&f.Status, &f.OwnerID, &f.UploadedAt, &f.UpdatedAt,
			&f.OwnerUsername, &f.OwnerEmail,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования файла: %w", err)
		}
		result = append(result, f)
	}
	return result, rows.Err()
}

func (r *fileRepo) UpdateStatus(ctx context.Context, id, status string) error {
	query := `
		UPDATE files
		SET status = $2, updated_at = now()
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("ошибка обновления статуса файла: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *fileRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM files WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления файла: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
