// files.go — сервис жизненного цикла файлов.
// Загрузка в очередь модерации, списки, смена статуса, удаление.
// Все операции проверяются через политику доступа до каких-либо
// побочных эффектов.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/bigkaa/godrive/internal/domain/model"
	"github.com/bigkaa/godrive/internal/domain/policy"
	"github.com/bigkaa/godrive/internal/repository"
)

// allowedExtensions — допустимые расширения загружаемых файлов.
var allowedExtensions = map[string]struct{}{
	".pdf": {}, ".doc": {}, ".docx": {}, ".xls": {}, ".xlsx": {},
	".ppt": {}, ".pptx": {}, ".zip": {}, ".rar": {},
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {},
}

// BlobStore — зависимость сервиса от хранилища байтов.
// Реализуется пакетом storage/blobstore; в тестах подменяется in-memory фейком.
type BlobStore interface {
	// Put записывает содержимое под именем name, возвращает размер.
	Put(name string, r io.Reader) (int64, error)
	// Delete удаляет blob; отсутствие blob не является ошибкой.
	Delete(name string) error
	// Exists проверяет наличие blob.
	Exists(name string) bool
	// StoredName генерирует уникальное имя blob по оригинальному имени.
	StoredName(originalFilename string) string
}

// DeleteResult — результат удаления файла.
// BlobRemoved = false означает, что запись удалена, но байты
// на диске удалить не удалось (осиротевший blob).
type DeleteResult struct {
	File        *model.File
	BlobRemoved bool
}

// FileService — сервис жизненного цикла файлов.
type FileService struct {
	files         repository.FileRepository
	blobs         BlobStore
	maxUploadSize int64
	logger        *slog.Logger
}

// NewFileService создаёт сервис файлов.
func NewFileService(files repository.FileRepository, blobs BlobStore, maxUploadSize int64, logger *slog.Logger) *FileService {
	return &FileService{
		files:         files,
		blobs:         blobs,
		maxUploadSize: maxUploadSize,
		logger:        logger.With(slog.String("component", "file_service")),
	}
}

// Create принимает загрузку: валидирует имя и размер, пишет байты
// в хранилище и регистрирует метаданные со статусом pending.
//
// Порядок важен: валидация — до любых побочных эффектов; байты — до
// метаданных. Если вставка метаданных не удалась, уже записанный blob
// удаляется best-effort.
func (s *FileService) Create(ctx context.Context, actor *model.User, originalFilename, contentType string, size int64, r io.Reader) (*model.File, error) {
	if !policy.Allowed(actor, policy.ActionUpload, "") {
		return nil, fmt.Errorf("%w: загрузка файлов недоступна", ErrForbidden)
	}

	originalFilename = strings.TrimSpace(originalFilename)
	if originalFilename == "" {
		return nil, fmt.Errorf("%w: имя файла не задано", ErrValidation)
	}

	ext := strings.ToLower(filepath.Ext(originalFilename))
	if _, ok := allowedExtensions[ext]; !ok {
		return nil, fmt.Errorf("%w: тип файла '%s' не разрешён", ErrValidation, ext)
	}

	if size <= 0 {
		return nil, fmt.Errorf("%w: пустой файл", ErrValidation)
	}
	if size > s.maxUploadSize {
		return nil, fmt.Errorf("%w: размер файла превышает лимит %d байт", ErrValidation, s.maxUploadSize)
	}

	storedName := s.blobs.StoredName(originalFilename)

	written, err := s.blobs.Put(storedName, r)
	if err != nil {
		return nil, fmt.Errorf("%w: запись файла: %v", ErrStorage, err)
	}

	file := &model.File{
		ID:               uuid.NewString(),
		StoredName:       storedName,
		OriginalFilename: originalFilename,
		Size:             written,
		ContentType:      contentType,
		Status:           model.StatusPending,
		OwnerID:          actor.ID,
	}

	if err := s.files.Create(ctx, file); err != nil {
		// Метаданные не записались — убираем blob, чтобы не копить сирот
		if delErr := s.blobs.Delete(storedName); delErr != nil {
			s.logger.Warn("Не удалось удалить blob после ошибки регистрации",
				slog.String("stored_name", storedName),
				slog.String("error", delErr.Error()),
			)
		}
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: имя хранения уже занято", ErrConflict)
		}
		return nil, fmt.Errorf("регистрация файла: %w", err)
	}

	s.logger.Info("Файл загружен",
		slog.String("file_id", file.ID),
		slog.String("owner_id", actor.ID),
		slog.String("filename", originalFilename),
		slog.Int64("size", written),
	)

	return file, nil
}

// ListOwn возвращает файлы владельца, новые первыми.
func (s *FileService) ListOwn(ctx context.Context, actor *model.User) ([]*model.File, error) {
	if !policy.Allowed(actor, policy.ActionListOwn, "") {
		return nil, fmt.Errorf("%w: просмотр своих файлов недоступен", ErrForbidden)
	}

	files, err := s.files.ListByOwner(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("получение списка файлов: %w", err)
	}
	return files, nil
}

// ListAll возвращает все файлы с данными владельцев. Только администратор.
func (s *FileService) ListAll(ctx context.Context, actor *model.User) ([]*model.FileWithOwner, error) {
	if !policy.Allowed(actor, policy.ActionListAll, "") {
		return nil, fmt.Errorf("%w: полный список доступен только администратору", ErrForbidden)
	}

	files, err := s.files.ListAllWithOwner(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение полного списка файлов: %w", err)
	}
	return files, nil
}

// Get возвращает метаданные файла для скачивания.
// Доступно администратору и владельцу. Несуществующий файл даёт
// ErrNotFound до проверки прав: чужой и отсутствующий файлы
// различимы только для того, кому файл в принципе доступен.
func (s *FileService) Get(ctx context.Context, actor *model.User, fileID string) (*model.File, error) {
	file, err := s.files.GetByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: файл не найден", ErrNotFound)
		}
		return nil, fmt.Errorf("получение файла: %w", err)
	}

	if !policy.Allowed(actor, policy.ActionDownload, file.OwnerID) {
		return nil, fmt.Errorf("%w: файл принадлежит другому пользователю", ErrForbidden)
	}

	return file, nil
}

// UpdateStatus меняет статус модерации файла. Только администратор.
// Допустимы любые переходы между pending, accepted и rejected.
func (s *FileService) UpdateStatus(ctx context.Context, actor *model.User, fileID, status string) (*model.FileWithOwner, error) {
	if !policy.Allowed(actor, policy.ActionUpdateStatus, "") {
		return nil, fmt.Errorf("%w: смена статуса доступна только администратору", ErrForbidden)
	}

	if !model.ValidStatus(status) {
		return nil, fmt.Errorf("%w: недопустимый статус '%s'", ErrValidation, status)
	}

	if err := s.files.UpdateStatus(ctx, fileID, status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: файл не найден", ErrNotFound)
		}
		return nil, fmt.Errorf("обновление статуса: %w", err)
	}

	file, err := s.files.GetWithOwner(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("чтение файла после обновления: %w", err)
	}

	s.logger.Info("Статус файла обновлён",
		slog.String("file_id", fileID),
		slog.String("status", status),
		slog.String("admin_id", actor.ID),
	)

	return file, nil
}

// Delete удаляет файл: сперва blob (best-effort), затем запись.
// Владелец удаляет свои файлы; администратор — любые. Неудача
// удаления blob не блокирует удаление записи, а отражается
// в DeleteResult.BlobRemoved.
func (s *FileService) Delete(ctx context.Context, actor *model.User, fileID string) (*DeleteResult, error) {
	file, err := s.files.GetByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: файл не найден", ErrNotFound)
		}
		return nil, fmt.Errorf("получение файла: %w", err)
	}

	action := policy.ActionDeleteAny
	if actor != nil && actor.ID == file.OwnerID {
		action = policy.ActionDeleteOwn
	}
	if !policy.Allowed(actor, action, file.OwnerID) {
		return nil, fmt.Errorf("%w: удаление этого файла недоступно", ErrForbidden)
	}

	blobRemoved := true
	if err := s.blobs.Delete(file.StoredName); err != nil {
		blobRemoved = false
		s.logger.Warn("Не удалось удалить blob — запись будет удалена, blob осиротеет",
			slog.String("file_id", fileID),
			slog.String("stored_name", file.StoredName),
			slog.String("error", err.Error()),
		)
	}

	if err := s.files.Delete(ctx, fileID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: файл не найден", ErrNotFound)
		}
		return nil, fmt.Errorf("удаление записи файла: %w", err)
	}

	s.logger.Info("Файл удалён",
		slog.String("file_id", fileID),
		slog.String("actor_id", actor.ID),
		slog.Bool("blob_removed", blobRemoved),
	)

	return &DeleteResult{File: file, BlobRemoved: blobRemoved}, nil
}
