// files.go — обработчики файловых операций пользователя.
// POST /api/files/upload — загрузка файла в очередь модерации
// GET /api/files/my-files — список своих файлов
// GET /api/files/download/{file_id} — скачивание
// DELETE /api/files/delete/{file_id} — удаление своего файла
package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/godrive/internal/api/errors"
	"github.com/bigkaa/godrive/internal/api/middleware"
	"github.com/bigkaa/godrive/internal/domain/model"
)

// multipartOverhead — запас к лимиту тела запроса на заголовки
// и границы multipart-формы.
const multipartOverhead = 64 * 1024

// fileResponse — представление файла в ответах API.
type fileResponse struct {
	ID               string `json:"id"`
	OriginalFilename string `json:"original_filename"`
	StoredName       string `json:"stored_name"`
	Size             int64  `json:"size"`
	ContentType      string `json:"content_type"`
	Status           string `json:"status"`
	OwnerID          string `json:"owner_id"`
	UploadedAt       string `json:"uploaded_at"`
	UpdatedAt        string `json:"updated_at"`
}

// fileWithOwnerResponse — файл с аннотацией владельца (для администратора).
type fileWithOwnerResponse struct {
	fileResponse
	OwnerUsername string `json:"owner_username"`
	OwnerEmail    string `json:"owner_email"`
}

func toFileResponse(f *model.File) fileResponse {
	return fileResponse{
		ID:               f.ID,
		OriginalFilename: f.OriginalFilename,
		StoredName:       f.StoredName,
		Size:             f.Size,
		ContentType:      f.ContentType,
		Status:           f.Status,
		OwnerID:          f.OwnerID,
		UploadedAt:       f.UploadedAt.UTC().Format(time.RFC3339),
		UpdatedAt:        f.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toFileWithOwnerResponse(f *model.FileWithOwner) fileWithOwnerResponse {
	return fileWithOwnerResponse{
		fileResponse:  toFileResponse(&f.File),
		OwnerUsername: f.OwnerUsername,
		OwnerEmail:    f.OwnerEmail,
	}
}

// UploadFile — POST /api/files/upload.
// Принимает multipart/form-data с полем "file".
func (h *APIHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	actor := middleware.UserFromContext(r.Context())

	// Жёсткий лимит тела запроса: сервис дополнительно валидирует
	// заявленный размер, но читать гигабайты с клиента незачем
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+multipartOverhead)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			apierrors.ValidationError(w, fmt.Sprintf("Размер файла превышает лимит %d байт", h.maxUploadSize))
			return
		}
		apierrors.ValidationError(w, "Ожидается multipart/form-data с полем 'file'")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	created, err := h.files.Create(r.Context(), actor, header.Filename, contentType, header.Size, file)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Файл загружен и ожидает модерации",
		"file":    toFileResponse(created),
	})
}

// MyFiles — GET /api/files/my-files.
func (h *APIHandler) MyFiles(w http.ResponseWriter, r *http.Request) {
	actor := middleware.UserFromContext(r.Context())

	files, err := h.files.ListOwn(r.Context(), actor)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	items := make([]fileResponse, 0, len(files))
	for _, f := range files {
		items = append(items, toFileResponse(f))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"files": items,
		"total": len(items),
	})
}

// DownloadFile — GET /api/files/download/{file_id}.
// Отдаёт байты файла как attachment с оригинальным именем.
func (h *APIHandler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	actor := middleware.UserFromContext(r.Context())
	fileID := chi.URLParam(r, "file_id")

	f, err := h.files.Get(r.Context(), actor, fileID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	blob, err := h.blobs.Open(f.StoredName)
	if err != nil {
		// Метаданные есть, байтов нет — запись указывает в пустоту
		h.logger.Error("Blob отсутствует для зарегистрированного файла",
			slog.String("file_id", f.ID),
			slog.String("stored_name", f.StoredName),
		)
		apierrors.NotFound(w, "Содержимое файла отсутствует в хранилище")
		return
	}
	defer blob.Close()

	w.Header().Set("Content-Type", f.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(f.Size, 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", f.OriginalFilename))

	if _, err := io.Copy(w, blob); err != nil {
		// Заголовки уже отправлены, остаётся только залогировать
		h.logger.Error("Ошибка отдачи файла клиенту",
			slog.String("file_id", f.ID),
			slog.String("error", err.Error()),
		)
	}
}

// DeleteFile — DELETE /api/files/delete/{file_id}.
func (h *APIHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	actor := middleware.UserFromContext(r.Context())
	fileID := chi.URLParam(r, "file_id")

	res, err := h.files.Delete(r.Context(), actor, fileID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":      "Файл удалён",
		"file_id":      res.File.ID,
		"blob_removed": res.BlobRemoved,
	})
}
