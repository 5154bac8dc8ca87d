// admin.go — административные обработчики модерации.
// GET /api/files/admin/all-files — все файлы с владельцами
// PUT /api/files/admin/update-status/{file_id} — смена статуса
// DELETE /api/files/admin/delete/{file_id} — удаление любого файла
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/godrive/internal/api/errors"
	"github.com/bigkaa/godrive/internal/api/middleware"
)

// updateStatusRequest — тело запроса смены статуса.
type updateStatusRequest struct {
	Status string `json:"status"`
}

// AllFiles — GET /api/files/admin/all-files.
func (h *APIHandler) AllFiles(w http.ResponseWriter, r *http.Request) {
	actor := middleware.UserFromContext(r.Context())

	files, err := h.files.ListAll(r.Context(), actor)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	items := make([]fileWithOwnerResponse, 0, len(files))
	for _, f := range files {
		items = append(items, toFileWithOwnerResponse(f))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"files": items,
		"total": len(items),
	})
}

// UpdateFileStatus — PUT /api/files/admin/update-status/{file_id}.
func (h *APIHandler) UpdateFileStatus(w http.ResponseWriter, r *http.Request) {
	actor := middleware.UserFromContext(r.Context())
	fileID := chi.URLParam(r, "file_id")

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректное тело запроса: ожидается JSON")
		return
	}

	updated, err := h.files.UpdateStatus(r.Context(), actor, fileID, req.Status)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Статус файла обновлён",
		"file":    toFileWithOwnerResponse(updated),
	})
}

// AdminDeleteFile — DELETE /api/files/admin/delete/{file_id}.
// Права проверяет сервисный слой: не-администратор получит 403.
func (h *APIHandler) AdminDeleteFile(w http.ResponseWriter, r *http.Request) {
	h.DeleteFile(w, r)
}
