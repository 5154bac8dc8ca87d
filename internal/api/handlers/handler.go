// handler.go — основной обработчик API.
// Объединяет доменные обработчики и делегирует запросы в сервисный слой.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apierrors "github.com/bigkaa/godrive/internal/api/errors"
	"github.com/bigkaa/godrive/internal/service"
	"github.com/bigkaa/godrive/internal/storage/blobstore"
)

// APIHandler — основной обработчик API.
type APIHandler struct {
	health        *HealthHandler
	auth          *service.AuthService
	files         *service.FileService
	blobs         *blobstore.BlobStore
	maxUploadSize int64
	logger        *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
func NewAPIHandler(
	health *HealthHandler,
	auth *service.AuthService,
	files *service.FileService,
	blobs *blobstore.BlobStore,
	maxUploadSize int64,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		health:        health,
		auth:          auth,
		files:         files,
		blobs:         blobs,
		maxUploadSize: maxUploadSize,
		logger:        logger.With(slog.String("component", "api_handler")),
	}
}

// Health — health endpoint (делегируется в HealthHandler).
func (h *APIHandler) Health(w http.ResponseWriter, r *http.Request) {
	h.health.Health(w, r)
}

// GetMetrics — Prometheus метрики (делегируется в HealthHandler).
func (h *APIHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.health.GetMetrics(w, r)
}

// --- Вспомогательные функции ---

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeServiceError транслирует ошибку сервисного слоя в HTTP-ответ.
// Неклассифицированные ошибки логируются и отдаются как 500 без деталей.
func (h *APIHandler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		apierrors.ValidationError(w, err.Error())
	case errors.Is(err, service.ErrConflict):
		apierrors.Conflict(w, err.Error())
	case errors.Is(err, service.ErrAuth):
		apierrors.Unauthorized(w, err.Error())
	case errors.Is(err, service.ErrForbidden):
		apierrors.Forbidden(w, err.Error())
	case errors.Is(err, service.ErrNotFound):
		apierrors.NotFound(w, err.Error())
	case errors.Is(err, service.ErrStorage):
		apierrors.StorageError(w, err.Error())
	default:
		h.logger.Error("Внутренняя ошибка обработки запроса",
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Внутренняя ошибка сервера")
	}
}
