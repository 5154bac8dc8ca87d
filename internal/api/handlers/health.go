// health.go — обработчики health endpoints.
// /api/health — статус сервиса (PostgreSQL + файловое хранилище)
// /metrics — Prometheus метрики
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bigkaa/godrive/internal/config"
)

// ReadinessChecker — интерфейс проверки готовности зависимости.
type ReadinessChecker interface {
	// CheckReady возвращает статус ("ok", "fail") и сообщение.
	CheckReady() (status string, message string)
}

// HealthHandler — обработчик health endpoints.
type HealthHandler struct {
	pgChecker    ReadinessChecker
	storeChecker ReadinessChecker
	promHandler  http.Handler
}

// NewHealthHandler создаёт обработчик health endpoints.
// pgChecker — проверка PostgreSQL, storeChecker — проверка хранилища файлов.
// Оба могут быть nil (health вернёт "fail" для nil зависимостей).
func NewHealthHandler(pgChecker, storeChecker ReadinessChecker) *HealthHandler {
	return &HealthHandler{
		pgChecker:    pgChecker,
		storeChecker: storeChecker,
		promHandler:  promhttp.Handler(),
	}
}

// healthCheckResult — результат проверки одной зависимости.
type healthCheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// healthResponse — ответ health endpoint.
type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Service   string `json:"service"`
	Checks    struct {
		PostgreSQL healthCheckResult `json:"postgresql"`
		Storage    healthCheckResult `json:"storage"`
	} `json:"checks"`
}

// Health — статус сервиса. Проверяет PostgreSQL и файловое хранилище.
// Возвращает 200 (ok) или 503 (fail).
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   config.Version,
		Service:   "godrive",
	}

	// Проверяем PostgreSQL
	if h.pgChecker != nil {
		status, msg := h.pgChecker.CheckReady()
		resp.Checks.PostgreSQL = healthCheckResult{Status: status, Message: msg}
	} else {
		resp.Checks.PostgreSQL = healthCheckResult{Status: "fail", Message: "не инициализирован"}
	}

	// Проверяем хранилище файлов
	if h.storeChecker != nil {
		status, msg := h.storeChecker.CheckReady()
		resp.Checks.Storage = healthCheckResult{Status: status, Message: msg}
	} else {
		resp.Checks.Storage = healthCheckResult{Status: "fail", Message: "не инициализирован"}
	}

	// Итоговый статус: fail, если хотя бы одна зависимость fail
	resp.Status = "ok"
	if resp.Checks.PostgreSQL.Status == "fail" || resp.Checks.Storage.Status == "fail" {
		resp.Status = "fail"
	}

	w.Header().Set("Content-Type", "application/json")
	if resp.Status == "fail" {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// GetMetrics — Prometheus метрики.
func (h *HealthHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.promHandler.ServeHTTP(w, r)
}
