package config

import (
	"log/slog"
	"testing"
	"time"
)

// setEnvs устанавливает переменные окружения на время теста.
func setEnvs(t *testing.T, envs map[string]string) {
	t.Helper()
	for k, v := range envs {
		t.Setenv(k, v)
	}
}

// minimalEnvs возвращает минимальный набор обязательных переменных.
func minimalEnvs() map[string]string {
	return map[string]string{
		"DRIVE_DB_HOST":     "localhost",
		"DRIVE_DB_NAME":     "drive",
		"DRIVE_DB_USER":     "drive",
		"DRIVE_DB_PASSWORD": "secret",
		"DRIVE_JWT_SECRET":  "test-signing-secret",
	}
}

func TestLoad_MinimalConfig(t *testing.T) {
	setEnvs(t, minimalEnvs())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}

	// Проверяем значения по умолчанию
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, ожидается 8080", cfg.Port)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, ожидается Info", cfg.LogLevel)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q, ожидается json", cfg.LogFormat)
	}
	if cfg.DBPort != 5432 {
		t.Errorf("DBPort = %d, ожидается 5432", cfg.DBPort)
	}
	if cfg.DBSSLMode != "disable" {
		t.Errorf("DBSSLMode = %q, ожидается disable", cfg.DBSSLMode)
	}
	if cfg.DBMaxConns != 10 {
		t.Errorf("DBMaxConns = %d, ожидается 10", cfg.DBMaxConns)
	}
	if cfg.DBConnMaxLifetime != 30*time.Minute {
		t.Errorf("DBConnMaxLifetime = %v, ожидается 30m", cfg.DBConnMaxLifetime)
	}
	if cfg.TokenTTL != 7*24*time.Hour {
		t.Errorf("TokenTTL = %v, ожидается 168h", cfg.TokenTTL)
	}
	if cfg.DataDir != "./uploads" {
		t.Errorf("DataDir = %q, ожидается ./uploads", cfg.DataDir)
	}
	if cfg.MaxUploadSize != 10*1024*1024 {
		t.Errorf("MaxUploadSize = %d, ожидается 10 MiB", cfg.MaxUploadSize)
	}
	if cfg.AdminEmail != DefaultAdminEmail {
		t.Errorf("AdminEmail = %q, ожидается %q", cfg.AdminEmail, DefaultAdminEmail)
	}
	if !cfg.DefaultAdminCredentials() {
		t.Error("DefaultAdminCredentials() = false, ожидается true для дефолтной учётки")
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("ShutdownTimeout = %v, ожидается 5s", cfg.ShutdownTimeout)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	required := []string{
		"DRIVE_DB_HOST",
		"DRIVE_DB_NAME",
		"DRIVE_DB_USER",
		"DRIVE_DB_PASSWORD",
		"DRIVE_JWT_SECRET",
	}

	for _, missing := range required {
		t.Run(missing, func(t *testing.T) {
			envs := minimalEnvs()
			envs[missing] = ""
			setEnvs(t, envs)

			if _, err := Load(); err == nil {
				t.Errorf("Load() без %s должен вернуть ошибку", missing)
			}
		})
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "порт не число", key: "DRIVE_PORT", val: "http"},
		{name: "порт вне диапазона", key: "DRIVE_PORT", val: "70000"},
		{name: "недопустимый уровень логирования", key: "DRIVE_LOG_LEVEL", val: "verbose"},
		{name: "недопустимый формат логов", key: "DRIVE_LOG_FORMAT", val: "xml"},
		{name: "недопустимый ssl mode", key: "DRIVE_DB_SSL_MODE", val: "maybe"},
		{name: "нулевой размер пула", key: "DRIVE_DB_MAX_CONNS", val: "0"},
		{name: "размер пула не число", key: "DRIVE_DB_MAX_CONNS", val: "many"},
		{name: "отрицательное время жизни подключения", key: "DRIVE_DB_CONN_MAX_LIFETIME", val: "-5m"},
		{name: "некорректный ttl", key: "DRIVE_TOKEN_TTL", val: "7 days"},
		{name: "отрицательный ttl", key: "DRIVE_TOKEN_TTL", val: "-1h"},
		{name: "некорректный размер загрузки", key: "DRIVE_MAX_UPLOAD_SIZE", val: "10MB"},
		{name: "нулевой размер загрузки", key: "DRIVE_MAX_UPLOAD_SIZE", val: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			envs := minimalEnvs()
			envs[tt.key] = tt.val
			setEnvs(t, envs)

			if _, err := Load(); err == nil {
				t.Errorf("Load() с %s=%q должен вернуть ошибку", tt.key, tt.val)
			}
		})
	}
}

func TestLoad_Overrides(t *testing.T) {
	envs := minimalEnvs()
	envs["DRIVE_PORT"] = "9090"
	envs["DRIVE_LOG_FORMAT"] = "text"
	envs["DRIVE_TOKEN_TTL"] = "24h"
	envs["DRIVE_DB_MAX_CONNS"] = "25"
	envs["DRIVE_ADMIN_EMAIL"] = "Root@Example.COM"
	envs["DRIVE_ADMIN_PASSWORD"] = "long-random-password"
	setEnvs(t, envs)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}

	if cfg.Port != 9090 {
		t.Errorf("Port = %d, ожидается 9090", cfg.Port)
	}
	if cfg.LogFormat != "text" {
		t.Errorf("LogFormat = %q, ожидается text", cfg.LogFormat)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Errorf("TokenTTL = %v, ожидается 24h", cfg.TokenTTL)
	}
	if cfg.DBMaxConns != 25 {
		t.Errorf("DBMaxConns = %d, ожидается 25", cfg.DBMaxConns)
	}
	// Email администратора приводится к нижнему регистру
	if cfg.AdminEmail != "root@example.com" {
		t.Errorf("AdminEmail = %q, ожидается root@example.com", cfg.AdminEmail)
	}
	if cfg.DefaultAdminCredentials() {
		t.Error("DefaultAdminCredentials() = true при переопределённой учётке")
	}
}

func TestDatabaseDSN(t *testing.T) {
	setEnvs(t, minimalEnvs())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}

	want := "host=localhost port=5432 dbname=drive user=drive password=secret sslmode=disable"
	if got := cfg.DatabaseDSN(); got != want {
		t.Errorf("DatabaseDSN() = %q, ожидается %q", got, want)
	}
}
