// Пакет config — загрузка и валидация конфигурации GoDrive
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Seed-учётка администратора по умолчанию. Предназначена только для
// первого запуска — production-развёртывания обязаны переопределить её
// через DRIVE_ADMIN_EMAIL / DRIVE_ADMIN_PASSWORD.
const (
	DefaultAdminUsername = "admin"
	DefaultAdminEmail    = "admin@drive.com"
	DefaultAdminPassword = "admin123"
)

// Config содержит все параметры конфигурации GoDrive.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- PostgreSQL ---

	// Хост PostgreSQL
	DBHost string
	// Порт PostgreSQL
	DBPort int
	// Имя базы данных
	DBName string
	// Имя пользователя PostgreSQL
	DBUser string
	// Пароль пользователя PostgreSQL
	DBPassword string
	// Режим SSL: disable, require, verify-ca, verify-full
	DBSSLMode string
	// Максимальное количество подключений в пуле
	DBMaxConns int
	// Максимальное время жизни подключения в пуле
	DBConnMaxLifetime time.Duration

	// --- Токены ---

	// Секрет подписи токенов (HS256)
	JWTSecret string
	// Время жизни токена
	TokenTTL time.Duration

	// --- Хранилище файлов ---

	// Директория blob store
	DataDir string
	// Максимальный размер загружаемого файла в байтах
	MaxUploadSize int64

	// --- Bootstrap администратора ---

	// Имя пользователя seed-администратора
	AdminUsername string
	// Email seed-администратора
	AdminEmail string
	// Пароль seed-администратора
	AdminPassword string

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// DRIVE_PORT — порт HTTP-сервера (по умолчанию 8080)
	cfg.Port, err = getEnvInt("DRIVE_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("DRIVE_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("DRIVE_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	// DRIVE_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("DRIVE_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("DRIVE_LOG_LEVEL: %w", err)
	}

	// DRIVE_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("DRIVE_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("DRIVE_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- PostgreSQL ---

	// DRIVE_DB_HOST — обязательный
	cfg.DBHost, err = getEnvRequired("DRIVE_DB_HOST")
	if err != nil {
		return nil, err
	}

	// DRIVE_DB_PORT — порт PostgreSQL (по умолчанию 5432)
	cfg.DBPort, err = getEnvInt("DRIVE_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("DRIVE_DB_PORT: %w", err)
	}

	// DRIVE_DB_NAME — обязательный
	cfg.DBName, err = getEnvRequired("DRIVE_DB_NAME")
	if err != nil {
		return nil, err
	}

	// DRIVE_DB_USER — обязательный
	cfg.DBUser, err = getEnvRequired("DRIVE_DB_USER")
	if err != nil {
		return nil, err
	}

	// DRIVE_DB_PASSWORD — обязательный
	cfg.DBPassword, err = getEnvRequired("DRIVE_DB_PASSWORD")
	if err != nil {
		return nil, err
	}

	// DRIVE_DB_SSL_MODE — режим SSL (по умолчанию disable)
	cfg.DBSSLMode = getEnvDefault("DRIVE_DB_SSL_MODE", "disable")
	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		return nil, fmt.Errorf("DRIVE_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
	}

	// DRIVE_DB_MAX_CONNS — размер пула подключений (по умолчанию 10)
	cfg.DBMaxConns, err = getEnvInt("DRIVE_DB_MAX_CONNS", 10)
	if err != nil {
		return nil, fmt.Errorf("DRIVE_DB_MAX_CONNS: %w", err)
	}
	if cfg.DBMaxConns < 1 {
		return nil, fmt.Errorf("DRIVE_DB_MAX_CONNS: значение должно быть положительным")
	}

	// DRIVE_DB_CONN_MAX_LIFETIME — время жизни подключения (по умолчанию 30m)
	cfg.DBConnMaxLifetime, err = getEnvDuration("DRIVE_DB_CONN_MAX_LIFETIME", 30*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("DRIVE_DB_CONN_MAX_LIFETIME: %w", err)
	}
	if cfg.DBConnMaxLifetime <= 0 {
		return nil, fmt.Errorf("DRIVE_DB_CONN_MAX_LIFETIME: значение должно быть положительным")
	}

	// --- Токены ---

	// DRIVE_JWT_SECRET — обязательный
	cfg.JWTSecret, err = getEnvRequired("DRIVE_JWT_SECRET")
	if err != nil {
		return nil, err
	}

	// DRIVE_TOKEN_TTL — время жизни токена (по умолчанию 7 суток)
	cfg.TokenTTL, err = getEnvDuration("DRIVE_TOKEN_TTL", 7*24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("DRIVE_TOKEN_TTL: %w", err)
	}
	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("DRIVE_TOKEN_TTL: значение должно быть положительным")
	}

	// --- Хранилище файлов ---

	// DRIVE_DATA_DIR — директория blob store (по умолчанию ./uploads)
	cfg.DataDir = getEnvDefault("DRIVE_DATA_DIR", "./uploads")

	// DRIVE_MAX_UPLOAD_SIZE — максимальный размер файла (по умолчанию 10 MiB)
	cfg.MaxUploadSize, err = getEnvInt64("DRIVE_MAX_UPLOAD_SIZE", 10*1024*1024)
	if err != nil {
		return nil, fmt.Errorf("DRIVE_MAX_UPLOAD_SIZE: %w", err)
	}
	if cfg.MaxUploadSize < 1 {
		return nil, fmt.Errorf("DRIVE_MAX_UPLOAD_SIZE: значение должно быть положительным")
	}

	// --- Bootstrap администратора ---

	// DRIVE_ADMIN_USERNAME / DRIVE_ADMIN_EMAIL / DRIVE_ADMIN_PASSWORD —
	// учётка seed-администратора (по умолчанию admin / admin@drive.com / admin123)
	cfg.AdminUsername = getEnvDefault("DRIVE_ADMIN_USERNAME", DefaultAdminUsername)
	cfg.AdminEmail = strings.ToLower(getEnvDefault("DRIVE_ADMIN_EMAIL", DefaultAdminEmail))
	cfg.AdminPassword = getEnvDefault("DRIVE_ADMIN_PASSWORD", DefaultAdminPassword)

	// --- Graceful shutdown ---

	// DRIVE_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("DRIVE_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("DRIVE_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
	)
}

// DefaultAdminCredentials сообщает, используется ли seed-учётка
// администратора по умолчанию. Используется для warning при старте.
func (c *Config) DefaultAdminCredentials() bool {
	return c.AdminEmail == DefaultAdminEmail && c.AdminPassword == DefaultAdminPassword
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvInt64 возвращает int64-значение переменной окружения или значение по умолчанию.
func getEnvInt64(key string, defaultVal int64) (int64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
