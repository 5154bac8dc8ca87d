// auth.go — сервис учётных записей и аутентификации.
// Регистрация пользователей, выдача и проверка JWT (HS256),
// создание начального администратора.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/bigkaa/godrive/internal/domain/model"
	"github.com/bigkaa/godrive/internal/repository"
)

// Ограничения на учётные данные при регистрации.
const (
	minUsernameLen = 3
	minPasswordLen = 6
)

// AuthService — сервис учётных записей.
type AuthService struct {
	users     repository.UserRepository
	jwtSecret []byte
	tokenTTL  time.Duration
	logger    *slog.Logger
}

// NewAuthService создаёт сервис учётных записей.
func NewAuthService(users repository.UserRepository, jwtSecret string, tokenTTL time.Duration, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:     users,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		logger:    logger.With(slog.String("component", "auth_service")),
	}
}

// Register создаёт нового пользователя с ролью user.
// Username и email нормализуются (trim, email — к нижнему регистру).
// Пароль хранится только в виде bcrypt-хеша.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	// Длина в рунах, а не в байтах: кириллический username из двух
	// букв занимает четыре байта, но остаётся коротким.
	if utf8.RuneCountInString(username) < minUsernameLen {
		return nil, fmt.Errorf("%w: username должен содержать минимум %d символа", ErrValidation, minUsernameLen)
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: некорректный email", ErrValidation)
	}
	if len(password) < minPasswordLen {
		return nil, fmt.Errorf("%w: пароль должен содержать минимум %d символов", ErrValidation, minPasswordLen)
	}

	// Предварительная проверка уникальности — чтобы вернуть понятное
	// сообщение о том, какое именно поле занято.
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, fmt.Errorf("%w: username '%s' уже занят", ErrConflict, username)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("проверка username: %w", err)
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("%w: email '%s' уже зарегистрирован", ErrConflict, email)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("проверка email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("хеширование пароля: %w", err)
	}

	user := &model.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         model.RoleUser,
	}

	if err := s.users.Create(ctx, user); err != nil {
		// Гонка между предварительной проверкой и INSERT —
		// уникальный индекс БД остаётся последней линией защиты.
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: username или email уже заняты", ErrConflict)
		}
		return nil, fmt.Errorf("создание пользователя: %w", err)
	}

	s.logger.Info("Пользователь зарегистрирован",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return user, nil
}

// Authenticate проверяет учётные данные и выдаёт JWT.
// Неизвестный email и неверный пароль дают одинаковую ошибку ErrAuth —
// ответ не раскрывает, существует ли учётная запись.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (string, *model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, fmt.Errorf("%w: неверный email или пароль", ErrAuth)
		}
		return "", nil, fmt.Errorf("поиск пользователя: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, fmt.Errorf("%w: неверный email или пароль", ErrAuth)
	}

	token, err := s.issueToken(user.ID)
	if err != nil {
		return "", nil, fmt.Errorf("выдача токена: %w", err)
	}

	s.logger.Info("Пользователь аутентифицирован",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return token, user, nil
}

// issueToken подписывает JWT HS256 с identity пользователя.
// В claims только идентификатор: роль перечитывается из БД при каждом
// запросе, поэтому смена роли действует сразу, без перевыпуска токена.
func (s *AuthService) issueToken(userID string) (string, error) {
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// Resolve проверяет JWT и возвращает актуального пользователя из БД.
// Любой дефект токена (подпись, истечение, формат) и отсутствие
// пользователя дают ErrAuth.
func (s *AuthService) Resolve(ctx context.Context, tokenString string) (*model.User, error) {
	claims := &jwt.RegisteredClaims{}

	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return s.jwtSecret, nil },
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: недействительный токен", ErrAuth)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: токен без идентификатора пользователя", ErrAuth)
	}

	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: пользователь токена не существует", ErrAuth)
		}
		return nil, fmt.Errorf("поиск пользователя токена: %w", err)
	}

	return user, nil
}

// EnsureAdmin создаёт начального администратора, если в системе
// нет ни одного. Возвращает true, если администратор был создан.
// Идемпотентна: повторные вызовы при существующем администраторе — no-op.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, email, password string) (bool, error) {
	exists, err := s.users.HasAdmin(ctx)
	if err != nil {
		return false, fmt.Errorf("проверка наличия администратора: %w", err)
	}
	if exists {
		return false, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("хеширование пароля администратора: %w", err)
	}

	admin := &model.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        strings.ToLower(email),
		PasswordHash: string(hash),
		Role:         model.RoleAdmin,
	}

	if err := s.users.Create(ctx, admin); err != nil {
		return false, fmt.Errorf("создание администратора: %w", err)
	}

	s.logger.Info("Создан начальный администратор",
		slog.String("user_id", admin.ID),
		slog.String("username", admin.Username),
	)

	return true, nil
}
