// auth.go — JWT middleware аутентификации.
// Извлекает Bearer token, проверяет его через AuthService и помещает
// актуального пользователя из БД в контекст запроса. Роль пользователя
// всегда свежая: токен несёт только identity.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	apierrors "github.com/bigkaa/godrive/internal/api/errors"
	"github.com/bigkaa/godrive/internal/domain/model"
)

// contextKey — тип для ключей контекста (избегаем коллизий).
type contextKey string

// ContextKeyUser — аутентифицированный пользователь в контексте запроса.
const ContextKeyUser contextKey = "auth_user"

// UserResolver — проверка токена и загрузка пользователя.
// Реализуется service.AuthService.
type UserResolver interface {
	// Resolve валидирует токен и возвращает актуального пользователя из БД.
	Resolve(ctx context.Context, tokenString string) (*model.User, error)
}

// TokenAuth — middleware аутентификации по Bearer token.
type TokenAuth struct {
	resolver UserResolver
	logger   *slog.Logger
}

// NewTokenAuth создаёт middleware аутентификации.
func NewTokenAuth(resolver UserResolver, logger *slog.Logger) *TokenAuth {
	return &TokenAuth{
		resolver: resolver,
		logger:   logger.With(slog.String("component", "token_auth")),
	}
}

// Middleware возвращает HTTP middleware аутентификации.
// Запрос без валидного токена получает 401; детали дефекта токена
// клиенту не раскрываются.
func (a *TokenAuth) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				apierrors.Unauthorized(w, "Отсутствует заголовок Authorization")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				apierrors.Unauthorized(w, "Неверный формат Authorization: ожидается Bearer <token>")
				return
			}

			tokenString := parts[1]
			if tokenString == "" {
				apierrors.Unauthorized(w, "Пустой Bearer token")
				return
			}

			user, err := a.resolver.Resolve(r.Context(), tokenString)
			if err != nil {
				a.logger.Debug("Токен не прошёл проверку",
					slog.String("error", err.Error()),
					slog.String("remote_addr", r.RemoteAddr),
				)
				apierrors.Unauthorized(w, "Невалидный или просроченный токен")
				return
			}

			// Отмечаем актора для лога запроса (RequestLogger)
			recordRequestAuth(r.Context(), user.ID, user.Role)

			ctx := context.WithValue(r.Context(), ContextKeyUser, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext извлекает аутентифицированного пользователя из контекста.
// Возвращает nil, если пользователь не найден.
func UserFromContext(ctx context.Context) *model.User {
	user, _ := ctx.Value(ContextKeyUser).(*model.User)
	return user
}
