package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/bigkaa/godrive/internal/domain/model"
)

// fakeResolver — подмена UserResolver: принимает единственный валидный токен.
type fakeResolver struct {
	validToken string
	user       *model.User
}

func (f *fakeResolver) Resolve(_ context.Context, tokenString string) (*model.User, error) {
	if tokenString == f.validToken {
		return f.user, nil
	}
	return nil, errors.New("недействительный токен")
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// TestTokenAuth_Unauthorized — запросы без валидного токена получают 401.
func TestTokenAuth_Unauthorized(t *testing.T) {
	auth := NewTokenAuth(&fakeResolver{validToken: "good-token"}, testLogger())
	handler := auth.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("обработчик вызван без аутентификации")
	}))

	tests := []struct {
		name   string
		header string
	}{
		{name: "без заголовка", header: ""},
		{name: "не Bearer", header: "Basic dXNlcjpwYXNz"},
		{name: "пустой токен", header: "Bearer "},
		{name: "невалидный токен", header: "Bearer bad-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/files/my-files", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("статус: ожидалось 401, получено %d", rec.Code)
			}
		})
	}
}

// TestTokenAuth_Success — валидный токен помещает пользователя в контекст.
func TestTokenAuth_Success(t *testing.T) {
	user := &model.User{ID: "user-id", Username: "alice", Role: model.RoleUser}
	auth := NewTokenAuth(&fakeResolver{validToken: "good-token", user: user}, testLogger())

	called := false
	handler := auth.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		got := UserFromContext(r.Context())
		if got == nil {
			t.Fatal("пользователь отсутствует в контексте")
		}
		if got.ID != user.ID {
			t.Errorf("ID пользователя: ожидалось %s, получено %s", user.ID, got.ID)
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/files/my-files", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if !called {
		t.Error("обработчик не вызван при валидном токене")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("статус: ожидалось 200, получено %d", rec.Code)
	}
}

// TestUserFromContext_Empty — пустой контекст даёт nil.
func TestUserFromContext_Empty(t *testing.T) {
	if UserFromContext(context.Background()) != nil {
		t.Error("ожидался nil для пустого контекста")
	}
}

// TestNormalizePath — схлопывание динамических сегментов пути.
func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{path: "/api/health", want: "/api/health"},
		{path: "/api/files/upload", want: "/api/files/upload"},
		{path: "/api/files/download/a1b2c3d4-e5f6-7890-abcd-ef1234567890", want: "/api/files/download/{id}"},
		{path: "/api/files/delete/a1b2c3d4-e5f6-7890-abcd-ef1234567890", want: "/api/files/delete/{id}"},
		{path: "/api/files/admin/update-status/a1b2c3d4-e5f6-7890-abcd-ef1234567890", want: "/api/files/admin/update-status/{id}"},
		{path: "/api/files/admin/delete/a1b2c3d4-e5f6-7890-abcd-ef1234567890", want: "/api/files/admin/delete/{id}"},
		{path: "/unknown", want: "/unknown"},
	}

	for _, tt := range tests {
		if got := normalizePath(tt.path); got != tt.want {
			t.Errorf("normalizePath(%q) = %q, ожидалось %q", tt.path, got, tt.want)
		}
	}
}
