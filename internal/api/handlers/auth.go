// auth.go — обработчики регистрации и входа.
// POST /api/auth/register — создание учётной записи
// POST /api/auth/login — вход, выдача JWT
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	apierrors "github.com/bigkaa/godrive/internal/api/errors"
	"github.com/bigkaa/godrive/internal/domain/model"
)

// registerRequest — тело запроса регистрации.
type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginRequest — тело запроса входа.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// userResponse — представление пользователя в ответах API.
// Хеш пароля наружу не отдаётся.
type userResponse struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
}

// loginResponse — ответ на успешный вход.
type loginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        userResponse `json:"user"`
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// Register — POST /api/auth/register.
func (h *APIHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректное тело запроса: ожидается JSON")
		return
	}

	user, err := h.auth.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Пользователь зарегистрирован",
		"user":    toUserResponse(user),
	})
}

// Login — POST /api/auth/login.
func (h *APIHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректное тело запроса: ожидается JSON")
		return
	}

	token, user, err := h.auth.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		User:        toUserResponse(user),
	})
}
