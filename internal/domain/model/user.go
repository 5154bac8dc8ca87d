// Пакет model — доменные модели GoDrive.
package model

import "time"

// Роли пользователей.
const (
	// RoleUser — обычный пользователь: загрузка и управление своими файлами.
	RoleUser = "user"
	// RoleAdmin — администратор: модерация и управление всеми файлами.
	RoleAdmin = "admin"
)

// User — зарегистрированный пользователь системы.
// Хранится в таблице users.
type User struct {
	// ID — UUID пользователя
	ID string
	// Username — уникальное имя пользователя
	Username string
	// Email — уникальный адрес электронной почты (хранится в нижнем регистре)
	Email string
	// PasswordHash — bcrypt-хэш пароля, никогда не отдаётся наружу
	PasswordHash string
	// Role — роль (user, admin)
	Role string
	// CreatedAt — время регистрации
	CreatedAt time.Time
}

// IsAdmin сообщает, является ли пользователь администратором.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
