// errors.go — ошибки бизнес-логики сервисного слоя.
package service

import "errors"

var (
	// ErrValidation — ошибка валидации входных данных.
	ErrValidation = errors.New("ошибка валидации")
	// ErrConflict — конфликт (дублирующийся ресурс).
	ErrConflict = errors.New("конфликт — ресурс уже существует")
	// ErrAuth — неуспешная аутентификация (неверные учётные данные или токен).
	ErrAuth = errors.New("ошибка аутентификации")
	// ErrForbidden — действие запрещено политикой доступа.
	ErrForbidden = errors.New("доступ запрещён")
	// ErrNotFound — ресурс не найден.
	ErrNotFound = errors.New("ресурс не найден")
	// ErrStorage — ошибка файлового хранилища.
	ErrStorage = errors.New("ошибка хранилища")
)
