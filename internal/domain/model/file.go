package model

import "time"

// Статусы файла в очереди модерации.
const (
	// StatusPending — файл загружен и ожидает решения администратора.
	StatusPending = "pending"
	// StatusAccepted — файл принят администратором.
	StatusAccepted = "accepted"
	// StatusRejected — файл отклонён администратором.
	StatusRejected = "rejected"
)

// ValidStatus проверяет, является ли строка допустимым статусом файла.
// Переходы между статусами не ограничены: администратор может
// повторно открыть отклонённый файл.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// File — запись файла в реестре.
// Хранится в таблице files. Байты файла лежат в blob store
// под именем StoredName.
type File struct {
	// ID — UUID файла
	ID string
	// StoredName — имя, под которым байты хранятся в blob store
	StoredName string
	// OriginalFilename — оригинальное имя файла при загрузке
	OriginalFilename string
	// Size — размер файла в байтах
	Size int64
	// ContentType — MIME-тип файла
	ContentType string
	// Status — статус модерации (pending, accepted, rejected)
	Status string
	// OwnerID — UUID владельца (users.id, ON DELETE CASCADE)
	OwnerID string
	// UploadedAt — время загрузки, неизменяемое
	UploadedAt time.Time
	// UpdatedAt — время последней смены статуса
	UpdatedAt time.Time
}

// FileWithOwner — запись файла, аннотированная данными владельца.
// Используется в административных списках.
type FileWithOwner struct {
	File
	// OwnerUsername — имя владельца
	OwnerUsername string
	// OwnerEmail — email владельца
	OwnerEmail string
}
