// Пакет policy — правила доступа к операциям файлового реестра.
// Чистая функция решения: (актор, действие, владелец цели) → разрешено/запрещено.
// Вызывается сервисным слоем перед каждой операцией над конкретным файлом,
// а не прячется в middleware: контракт доступа — часть ядра.
package policy

import "github.com/bigkaa/godrive/internal/domain/model"

// Action — действие над файловым реестром.
type Action string

const (
	// ActionUpload — загрузка нового файла.
	ActionUpload Action = "upload"
	// ActionListOwn — список собственных файлов.
	ActionListOwn Action = "list_own"
	// ActionListAll — список всех файлов (модерация).
	ActionListAll Action = "list_all"
	// ActionDownload — скачивание конкретного файла.
	ActionDownload Action = "download"
	// ActionUpdateStatus — смена статуса модерации.
	ActionUpdateStatus Action = "update_status"
	// ActionDeleteOwn — удаление собственного файла.
	ActionDeleteOwn Action = "delete_own"
	// ActionDeleteAny — удаление любого файла (модерация).
	ActionDeleteAny Action = "delete_any"
)

// Allowed решает, разрешено ли актору действие над файлом с владельцем ownerID.
// Для действий без конкретной цели (upload, list_own, list_all) ownerID
// игнорируется и может быть пустым.
//
// ActionDeleteOwn разрешён только владельцу — у администратора здесь нет
// особого случая: чужой файл администратор удаляет через ActionDeleteAny.
func Allowed(actor *model.User, action Action, ownerID string) bool {
	if actor == nil {
		return false
	}

	switch action {
	case ActionUpload, ActionListOwn:
		// Любой аутентифицированный пользователь
		return true
	case ActionListAll, ActionUpdateStatus, ActionDeleteAny:
		return actor.IsAdmin()
	case ActionDownload:
		return actor.IsAdmin() || actor.ID == ownerID
	case ActionDeleteOwn:
		return actor.ID == ownerID
	}
	return false
}
