// Пакет blobstore — хранение байтов загруженных файлов на диске.
// Запись через temp файл + fsync + атомарный rename, чтение по имени,
// идемпотентное удаление. Коллизии имён — ответственность вызывающего.
package blobstore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// BlobStore — управление физическими файлами на диске.
type BlobStore struct {
	// dataDir — корневая директория хранения файлов (DRIVE_DATA_DIR)
	dataDir string
}

// New создаёт новый BlobStore. Проверяет и создаёт директорию
// если она не существует.
func New(dataDir string) (*BlobStore, error) {
	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию данных %s: %w", dataDir, err)
	}

	return &BlobStore{dataDir: dataDir}, nil
}

// Put записывает данные из reader на диск под именем name.
// Возвращает количество записанных байт.
//
// Паттерн: temp файл → запись → fsync → atomic rename.
// При ошибке temp файл удаляется. Запись видна под именем name
// только после успешного rename — полузаписанных blob'ов не бывает.
func (bs *BlobStore) Put(name string, reader io.Reader) (int64, error) {
	fullPath := filepath.Join(bs.dataDir, name)
	tmpPath := fullPath + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания временного файла: %w", err)
	}

	size, err := io.Copy(f, reader)
	if err != nil {
		f.Close()
		os.Remove(tmpPath)
		return 0, fmt.Errorf("ошибка записи данных: %w", err)
	}

	// fsync для гарантии записи на диск
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return 0, fmt.Errorf("ошибка fsync: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("ошибка закрытия файла: %w", err)
	}

	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("ошибка атомарного переименования: %w", err)
	}

	return size, nil
}

// Open открывает blob для чтения и возвращает io.ReadCloser.
// Вызывающий код обязан закрыть ReadCloser.
func (bs *BlobStore) Open(name string) (*os.File, error) {
	fullPath := filepath.Join(bs.dataDir, name)

	f, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("blob не найден: %s", name)
		}
		return nil, fmt.Errorf("ошибка открытия blob %s: %w", name, err)
	}

	return f, nil
}

// Delete удаляет blob с диска.
// Возвращает nil если blob уже не существует.
func (bs *BlobStore) Delete(name string) error {
	fullPath := filepath.Join(bs.dataDir, name)

	err := os.Remove(fullPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("ошибка удаления blob %s: %w", name, err)
	}
	return nil
}

// Exists проверяет существование blob на диске.
func (bs *BlobStore) Exists(name string) bool {
	fullPath := filepath.Join(bs.dataDir, name)
	_, err := os.Stat(fullPath)
	return err == nil
}

// DataDir возвращает путь к директории данных.
func (bs *BlobStore) DataDir() string {
	return bs.dataDir
}

// CheckReady проверяет доступность директории данных для health endpoint.
// Возвращает статус ("ok", "fail") и сообщение.
func (bs *BlobStore) CheckReady() (status string, message string) {
	info, err := os.Stat(bs.dataDir)
	if err != nil || !info.IsDir() {
		return "fail", fmt.Sprintf("директория данных недоступна: %s", bs.dataDir)
	}
	return "ok", "директория данных доступна"
}

// StoredName генерирует имя blob'а по оригинальному имени файла.
// Формат: {name}_{timestamp}{ext}
// Пример: report_20260901_150405.pdf
//
// Timestamp имеет секундную гранулярность: две одновременные загрузки
// одинакового имени в пределах одной секунды теоретически могут получить
// одно имя. Известный разрыв, унаследованный от исходной схемы именования.
func (bs *BlobStore) StoredName(originalFilename string) string {
	ext := strings.ToLower(filepath.Ext(originalFilename))
	name := strings.TrimSuffix(originalFilename, filepath.Ext(originalFilename))

	// Убираем небезопасные символы из имени
	name = sanitize(name)

	// Ограничиваем длину имени для предотвращения проблем с FS.
	// Режем по рунам: sanitize пропускает кириллицу, и срез по байтам
	// мог бы разорвать многобайтовый символ.
	if runes := []rune(name); len(runes) > 50 {
		name = string(runes[:50])
	}

	ts := time.Now().UTC().Format("20060102_150405")
	return fmt.Sprintf("%s_%s%s", name, ts, ext)
}

// sanitize убирает небезопасные символы из строки для использования в имени файла.
// Оставляет только буквы, цифры, дефис и подчёркивание.
func sanitize(s string) string {
	var result strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '-' || r == '_' ||
			(r >= 0x0400 && r <= 0x04FF) { // Кириллица
			result.WriteRune(r)
		}
	}
	if result.Len() == 0 {
		return "file"
	}
	return result.String()
}
