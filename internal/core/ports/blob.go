package ports

import (
	"context"
	"io"
)

// FileStorage определяет интерфейс для работы с файловым хранилищем (AWS S3, MinIO).
// Удаление идемпотентно: удаление несуществующего объекта не ошибка.
type FileStorage interface {
	// UploadFile загружает файл по ключу и возвращает его публичный URL
	UploadFile(ctx context.Context, key string, reader io.Reader, contentType string) (string, error)

	// DeleteFile удаляет один объект
	DeleteFile(ctx context.Context, key string) error

	// DeleteFiles удаляет набор объектов одним запросом
	DeleteFiles(ctx context.Context, keys []string) error

	// KeyFromURL восстанавливает ключ объекта по его публичному URL
	KeyFromURL(publicURL string) (string, bool)
}
