package ports

import (
	"context"
	"io"

	"github.com/GoArmGo/BibFinder/internal/domain"
	"github.com/google/uuid"
)

// Normalizer исправляет ориентацию оригинала на месте
type Normalizer interface {
	Normalize(ctx context.Context, imageURL, storagePath string) error
}

// WatermarkRenderer строит превью с водяным знаком и миниатюру
type WatermarkRenderer interface {
	Render(ctx context.Context, imageURL string, eventID uuid.UUID, eventLabel string) (*domain.Preview, error)
}

// MetadataExtractor читает данные съёмки из оригинального файла
type MetadataExtractor interface {
	Extract(ctx context.Context, r io.Reader) (*domain.CaptureMetadata, error)
}

// BibRecognizer распознаёт стартовый номер. nil без ошибки - номер не найден.
type BibRecognizer interface {
	DetectBib(ctx context.Context, imageURL string) (*string, error)
}

// FaceMatcher внешний сервис биометрического поиска.
// Пустой результат Search - это "совпадений нет", а не ошибка.
type FaceMatcher interface {
	Enroll(ctx context.Context, collectionID string, photoID uuid.UUID, imageURL string) error
	Search(ctx context.Context, collectionID, probeURL string) ([]domain.FaceMatch, error)
}
