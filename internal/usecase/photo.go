package usecase

import (
	"context"

	"github.com/GoArmGo/BibFinder/internal/domain"
	"github.com/google/uuid"
)

// UploadUseCase загрузка фото фотографом
type UploadUseCase interface {
	// IngestBatch прогоняет файлы сессии загрузки через пайплайн,
	// onStatus вызывается при каждой смене статуса файла
	IngestBatch(ctx context.Context, eventID, photographerID uuid.UUID, files []domain.UploadFile, onStatus func(domain.UploadResult)) ([]domain.UploadResult, error)
}

// BibScanUseCase предварительное распознавание номеров до загрузки
type BibScanUseCase interface {
	ScanPending(ctx context.Context, files []domain.UploadFile, progress func(domain.ScanProgress)) ([]domain.BibSuggestion, error)
}

// GalleryUseCase поиск своих фото покупателем
type GalleryUseCase interface {
	Browse(ctx context.Context, eventID uuid.UUID, viewer domain.Viewer, q FilterQuery) (*GalleryPage, error)

	// BrowseByFace ищет по селфи; probe не сохраняется
	BrowseByFace(ctx context.Context, eventID uuid.UUID, viewer domain.Viewer, probe domain.UploadFile, q FilterQuery) (*GalleryPage, error)

	ActiveFilters(ctx context.Context, eventID uuid.UUID) ([]ActiveFilter, error)
}

// PhotoUseCase управление уже загруженными фото
type PhotoUseCase interface {
	// DeletePhoto удаляет объекты фото и запись в бд. Повторное удаление не ошибка.
	DeletePhoto(ctx context.Context, photoID uuid.UUID) error

	// DeletePhotos удаляет набор фото, ошибка одного не влияет на остальные
	DeletePhotos(ctx context.Context, photoIDs []uuid.UUID) []domain.BatchItemResult

	// UpdateBibNumber задаёт или очищает (nil) номер
	UpdateBibNumber(ctx context.Context, photoID uuid.UUID, bib *string) (*domain.Photo, error)

	UpdateRotation(ctx context.Context, photoID uuid.UUID, rotation int) (*domain.Photo, error)

	// AttachEditedVersion загружает обработанную версию, доступную только покупателям
	AttachEditedVersion(ctx context.Context, photoID uuid.UUID, file domain.UploadFile) (*domain.Photo, error)
}

var (
	_ UploadUseCase  = (*Ingestor)(nil)
	_ BibScanUseCase = (*BibScanner)(nil)
	_ GalleryUseCase = (*Gallery)(nil)
	_ PhotoUseCase   = (*photoUseCase)(nil)
)
