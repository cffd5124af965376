package ports

import (
	"context"

	"github.com/GoArmGo/BibFinder/internal/domain"
	"github.com/google/uuid"
)

// PhotoStorage определяет методы для взаимодействия с хранилищем фотографий.
// Отсутствующая запись возвращается как nil без ошибки.
type PhotoStorage interface {
	SavePhoto(ctx context.Context, photo *domain.Photo) error
	GetPhotoByID(ctx context.Context, id uuid.UUID) (*domain.Photo, error)
	ListPhotosByEvent(ctx context.Context, eventID uuid.UUID) ([]domain.Photo, error)
	UpdateBibNumber(ctx context.Context, id uuid.UUID, bib *string) error
	UpdateRotation(ctx context.Context, id uuid.UUID, rotation int) error
	UpdateEditedURL(ctx context.Context, id uuid.UUID, editedURL *string) error
	DeletePhoto(ctx context.Context, id uuid.UUID) error
}

// EventStorage определяет методы чтения событий
type EventStorage interface {
	GetEventByID(ctx context.Context, id uuid.UUID) (*domain.Event, error)
}

// PurchaseStorage определяет проверки покупок для выдачи оригиналов.
// Чтение должно видеть собственные записи (read-your-writes).
type PurchaseStorage interface {
	// HasCompletedPurchase есть ли у зрителя завершённая покупка, включающая фото
	HasCompletedPurchase(ctx context.Context, photoID uuid.UUID, viewer domain.Viewer) (bool, error)

	// ListCompletedPhotoIDs все фото события, открытые зрителю завершёнными покупками
	ListCompletedPhotoIDs(ctx context.Context, eventID uuid.UUID, viewer domain.Viewer) (map[uuid.UUID]struct{}, error)
}
