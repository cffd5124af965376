package usecase

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoArmGo/BibFinder/internal/core/ports"
	"github.com/GoArmGo/BibFinder/internal/domain"
	"github.com/google/uuid"
)

// photoUseCase implements PhotoUseCase
type photoUseCase struct {
	photoStorage ports.PhotoStorage
	fileStorage  ports.FileStorage
	callTimeout  time.Duration
	logger       *slog.Logger
}

// NewPhotoUseCase создает новый экземпляр PhotoUseCase
func NewPhotoUseCase(photoStorage ports.PhotoStorage, fileStorage ports.FileStorage, callTimeout time.Duration, logger *slog.Logger) PhotoUseCase {
	if callTimeout <= 0 {
		callTimeout = defaultCallBudget
	}
	return &photoUseCase{
		photoStorage: photoStorage,
		fileStorage:  fileStorage,
		callTimeout:  callTimeout,
		logger:       logger.With("component", "photo_admin"),
	}
}

// DeletePhoto сначала удаляет объекты, потом запись: при сбое хранилища
// запись остаётся и удаление можно повторить
func (uc *photoUseCase) DeletePhoto(ctx context.Context, photoID uuid.UUID) error {
	photo, err := uc.photoStorage.GetPhotoByID(ctx, photoID)
	if err != nil {
		return fmt.Errorf("usecase: ошибка при получении фото %s: %w", photoID, err)
	}
	if photo == nil {
		uc.logger.Debug("photo already deleted", "photo_id", photoID)
		return nil
	}

	keys := make([]string, 0, 4)
	for _, u := range photo.AssetURLs() {
		if key, ok := uc.fileStorage.KeyFromURL(u); ok {
			keys = append(keys, key)
		} else {
			uc.logger.Warn("asset url is outside the bucket, skipping", "photo_id", photoID, "url", u)
		}
	}

	if len(keys) > 0 {
		delCtx, cancel := context.WithTimeout(ctx, uc.callTimeout)
		err := uc.fileStorage.DeleteFiles(delCtx, keys)
		cancel()
		if err != nil {
			return fmt.Errorf("usecase: ошибка при удалении файлов фото %s: %w", photoID, err)
		}
	}

	if err := uc.photoStorage.DeletePhoto(ctx, photoID); err != nil {
		return fmt.Errorf("usecase: ошибка при удалении фото %s из БД: %w", photoID, err)
	}

	uc.logger.Info("photo deleted", "photo_id", photoID, "objects", len(keys))
	return nil
}

func (uc *photoUseCase) DeletePhotos(ctx context.Context, photoIDs []uuid.UUID) []domain.BatchItemResult {
	results := make([]domain.BatchItemResult, 0, len(photoIDs))
	seen := make(map[uuid.UUID]struct{}, len(photoIDs))
	for _, id := range photoIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		res := domain.BatchItemResult{PhotoID: id}
		if err := uc.DeletePhoto(context.WithoutCancel(ctx), id); err != nil {
			res.Error = err.Error()
		}
		results = append(results, res)
	}
	return results
}

func (uc *photoUseCase) UpdateBibNumber(ctx context.Context, photoID uuid.UUID, bib *string) (*domain.Photo, error) {
	photo, err := uc.mustGet(ctx, photoID)
	if err != nil {
		return nil, err
	}

	bib = NormalizeBib(bib)
	if err := uc.photoStorage.UpdateBibNumber(ctx, photoID, bib); err != nil {
		return nil, fmt.Errorf("usecase: ошибка при обновлении номера фото %s: %w", photoID, err)
	}
	photo.BibNumber = bib
	uc.logger.Info("bib number updated", "photo_id", photoID, "bib_number", derefOr(bib, ""))
	return photo, nil
}

func (uc *photoUseCase) UpdateRotation(ctx context.Context, photoID uuid.UUID, rotation int) (*domain.Photo, error) {
	if !domain.ValidRotation(rotation) {
		return nil, ErrInvalidRotation
	}
	photo, err := uc.mustGet(ctx, photoID)
	if err != nil {
		return nil, err
	}

	if err := uc.photoStorage.UpdateRotation(ctx, photoID, rotation); err != nil {
		return nil, fmt.Errorf("usecase: ошибка при обновлении поворота фото %s: %w", photoID, err)
	}
	photo.Rotation = rotation
	return photo, nil
}

// AttachEditedVersion заменяет обработанную версию.
// Новый объект удаляется, если запись в бд не обновилась; старый удаляется после успеха.
func (uc *photoUseCase) AttachEditedVersion(ctx context.Context, photoID uuid.UUID, file domain.UploadFile) (*domain.Photo, error) {
	if len(file.Data) == 0 {
		return nil, ErrEmptyFile
	}
	photo, err := uc.mustGet(ctx, photoID)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("events/%s/edited/%s%s", photo.EventID, uuid.New(), fileExt(file.FileName))
	uploadCtx, cancel := context.WithTimeout(ctx, uc.callTimeout)
	url, err := uc.fileStorage.UploadFile(uploadCtx, key, bytes.NewReader(file.Data), contentTypeOr(file.ContentType))
	cancel()
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка загрузки обработанной версии фото %s: %w", photoID, err)
	}

	if err := uc.photoStorage.UpdateEditedURL(ctx, photoID, &url); err != nil {
		deleteTemp(ctx, uc.fileStorage, key, uc.callTimeout, uc.logger)
		return nil, fmt.Errorf("usecase: ошибка при сохранении обработанной версии фото %s: %w", photoID, err)
	}

	previous := photo.EditedURL
	photo.EditedURL = &url
	if previous != nil {
		if oldKey, ok := uc.fileStorage.KeyFromURL(*previous); ok && oldKey != key {
			deleteTemp(ctx, uc.fileStorage, oldKey, uc.callTimeout, uc.logger)
		}
	}

	uc.logger.Info("edited version attached", "photo_id", photoID)
	return photo, nil
}

func (uc *photoUseCase) mustGet(ctx context.Context, photoID uuid.UUID) (*domain.Photo, error) {
	photo, err := uc.photoStorage.GetPhotoByID(ctx, photoID)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при получении фото %s: %w", photoID, err)
	}
	if photo == nil {
		return nil, ErrPhotoNotFound
	}
	return photo, nil
}
