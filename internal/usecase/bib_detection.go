package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoArmGo/BibFinder/internal/core/ports"
	"github.com/google/uuid"
)

// BibDetector распознаёт номера для уже сохранённых фото (отложенный режим)
type BibDetector struct {
	photos      ports.PhotoStorage
	recognizer  ports.BibRecognizer
	callTimeout time.Duration
	logger      *slog.Logger
}

func NewBibDetector(photos ports.PhotoStorage, recognizer ports.BibRecognizer, callTimeout time.Duration, logger *slog.Logger) *BibDetector {
	if callTimeout <= 0 {
		callTimeout = defaultCallBudget
	}
	return &BibDetector{
		photos:      photos,
		recognizer:  recognizer,
		callTimeout: callTimeout,
		logger:      logger.With("component", "bib_detector"),
	}
}

// DetectForPhoto идемпотентна: удалённое фото или фото с номером пропускаются без вызова OCR
func (d *BibDetector) DetectForPhoto(ctx context.Context, photoID uuid.UUID) error {
	photo, err := d.photos.GetPhotoByID(ctx, photoID)
	if err != nil {
		return fmt.Errorf("usecase: ошибка при получении фото %s: %w", photoID, err)
	}
	if photo == nil {
		d.logger.Info("photo is gone, skipping bib detection", "photo_id", photoID)
		return nil
	}
	if photo.HasBibNumber() {
		d.logger.Debug("photo already has a bib number", "photo_id", photoID)
		return nil
	}

	ocrCtx, cancel := context.WithTimeout(ctx, d.callTimeout)
	defer cancel()
	bib, err := d.recognizer.DetectBib(ocrCtx, photo.OriginalURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBibDetectionFailed, err)
	}

	bib = NormalizeBib(bib)
	if bib == nil {
		d.logger.Info("no bib number detected", "photo_id", photoID)
		return nil
	}

	if err := d.photos.UpdateBibNumber(ctx, photoID, bib); err != nil {
		return fmt.Errorf("usecase: ошибка при сохранении номера фото %s: %w", photoID, err)
	}
	d.logger.Info("bib number detected", "photo_id", photoID, "bib_number", *bib)
	return nil
}
