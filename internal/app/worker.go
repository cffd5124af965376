package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/GoArmGo/BibFinder/internal/core/ports"
	"github.com/GoArmGo/BibFinder/internal/messaging/payloads"
	"github.com/google/uuid"
)

type bibDetector interface {
	DetectForPhoto(ctx context.Context, photoID uuid.UUID) error
}

// runWorker запускает потребителя задач распознавания номеров и ждёт отмены ctx
func runWorker(ctx context.Context, detector bibDetector, consumer ports.BibDetectionConsumer, logger *slog.Logger) error {
	logger.Info("worker started, waiting for bib detection jobs")

	if err := consumer.StartConsumingBibDetections(ctx, bibDetectionHandler(detector, logger)); err != nil {
		return fmt.Errorf("ошибка при запуске потребителя RabbitMQ: %w", err)
	}

	<-ctx.Done()
	logger.Info("shutdown signal received, worker stopped")
	return nil
}

// bibDetectionHandler обрабатывает одну задачу. Задача с битым photo_id
// подтверждается без обработки: повтор её не исправит.
func bibDetectionHandler(detector bibDetector, logger *slog.Logger) func(context.Context, payloads.BibDetectionPayload) error {
	return func(ctx context.Context, payload payloads.BibDetectionPayload) error {
		photoID, err := uuid.Parse(payload.PhotoID)
		if err != nil {
			logger.Error("dropping job with invalid photo id", "photo_id", payload.PhotoID, "error", err)
			return nil
		}
		if err := detector.DetectForPhoto(ctx, photoID); err != nil {
			return fmt.Errorf("распознавание номера для фото %s: %w", photoID, err)
		}
		return nil
	}
}
