package ports

import (
	"context"

	"github.com/GoArmGo/BibFinder/internal/messaging/payloads"
)

// BibDetectionPublisher публикует задачи отложенного распознавания номеров
type BibDetectionPublisher interface {
	PublishBibDetection(ctx context.Context, payload payloads.BibDetectionPayload) error
}

// BibDetectionConsumer используется воркером для получения задач из очереди
type BibDetectionConsumer interface {
	// StartConsumingBibDetections начинает прослушивание очереди,
	// handler вызывается для каждого полученного сообщения
	StartConsumingBibDetections(ctx context.Context, handler func(context.Context, payloads.BibDetectionPayload) error) error
}
