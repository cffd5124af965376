package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoArmGo/BibFinder/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormEventStorage реализует ports.EventStorage с использованием GORM
type GormEventStorage struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewGormEventStorage(db *gorm.DB, logger *slog.Logger) *GormEventStorage {
	return &GormEventStorage{db: db, logger: logger.With("component", "event_storage")}
}

// GetEventByID получает событие вместе с настройками поиска
func (s *GormEventStorage) GetEventByID(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	start := time.Now()

	var event domain.Event
	result := s.db.WithContext(ctx).First(&event, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		s.logger.Error("failed to get event", "id", id, "error", result.Error)
		return nil, fmt.Errorf("ошибка при получении события из БД с помощью GORM: %w", result.Error)
	}

	s.logger.Debug("event retrieved", "id", id, "duration_ms", time.Since(start).Milliseconds())
	return &event, nil
}
