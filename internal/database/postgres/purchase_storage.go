package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoArmGo/BibFinder/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPurchaseStorage реализует ports.PurchaseStorage с использованием GORM.
// Чтения идут в основной пул, поэтому видят только что завершённые покупки.
type GormPurchaseStorage struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewGormPurchaseStorage(db *gorm.DB, logger *slog.Logger) *GormPurchaseStorage {
	return &GormPurchaseStorage{db: db, logger: logger.With("component", "purchase_storage")}
}

// completedFor ограничивает выборку завершёнными покупками зрителя
func (s *GormPurchaseStorage) completedFor(ctx context.Context, viewer domain.Viewer) *gorm.DB {
	q := s.db.WithContext(ctx).
		Table("purchase_items").
		Joins("JOIN purchases ON purchases.id = purchase_items.purchase_id").
		Where("purchases.status = ?", domain.PurchaseCompleted)

	switch {
	case viewer.UserID != nil && viewer.Email != "":
		q = q.Where("(purchases.buyer_id = ? OR (purchases.buyer_id IS NULL AND LOWER(purchases.buyer_email) = ?))",
			*viewer.UserID, viewer.Email)
	case viewer.UserID != nil:
		q = q.Where("purchases.buyer_id = ?", *viewer.UserID)
	default:
		q = q.Where("purchases.buyer_id IS NULL AND LOWER(purchases.buyer_email) = ?", viewer.Email)
	}
	return q
}

// HasCompletedPurchase проверяет, куплено ли фото зрителем
func (s *GormPurchaseStorage) HasCompletedPurchase(ctx context.Context, photoID uuid.UUID, viewer domain.Viewer) (bool, error) {
	if viewer.IsAnonymous() {
		return false, nil
	}

	var count int64
	err := s.completedFor(ctx, viewer).
		Where("purchase_items.photo_id = ?", photoID).
		Count(&count).Error
	if err != nil {
		s.logger.Error("failed to check purchase", "photo_id", photoID, "error", err)
		return false, fmt.Errorf("ошибка при проверке покупки: %w", err)
	}
	return count > 0, nil
}

// ListCompletedPhotoIDs возвращает все купленные зрителем фото события
func (s *GormPurchaseStorage) ListCompletedPhotoIDs(ctx context.Context, eventID uuid.UUID, viewer domain.Viewer) (map[uuid.UUID]struct{}, error) {
	out := make(map[uuid.UUID]struct{})
	if viewer.IsAnonymous() {
		return out, nil
	}

	start := time.Now()
	var ids []uuid.UUID
	err := s.completedFor(ctx, viewer).
		Where("purchases.event_id = ?", eventID).
		Distinct().
		Pluck("purchase_items.photo_id", &ids).Error
	if err != nil {
		s.logger.Error("failed to list purchased photos", "event_id", eventID, "error", err)
		return nil, fmt.Errorf("ошибка при получении купленных фото: %w", err)
	}

	for _, id := range ids {
		out[id] = struct{}{}
	}
	s.logger.Debug("purchased photos resolved",
		"event_id", eventID,
		"count", len(out),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}
