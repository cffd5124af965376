package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoArmGo/BibFinder/internal/domain"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const photoColumns = `id, event_id, photographer_id, original_url, watermark_url, thumbnail_url, edited_url,
	bib_number, rotation, taken_at, camera_make, camera_model, price_cents, created_at, updated_at`

// PhotoStorage реализует ports.PhotoStorage поверх sqlx
type PhotoStorage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

func NewPhotoStorage(db *sqlx.DB, logger *slog.Logger) *PhotoStorage {
	return &PhotoStorage{db: db, logger: logger.With("component", "photo_storage")}
}

// SavePhoto сохраняет запись фото в базе данных
func (s *PhotoStorage) SavePhoto(ctx context.Context, photo *domain.Photo) error {
	start := time.Now()

	if photo.ID == uuid.Nil {
		photo.ID = uuid.New()
	}
	if photo.CreatedAt.IsZero() {
		photo.CreatedAt = start.UTC()
	}
	if photo.UpdatedAt.IsZero() {
		photo.UpdatedAt = photo.CreatedAt
	}

	query := `
	INSERT INTO photos (` + photoColumns + `)
	VALUES (:id, :event_id, :photographer_id, :original_url, :watermark_url, :thumbnail_url, :edited_url,
		:bib_number, :rotation, :taken_at, :camera_make, :camera_model, :price_cents, :created_at, :updated_at)
	`

	if _, err := s.db.NamedExecContext(ctx, query, photo); err != nil {
		s.logger.Error("failed to save photo", "id", photo.ID, "event_id", photo.EventID, "error", err)
		return fmt.Errorf("ошибка при сохранении фото: %w", err)
	}

	s.logger.Info("photo saved successfully",
		"id", photo.ID,
		"event_id", photo.EventID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// GetPhotoByID получает фото по ID
func (s *PhotoStorage) GetPhotoByID(ctx context.Context, id uuid.UUID) (*domain.Photo, error) {
	start := time.Now()

	var photo domain.Photo
	query := `SELECT ` + photoColumns + ` FROM photos WHERE id = $1 LIMIT 1`

	if err := s.db.GetContext(ctx, &photo, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("photo not found by id", "id", id)
			return nil, nil
		}
		s.logger.Error("failed to get photo by id", "id", id, "error", err)
		return nil, fmt.Errorf("ошибка при получении фото по ID: %w", err)
	}

	s.logger.Debug("photo retrieved by id",
		"id", id,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &photo, nil
}

// ListPhotosByEvent возвращает все фото события, новые снимки первыми
func (s *PhotoStorage) ListPhotosByEvent(ctx context.Context, eventID uuid.UUID) ([]domain.Photo, error) {
	start := time.Now()

	q := `
	SELECT ` + photoColumns + ` FROM photos
	WHERE event_id = $1
	ORDER BY taken_at DESC NULLS LAST, created_at DESC
	`

	photos := []domain.Photo{}
	if err := s.db.SelectContext(ctx, &photos, q, eventID); err != nil {
		s.logger.Error("failed to list event photos", "event_id", eventID, "error", err)
		return nil, fmt.Errorf("ошибка при получении фото события: %w", err)
	}

	s.logger.Info("listed event photos",
		"event_id", eventID,
		"count", len(photos),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return photos, nil
}

// UpdateBibNumber записывает (или стирает, если bib == nil) стартовый номер
func (s *PhotoStorage) UpdateBibNumber(ctx context.Context, id uuid.UUID, bib *string) error {
	return s.update(ctx, "bib_number", `UPDATE photos SET bib_number = $2, updated_at = NOW() WHERE id = $1`, id, bib)
}

func (s *PhotoStorage) UpdateRotation(ctx context.Context, id uuid.UUID, rotation int) error {
	return s.update(ctx, "rotation", `UPDATE photos SET rotation = $2, updated_at = NOW() WHERE id = $1`, id, rotation)
}

func (s *PhotoStorage) UpdateEditedURL(ctx context.Context, id uuid.UUID, editedURL *string) error {
	return s.update(ctx, "edited_url", `UPDATE photos SET edited_url = $2, updated_at = NOW() WHERE id = $1`, id, editedURL)
}

// DeletePhoto удаляет запись фото. Отсутствующая запись не ошибка.
func (s *PhotoStorage) DeletePhoto(ctx context.Context, id uuid.UUID) error {
	start := time.Now()

	res, err := s.db.ExecContext(ctx, `DELETE FROM photos WHERE id = $1`, id)
	if err != nil {
		s.logger.Error("failed to delete photo", "id", id, "error", err)
		return fmt.Errorf("ошибка при удалении фото: %w", err)
	}

	n, _ := res.RowsAffected()
	s.logger.Info("photo deleted",
		"id", id,
		"rows", n,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func (s *PhotoStorage) update(ctx context.Context, field, query string, id uuid.UUID, value any) error {
	start := time.Now()

	res, err := s.db.ExecContext(ctx, query, id, value)
	if err != nil {
		s.logger.Error("failed to update photo", "id", id, "field", field, "error", err)
		return fmt.Errorf("ошибка при обновлении поля %s: %w", field, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		s.logger.Warn("photo to update not found", "id", id, "field", field)
		return fmt.Errorf("фото %s не найдено", id)
	}

	s.logger.Info("photo updated",
		"id", id,
		"field", field,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}
