package imageproc

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Normalizer поворачивает оригинал по EXIF Orientation и перезаписывает его на месте
type Normalizer struct {
	fetcher Fetcher
	files   ObjectWriter
	quality int
	logger  *slog.Logger
}

func NewNormalizer(fetcher Fetcher, files ObjectWriter, quality int, logger *slog.Logger) *Normalizer {
	return &Normalizer{
		fetcher: fetcher,
		files:   files,
		quality: quality,
		logger:  logger.With("component", "normalizer"),
	}
}

// Normalize ничего не делает, если ориентация уже правильная или EXIF нет
func (n *Normalizer) Normalize(ctx context.Context, imageURL, storagePath string) error {
	start := time.Now()
	data, err := n.fetcher.Fetch(ctx, imageURL)
	if err != nil {
		return fmt.Errorf("imageproc: ошибка получения оригинала: %w", err)
	}

	orientation := readOrientation(data)
	if orientation == 1 {
		return nil
	}

	img, err := decode(data)
	if err != nil {
		return err
	}
	buf, err := encodeJPEG(applyOrientation(img, orientation), n.quality)
	if err != nil {
		return err
	}

	if _, err := n.files.UploadFile(ctx, storagePath, buf, jpegContentType); err != nil {
		return fmt.Errorf("imageproc: ошибка перезаписи оригинала %s: %w", storagePath, err)
	}

	n.logger.Debug("orientation normalized",
		"key", storagePath,
		"orientation", orientation,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}
