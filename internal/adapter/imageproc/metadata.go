package imageproc

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/GoArmGo/BibFinder/internal/domain"
	"github.com/rwcarlsen/goexif/exif"
)

// MetadataExtractor читает время съёмки и камеру из EXIF.
// Отсутствие EXIF не ошибка: все поля остаются пустыми.
type MetadataExtractor struct{}

func NewMetadataExtractor() *MetadataExtractor {
	return &MetadataExtractor{}
}

func (MetadataExtractor) Extract(_ context.Context, r io.Reader) (*domain.CaptureMetadata, error) {
	meta := &domain.CaptureMetadata{}

	x, err := exif.Decode(r)
	if err != nil || x == nil {
		return meta, nil
	}

	// DateTime пробует DateTimeOriginal, затем DateTime
	if t, err := x.DateTime(); err == nil && !t.IsZero() {
		wall := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
		meta.TakenAt = &wall
	}
	meta.CameraMake = cleanTag(exif.Make, x)
	meta.CameraModel = cleanTag(exif.Model, x)
	return meta, nil
}

func cleanTag(tag exif.FieldName, x *exif.Exif) *string {
	s, ok := tagToString(tag, x)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(strings.Trim(s, "\x00"))
	if s == "" {
		return nil
	}
	return &s
}
