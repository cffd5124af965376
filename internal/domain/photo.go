package domain

import (
	"time"

	"github.com/google/uuid"
)

// Допустимые значения поворота фото (в градусах, по часовой стрелке)
var validRotations = map[int]struct{}{0: {}, 90: {}, 180: {}, 270: {}}

// Photo представляет загруженное фото события,
// соответствует таблице photos в бд.
// OriginalURL и EditedURL никогда не сериализуются напрямую:
// наружу их отдаёт только AccessResolver.
type Photo struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	EventID        uuid.UUID  `json:"event_id" db:"event_id"`
	PhotographerID uuid.UUID  `json:"photographer_id" db:"photographer_id"`
	OriginalURL    string     `json:"-" db:"original_url"`
	WatermarkURL   string     `json:"watermark_url" db:"watermark_url"`
	ThumbnailURL   string     `json:"thumbnail_url" db:"thumbnail_url"`
	EditedURL      *string    `json:"-" db:"edited_url"`
	BibNumber      *string    `json:"bib_number" db:"bib_number"`
	Rotation       int        `json:"rotation" db:"rotation"`
	TakenAt        *time.Time `json:"taken_at" db:"taken_at"`
	CameraMake     *string    `json:"camera_make" db:"camera_make"`
	CameraModel    *string    `json:"camera_model" db:"camera_model"`
	PriceCents     int64      `json:"price_cents" db:"price_cents"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

func (Photo) TableName() string {
	return "photos"
}

// AssetURLs возвращает все непустые URL объектов, принадлежащих фото
func (p *Photo) AssetURLs() []string {
	urls := make([]string, 0, 4)
	for _, u := range []string{p.OriginalURL, p.WatermarkURL, p.ThumbnailURL} {
		if u != "" {
			urls = append(urls, u)
		}
	}
	if p.EditedURL != nil && *p.EditedURL != "" {
		urls = append(urls, *p.EditedURL)
	}
	return urls
}

// HasBibNumber сообщает, есть ли у фото непустой стартовый номер
func (p *Photo) HasBibNumber() bool {
	return p.BibNumber != nil && *p.BibNumber != ""
}

// ValidRotation проверяет, что поворот равен 0, 90, 180 или 270
func ValidRotation(rotation int) bool {
	_, ok := validRotations[rotation]
	return ok
}

// Preview описывает безопасные для публичного показа варианты фото
type Preview struct {
	WatermarkURL string `json:"watermark_url"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// CaptureMetadata содержит данные съёмки из EXIF. Любое поле может отсутствовать.
type CaptureMetadata struct {
	TakenAt     *time.Time
	CameraMake  *string
	CameraModel *string
}

// FaceMatch один результат биометрического поиска
type FaceMatch struct {
	PhotoID    uuid.UUID `json:"photo_id"`
	Confidence float64   `json:"confidence"`
}
