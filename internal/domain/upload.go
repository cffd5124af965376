package domain

import (
	"time"

	"github.com/google/uuid"
)

type UploadStatus string

const (
	UploadPending   UploadStatus = "pending"
	UploadUploading UploadStatus = "uploading"
	UploadSuccess   UploadStatus = "success"
	UploadError     UploadStatus = "error"
)

// UploadFile файл из сессии загрузки, ещё не прошедший пайплайн.
// Key - идентификатор файла на стороне клиента.
type UploadFile struct {
	Key         string
	FileName    string
	ContentType string
	Data        []byte
	BibNumber   *string
}

// UploadResult статус одного файла сессии загрузки
type UploadResult struct {
	Key        string       `json:"key"`
	FileName   string       `json:"file_name"`
	Status     UploadStatus `json:"status"`
	FailedStep string       `json:"failed_step,omitempty"`
	Error      string       `json:"error,omitempty"`
	Photo      *Photo       `json:"photo,omitempty"`
}

// BibSuggestion предложенный OCR номер для ещё не загруженного файла
type BibSuggestion struct {
	Key       string  `json:"key"`
	BibNumber *string `json:"bib_number"`
	Skipped   bool    `json:"skipped,omitempty"`
	Error     string  `json:"error,omitempty"`
}

// ScanProgress прогресс пакетного распознавания номеров
type ScanProgress struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

// BatchItemResult результат пакетной операции над одним фото
type BatchItemResult struct {
	PhotoID uuid.UUID `json:"photo_id"`
	Error   string    `json:"error,omitempty"`
}

// PhotoView фото в том виде, в котором его получает слой отображения
type PhotoView struct {
	ID           uuid.UUID  `json:"id"`
	DisplayURL   string     `json:"display_url"`
	ThumbnailURL string     `json:"thumbnail_url"`
	OriginalURL  *string    `json:"original_url"`
	EditedURL    *string    `json:"edited_url,omitempty"`
	BibNumber    *string    `json:"bib_number"`
	TakenAt      *time.Time `json:"taken_at"`
	CameraMake   *string    `json:"camera_make"`
	CameraModel  *string    `json:"camera_model"`
	Rotation     int        `json:"rotation"`
	PriceCents   int64      `json:"price_cents"`
}
