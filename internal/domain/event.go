package domain

import (
	"time"

	"github.com/google/uuid"
)

// FilterSetting описывает доступность одного фильтра поиска для покупателя
type FilterSetting struct {
	Enabled          bool `json:"enabled"`
	VisibleByDefault bool `json:"visible_by_default"`
}

// SearchConfig настройки поиска события.
// Выключенный фильтр недоступен полностью, а не просто скрыт.
type SearchConfig struct {
	Bib       FilterSetting `json:"bib"`
	Selfie    FilterSetting `json:"selfie"`
	Date      FilterSetting `json:"date"`
	Time      FilterSetting `json:"time"`
	Metadata  FilterSetting `json:"metadata"`
	ExactTime FilterSetting `json:"exact_time"`
}

// DefaultSearchConfig все фильтры включены, развёрнуты только номер и селфи
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		Bib:       FilterSetting{Enabled: true, VisibleByDefault: true},
		Selfie:    FilterSetting{Enabled: true, VisibleByDefault: true},
		Date:      FilterSetting{Enabled: true},
		Time:      FilterSetting{Enabled: true},
		Metadata:  FilterSetting{Enabled: true},
		ExactTime: FilterSetting{Enabled: true},
	}
}

// Event контейнер для фото со своей ценой и настройками поиска,
// соответствует таблице events в бд
type Event struct {
	ID             uuid.UUID    `json:"id" gorm:"type:uuid;primaryKey"`
	PhotographerID uuid.UUID    `json:"photographer_id" gorm:"type:uuid;not null"`
	Name           string       `json:"name" gorm:"not null"`
	PriceCents     int64        `json:"price_cents" gorm:"not null"`
	Currency       string       `json:"currency" gorm:"not null"`
	SearchConfig   SearchConfig `json:"search_config" gorm:"type:jsonb;serializer:json"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

func (Event) TableName() string {
	return "events"
}

// FaceCollectionID идентификатор биометрической коллекции события
func FaceCollectionID(eventID uuid.UUID) string {
	return "event-" + eventID.String()
}
