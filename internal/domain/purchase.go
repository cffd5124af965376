package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type PurchaseStatus string

const (
	PurchasePending   PurchaseStatus = "pending"
	PurchaseCompleted PurchaseStatus = "completed"
	PurchaseCancelled PurchaseStatus = "cancelled"
)

// Purchase связывает покупателя (аккаунт или гостя по email) с набором фото одного события,
// соответствует таблице purchases в бд
type Purchase struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	EventID     uuid.UUID      `json:"event_id" gorm:"type:uuid;not null"`
	BuyerID     *uuid.UUID     `json:"buyer_id,omitempty" gorm:"type:uuid"`
	BuyerEmail  string         `json:"buyer_email"`
	Status      PurchaseStatus `json:"status" gorm:"not null"`
	Items       []PurchaseItem `json:"items" gorm:"foreignKey:PurchaseID"`
	CreatedAt   time.Time      `json:"created_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
}

func (Purchase) TableName() string {
	return "purchases"
}

// PurchaseItem соответствует таблице purchase_items в бд
type PurchaseItem struct {
	PurchaseID uuid.UUID `json:"purchase_id" gorm:"type:uuid;primaryKey"`
	PhotoID    uuid.UUID `json:"photo_id" gorm:"type:uuid;primaryKey"`
}

func (PurchaseItem) TableName() string {
	return "purchase_items"
}

// Covers сообщает, входит ли фото в покупку
func (p *Purchase) Covers(photoID uuid.UUID) bool {
	for _, it := range p.Items {
		if it.PhotoID == photoID {
			return true
		}
	}
	return false
}

// Unlocks сообщает, открывает ли покупка оригиналы для данного зрителя.
// Аккаунт сопоставляется по buyer_id, гостевые покупки (без buyer_id) - по email.
func (p *Purchase) Unlocks(v Viewer) bool {
	if p.Status != PurchaseCompleted || v.IsAnonymous() {
		return false
	}
	if v.UserID != nil && p.BuyerID != nil && *p.BuyerID == *v.UserID {
		return true
	}
	return p.BuyerID == nil && v.Email != "" && NormalizeEmail(p.BuyerEmail) == v.Email
}

// NormalizeEmail приводит email к виду, в котором он сравнивается
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
