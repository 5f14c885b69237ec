package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/campus-kds/canteen-backend/pkg/enums"
)

// MenuItem represents a single orderable catalog entry.
type MenuItem struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string             `gorm:"column:name;not null;uniqueIndex" json:"name"`
	Price       float64            `gorm:"column:price;type:numeric(10,2);not null" json:"price"`
	Category    enums.MenuCategory `gorm:"column:category;not null;default:'others'" json:"category"`
	Stock       int                `gorm:"column:stock;not null;default:0" json:"stock"`
	Image       *string            `gorm:"column:image" json:"image"`
	IsAvailable bool               `gorm:"column:is_available;not null;default:true" json:"isAvailable"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time          `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// BeforeSave enforces the catalog invariant: an item with no stock can
// never be offered, no matter what the caller set on is_available.
func (m *MenuItem) BeforeSave(tx *gorm.DB) error {
	m.Name = strings.TrimSpace(m.Name)
	if m.Stock <= 0 {
		m.Stock = 0
		m.IsAvailable = false
	}
	return nil
}
