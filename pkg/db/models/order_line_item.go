package models

import (
	"github.com/google/uuid"
)

// OrderLineItem is one item row inside an order. It references the menu
// item by name only; the link is soft and tolerated to dangle when the
// catalog changes.
type OrderLineItem struct {
	ID       uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"-"`
	OrderID  uuid.UUID `gorm:"column:order_id;type:uuid;not null" json:"-"`
	Name     string    `gorm:"column:name;not null" json:"name"`
	Quantity int       `gorm:"column:quantity;not null;default:1" json:"quantity"`
	Notes    *string   `gorm:"column:notes" json:"notes,omitempty"`
}
