package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/campus-kds/canteen-backend/pkg/enums"
)

// Order is one customer order moving through the kitchen pipeline.
type Order struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TokenNumber   int64               `gorm:"column:token_number;not null;uniqueIndex" json:"tokenNumber"`
	TableNumber   *string             `gorm:"column:table_number" json:"tableNumber"`
	StudentName   string              `gorm:"column:student_name;not null" json:"studentName"`
	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;not null;default:'upi'" json:"paymentMethod"`
	Status        enums.OrderStatus   `gorm:"column:status;not null;default:'pending'" json:"status"`
	Priority      enums.OrderPriority `gorm:"column:priority;not null;default:'normal'" json:"priority"`
	TotalAmount   float64             `gorm:"column:total_amount;type:numeric(10,2);not null;default:0" json:"totalAmount"`
	Notes         *string             `gorm:"column:notes" json:"notes"`
	StockSynced   bool                `gorm:"column:stock_synced;not null;default:false" json:"-"`
	Items         []OrderLineItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// IsTakeaway reports whether the order has no table assignment.
func (o *Order) IsTakeaway() bool {
	return o.TableNumber == nil || *o.TableNumber == ""
}
