package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/campus-kds/canteen-backend/pkg/db/models"
	"github.com/campus-kds/canteen-backend/pkg/enums"
)

// ListFilters narrows the order listing.
type ListFilters struct {
	Status      *enums.OrderStatus
	StudentName string
	Limit       int
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

// Create inserts the order together with its line items.
func (r *repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// FindByID loads an order with its line items.
func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Preload("Items").First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// List returns orders newest first, optionally filtered by status and
// student name.
func (r *repository) List(ctx context.Context, filters ListFilters) ([]models.Order, error) {
	qb := r.db.WithContext(ctx).Preload("Items")
	if filters.Status != nil {
		qb = qb.Where("status = ?", *filters.Status)
	}
	if filters.StudentName != "" {
		qb = qb.Where("student_name = ?", filters.StudentName)
	}
	if filters.Limit > 0 {
		qb = qb.Limit(filters.Limit)
	}

	var rows []models.Order
	err := qb.Order("created_at DESC").Order("token_number DESC").Find(&rows).Error
	return rows, err
}

// UpdateStatus persists only the status column.
func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkStockSynced records whether the completion-side stock decrement
// has been applied for the order.
func (r *repository) MarkStockSynced(ctx context.Context, id uuid.UUID, synced bool) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Update("stock_synced", synced).
		Error
}

// NextTokenNumber atomically advances the shared token counter and
// returns the new value. The single-row UPDATE serializes concurrent
// order creation at the database so duplicate tokens cannot be issued.
func (r *repository) NextTokenNumber(ctx context.Context) (int64, error) {
	var value int64
	err := r.db.WithContext(ctx).
		Raw("UPDATE token_counters SET value = value + 1 WHERE id = ? RETURNING value", models.TokenCounterID).
		Scan(&value).
		Error
	if err != nil {
		return 0, err
	}
	if value == 0 {
		return 0, fmt.Errorf("token counter row %d missing", models.TokenCounterID)
	}
	return value, nil
}

// BumpTokenCounterTo raises the counter to at least the given value.
// Used when a caller supplies an explicit token so later generated
// tokens do not collide with it.
func (r *repository) BumpTokenCounterTo(ctx context.Context, value int64) error {
	return r.db.WithContext(ctx).
		Exec("UPDATE token_counters SET value = ? WHERE id = ? AND value < ?", value, models.TokenCounterID, value).
		Error
}

// ListCompletedBetween returns picked-up orders created inside the
// window, oldest first so aggregations see them in arrival order.
func (r *repository) ListCompletedBetween(ctx context.Context, from, to time.Time) ([]models.Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("status = ?", enums.OrderStatusPickedUp).
		Where("created_at >= ? AND created_at < ?", from, to).
		Order("created_at ASC").
		Order("token_number ASC").
		Find(&rows).
		Error
	return rows, err
}

// ListUnsyncedPickedUp returns completed orders whose stock decrement
// is still pending, oldest first.
func (r *repository) ListUnsyncedPickedUp(ctx context.Context, limit int) ([]models.Order, error) {
	qb := r.db.WithContext(ctx).
		Preload("Items").
		Where("status = ?", enums.OrderStatusPickedUp).
		Where("stock_synced = ?", false).
		Order("created_at ASC")
	if limit > 0 {
		qb = qb.Limit(limit)
	}

	var rows []models.Order
	err := qb.Find(&rows).Error
	return rows, err
}
