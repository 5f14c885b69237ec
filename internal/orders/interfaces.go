package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/campus-kds/canteen-backend/pkg/db/models"
	"github.com/campus-kds/canteen-backend/pkg/enums"
)

// Repository defines persistence operations for orders and the shared
// token counter.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, filters ListFilters) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error
	MarkStockSynced(ctx context.Context, id uuid.UUID, synced bool) error
	NextTokenNumber(ctx context.Context) (int64, error)
	BumpTokenCounterTo(ctx context.Context, value int64) error
	ListCompletedBetween(ctx context.Context, from, to time.Time) ([]models.Order, error)
	ListUnsyncedPickedUp(ctx context.Context, limit int) ([]models.Order, error)
}
