package cron

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/campus-kds/canteen-backend/internal/menu"
	"github.com/campus-kds/canteen-backend/pkg/db/models"
	"github.com/campus-kds/canteen-backend/pkg/logger"
)

const defaultReconcileBatchSize = 100

type unsyncedOrdersStore interface {
	ListUnsyncedPickedUp(ctx context.Context, limit int) ([]models.Order, error)
	MarkStockSynced(ctx context.Context, id uuid.UUID, synced bool) error
}

type stockDecrementer interface {
	DecrementSold(ctx context.Context, sold []menu.SoldLine) error
}

// StockReconcileJobParams configure the stock reconciliation job.
type StockReconcileJobParams struct {
	Logger    *logger.Logger
	Orders    unsyncedOrdersStore
	Stock     stockDecrementer
	BatchSize int
}

// stockReconcileJob re-applies the completion stock decrement for
// picked-up orders whose inline decrement failed. The inline path is
// best-effort; this job makes the catalog eventually consistent. Each
// order's decrement is all-or-nothing, so retrying an order that
// previously failed never applies a line a second time.
type stockReconcileJob struct {
	logg      *logger.Logger
	orders    unsyncedOrdersStore
	stock     stockDecrementer
	batchSize int
}

// NewStockReconcileJob builds the reconciliation job.
func NewStockReconcileJob(params StockReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders store required")
	}
	if params.Stock == nil {
		return nil, fmt.Errorf("stock decrementer required")
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = defaultReconcileBatchSize
	}
	return &stockReconcileJob{
		logg:      params.Logger,
		orders:    params.Orders,
		stock:     params.Stock,
		batchSize: batchSize,
	}, nil
}

func (j *stockReconcileJob) Name() string {
	return "stock-reconcile"
}

func (j *stockReconcileJob) Run(ctx context.Context) error {
	pending, err := j.orders.ListUnsyncedPickedUp(ctx, j.batchSize)
	if err != nil {
		return fmt.Errorf("list unsynced orders: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	j.logg.Info(j.logg.WithField(ctx, "count", len(pending)), "reconciling unsynced stock decrements")

	var errs error
	for _, order := range pending {
		sold := make([]menu.SoldLine, 0, len(order.Items))
		for _, item := range order.Items {
			sold = append(sold, menu.SoldLine{Name: item.Name, Quantity: item.Quantity})
		}

		if err := j.stock.DecrementSold(ctx, sold); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("order %s: %w", order.ID, err))
			continue
		}
		if err := j.orders.MarkStockSynced(ctx, order.ID, true); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("mark order %s synced: %w", order.ID, err))
		}
	}
	return errs
}
