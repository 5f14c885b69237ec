package orders

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/campus-kds/canteen-backend/internal/menu"
	"github.com/campus-kds/canteen-backend/pkg/db"
	"github.com/campus-kds/canteen-backend/pkg/db/models"
	"github.com/campus-kds/canteen-backend/pkg/enums"
	pkgerrors "github.com/campus-kds/canteen-backend/pkg/errors"
	"github.com/campus-kds/canteen-backend/pkg/logger"
	"github.com/campus-kds/canteen-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type stockAdjuster interface {
	DecrementSold(ctx context.Context, sold []menu.SoldLine) error
}

type broadcaster interface {
	Broadcast(ctx context.Context, event string, payload any)
}

// LineItemInput is one requested item on a new order.
type LineItemInput struct {
	Name     string
	Quantity int
	Notes    *string
}

// CreateOrderInput carries everything needed to place an order.
type CreateOrderInput struct {
	Items         []LineItemInput
	StudentName   string
	TableNumber   *string
	PaymentMethod string
	Priority      string
	TotalAmount   float64
	Notes         *string

	// TokenNumber lets the caller pin an explicit token; zero means
	// assign the next one from the shared counter.
	TokenNumber int64
}

// Service owns the order lifecycle: creation, the status state
// machine, completion side effects, and seeding.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, filters ListFilters) ([]models.Order, error)
	SetStatus(ctx context.Context, id uuid.UUID, target enums.OrderStatus) (*models.Order, error)
	Seed(ctx context.Context, count int) ([]models.Order, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	stock   stockAdjuster
	events  broadcaster
	logg    *logger.Logger
	metrics *metrics.OrderMetrics
}

// NewService builds an order service with the required dependencies.
func NewService(repo Repository, tx txRunner, stock stockAdjuster, events broadcaster, logg *logger.Logger, m *metrics.OrderMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock adjuster required")
	}
	if events == nil {
		return nil, fmt.Errorf("event broadcaster required")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		stock:   stock,
		events:  events,
		logg:    logg,
		metrics: m,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}

	items := make([]models.OrderLineItem, 0, len(input.Items))
	for i, line := range input.Items {
		name := strings.TrimSpace(line.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line item name is required").
				WithDetails(map[string]any{"index": i})
		}
		qty := line.Quantity
		if qty == 0 {
			qty = 1
		}
		if qty < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line item quantity must be positive").
				WithDetails(map[string]any{"index": i})
		}
		items = append(items, models.OrderLineItem{Name: name, Quantity: qty, Notes: line.Notes})
	}

	studentName := strings.TrimSpace(input.StudentName)
	if studentName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "student name is required")
	}

	payment := enums.PaymentMethodUPI
	if input.PaymentMethod != "" {
		parsed, err := enums.ParsePaymentMethod(input.PaymentMethod)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method").
				WithDetails(map[string]any{"paymentMethod": input.PaymentMethod})
		}
		payment = parsed
	}

	priority := enums.OrderPriorityNormal
	if input.Priority != "" {
		parsed, err := enums.ParseOrderPriority(input.Priority)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown priority").
				WithDetails(map[string]any{"priority": input.Priority})
		}
		priority = parsed
	}

	if input.TotalAmount < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "total amount must not be negative")
	}
	if input.TokenNumber < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "token number must be positive")
	}

	order := &models.Order{
		TableNumber:   normalizeTable(input.TableNumber),
		StudentName:   studentName,
		PaymentMethod: payment,
		Status:        enums.OrderStatusPending,
		Priority:      priority,
		TotalAmount:   roundMoney(input.TotalAmount),
		Notes:         input.Notes,
		Items:         items,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if input.TokenNumber > 0 {
			order.TokenNumber = input.TokenNumber
			if err := repo.BumpTokenCounterTo(ctx, input.TokenNumber); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "advance token counter")
			}
		} else {
			token, err := repo.NextTokenNumber(ctx)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assign token number")
			}
			order.TokenNumber = token
		}

		if _, err := repo.Create(ctx, order); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "token number already in use").
					WithDetails(map[string]any{"tokenNumber": order.TokenNumber})
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncCreated()
	s.events.Broadcast(ctx, enums.EventOrderNew, order)
	return order, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) List(ctx context.Context, filters ListFilters) ([]models.Order, error) {
	rows, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return rows, nil
}

// SetStatus moves an order to the target status. Re-asserting the
// current status is allowed and harmless; leaving a terminal status is
// not. The status write is the primary operation: the completion stock
// decrement runs only after it commits, exactly once per order, and
// its failure never blocks the status change itself.
func (s *service) SetStatus(ctx context.Context, id uuid.UUID, target enums.OrderStatus) (*models.Order, error) {
	if !target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown status").
			WithDetails(map[string]any{"status": string(target)})
	}

	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	previous := order.Status
	if previous.IsTerminal() && previous != target {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("order already %s", previous)).
			WithDetails(map[string]any{"status": string(previous), "requested": string(target)})
	}

	if err := s.repo.UpdateStatus(ctx, id, target); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}

	order.Status = target
	s.metrics.IncStatusChange(target.String())
	if target == enums.OrderStatusPickedUp && previous != enums.OrderStatusPickedUp {
		s.applyStockDecrement(ctx, order)
		s.metrics.IncCompleted()
	}

	s.events.Broadcast(ctx, enums.EventOrderUpdate, order)
	return order, nil
}

// applyStockDecrement runs the completion side effect. Failures are
// logged and recorded for the reconciliation job; they never propagate.
func (s *service) applyStockDecrement(ctx context.Context, order *models.Order) {
	sold := make([]menu.SoldLine, 0, len(order.Items))
	for _, item := range order.Items {
		sold = append(sold, menu.SoldLine{Name: item.Name, Quantity: item.Quantity})
	}

	if err := s.stock.DecrementSold(ctx, sold); err != nil {
		if s.logg != nil {
			s.logg.Error(s.logg.WithOrderID(ctx, order.ID.String()), "orders.stock_adjust_failed", err)
		}
		s.metrics.IncStockAdjustFailure()
		if err := s.repo.MarkStockSynced(ctx, order.ID, false); err != nil && s.logg != nil {
			s.logg.Error(ctx, "orders.mark_stock_unsynced_failed", err)
		}
		return
	}

	order.StockSynced = true
	if err := s.repo.MarkStockSynced(ctx, order.ID, true); err != nil && s.logg != nil {
		s.logg.Error(ctx, "orders.mark_stock_synced_failed", err)
	}
}

func normalizeTable(table *string) *string {
	if table == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*table)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func roundMoney(value float64) float64 {
	rounded, _ := decimal.NewFromFloat(value).Round(2).Float64()
	return rounded
}
