package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/campus-kds/canteen-backend/internal/menu"
	"github.com/campus-kds/canteen-backend/pkg/db/models"
	"github.com/campus-kds/canteen-backend/pkg/enums"
	pkgerrors "github.com/campus-kds/canteen-backend/pkg/errors"
)

type stubOrdersRepo struct {
	orders      map[uuid.UUID]*models.Order
	counter     int64
	syncMarks   []bool
	createErr   error
	nextErr     error
	updateErr   error
	statusCalls []enums.OrderStatus
}

func newStubOrdersRepo() *stubOrdersRepo {
	return &stubOrdersRepo{orders: map[uuid.UUID]*models.Order{}}
}

func (s *stubOrdersRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubOrdersRepo) Create(_ context.Context, order *models.Order) (*models.Order, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	for _, existing := range s.orders {
		if existing.TokenNumber == order.TokenNumber {
			return nil, errors.New(`duplicate key value violates unique constraint "orders_token_number_key"`)
		}
	}
	s.orders[order.ID] = order
	return order, nil
}

func (s *stubOrdersRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	if order, ok := s.orders[id]; ok {
		return order, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrdersRepo) List(_ context.Context, _ ListFilters) ([]models.Order, error) {
	out := make([]models.Order, 0, len(s.orders))
	for _, order := range s.orders {
		out = append(out, *order)
	}
	return out, nil
}

func (s *stubOrdersRepo) UpdateStatus(_ context.Context, id uuid.UUID, status enums.OrderStatus) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	order, ok := s.orders[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	order.Status = status
	s.statusCalls = append(s.statusCalls, status)
	return nil
}

func (s *stubOrdersRepo) MarkStockSynced(_ context.Context, id uuid.UUID, synced bool) error {
	if order, ok := s.orders[id]; ok {
		order.StockSynced = synced
	}
	s.syncMarks = append(s.syncMarks, synced)
	return nil
}

func (s *stubOrdersRepo) NextTokenNumber(_ context.Context) (int64, error) {
	if s.nextErr != nil {
		return 0, s.nextErr
	}
	s.counter++
	return s.counter, nil
}

func (s *stubOrdersRepo) BumpTokenCounterTo(_ context.Context, value int64) error {
	if value > s.counter {
		s.counter = value
	}
	return nil
}

func (s *stubOrdersRepo) ListCompletedBetween(_ context.Context, _, _ time.Time) ([]models.Order, error) {
	return nil, nil
}

func (s *stubOrdersRepo) ListUnsyncedPickedUp(_ context.Context, _ int) ([]models.Order, error) {
	var out []models.Order
	for _, order := range s.orders {
		if order.Status == enums.OrderStatusPickedUp && !order.StockSynced {
			out = append(out, *order)
		}
	}
	return out, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubStockAdjuster struct {
	calls [][]menu.SoldLine
	err   error
}

func (s *stubStockAdjuster) DecrementSold(_ context.Context, sold []menu.SoldLine) error {
	s.calls = append(s.calls, sold)
	return s.err
}

type recordedEvent struct {
	name    string
	payload any
}

type stubBroadcaster struct {
	events []recordedEvent
}

func (s *stubBroadcaster) Broadcast(_ context.Context, event string, payload any) {
	s.events = append(s.events, recordedEvent{name: event, payload: payload})
}

func newTestService(t *testing.T, repo Repository, stock stockAdjuster, events broadcaster) Service {
	t.Helper()
	svc, err := NewService(repo, stubTxRunner{}, stock, events, nil, nil)
	if err != nil {
		t.Fatalf("build orders service: %v", err)
	}
	return svc
}

func TestCreateRejectsEmptyItemList(t *testing.T) {
	svc := newTestService(t, newStubOrdersRepo(), &stubStockAdjuster{}, &stubBroadcaster{})

	_, err := svc.Create(context.Background(), CreateOrderInput{StudentName: "Asha"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateRejectsBadInputs(t *testing.T) {
	svc := newTestService(t, newStubOrdersRepo(), &stubStockAdjuster{}, &stubBroadcaster{})

	cases := []CreateOrderInput{
		{Items: []LineItemInput{{Name: "Tea"}}, StudentName: "  "},
		{Items: []LineItemInput{{Name: ""}}, StudentName: "Asha"},
		{Items: []LineItemInput{{Name: "Tea", Quantity: -1}}, StudentName: "Asha"},
		{Items: []LineItemInput{{Name: "Tea"}}, StudentName: "Asha", PaymentMethod: "crypto"},
		{Items: []LineItemInput{{Name: "Tea"}}, StudentName: "Asha", Priority: "urgent"},
		{Items: []LineItemInput{{Name: "Tea"}}, StudentName: "Asha", TotalAmount: -5},
	}
	for i, input := range cases {
		_, err := svc.Create(context.Background(), input)
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestCreateAssignsSequentialTokensAndDefaults(t *testing.T) {
	repo := newStubOrdersRepo()
	events := &stubBroadcaster{}
	svc := newTestService(t, repo, &stubStockAdjuster{}, events)

	first, err := svc.Create(context.Background(), CreateOrderInput{
		Items:       []LineItemInput{{Name: "Tea"}},
		StudentName: "Asha",
		TotalAmount: 10.005,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.TokenNumber != 1 {
		t.Fatalf("expected token 1, got %d", first.TokenNumber)
	}
	if first.Status != enums.OrderStatusPending {
		t.Fatalf("expected pending, got %s", first.Status)
	}
	if first.PaymentMethod != enums.PaymentMethodUPI {
		t.Fatalf("expected default upi, got %s", first.PaymentMethod)
	}
	if first.Priority != enums.OrderPriorityNormal {
		t.Fatalf("expected default normal priority, got %s", first.Priority)
	}
	if first.Items[0].Quantity != 1 {
		t.Fatalf("expected quantity default 1, got %d", first.Items[0].Quantity)
	}
	if first.TotalAmount != 10.01 {
		t.Fatalf("expected total rounded to 10.01, got %v", first.TotalAmount)
	}

	second, err := svc.Create(context.Background(), CreateOrderInput{
		Items:       []LineItemInput{{Name: "Cake", Quantity: 2}},
		StudentName: "Ravi",
		TotalAmount: 50,
	})
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if second.TokenNumber != 2 {
		t.Fatalf("expected token 2, got %d", second.TokenNumber)
	}

	if len(events.events) != 2 {
		t.Fatalf("expected two order:new events, got %d", len(events.events))
	}
	for _, evt := range events.events {
		if evt.name != enums.EventOrderNew {
			t.Fatalf("unexpected event %s", evt.name)
		}
		if _, ok := evt.payload.(*models.Order); !ok {
			t.Fatalf("event payload must be the full order, got %T", evt.payload)
		}
	}
}

func TestCreateHonorsExplicitTokenAndBumpsCounter(t *testing.T) {
	repo := newStubOrdersRepo()
	svc := newTestService(t, repo, &stubStockAdjuster{}, &stubBroadcaster{})

	pinned, err := svc.Create(context.Background(), CreateOrderInput{
		Items:       []LineItemInput{{Name: "Tea"}},
		StudentName: "Asha",
		TotalAmount: 10,
		TokenNumber: 41,
	})
	if err != nil {
		t.Fatalf("create pinned: %v", err)
	}
	if pinned.TokenNumber != 41 {
		t.Fatalf("expected pinned token 41, got %d", pinned.TokenNumber)
	}

	next, err := svc.Create(context.Background(), CreateOrderInput{
		Items:       []LineItemInput{{Name: "Tea"}},
		StudentName: "Ravi",
		TotalAmount: 10,
	})
	if err != nil {
		t.Fatalf("create next: %v", err)
	}
	if next.TokenNumber != 42 {
		t.Fatalf("generated token must follow the pinned one, got %d", next.TokenNumber)
	}
}

func TestCreateDuplicateTokenMapsToConflict(t *testing.T) {
	repo := newStubOrdersRepo()
	svc := newTestService(t, repo, &stubStockAdjuster{}, &stubBroadcaster{})

	if _, err := svc.Create(context.Background(), CreateOrderInput{
		Items: []LineItemInput{{Name: "Tea"}}, StudentName: "Asha", TotalAmount: 10, TokenNumber: 7,
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err := svc.Create(context.Background(), CreateOrderInput{
		Items: []LineItemInput{{Name: "Tea"}}, StudentName: "Ravi", TotalAmount: 10, TokenNumber: 7,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func seedOrder(t *testing.T, svc Service) *models.Order {
	t.Helper()
	order, err := svc.Create(context.Background(), CreateOrderInput{
		Items:       []LineItemInput{{Name: "Tea", Quantity: 2}, {Name: "Cake", Quantity: 1}},
		StudentName: "Asha",
		TotalAmount: 45,
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	return order
}

func TestSetStatusRejectsUnknownStatus(t *testing.T) {
	svc := newTestService(t, newStubOrdersRepo(), &stubStockAdjuster{}, &stubBroadcaster{})

	_, err := svc.SetStatus(context.Background(), uuid.New(), enums.OrderStatus("burnt"))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSetStatusUnknownOrder(t *testing.T) {
	svc := newTestService(t, newStubOrdersRepo(), &stubStockAdjuster{}, &stubBroadcaster{})

	_, err := svc.SetStatus(context.Background(), uuid.New(), enums.OrderStatusPreparing)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSetStatusAdvanceEmitsEventWithoutStockEffect(t *testing.T) {
	repo := newStubOrdersRepo()
	stock := &stubStockAdjuster{}
	events := &stubBroadcaster{}
	svc := newTestService(t, repo, stock, events)

	order := seedOrder(t, svc)
	events.events = nil

	updated, err := svc.SetStatus(context.Background(), order.ID, enums.OrderStatusPreparing)
	if err != nil {
		t.Fatalf("set status: %v", err)
	}
	if updated.Status != enums.OrderStatusPreparing {
		t.Fatalf("expected preparing, got %s", updated.Status)
	}
	if len(stock.calls) != 0 {
		t.Fatalf("stock must not change before pickup, got %d calls", len(stock.calls))
	}
	if len(events.events) != 1 || events.events[0].name != enums.EventOrderUpdate {
		t.Fatalf("expected one order:update event, got %+v", events.events)
	}
}

func TestSetStatusPickedUpDecrementsStockExactlyOnce(t *testing.T) {
	repo := newStubOrdersRepo()
	stock := &stubStockAdjuster{}
	events := &stubBroadcaster{}
	svc := newTestService(t, repo, stock, events)

	order := seedOrder(t, svc)

	if _, err := svc.SetStatus(context.Background(), order.ID, enums.OrderStatusPickedUp); err != nil {
		t.Fatalf("first completion: %v", err)
	}
	if len(stock.calls) != 1 {
		t.Fatalf("expected one stock pass, got %d", len(stock.calls))
	}
	if len(stock.calls[0]) != 2 || stock.calls[0][0].Quantity != 2 {
		t.Fatalf("unexpected sold lines %+v", stock.calls[0])
	}
	if !repo.orders[order.ID].StockSynced {
		t.Fatal("order must be marked stock-synced after a clean pass")
	}

	// repeated completion is idempotent for stock
	if _, err := svc.SetStatus(context.Background(), order.ID, enums.OrderStatusPickedUp); err != nil {
		t.Fatalf("second completion: %v", err)
	}
	if len(stock.calls) != 1 {
		t.Fatalf("stock must not be decremented twice, got %d calls", len(stock.calls))
	}
}

func TestSetStatusFailedWriteLeavesStockUntouched(t *testing.T) {
	repo := newStubOrdersRepo()
	stock := &stubStockAdjuster{}
	events := &stubBroadcaster{}
	svc := newTestService(t, repo, stock, events)

	order := seedOrder(t, svc)
	events.events = nil
	repo.updateErr = errors.New("connection reset")

	_, err := svc.SetStatus(context.Background(), order.ID, enums.OrderStatusPickedUp)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if len(stock.calls) != 0 {
		t.Fatalf("stock must not move when the status write fails, got %d passes", len(stock.calls))
	}
	if len(repo.syncMarks) != 0 {
		t.Fatalf("sync flag must not be touched when the status write fails, got %v", repo.syncMarks)
	}
	if repo.orders[order.ID].Status != enums.OrderStatusPending {
		t.Fatalf("order must stay pending, got %s", repo.orders[order.ID].Status)
	}
	if len(events.events) != 0 {
		t.Fatalf("no event on a failed write, got %+v", events.events)
	}

	// retry after the write recovers decrements exactly once
	repo.updateErr = nil
	if _, err := svc.SetStatus(context.Background(), order.ID, enums.OrderStatusPickedUp); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if len(stock.calls) != 1 {
		t.Fatalf("retry must decrement once, got %d passes", len(stock.calls))
	}
}

func TestSetStatusFromTerminalIsStateConflict(t *testing.T) {
	repo := newStubOrdersRepo()
	svc := newTestService(t, repo, &stubStockAdjuster{}, &stubBroadcaster{})

	order := seedOrder(t, svc)
	if _, err := svc.SetStatus(context.Background(), order.ID, enums.OrderStatusPickedUp); err != nil {
		t.Fatalf("complete: %v", err)
	}

	_, err := svc.SetStatus(context.Background(), order.ID, enums.OrderStatusReady)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}

	cancelled := seedOrder(t, svc)
	if _, err := svc.SetStatus(context.Background(), cancelled.ID, enums.OrderStatusCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	_, err = svc.SetStatus(context.Background(), cancelled.ID, enums.OrderStatusPreparing)
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict after cancel, got %v", err)
	}
}

func TestSetStatusCancelSkipsStockDecrement(t *testing.T) {
	repo := newStubOrdersRepo()
	stock := &stubStockAdjuster{}
	svc := newTestService(t, repo, stock, &stubBroadcaster{})

	order := seedOrder(t, svc)
	if _, err := svc.SetStatus(context.Background(), order.ID, enums.OrderStatusCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if len(stock.calls) != 0 {
		t.Fatalf("cancel must not touch stock, got %d calls", len(stock.calls))
	}
}

func TestSetStatusSwallowsStockFailure(t *testing.T) {
	repo := newStubOrdersRepo()
	stock := &stubStockAdjuster{err: errors.New("catalog unavailable")}
	events := &stubBroadcaster{}
	svc := newTestService(t, repo, stock, events)

	order := seedOrder(t, svc)
	events.events = nil

	updated, err := svc.SetStatus(context.Background(), order.ID, enums.OrderStatusPickedUp)
	if err != nil {
		t.Fatalf("stock failure must not fail the status change: %v", err)
	}
	if updated.Status != enums.OrderStatusPickedUp {
		t.Fatalf("expected picked_up, got %s", updated.Status)
	}
	if repo.orders[order.ID].StockSynced {
		t.Fatal("failed decrement must leave the order unsynced for reconciliation")
	}
	if len(events.events) != 1 {
		t.Fatalf("order:update must still be emitted, got %d events", len(events.events))
	}
}

func TestSeedCreatesSampleOrders(t *testing.T) {
	repo := newStubOrdersRepo()
	svc := newTestService(t, repo, &stubStockAdjuster{}, &stubBroadcaster{})

	created, err := svc.Seed(context.Background(), 0)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if len(created) != 4 {
		t.Fatalf("expected default of 4 seeded orders, got %d", len(created))
	}
	for _, order := range created {
		if order.Status != enums.OrderStatusPending {
			t.Fatalf("seeded orders start pending, got %s", order.Status)
		}
		if order.TokenNumber == 0 {
			t.Fatal("seeded order missing token")
		}
		if len(order.Items) == 0 {
			t.Fatal("seeded order missing items")
		}
	}

	capped, err := svc.Seed(context.Background(), 100)
	if err != nil {
		t.Fatalf("seed capped: %v", err)
	}
	if len(capped) != 20 {
		t.Fatalf("expected cap of 20, got %d", len(capped))
	}
}
