package menu

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/campus-kds/canteen-backend/pkg/db"
	"github.com/campus-kds/canteen-backend/pkg/db/models"
	"github.com/campus-kds/canteen-backend/pkg/enums"
	pkgerrors "github.com/campus-kds/canteen-backend/pkg/errors"
	"github.com/campus-kds/canteen-backend/pkg/logger"
)

// menuUpdatedPayload is the marker clients receive when the catalog
// changes; they re-fetch rather than patching local state.
var menuUpdatedPayload = map[string]string{"message": "Menu has been updated"}

type broadcaster interface {
	Broadcast(ctx context.Context, event string, payload any)
}

type repository interface {
	Create(ctx context.Context, item *models.MenuItem) (*models.MenuItem, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.MenuItem, error)
	FindByNames(ctx context.Context, names []string) ([]models.MenuItem, error)
	ListAvailable(ctx context.Context, category *enums.MenuCategory) ([]models.MenuItem, error)
	ListAll(ctx context.Context) ([]models.MenuItem, error)
	Save(ctx context.Context, item *models.MenuItem) (*models.MenuItem, error)
	Delete(ctx context.Context, id uuid.UUID) (*models.MenuItem, error)
	DecrementStock(ctx context.Context, sold []SoldLine) error
}

// SoldLine is one line item's contribution to a stock decrement pass.
type SoldLine struct {
	Name     string
	Quantity int
}

// CreateItemInput carries the fields for a new catalog entry.
type CreateItemInput struct {
	Name        string
	Price       float64
	Category    string
	Stock       int
	Image       *string
	IsAvailable *bool
}

// UpdateItemInput carries a partial catalog update; nil fields are
// left untouched.
type UpdateItemInput struct {
	Name        *string
	Price       *float64
	Category    *string
	Stock       *int
	Image       *string
	IsAvailable *bool
}

// Service exposes catalog operations.
type Service interface {
	ListAvailable(ctx context.Context, category *enums.MenuCategory) ([]models.MenuItem, error)
	ListAll(ctx context.Context) ([]models.MenuItem, error)
	Get(ctx context.Context, id uuid.UUID) (*models.MenuItem, error)
	Create(ctx context.Context, input CreateItemInput) (*models.MenuItem, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateItemInput) (*models.MenuItem, error)
	Delete(ctx context.Context, id uuid.UUID) (*models.MenuItem, error)
	DecrementSold(ctx context.Context, sold []SoldLine) error
}

type service struct {
	repo   repository
	events broadcaster
	logg   *logger.Logger
}

// NewService builds the catalog service with its required dependencies.
func NewService(repo repository, events broadcaster, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("menu repository required")
	}
	if events == nil {
		return nil, fmt.Errorf("event broadcaster required")
	}
	return &service{repo: repo, events: events, logg: logg}, nil
}

func (s *service) ListAvailable(ctx context.Context, category *enums.MenuCategory) ([]models.MenuItem, error) {
	items, err := s.repo.ListAvailable(ctx, category)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list available menu items")
	}
	return items, nil
}

func (s *service) ListAll(ctx context.Context) ([]models.MenuItem, error) {
	items, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list menu items")
	}
	return items, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.MenuItem, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "menu item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load menu item")
	}
	return item, nil
}

func (s *service) Create(ctx context.Context, input CreateItemInput) (*models.MenuItem, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if input.Price < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}

	if strings.TrimSpace(input.Category) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category is required")
	}
	category, err := enums.ParseMenuCategory(input.Category)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown menu category").
			WithDetails(map[string]any{"category": input.Category})
	}
	if input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock must not be negative")
	}

	item := &models.MenuItem{
		Name:        name,
		Price:       roundMoney(input.Price),
		Category:    category,
		Stock:       input.Stock,
		Image:       input.Image,
		IsAvailable: input.Stock > 0,
	}
	if input.IsAvailable != nil {
		item.IsAvailable = *input.IsAvailable && input.Stock > 0
	}

	created, err := s.repo.Create(ctx, item)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "menu item name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert menu item")
	}

	s.events.Broadcast(ctx, enums.EventMenuUpdate, menuUpdatedPayload)
	return created, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateItemInput) (*models.MenuItem, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name must not be empty")
		}
		item.Name = name
	}
	if input.Price != nil {
		if *input.Price < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
		}
		item.Price = roundMoney(*input.Price)
	}
	if input.Category != nil {
		parsed, err := enums.ParseMenuCategory(*input.Category)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown menu category").
				WithDetails(map[string]any{"category": *input.Category})
		}
		item.Category = parsed
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock must not be negative")
		}
		item.Stock = *input.Stock
		item.IsAvailable = item.Stock > 0
	}
	if input.Image != nil {
		item.Image = input.Image
	}
	if input.IsAvailable != nil {
		item.IsAvailable = *input.IsAvailable && item.Stock > 0
	}

	saved, err := s.repo.Save(ctx, item)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "menu item name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update menu item")
	}

	s.events.Broadcast(ctx, enums.EventMenuUpdate, menuUpdatedPayload)
	return saved, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) (*models.MenuItem, error) {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "menu item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete menu item")
	}

	s.events.Broadcast(ctx, enums.EventMenuUpdate, menuUpdatedPayload)
	return deleted, nil
}

// DecrementSold applies one completed order's quantities to the
// catalog. Unknown names are skipped; stock floors at zero and the
// availability flag is recomputed as stock > 0. The pass is
// transactional: a failed line rolls every line back, so retrying the
// whole order never decrements an item twice.
func (s *service) DecrementSold(ctx context.Context, sold []SoldLine) error {
	if len(sold) == 0 {
		return nil
	}
	if err := s.repo.DecrementStock(ctx, sold); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
	}
	return nil
}

func roundMoney(value float64) float64 {
	rounded, _ := decimal.NewFromFloat(value).Round(2).Float64()
	return rounded
}
