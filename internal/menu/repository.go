package menu

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/campus-kds/canteen-backend/internal/repo"
	"github.com/campus-kds/canteen-backend/pkg/db/models"
	"github.com/campus-kds/canteen-backend/pkg/enums"
)

// Repository owns persistence for the menu catalog.
type Repository struct {
	repo.Base
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(tx)}
}

// Create inserts a new catalog entry.
func (r *Repository) Create(ctx context.Context, item *models.MenuItem) (*models.MenuItem, error) {
	if err := r.DB(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// FindByID loads a single catalog entry.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.MenuItem, error) {
	var item models.MenuItem
	if err := r.DB(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// FindByNames loads all catalog entries matching the given names.
func (r *Repository) FindByNames(ctx context.Context, names []string) ([]models.MenuItem, error) {
	if len(names) == 0 {
		return nil, nil
	}
	var items []models.MenuItem
	err := r.DB(ctx).
		Where("name IN ?", names).
		Find(&items).
		Error
	return items, err
}

// ListAvailable returns orderable items, optionally restricted to one
// category, sorted by category then name.
func (r *Repository) ListAvailable(ctx context.Context, category *enums.MenuCategory) ([]models.MenuItem, error) {
	qb := r.DB(ctx).Where("is_available = ?", true)
	if category != nil {
		qb = qb.Where("category = ?", *category)
	}
	var items []models.MenuItem
	err := qb.Order("category ASC").Order("name ASC").Find(&items).Error
	return items, err
}

// ListAll returns the full catalog including unavailable items, sorted
// by category then name.
func (r *Repository) ListAll(ctx context.Context) ([]models.MenuItem, error) {
	var items []models.MenuItem
	err := r.DB(ctx).
		Order("category ASC").
		Order("name ASC").
		Find(&items).
		Error
	return items, err
}

// DecrementStock applies the sold quantities in a single transaction.
// Names without a catalog entry are skipped, stock floors at zero and
// availability is recomputed as stock > 0. A failed line rolls the
// whole pass back, so retrying the same lines never applies one twice.
func (r *Repository) DecrementStock(ctx context.Context, sold []SoldLine) error {
	return r.DB(ctx).Transaction(func(tx *gorm.DB) error {
		for _, line := range sold {
			if line.Quantity <= 0 {
				continue
			}
			var item models.MenuItem
			if err := tx.First(&item, "name = ?", line.Name).Error; err != nil {
				if err == gorm.ErrRecordNotFound {
					continue
				}
				return fmt.Errorf("load %q: %w", line.Name, err)
			}

			item.Stock -= line.Quantity
			if item.Stock < 0 {
				item.Stock = 0
			}
			item.IsAvailable = item.Stock > 0

			if err := tx.Save(&item).Error; err != nil {
				return fmt.Errorf("save %q: %w", line.Name, err)
			}
		}
		return nil
	})
}

// Save persists all fields of an existing catalog entry.
func (r *Repository) Save(ctx context.Context, item *models.MenuItem) (*models.MenuItem, error) {
	if err := r.DB(ctx).Save(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// Delete removes a catalog entry and returns the deleted record.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (*models.MenuItem, error) {
	item, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.DB(ctx).Delete(&models.MenuItem{}, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return item, nil
}
