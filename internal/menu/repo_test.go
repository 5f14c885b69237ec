package menu

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/campus-kds/canteen-backend/pkg/db/models"
	"github.com/campus-kds/canteen-backend/pkg/enums"
)

func setupMenuTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS menu_items (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  price NUMERIC NOT NULL,
  category TEXT NOT NULL DEFAULT 'others',
  stock INTEGER NOT NULL DEFAULT 0,
  image TEXT,
  is_available INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func newItem(t *testing.T, db *gorm.DB, name string, category enums.MenuCategory, stock int) *models.MenuItem {
	t.Helper()

	item := &models.MenuItem{
		ID:          uuid.New(),
		Name:        name,
		Price:       50,
		Category:    category,
		Stock:       stock,
		IsAvailable: stock > 0,
	}
	require.NoError(t, db.Create(item).Error)
	return item
}

func TestRepositoryListAvailableSortsAndFilters(t *testing.T) {
	db := setupMenuTestDB(t)
	repo := NewRepository(db)

	newItem(t, db, "Veg Thali", enums.MenuCategoryMeals, 10)
	newItem(t, db, "Cold Coffee", enums.MenuCategoryDrinks, 5)
	newItem(t, db, "Masala Dosa", enums.MenuCategoryMeals, 8)
	newItem(t, db, "Paneer Roll", enums.MenuCategorySnacks, 0)

	all, err := repo.ListAvailable(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, all, 3, "sold-out items must be hidden")
	assert.Equal(t, "Cold Coffee", all[0].Name)
	assert.Equal(t, "Masala Dosa", all[1].Name)
	assert.Equal(t, "Veg Thali", all[2].Name)

	meals := enums.MenuCategoryMeals
	filtered, err := repo.ListAvailable(context.Background(), &meals)
	require.NoError(t, err)
	require.Len(t, filtered, 2)
	for _, item := range filtered {
		assert.Equal(t, enums.MenuCategoryMeals, item.Category)
	}
}

func TestRepositoryListAllIncludesUnavailable(t *testing.T) {
	db := setupMenuTestDB(t)
	repo := NewRepository(db)

	newItem(t, db, "Idli Sambar", enums.MenuCategoryMeals, 4)
	newItem(t, db, "Paneer Roll", enums.MenuCategorySnacks, 0)

	all, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestRepositoryFindByNames(t *testing.T) {
	db := setupMenuTestDB(t)
	repo := NewRepository(db)

	newItem(t, db, "Tea", enums.MenuCategoryDrinks, 20)
	newItem(t, db, "Cake", enums.MenuCategoryDesserts, 6)
	newItem(t, db, "Samosa", enums.MenuCategorySnacks, 12)

	items, err := repo.FindByNames(context.Background(), []string{"Tea", "Cake", "Ghost"})
	require.NoError(t, err)
	require.Len(t, items, 2)

	empty, err := repo.FindByNames(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRepositoryDecrementStockAppliesAllLines(t *testing.T) {
	db := setupMenuTestDB(t)
	repo := NewRepository(db)

	newItem(t, db, "Tea", enums.MenuCategoryDrinks, 2)
	newItem(t, db, "Cake", enums.MenuCategoryDesserts, 10)

	err := repo.DecrementStock(context.Background(), []SoldLine{
		{Name: "Tea", Quantity: 5},
		{Name: "Cake", Quantity: 3},
		{Name: "Ghost", Quantity: 1},
	})
	require.NoError(t, err)

	var tea, cake models.MenuItem
	require.NoError(t, db.First(&tea, "name = ?", "Tea").Error)
	require.NoError(t, db.First(&cake, "name = ?", "Cake").Error)

	assert.Equal(t, 0, tea.Stock, "stock floors at zero")
	assert.False(t, tea.IsAvailable, "sold-out item flips unavailable")
	assert.Equal(t, 7, cake.Stock)
	assert.True(t, cake.IsAvailable)
}

func TestRepositoryCreateRejectsDuplicateName(t *testing.T) {
	db := setupMenuTestDB(t)
	repo := NewRepository(db)

	newItem(t, db, "Cold Coffee", enums.MenuCategoryDrinks, 5)

	_, err := repo.Create(context.Background(), &models.MenuItem{
		ID:    uuid.New(),
		Name:  "Cold Coffee",
		Price: 40,
		Stock: 3,
	})
	require.Error(t, err)
}

func TestRepositorySaveEnforcesAvailabilityHook(t *testing.T) {
	db := setupMenuTestDB(t)
	repo := NewRepository(db)

	item := newItem(t, db, "Masala Dosa", enums.MenuCategoryMeals, 2)

	item.Stock = 0
	item.IsAvailable = true // hook must override this
	saved, err := repo.Save(context.Background(), item)
	require.NoError(t, err)
	assert.False(t, saved.IsAvailable)
	assert.Equal(t, 0, saved.Stock)
}

func TestRepositoryDeleteReturnsRecord(t *testing.T) {
	db := setupMenuTestDB(t)
	repo := NewRepository(db)

	item := newItem(t, db, "Veg Thali", enums.MenuCategoryMeals, 10)

	deleted, err := repo.Delete(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Veg Thali", deleted.Name)

	_, err = repo.FindByID(context.Background(), item.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = repo.Delete(context.Background(), uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
