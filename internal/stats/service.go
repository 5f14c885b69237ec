package stats

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/campus-kds/canteen-backend/pkg/db/models"
	pkgerrors "github.com/campus-kds/canteen-backend/pkg/errors"
)

const topItemLimit = 5

// noFavoriteCategory is reported when no line item resolves against
// the catalog.
const noFavoriteCategory = "N/A"

type ordersSource interface {
	ListCompletedBetween(ctx context.Context, from, to time.Time) ([]models.Order, error)
}

type menuCatalog interface {
	FindByNames(ctx context.Context, names []string) ([]models.MenuItem, error)
}

// TopItem is one entry of the best-seller list.
type TopItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// Dashboard aggregates today's completed orders.
type Dashboard struct {
	TodayRevenue     float64   `json:"todayRevenue"`
	TopItems         []TopItem `json:"topItems"`
	FavoriteCategory string    `json:"favoriteCategory"`
}

// Service computes dashboard aggregates. Pure read side: every call
// queries fresh, nothing is cached or written.
type Service interface {
	Dashboard(ctx context.Context) (*Dashboard, error)
}

type service struct {
	orders  ordersSource
	catalog menuCatalog
	now     func() time.Time
}

// NewService builds the reporting service.
func NewService(orders ordersSource, catalog menuCatalog) (Service, error) {
	if orders == nil {
		return nil, fmt.Errorf("orders source required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("menu catalog required")
	}
	return &service{orders: orders, catalog: catalog, now: time.Now}, nil
}

// Dashboard aggregates picked-up orders from the local calendar day.
// When today is empty it falls back to the trailing 24 hours so a
// sparse dashboard still shows something.
func (s *service) Dashboard(ctx context.Context) (*Dashboard, error) {
	now := s.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	rows, err := s.orders.ListCompletedBetween(ctx, dayStart, dayStart.Add(24*time.Hour))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load completed orders")
	}
	if len(rows) == 0 {
		rows, err = s.orders.ListCompletedBetween(ctx, now.Add(-24*time.Hour), now)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load trailing completed orders")
		}
	}

	revenue := decimal.Zero
	qtyByName := map[string]int{}
	firstSeen := []string{}
	for _, order := range rows {
		revenue = revenue.Add(decimal.NewFromFloat(order.TotalAmount))
		for _, item := range order.Items {
			if _, seen := qtyByName[item.Name]; !seen {
				firstSeen = append(firstSeen, item.Name)
			}
			qtyByName[item.Name] += item.Quantity
		}
	}

	top := make([]TopItem, 0, len(firstSeen))
	for _, name := range firstSeen {
		top = append(top, TopItem{Name: name, Quantity: qtyByName[name]})
	}
	// stable sort keeps first-seen order for equal quantities
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].Quantity > top[j].Quantity
	})
	if len(top) > topItemLimit {
		top = top[:topItemLimit]
	}

	favorite, err := s.favoriteCategory(ctx, firstSeen, qtyByName)
	if err != nil {
		return nil, err
	}

	total, _ := revenue.Round(2).Float64()
	return &Dashboard{
		TodayRevenue:     total,
		TopItems:         top,
		FavoriteCategory: favorite,
	}, nil
}

// favoriteCategory resolves line item names against the catalog and
// picks the category with the highest aggregate quantity. Unresolved
// names contribute nothing; ties go to the category seen first.
func (s *service) favoriteCategory(ctx context.Context, names []string, qtyByName map[string]int) (string, error) {
	if len(names) == 0 {
		return noFavoriteCategory, nil
	}

	items, err := s.catalog.FindByNames(ctx, names)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve item categories")
	}
	categoryByName := make(map[string]string, len(items))
	for _, item := range items {
		categoryByName[item.Name] = item.Category.String()
	}

	qtyByCategory := map[string]int{}
	categoryOrder := []string{}
	for _, name := range names {
		category, ok := categoryByName[name]
		if !ok {
			continue
		}
		if _, seen := qtyByCategory[category]; !seen {
			categoryOrder = append(categoryOrder, category)
		}
		qtyByCategory[category] += qtyByName[name]
	}

	favorite := noFavoriteCategory
	best := 0
	for _, category := range categoryOrder {
		if qtyByCategory[category] > best {
			best = qtyByCategory[category]
			favorite = category
		}
	}
	return favorite, nil
}
