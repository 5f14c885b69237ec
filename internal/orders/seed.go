package orders

import (
	"context"
	"fmt"

	"github.com/campus-kds/canteen-backend/pkg/db/models"
)

const (
	defaultSeedCount = 4
	maxSeedCount     = 20
	seedUnitPrice    = 50
)

var seedItemNames = []string{
	"Masala Dosa",
	"Cold Coffee",
	"Paneer Roll",
	"Veg Thali",
	"Idli Sambar",
}

var seedPaymentMethods = []string{"upi", "cash", "card", "wallet"}

// Seed creates demo orders so a fresh dashboard has something to show.
// Orders rotate through the sample catalog and payment methods; every
// second order is takeaway.
func (s *service) Seed(ctx context.Context, count int) ([]models.Order, error) {
	if count <= 0 {
		count = defaultSeedCount
	}
	if count > maxSeedCount {
		count = maxSeedCount
	}

	created := make([]models.Order, 0, count)
	for i := 0; i < count; i++ {
		qty := i%2 + 1
		input := CreateOrderInput{
			Items: []LineItemInput{
				{Name: seedItemNames[i%len(seedItemNames)], Quantity: qty},
			},
			StudentName:   fmt.Sprintf("Student %d", i+1),
			PaymentMethod: seedPaymentMethods[i%len(seedPaymentMethods)],
			TotalAmount:   float64(qty * seedUnitPrice),
		}
		if i%2 == 0 {
			table := fmt.Sprintf("T%d", i/2+1)
			input.TableNumber = &table
		}

		order, err := s.Create(ctx, input)
		if err != nil {
			return created, err
		}
		created = append(created, *order)
	}
	return created, nil
}
