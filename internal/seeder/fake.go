package seeder

import (
	"context"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Additional-Code/atelier/internal/entity"
	"github.com/Additional-Code/atelier/internal/status"
)

var garments = []struct {
	title    string
	category string
	min, max int
}{
	{"Linen Kurta", "kurtas", 900, 2500},
	{"Bandhgala Jacket", "jackets", 2500, 7000},
	{"Silk Saree Blouse", "blouses", 600, 1800},
	{"Wool Trousers", "trousers", 1200, 3200},
	{"Sherwani", "ethnic", 6000, 18000},
}

// Fake returns n generated orders spread over the thirty days before now.
// The same seed yields the same orders, ids included.
func Fake(seed uint64, n int, now time.Time) []entity.ExtendedOrder {
	f := gofakeit.New(seed)
	out := make([]entity.ExtendedOrder, 0, n)
	for i := range n {
		g := garments[f.Number(0, len(garments)-1)]
		tailor := fmt.Sprintf("tailor-%02d", f.Number(1, 12))
		item := entity.OrderItem{
			ListingID: fmt.Sprintf("listing-%s-%d", g.category, f.Number(1, 40)),
			TailorID:  tailor,
			Title:     g.title,
			Category:  g.category,
			Price:     decimal.NewFromInt(int64(f.Number(g.min, g.max))),
			Quantity:  f.Number(1, 3),
		}

		st := status.Stages[f.Number(0, len(status.Stages)-1)]
		if f.Number(1, 10) == 1 {
			st = status.Cancelled
		}

		created := now.Add(-time.Duration(f.Number(1, 30*24)) * time.Hour)
		out = append(out, entity.ExtendedOrder{
			ID:                fmt.Sprintf("ORD-FAKE-%d-%04d", seed, i),
			CustomerPrincipal: fmt.Sprintf("customer-%03d", f.Number(1, 200)),
			TailorID:          tailor,
			ListingID:         item.ListingID,
			ListingTitle:      item.Title,
			Category:          item.Category,
			Items:             []entity.OrderItem{item},
			DeliveryAddress: entity.Address{
				Name:    f.Name(),
				HouseNo: fmt.Sprint(f.Number(1, 999)),
				Area:    f.Street(),
				City:    f.City(),
				State:   f.State(),
				PinCode: fmt.Sprint(f.Number(110001, 855999)),
				Phone:   "+91 " + f.DigitN(10),
			},
			TotalPrice:  item.Subtotal(),
			Status:      string(st),
			PaymentMode: entity.PaymentModeCOD,
			CreatedAt:   created,
			UpdatedAt:   created.Add(time.Duration(f.Number(0, 72)) * time.Hour),
		})
	}
	return out
}

// FakeOrders inserts n generated orders, skipping ids that already exist.
func (s *Seeder) FakeOrders(ctx context.Context, seed uint64, n int) error {
	orders := Fake(seed, n, time.Now().UTC())
	if len(orders) == 0 {
		return nil
	}
	if _, err := s.db.NewInsert().Model(&orders).On("CONFLICT (id) DO NOTHING").Exec(ctx); err != nil {
		return fmt.Errorf("insert fake orders: %w", err)
	}
	s.logger.Info("seeded fake orders", zap.Int("count", n), zap.Uint64("seed", seed))
	return nil
}
