package seeder

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/atelier/internal/database"
	"github.com/Additional-Code/atelier/internal/entity"
	"github.com/Additional-Code/atelier/internal/status"
)

// ErrDatabaseDisabled is returned when seeding runs without a database.
var ErrDatabaseDisabled = errors.New("database disabled; set DB_ENABLED=true to seed")

// Module provides the seeder to Fx.
var Module = fx.Provide(New)

// Seeder performs database seeding for local/dev setups.
type Seeder struct {
	db     *bun.DB
	logger *zap.Logger
}

// New constructs a Seeder backed by the primary database connection.
func New(conns *database.Connections, logger *zap.Logger) (*Seeder, error) {
	if conns == nil {
		return nil, ErrDatabaseDisabled
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{db: conns.Writer, logger: logger}, nil
}

// Samples returns the example orders inserted by Orders.
func Samples(now time.Time) []entity.ExtendedOrder {
	address := entity.Address{
		Name:    "Demo Customer",
		HouseNo: "221B",
		Area:    "MG Road",
		City:    "Bengaluru",
		State:   "Karnataka",
		PinCode: "560001",
		Phone:   "+91 98765 43210",
	}
	kurta := entity.OrderItem{
		ListingID:     "listing-kurta",
		TailorID:      "tailor-demo",
		Title:         "Linen Kurta",
		Category:      "kurtas",
		Price:         decimal.NewFromInt(1499),
		Quantity:      1,
		Customization: map[string]string{"collar": "mandarin"},
	}
	blazer := entity.OrderItem{
		ListingID: "listing-blazer",
		TailorID:  "tailor-demo",
		Title:     "Wool Blazer",
		Category:  "jackets",
		Price:     decimal.NewFromInt(5999),
		Quantity:  1,
	}

	return []entity.ExtendedOrder{
		{
			ID:                "ORD-SEED-1000",
			CustomerPrincipal: "demo-customer",
			TailorID:          kurta.TailorID,
			ListingID:         kurta.ListingID,
			ListingTitle:      kurta.Title,
			Category:          kurta.Category,
			Items:             []entity.OrderItem{kurta},
			Customization:     kurta.Customization,
			DeliveryAddress:   address,
			TotalPrice:        kurta.Subtotal(),
			Status:            string(status.OrderPlaced),
			PaymentMode:       entity.PaymentModeCOD,
			CreatedAt:         now.Add(-48 * time.Hour),
			UpdatedAt:         now.Add(-48 * time.Hour),
		},
		{
			ID:                "ORD-SEED-1001",
			CustomerPrincipal: "demo-customer",
			TailorID:          blazer.TailorID,
			ListingID:         blazer.ListingID,
			ListingTitle:      blazer.Title,
			Category:          blazer.Category,
			Items:             []entity.OrderItem{blazer},
			MeasurementSnapshot: &entity.MeasurementSnapshot{
				ProfileID: "profile-demo",
				Name:      "Everyday",
				Unit:      "in",
				Values:    map[string]float64{"chest": 40, "waist": 34, "sleeve": 25},
			},
			DeliveryAddress: address,
			TotalPrice:      blazer.Subtotal(),
			Status:          string(status.StitchingStarted),
			PaymentMode:     entity.PaymentModeCOD,
			CreatedAt:       now.Add(-24 * time.Hour),
			UpdatedAt:       now,
		},
	}
}

// Orders seeds example extended orders if they are missing.
func (s *Seeder) Orders(ctx context.Context) error {
	samples := Samples(time.Now().UTC())

	for _, sample := range samples {
		order := sample
		_, err := s.db.NewInsert().Model(&order).
			On("CONFLICT (id) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return err
		}
	}

	s.logger.Info("seeded orders", zap.Int("count", len(samples)))
	return nil
}
