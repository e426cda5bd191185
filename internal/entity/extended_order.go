package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// ExtendedOrder is the backend-resident order stored in the relational database.
type ExtendedOrder struct {
	bun.BaseModel `bun:"table:extended_orders"`

	ID                  string               `bun:"id,pk"`
	CustomerPrincipal   string               `bun:"customer_principal,notnull"`
	TailorID            string               `bun:"tailor_id"`
	ListingID           string               `bun:"listing_id"`
	ListingTitle        string               `bun:"listing_title"`
	Category            string               `bun:"category"`
	Items               []OrderItem          `bun:"items"`
	Customization       map[string]string    `bun:"customization"`
	MeasurementSnapshot *MeasurementSnapshot `bun:"measurement_snapshot"`
	DeliveryAddress     Address              `bun:"delivery_address"`
	TotalPrice          decimal.Decimal      `bun:"total_price,type:numeric(12,2)"`
	Status              string               `bun:"status,notnull"`
	PaymentMode         string               `bun:"payment_mode"`
	AdminNotes          string               `bun:"admin_notes"`
	IsDeleted           bool                 `bun:"is_deleted,notnull,default:false"`
	CreatedAt           time.Time            `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt           time.Time            `bun:"updated_at,nullzero"`
}
