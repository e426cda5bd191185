package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// Notification is a message addressed to a principal, ordered by ID.
type Notification struct {
	bun.BaseModel `bun:"table:notifications"`

	ID        int64     `bun:",pk,autoincrement" json:"id"`
	Principal string    `bun:"principal,notnull" json:"principal"`
	OrderID   string    `bun:"order_id" json:"orderId"`
	Kind      string    `bun:"kind" json:"kind"`
	Message   string    `bun:"message" json:"message"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP" json:"createdAt"`
}
