package order

import "time"

const (
	EventOrderPlaced        = "order.placed"
	EventOrderStatusChanged = "order.status_changed"
)

// OrderEvent is published whenever an order is placed or changes status.
type OrderEvent struct {
	Type       string    `json:"type"`
	OrderID    string    `json:"order_id"`
	CustomerID string    `json:"customer_id"`
	TailorID   string    `json:"tailor_id"`
	Status     string    `json:"status"`
	Note       string    `json:"note,omitempty"`
	Source     Source    `json:"source"`
	OccurredAt time.Time `json:"occurred_at"`
}
