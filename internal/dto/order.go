package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Additional-Code/atelier/internal/entity"
	"github.com/Additional-Code/atelier/internal/status"
)

// ProgressResponse is the canonical view of an order status.
type ProgressResponse struct {
	Status    string   `json:"status"`
	Stage     int      `json:"stage"`
	Percent   int      `json:"percent"`
	Cancelled bool     `json:"cancelled"`
	Stages    []string `json:"stages"`
}

// OrderResponse represents an order as exposed via transport layers.
type OrderResponse struct {
	ID                  string                      `json:"id"`
	CustomerID          string                      `json:"customer_id"`
	TailorID            string                      `json:"tailor_id"`
	ListingID           string                      `json:"listing_id"`
	ListingTitle        string                      `json:"listing_title"`
	Category            string                      `json:"category"`
	Items               []entity.OrderItem          `json:"items,omitempty"`
	Customization       map[string]string           `json:"customization,omitempty"`
	MeasurementSnapshot *entity.MeasurementSnapshot `json:"measurement_snapshot,omitempty"`
	DeliveryAddress     entity.Address              `json:"delivery_address"`
	TotalPrice          decimal.Decimal             `json:"total_price"`
	Status              string                      `json:"status"`
	Progress            ProgressResponse            `json:"progress"`
	PaymentMode         string                      `json:"payment_mode"`
	AdminNotes          string                      `json:"admin_notes,omitempty"`
	CreatedAt           time.Time                   `json:"created_at"`
	UpdatedAt           time.Time                   `json:"updated_at"`
}

// OrderRequest is the payload for placing an order directly.
type OrderRequest struct {
	TailorID            string                      `json:"tailor_id"`
	ListingID           string                      `json:"listing_id"`
	ListingTitle        string                      `json:"listing_title"`
	Category            string                      `json:"category"`
	Items               []entity.OrderItem          `json:"items"`
	Customization       map[string]string           `json:"customization"`
	MeasurementSnapshot *entity.MeasurementSnapshot `json:"measurement_snapshot"`
	DeliveryAddress     entity.Address              `json:"delivery_address"`
	TotalPrice          decimal.Decimal             `json:"total_price"`
	Status              string                      `json:"status"`
}

// UpdateStatusRequest changes an order's status.
type UpdateStatusRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
	Source string `json:"source"`
}

// CartItemRequest adds a listing to the cart or buy-now slot.
type CartItemRequest struct {
	ListingID     string            `json:"listing_id"`
	TailorID      string            `json:"tailor_id"`
	Title         string            `json:"title"`
	Category      string            `json:"category"`
	Price         decimal.Decimal   `json:"price"`
	Quantity      int               `json:"quantity"`
	Customization map[string]string `json:"customization"`
}

// MeasurementRequest creates or replaces a measurement profile.
type MeasurementRequest struct {
	ID     string             `json:"id"`
	Name   string             `json:"name"`
	Unit   string             `json:"unit"`
	Values map[string]float64 `json:"values"`
	Notes  string             `json:"notes"`
}

// NotificationResponse is a delivered notification.
type NotificationResponse struct {
	ID        int64     `json:"id"`
	OrderID   string    `json:"order_id"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// NewProgress builds the progress view for a raw status string.
func NewProgress(raw string) ProgressResponse {
	p := status.Canonicalize(raw)
	stages := make([]string, 0, len(status.Stages))
	for _, s := range status.Stages {
		stages = append(stages, string(s))
	}
	return ProgressResponse{
		Status:    string(p.Status()),
		Stage:     int(p.Stage),
		Percent:   p.Percent(),
		Cancelled: p.Cancelled,
		Stages:    stages,
	}
}

// NewOrderResponse maps an order onto its transport representation.
func NewOrderResponse(o *entity.Order) OrderResponse {
	return OrderResponse{
		ID:                  o.ID,
		CustomerID:          o.CustomerID,
		TailorID:            o.TailorID,
		ListingID:           o.ListingID,
		ListingTitle:        o.ListingTitle,
		Category:            o.Category,
		Items:               o.Items,
		Customization:       o.Customization,
		MeasurementSnapshot: o.MeasurementSnapshot,
		DeliveryAddress:     o.DeliveryAddress,
		TotalPrice:          o.TotalPrice,
		Status:              o.Status,
		Progress:            NewProgress(o.Status),
		PaymentMode:         o.PaymentMode,
		AdminNotes:          o.AdminNotes,
		CreatedAt:           o.CreatedAt,
		UpdatedAt:           o.UpdatedAt,
	}
}

// NewOrderResponses maps a list of orders.
func NewOrderResponses(orders []entity.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, NewOrderResponse(&orders[i]))
	}
	return out
}

// ToOrder converts the request into a draft order for principal.
func (r OrderRequest) ToOrder(principal string) *entity.Order {
	return &entity.Order{
		CustomerID:          principal,
		TailorID:            r.TailorID,
		ListingID:           r.ListingID,
		ListingTitle:        r.ListingTitle,
		Category:            r.Category,
		Items:               r.Items,
		Customization:       r.Customization,
		MeasurementSnapshot: r.MeasurementSnapshot,
		DeliveryAddress:     r.DeliveryAddress,
		TotalPrice:          r.TotalPrice,
		Status:              r.Status,
	}
}

// ToItem converts the request into a cart line.
func (r CartItemRequest) ToItem() entity.OrderItem {
	return entity.OrderItem{
		ListingID:     r.ListingID,
		TailorID:      r.TailorID,
		Title:         r.Title,
		Category:      r.Category,
		Price:         r.Price,
		Quantity:      r.Quantity,
		Customization: r.Customization,
	}
}

// NewNotificationResponses maps notifications for transport.
func NewNotificationResponses(in []entity.Notification) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(in))
	for _, n := range in {
		out = append(out, NotificationResponse{
			ID:        n.ID,
			OrderID:   n.OrderID,
			Kind:      n.Kind,
			Message:   n.Message,
			CreatedAt: n.CreatedAt,
		})
	}
	return out
}
