package entity

import (
	"maps"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentModeCOD is the only supported payment mode.
const PaymentModeCOD = "COD"

// Address is a postal delivery address captured at placement.
type Address struct {
	Name     string `json:"name"`
	HouseNo  string `json:"houseNo"`
	Area     string `json:"area"`
	Landmark string `json:"landmark,omitempty"`
	City     string `json:"city"`
	State    string `json:"state"`
	PinCode  string `json:"pinCode"`
	Phone    string `json:"phone"`
}

// MeasurementSnapshot is a copy of a measurement profile taken at placement.
type MeasurementSnapshot struct {
	ProfileID string             `json:"profileId"`
	Name      string             `json:"name"`
	Unit      string             `json:"unit,omitempty"`
	Values    map[string]float64 `json:"values"`
	Notes     string             `json:"notes,omitempty"`
}

// Clone deep-copies the snapshot.
func (m *MeasurementSnapshot) Clone() *MeasurementSnapshot {
	if m == nil {
		return nil
	}
	cp := *m
	cp.Values = maps.Clone(m.Values)
	return &cp
}

// OrderItem is one listing line inside an order.
type OrderItem struct {
	ListingID     string            `json:"listingId"`
	TailorID      string            `json:"tailorId"`
	Title         string            `json:"title"`
	Category      string            `json:"category"`
	Price         decimal.Decimal   `json:"price"`
	Quantity      int               `json:"quantity"`
	Customization map[string]string `json:"customization,omitempty"`
}

// Subtotal returns price times quantity.
func (i OrderItem) Subtotal() decimal.Decimal {
	qty := i.Quantity
	if qty <= 0 {
		qty = 1
	}
	return i.Price.Mul(decimal.NewFromInt(int64(qty)))
}

// Order is the canonical order record shared by both stores.
type Order struct {
	ID                  string               `json:"id"`
	CustomerID          string               `json:"customerId"`
	TailorID            string               `json:"tailorId"`
	ListingID           string               `json:"listingId"`
	ListingTitle        string               `json:"listingTitle"`
	Category            string               `json:"category"`
	Items               []OrderItem          `json:"items,omitempty"`
	Customization       map[string]string    `json:"customization,omitempty"`
	MeasurementSnapshot *MeasurementSnapshot `json:"measurementSnapshot,omitempty"`
	DeliveryAddress     Address              `json:"deliveryAddress"`
	TotalPrice          decimal.Decimal      `json:"totalPrice"`
	Status              string               `json:"status"`
	PaymentMode         string               `json:"paymentMode"`
	AdminNotes          string               `json:"adminNotes,omitempty"`
	IsDeleted           bool                 `json:"isDeleted,omitempty"`
	CreatedAt           time.Time            `json:"createdAt"`
	UpdatedAt           time.Time            `json:"updatedAt"`
}

// Clone returns a deep copy so callers never share maps or slices with a store.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	cp := *o
	cp.Customization = maps.Clone(o.Customization)
	cp.MeasurementSnapshot = o.MeasurementSnapshot.Clone()
	if o.Items != nil {
		cp.Items = make([]OrderItem, len(o.Items))
		for i, item := range o.Items {
			item.Customization = maps.Clone(item.Customization)
			cp.Items[i] = item
		}
	}
	return &cp
}
