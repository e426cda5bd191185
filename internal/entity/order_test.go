package entity

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestOrder_CloneIsDeep(t *testing.T) {
	src := &Order{
		ID:            "ORD-1",
		Customization: map[string]string{"collar": "mandarin"},
		Items: []OrderItem{{
			ListingID:     "L1",
			Price:         decimal.NewFromInt(100),
			Customization: map[string]string{"sleeve": "full"},
		}},
		MeasurementSnapshot: &MeasurementSnapshot{ProfileID: "P1", Values: map[string]float64{"chest": 40}},
	}

	cp := src.Clone()
	cp.Customization["collar"] = "spread"
	cp.Items[0].Customization["sleeve"] = "half"
	cp.MeasurementSnapshot.Values["chest"] = 44

	assert.Equal(t, "mandarin", src.Customization["collar"])
	assert.Equal(t, "full", src.Items[0].Customization["sleeve"])
	assert.Equal(t, 40.0, src.MeasurementSnapshot.Values["chest"])
}

func TestOrder_CloneNil(t *testing.T) {
	var o *Order
	assert.Nil(t, o.Clone())
}

func TestOrderItem_Subtotal(t *testing.T) {
	item := OrderItem{Price: decimal.RequireFromString("499.50"), Quantity: 2}
	assert.True(t, decimal.RequireFromString("999").Equal(item.Subtotal()))

	item.Quantity = 0
	assert.True(t, decimal.RequireFromString("499.50").Equal(item.Subtotal()))
}
