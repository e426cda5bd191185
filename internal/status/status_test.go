package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalize_Aliases(t *testing.T) {
	tests := []struct {
		in    string
		stage Stage
	}{
		{"Order Placed", 0},
		{"pending", 0},
		{"PLACED", 0},
		{"Confirmed", 1},
		{"confirm", 1},
		{"Assigned to Tailor", 2},
		{"assigned", 2},
		{"In Tailoring", 3},
		{"Stitching_Started", 3},
		{"stitching", 3},
		{"Quality Check", 4},
		{"quality", 4},
		{"Shipped", 5},
		{"dispatched", 5},
		{"OUT-FOR-DELIVERY", 6},
		{"out for deliver", 6},
		{"Delivered", 7},
		{"order delivered", 7},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			p := Canonicalize(tt.in)
			assert.False(t, p.Cancelled)
			assert.Equal(t, tt.stage, p.Stage)
		})
	}
}

func TestCanonicalize_IsTotal(t *testing.T) {
	inputs := []string{"", " ", "???", "garbage status", "\x00", "日本語", "--__--", "cancel"}
	for _, in := range inputs {
		p := Canonicalize(in)
		assert.False(t, p.Cancelled, in)
		assert.GreaterOrEqual(t, int(p.Stage), int(FirstStage), in)
		assert.LessOrEqual(t, int(p.Stage), int(LastStage), in)
		assert.Equal(t, FirstStage, p.Stage, in)
	}
}

func TestCanonicalize_CancelledPrecedence(t *testing.T) {
	for _, in := range []string{"cancelled", "Cancelled", "CANCELLED", " cancelled ", "Canceled"} {
		p := Canonicalize(in)
		assert.True(t, p.Cancelled, in)
		assert.Equal(t, Cancelled, p.Status())
		assert.Equal(t, 0, p.Percent())
	}
}

func TestParse(t *testing.T) {
	s, ok := Parse("out_for_delivery")
	assert.True(t, ok)
	assert.Equal(t, OutForDelivery, s)

	s, ok = Parse("CANCELLED")
	assert.True(t, ok)
	assert.Equal(t, Cancelled, s)

	_, ok = Parse("teleported")
	assert.False(t, ok)

	_, ok = Parse("")
	assert.False(t, ok)
}

func TestParse_RejectsNearMisses(t *testing.T) {
	for _, raw := range []string{"Undelivered", "Not Delivered", "Unconfirmed", "Dispatch failed", "Order Shipped Back"} {
		t.Run(raw, func(t *testing.T) {
			_, ok := Parse(raw)
			assert.False(t, ok)
		})
	}
}

func TestProgress_Percent(t *testing.T) {
	assert.Equal(t, 0, Canonicalize("Order Placed").Percent())
	assert.Equal(t, 100, Canonicalize("Delivered").Percent())
	assert.Equal(t, 42, Canonicalize("Stitching Started").Percent())
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to string
		ok       bool
	}{
		{"Order Placed", "Confirmed", true},
		{"pending", "Delivered", true},
		{"Confirmed", "Confirmed", true},
		{"Dispatched", "Confirmed", false},
		{"Stitching Started", "Cancelled", true},
		{"Out for Delivery", "cancelled", true},
		{"Delivered", "Cancelled", false},
		{"Delivered", "Dispatched", false},
		{"Cancelled", "Confirmed", false},
		{"Cancelled", "Cancelled", true},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			assert.Equal(t, tt.ok, CanTransition(tt.from, tt.to))
		})
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal("delivered"))
	assert.True(t, IsTerminal("Cancelled"))
	assert.False(t, IsTerminal("Quality Check"))
	assert.False(t, IsTerminal("unknown"))
}
