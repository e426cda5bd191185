package order

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/atelier/internal/config"
	"github.com/Additional-Code/atelier/internal/entity"
	"github.com/Additional-Code/atelier/internal/messaging"
	ordersvc "github.com/Additional-Code/atelier/internal/service/order"
)

type recordingNotifier struct {
	got []entity.Notification
	err error
}

func (r *recordingNotifier) Notify(_ context.Context, principal, orderID, kind, message string) (*entity.Notification, error) {
	if r.err != nil {
		return nil, r.err
	}
	n := entity.Notification{Principal: principal, OrderID: orderID, Kind: kind, Message: message}
	r.got = append(r.got, n)
	return &n, nil
}

func dispatch(t *testing.T, notifier Notifier, event ordersvc.OrderEvent) error {
	t.Helper()
	cfg := config.Config{Messaging: config.Messaging{Kafka: config.Kafka{Topic: "atelier.orders.events"}}}
	reg := NewOrderEventsHandler(zap.NewNop(), cfg, notifier)
	require.Equal(t, "atelier.orders.events", reg.Topic)

	payload, err := json.Marshal(event)
	require.NoError(t, err)
	return reg.Handler(context.Background(), messaging.Message{Topic: reg.Topic, Value: payload})
}

func TestOrderEventsHandler_Placed(t *testing.T) {
	n := &recordingNotifier{}
	err := dispatch(t, n, ordersvc.OrderEvent{
		Type:       ordersvc.EventOrderPlaced,
		OrderID:    "ORD-1",
		CustomerID: "alice",
		TailorID:   "tailor-7",
		Status:     "Order Placed",
	})
	require.NoError(t, err)
	require.Len(t, n.got, 2)
	assert.Equal(t, "alice", n.got[0].Principal)
	assert.Equal(t, "tailor-7", n.got[1].Principal)
	assert.Equal(t, ordersvc.EventOrderPlaced, n.got[0].Kind)
}

func TestOrderEventsHandler_StatusChanged(t *testing.T) {
	n := &recordingNotifier{}
	err := dispatch(t, n, ordersvc.OrderEvent{
		Type:       ordersvc.EventOrderStatusChanged,
		OrderID:    "ORD-1",
		CustomerID: "alice",
		TailorID:   "tailor-7",
		Status:     "shipped",
		Note:       "AWB 42",
	})
	require.NoError(t, err)
	require.Len(t, n.got, 1)
	assert.Equal(t, "Order ORD-1 is now Dispatched. Note: AWB 42", n.got[0].Message)
}

func TestOrderEventsHandler_Errors(t *testing.T) {
	cfg := config.Config{}
	reg := NewOrderEventsHandler(zap.NewNop(), cfg, &recordingNotifier{})
	assert.Error(t, reg.Handler(context.Background(), messaging.Message{Value: []byte("{")}))

	err := dispatch(t, &recordingNotifier{err: errors.New("db down")}, ordersvc.OrderEvent{
		Type:       ordersvc.EventOrderPlaced,
		OrderID:    "ORD-1",
		CustomerID: "alice",
	})
	assert.Error(t, err)
}

func TestOrderEventsHandler_IgnoresUnknownTypes(t *testing.T) {
	n := &recordingNotifier{}
	require.NoError(t, dispatch(t, n, ordersvc.OrderEvent{Type: "order.archived", OrderID: "ORD-1", CustomerID: "alice"}))
	assert.Empty(t, n.got)
}
