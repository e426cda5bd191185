package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/atelier/internal/config"
	"github.com/Additional-Code/atelier/internal/entity"
	"github.com/Additional-Code/atelier/internal/messaging"
	"github.com/Additional-Code/atelier/internal/service/notification"
	ordersvc "github.com/Additional-Code/atelier/internal/service/order"
	"github.com/Additional-Code/atelier/internal/status"
	"github.com/Additional-Code/atelier/internal/worker"
)

var workerTracer = otel.Tracer("github.com/Additional-Code/atelier/worker/order")

// Module registers order-related worker handlers.
var Module = fx.Module("worker_order",
	fx.Provide(
		func(s *notification.Service) Notifier { return s },
		fx.Annotate(
			NewOrderEventsHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

// Notifier records a notification for a principal.
type Notifier interface {
	Notify(ctx context.Context, principal, orderID, kind, message string) (*entity.Notification, error)
}

// NewOrderEventsHandler turns order events into notifications for the
// customer and, on placement, the tailor.
func NewOrderEventsHandler(logger *zap.Logger, cfg config.Config, notifier Notifier) worker.HandlerRegistration {
	handler := func(ctx context.Context, msg messaging.Message) error {
		ctx, span := workerTracer.Start(ctx, "worker.orders.process", trace.WithAttributes(
			attribute.String("messaging.topic", msg.Topic),
		))
		defer span.End()

		var event ordersvc.OrderEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logger.Error("failed to decode order event", zap.Error(err))

			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			return err
		}
		span.SetAttributes(attribute.String("order.id", event.OrderID), attribute.String("event.type", event.Type))

		var errs []error
		for _, n := range notificationsFor(event) {
			if _, err := notifier.Notify(ctx, n.Principal, event.OrderID, event.Type, n.Message); err != nil {
				errs = append(errs, err)
			}
		}
		if err := errors.Join(errs...); err != nil {
			logger.Error("failed to record order notifications", zap.String("order_id", event.OrderID), zap.Error(err))

			span.RecordError(err)
			span.SetStatus(codes.Error, "notify error")
			return err
		}

		logger.Info("order event processed",
			zap.String("type", event.Type),
			zap.String("order_id", event.OrderID),
			zap.String("status", event.Status),
		)

		return nil
	}

	return worker.HandlerRegistration{
		Topic:   cfg.Messaging.Kafka.Topic,
		Handler: handler,
	}
}

type pendingNotification struct {
	Principal string
	Message   string
}

func notificationsFor(event ordersvc.OrderEvent) []pendingNotification {
	switch event.Type {
	case ordersvc.EventOrderPlaced:
		out := []pendingNotification{{
			Principal: event.CustomerID,
			Message:   fmt.Sprintf("Your order %s has been placed.", event.OrderID),
		}}
		if event.TailorID != "" && event.TailorID != event.CustomerID {
			out = append(out, pendingNotification{
				Principal: event.TailorID,
				Message:   fmt.Sprintf("New order %s received.", event.OrderID),
			})
		}
		return out
	case ordersvc.EventOrderStatusChanged:
		label := status.Canonicalize(event.Status).Status()
		msg := fmt.Sprintf("Order %s is now %s.", event.OrderID, label)
		if event.Note != "" {
			msg += " Note: " + event.Note
		}
		return []pendingNotification{{Principal: event.CustomerID, Message: msg}}
	default:
		return nil
	}
}
