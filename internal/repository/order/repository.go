package order

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/atelier/internal/database"
	"github.com/Additional-Code/atelier/internal/entity"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/atelier/repository/order")

// ErrNotFound is returned when an order is missing.
var ErrNotFound = errors.New("order not found")

// Repository is the authoritative extended order store.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a repository backed by configured database connections.
// It returns nil when the database is disabled.
func NewRepository(conns *database.Connections) *Repository {
	if conns == nil {
		return nil
	}
	return &Repository{
		writer: conns.Writer,
		reader: conns.Reader,
	}
}

// PlaceExtendedOrder persists a new order using the write connection.
func (r *Repository) PlaceExtendedOrder(ctx context.Context, order *entity.ExtendedOrder) error {
	if order == nil {
		return errors.New("nil order")
	}
	ctx, span := repoTracer.Start(ctx, "OrderRepository.PlaceExtendedOrder", trace.WithAttributes(attribute.String("order.id", order.ID)))
	defer span.End()

	_, err := r.writer.NewInsert().Model(order).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

// GetMyExtendedOrders lists the orders placed by principal, newest first.
func (r *Repository) GetMyExtendedOrders(ctx context.Context, principal string) ([]entity.ExtendedOrder, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.GetMyExtendedOrders", trace.WithAttributes(attribute.String("principal", principal)))
	defer span.End()

	var orders []entity.ExtendedOrder
	err := r.reader.NewSelect().
		Model(&orders).
		Where("customer_principal = ?", principal).
		OrderExpr("created_at DESC").
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return orders, nil
}

// GetAllExtendedOrders lists every order, newest first.
func (r *Repository) GetAllExtendedOrders(ctx context.Context) ([]entity.ExtendedOrder, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.GetAllExtendedOrders")
	defer span.End()

	var orders []entity.ExtendedOrder
	err := r.reader.NewSelect().
		Model(&orders).
		OrderExpr("created_at DESC").
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return orders, nil
}

// GetOrderByID fetches an order by primary key using the read replica when available.
func (r *Repository) GetOrderByID(ctx context.Context, id string) (*entity.ExtendedOrder, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.GetOrderByID", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	order := new(entity.ExtendedOrder)
	err := r.reader.NewSelect().Model(order).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return order, nil
}

// UpdateExtendedOrderStatus sets status and bumps updated_at. A non-empty
// note replaces admin_notes. Unknown ids yield ErrNotFound.
func (r *Repository) UpdateExtendedOrderStatus(ctx context.Context, id, status, note string) error {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.UpdateExtendedOrderStatus", trace.WithAttributes(
		attribute.String("order.id", id),
		attribute.String("order.status", status),
	))
	defer span.End()

	q := r.writer.NewUpdate().
		Model((*entity.ExtendedOrder)(nil)).
		Set("status = ?", status).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id)
	if note != "" {
		q = q.Set("admin_notes = ?", note)
	}

	res, err := q.Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		span.SetStatus(codes.Error, "not found")
		return ErrNotFound
	}
	return nil
}
