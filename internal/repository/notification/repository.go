package notification

import (
	"context"
	"errors"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"

	"github.com/Additional-Code/atelier/internal/database"
	"github.com/Additional-Code/atelier/internal/entity"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/atelier/repository/notification")

// ErrUnavailable is returned when the database is disabled.
var ErrUnavailable = errors.New("notification store unavailable")

// Module provides the notification repository to Fx.
var Module = fx.Provide(NewRepository)

// Repository stores notifications in the relational database.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a repository; a nil conns yields a repository whose
// calls fail with ErrUnavailable.
func NewRepository(conns *database.Connections) *Repository {
	if conns == nil {
		return &Repository{}
	}
	return &Repository{writer: conns.Writer, reader: conns.Reader}
}

// Create inserts n and fills its ID.
func (r *Repository) Create(ctx context.Context, n *entity.Notification) error {
	if r.writer == nil {
		return ErrUnavailable
	}
	if n == nil {
		return errors.New("nil notification")
	}
	ctx, span := repoTracer.Start(ctx, "NotificationRepository.Create", trace.WithAttributes(
		attribute.String("principal", n.Principal),
		attribute.String("order.id", n.OrderID),
	))
	defer span.End()

	if _, err := r.writer.NewInsert().Model(n).Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return err
	}
	return nil
}

// ListSince returns up to limit notifications for principal with ID greater
// than afterID, oldest first.
func (r *Repository) ListSince(ctx context.Context, principal string, afterID int64, limit int) ([]entity.Notification, error) {
	if r.reader == nil {
		return nil, ErrUnavailable
	}
	ctx, span := repoTracer.Start(ctx, "NotificationRepository.ListSince", trace.WithAttributes(
		attribute.String("principal", principal),
		attribute.Int64("after", afterID),
	))
	defer span.End()

	var out []entity.Notification
	q := r.reader.NewSelect().
		Model(&out).
		Where("principal = ?", principal).
		Where("id > ?", afterID).
		OrderExpr("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return out, nil
}
