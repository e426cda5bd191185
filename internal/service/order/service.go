package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/atelier/internal/cache"
	"github.com/Additional-Code/atelier/internal/config"
	"github.com/Additional-Code/atelier/internal/entity"
	"github.com/Additional-Code/atelier/internal/identity"
	"github.com/Additional-Code/atelier/internal/messaging"
	"github.com/Additional-Code/atelier/internal/repository/local"
	repo "github.com/Additional-Code/atelier/internal/repository/order"
	"github.com/Additional-Code/atelier/internal/status"
	"github.com/Additional-Code/atelier/pkg/errorbank"
)

var (
	serviceTracer = otel.Tracer("github.com/Additional-Code/atelier/service/order")
	serviceMeter  = otel.Meter("github.com/Additional-Code/atelier/service/order")

	placedCounter, _   = serviceMeter.Int64Counter("orders.placed", metric.WithDescription("Orders accepted, by store."))
	fallbackCounter, _ = serviceMeter.Int64Counter("orders.remote_fallbacks", metric.WithDescription("Remote calls that fell back to the local store."))
)

var errNoActor = errors.New("no remote actor available")

// Service presents one order API over the remote and local stores.
//
// Reads prefer the remote store; a non-empty remote result is authoritative
// and local orders are not merged in. Writes try the remote store first and
// fall back to the local store. Orders that only reached the local store are
// never uploaded later.
type Service struct {
	actor         Actor
	local         *local.Store
	cache         cache.Store
	cacheTTL      time.Duration
	remoteTimeout time.Duration
	logger        *zap.Logger
	publisher     messaging.Client
	messaging     messagingConfig
	now           func() time.Time
}

// messagingConfig contains messaging specific knobs we care about.
type messagingConfig struct {
	enabled bool
	topic   string
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Actor     Actor `optional:"true"`
	Local     *local.Store
	Cache     cache.Store
	Config    config.Config
	Logger    *zap.Logger
	Publisher messaging.Client
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		actor:         p.Actor,
		local:         p.Local,
		cache:         p.Cache,
		cacheTTL:      p.Config.Cache.DefaultTTL,
		remoteTimeout: p.Config.Remote.Timeout,
		logger:        logger,
		publisher:     p.Publisher,
		messaging: messagingConfig{
			enabled: p.Config.Messaging.Enabled,
			topic:   p.Config.Messaging.Kafka.Topic,
		},
		now: func() time.Time { return time.Now().UTC() },
	}
}

// NewOrderID returns ORD-<unix millis>-<6 random hex chars>.
func NewOrderID(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("ORD-%d-%s", now.UnixMilli(), suffix)
}

// Place persists order, preferring the remote store. It fails only when
// neither store accepts the order.
func (s *Service) Place(ctx context.Context, order *entity.Order) (*entity.Order, error) {
	if order == nil {
		return nil, errorbank.BadRequest("order payload is required")
	}

	placed := order.Clone()
	now := s.now()
	if placed.ID == "" {
		placed.ID = NewOrderID(now)
	}
	if placed.CustomerID == "" {
		placed.CustomerID = identity.Anonymous
	}
	if placed.Status == "" {
		placed.Status = string(status.OrderPlaced)
	} else if canonical, ok := status.Parse(placed.Status); ok {
		placed.Status = string(canonical)
	} else {
		return nil, errorbank.BadRequest("unknown order status", errorbank.WithDetail("status", placed.Status))
	}
	placed.PaymentMode = entity.PaymentModeCOD
	if placed.CreatedAt.IsZero() {
		placed.CreatedAt = now
	}
	placed.UpdatedAt = placed.CreatedAt

	ctx, span := serviceTracer.Start(ctx, "OrderService.Place", trace.WithAttributes(
		attribute.String("order.id", placed.ID),
		attribute.String("order.customer", placed.CustomerID),
	))
	defer span.End()

	source := SourceRemote
	if err := s.placeRemote(ctx, placed); err != nil {
		s.logger.Warn("remote placement failed; storing order locally", zap.String("id", placed.ID), zap.Error(err))
		fallbackCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", "place")))

		if localErr := s.local.Append(ctx, placed); localErr != nil {
			span.RecordError(localErr)
			span.SetStatus(codes.Error, "placement failed")
			s.logger.Error("order placement failed in both stores", zap.String("id", placed.ID), zap.Error(localErr))
			return nil, errorbank.Internal("failed to place order", errorbank.WithCause(errors.Join(err, localErr)))
		}
		source = SourceLocal
	}
	span.SetAttributes(attribute.String("order.source", string(source)))
	placedCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("store", string(source))))

	if err := s.storeInCache(ctx, placed); err != nil {
		s.logger.Warn("orders cache write failed", zap.String("id", placed.ID), zap.Error(err))
	}

	s.publish(ctx, OrderEvent{
		Type:       EventOrderPlaced,
		OrderID:    placed.ID,
		CustomerID: placed.CustomerID,
		TailorID:   placed.TailorID,
		Status:     placed.Status,
		Source:     source,
		OccurredAt: now,
	})

	return placed, nil
}

// ListMine lists the principal's orders.
func (s *Service) ListMine(ctx context.Context, principal string, q Query) Listing {
	ctx, span := serviceTracer.Start(ctx, "OrderService.ListMine", trace.WithAttributes(attribute.String("principal", principal)))
	defer span.End()

	if s.actor != nil {
		rctx, cancel := s.remoteContext(ctx)
		remote, err := s.actor.GetMyExtendedOrders(rctx, principal)
		cancel()
		switch {
		case err != nil:
			s.remoteFailed(ctx, "list_mine", err)
		case len(remote) > 0:
			return Listing{Orders: q.Apply(fromExtendedAll(remote)), Source: SourceRemote}
		}
	}
	return Listing{Orders: q.Apply(s.local.LoadMine(ctx, principal)), Source: SourceLocal}
}

// ListAll lists every principal's orders for tailor and admin views.
func (s *Service) ListAll(ctx context.Context, q Query) Listing {
	ctx, span := serviceTracer.Start(ctx, "OrderService.ListAll")
	defer span.End()

	if s.actor != nil {
		rctx, cancel := s.remoteContext(ctx)
		remote, err := s.actor.GetAllExtendedOrders(rctx)
		cancel()
		switch {
		case err != nil:
			s.remoteFailed(ctx, "list_all", err)
		case len(remote) > 0:
			return Listing{Orders: q.Apply(fromExtendedAll(remote)), Source: SourceRemote}
		}
	}
	return Listing{Orders: q.Apply(s.local.LoadAll(ctx)), Source: SourceLocal}
}

// Get retrieves an order by id from the cache, the remote store or the
// local aggregate, in that order.
func (s *Service) Get(ctx context.Context, id string) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Get", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	if order, err := s.getFromCache(ctx, id); err == nil {
		return order, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("orders cache read failed", zap.String("id", id), zap.Error(err))
	}

	if s.actor != nil {
		rctx, cancel := s.remoteContext(ctx)
		remote, err := s.actor.GetOrderByID(rctx, id)
		cancel()
		if err == nil {
			order := fromExtended(*remote)
			if err := s.storeInCache(ctx, &order); err != nil {
				s.logger.Warn("orders cache write failed", zap.String("id", id), zap.Error(err))
			}
			return &order, nil
		}
		if !errors.Is(err, repo.ErrNotFound) {
			s.remoteFailed(ctx, "get", err)
		}
	}

	if order, ok := s.local.Find(ctx, id); ok {
		return order, nil
	}
	return nil, errorbank.NotFound("order not found")
}

// Progress returns the canonical progress of an order.
func (s *Service) Progress(ctx context.Context, id string) (*entity.Order, status.Progress, error) {
	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, status.Progress{}, err
	}
	return order, status.Canonicalize(order.Status), nil
}

// UpdateStatusInput describes a status change requested by a tailor or admin.
type UpdateStatusInput struct {
	ID     string
	Status string
	Note   string
	// Source is the store the caller's view came from; SourceLocal skips the
	// remote store. Empty means unknown.
	Source Source
	// Principal is additionally searched in the local store when the order
	// is missing from the aggregate.
	Principal string
}

// UpdateStatus moves an order to a new status. Unknown ids are a silent
// no-op. Unknown statuses and backwards transitions are rejected.
func (s *Service) UpdateStatus(ctx context.Context, in UpdateStatusInput) error {
	if strings.TrimSpace(in.ID) == "" {
		return errorbank.BadRequest("order id is required")
	}
	target, ok := status.Parse(in.Status)
	if !ok {
		return errorbank.BadRequest("unknown order status", errorbank.WithDetail("status", in.Status))
	}

	ctx, span := serviceTracer.Start(ctx, "OrderService.UpdateStatus", trace.WithAttributes(
		attribute.String("order.id", in.ID),
		attribute.String("order.status", string(target)),
	))
	defer span.End()

	if s.actor != nil && in.Source != SourceLocal {
		event, err := s.updateRemote(ctx, in.ID, target, in.Note)
		if err != nil {
			return err
		}
		if event != nil {
			s.invalidate(ctx, in.ID)
			s.publish(ctx, *event)
			return nil
		}
	}

	var event *OrderEvent
	found, err := s.local.Update(ctx, in.ID, func(o *entity.Order) error {
		if !status.CanTransition(o.Status, string(target)) {
			return transitionError(o.Status, target)
		}
		o.Status = string(target)
		if in.Note != "" {
			o.AdminNotes = in.Note
		}
		event = &OrderEvent{
			Type:       EventOrderStatusChanged,
			OrderID:    o.ID,
			CustomerID: o.CustomerID,
			TailorID:   o.TailorID,
			Status:     string(target),
			Note:       in.Note,
			Source:     SourceLocal,
			OccurredAt: s.now(),
		}
		return nil
	}, in.Principal)
	if err != nil {
		var appErr *errorbank.AppError
		if errors.As(err, &appErr) {
			return appErr
		}
		// The store keeps the change in memory for this process.
		span.RecordError(err)
		s.logger.Warn("local status update not persisted", zap.String("id", in.ID), zap.Error(err))
	}
	if !found {
		s.logger.Debug("status update for unknown order ignored", zap.String("id", in.ID))
		return nil
	}

	s.invalidate(ctx, in.ID)
	if event != nil {
		s.publish(ctx, *event)
	}
	return nil
}

// updateRemote returns a nil event when the remote store did not handle the
// update and the local store should be tried.
func (s *Service) updateRemote(ctx context.Context, id string, target status.Status, note string) (*OrderEvent, error) {
	rctx, cancel := s.remoteContext(ctx)
	defer cancel()

	current, err := s.actor.GetOrderByID(rctx, id)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			s.remoteFailed(ctx, "update_status", err)
		}
		return nil, nil
	}
	if !status.CanTransition(current.Status, string(target)) {
		return nil, transitionError(current.Status, target)
	}
	if err := s.actor.UpdateExtendedOrderStatus(rctx, id, string(target), note); err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			s.remoteFailed(ctx, "update_status", err)
		}
		return nil, nil
	}

	return &OrderEvent{
		Type:       EventOrderStatusChanged,
		OrderID:    id,
		CustomerID: current.CustomerPrincipal,
		TailorID:   current.TailorID,
		Status:     string(target),
		Note:       note,
		Source:     SourceRemote,
		OccurredAt: s.now(),
	}, nil
}

func transitionError(from string, to status.Status) error {
	return errorbank.Unprocessable("status transition not allowed",
		errorbank.WithDetail("from", status.Canonicalize(from).Status()),
		errorbank.WithDetail("to", to),
	)
}

func (s *Service) placeRemote(ctx context.Context, order *entity.Order) error {
	if s.actor == nil {
		return errNoActor
	}
	rctx, cancel := s.remoteContext(ctx)
	defer cancel()
	return s.actor.PlaceExtendedOrder(rctx, toExtended(order))
}

func (s *Service) remoteContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.remoteTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.remoteTimeout)
}

func (s *Service) remoteFailed(ctx context.Context, op string, err error) {
	s.logger.Warn("remote order store call failed; using local store", zap.String("operation", op), zap.Error(err))
	fallbackCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", op)))
}

func (s *Service) publish(ctx context.Context, event OrderEvent) {
	if !s.messaging.enabled || s.publisher == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("marshal order event", zap.Error(err))
		return
	}
	if err := s.publisher.Publish(ctx, []byte(event.OrderID), payload); err != nil {
		s.logger.Error("publish order event", zap.String("type", event.Type), zap.Error(err))
	}
}

func (s *Service) cacheKey(id string) string {
	return "orders:" + id
}

func (s *Service) getFromCache(ctx context.Context, id string) (*entity.Order, error) {
	var order entity.Order
	if err := cache.GetJSON(ctx, s.cache, s.cacheKey(id), &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *Service) storeInCache(ctx context.Context, order *entity.Order) error {
	if order == nil {
		return nil
	}
	return cache.SetJSON(ctx, s.cache, s.cacheKey(order.ID), order, s.cacheTTL)
}

func (s *Service) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, s.cacheKey(id)); err != nil {
		s.logger.Warn("orders cache delete failed", zap.String("id", id), zap.Error(err))
	}
}
