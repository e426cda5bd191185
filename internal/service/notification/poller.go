package notification

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/atelier/internal/config"
	"github.com/Additional-Code/atelier/internal/entity"
	repo "github.com/Additional-Code/atelier/internal/repository/notification"
	"github.com/Additional-Code/atelier/internal/storage"
)

var pollerTracer = otel.Tracer("github.com/Additional-Code/atelier/service/notification")

const (
	defaultInterval  = 15 * time.Second
	defaultBatchSize = 50
)

// Module provides the notification service to Fx.
var Module = fx.Provide(
	func(r *repo.Repository) Store { return r },
	NewService,
)

// Store persists notifications ordered by ID.
type Store interface {
	Create(ctx context.Context, n *entity.Notification) error
	ListSince(ctx context.Context, principal string, afterID int64, limit int) ([]entity.Notification, error)
}

// Sink receives notifications in ID order.
type Sink func(ctx context.Context, n entity.Notification)

// WatermarkKey is the storage key of the principal's last delivered ID.
func WatermarkKey(principal string) string {
	return "notifications:watermark:" + principal
}

// Service writes notifications and delivers new ones to subscribed sinks.
type Service struct {
	store    Store
	storage  storage.Storage
	interval time.Duration
	batch    int
	logger   *zap.Logger
	now      func() time.Time

	mu         sync.Mutex
	sinks      []Sink
	watermarks map[string]int64
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Store   Store
	Storage storage.Storage
	Config  config.Config
	Logger  *zap.Logger
}

// NewService wires a Service.
func NewService(p Params) *Service {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	interval := p.Config.Notifications.PollInterval
	if interval <= 0 {
		interval = defaultInterval
	}
	batch := p.Config.Notifications.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	return &Service{
		store:      p.Store,
		storage:    p.Storage,
		interval:   interval,
		batch:      batch,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
		watermarks: make(map[string]int64),
	}
}

// Interval returns the fixed polling interval.
func (s *Service) Interval() time.Duration { return s.interval }

// Notify records a notification for principal.
func (s *Service) Notify(ctx context.Context, principal, orderID, kind, message string) (*entity.Notification, error) {
	if principal == "" {
		return nil, errors.New("principal is required")
	}
	n := &entity.Notification{
		Principal: principal,
		OrderID:   orderID,
		Kind:      kind,
		Message:   message,
		CreatedAt: s.now(),
	}
	if err := s.store.Create(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// Subscribe registers sink for every notification delivered by Poll.
func (s *Service) Subscribe(sink Sink) {
	if sink == nil {
		return
	}
	s.mu.Lock()
	s.sinks = append(s.sinks, sink)
	s.mu.Unlock()
}

// List returns notifications after the given ID without moving the watermark.
func (s *Service) List(ctx context.Context, principal string, afterID int64) ([]entity.Notification, error) {
	out, err := s.store.ListSince(ctx, principal, afterID, s.batch)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []entity.Notification{}
	}
	return out, nil
}

// Watermark returns the highest ID already delivered to principal. Missing
// or corrupt state reads as zero.
func (s *Service) Watermark(ctx context.Context, principal string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watermark(ctx, principal)
}

// Poll fetches notifications newer than the watermark, hands them to every
// sink and advances the watermark to the last one. A failed fetch leaves
// the watermark untouched.
func (s *Service) Poll(ctx context.Context, principal string) ([]entity.Notification, error) {
	ctx, span := pollerTracer.Start(ctx, "Notifications.Poll", trace.WithAttributes(attribute.String("principal", principal)))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	after := s.watermark(ctx, principal)
	fresh, err := s.store.ListSince(ctx, principal, after, s.batch)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return nil, err
	}
	if len(fresh) == 0 {
		return []entity.Notification{}, nil
	}

	for _, n := range fresh {
		for _, sink := range s.sinks {
			sink(ctx, n)
		}
	}

	last := fresh[len(fresh)-1].ID
	s.watermarks[principal] = last
	if err := s.storage.Set(ctx, WatermarkKey(principal), strconv.FormatInt(last, 10)); err != nil {
		s.logger.Warn("notification watermark not persisted", zap.String("principal", principal), zap.Error(err))
	}
	span.SetAttributes(attribute.Int("notifications.delivered", len(fresh)), attribute.Int64("notifications.watermark", last))
	return fresh, nil
}

// Run polls immediately and then on every interval tick until ctx is done.
// Failures are logged and retried on the next tick.
func (s *Service) Run(ctx context.Context, principal string) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.Poll(ctx, principal); err != nil && ctx.Err() == nil {
			s.logger.Warn("notification poll failed", zap.String("principal", principal), zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (s *Service) watermark(ctx context.Context, principal string) int64 {
	if id, ok := s.watermarks[principal]; ok {
		return id
	}
	raw, err := s.storage.Get(ctx, WatermarkKey(principal))
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("notification watermark read failed", zap.String("principal", principal), zap.Error(err))
		}
		return 0
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		s.logger.Warn("notification watermark corrupt; starting over", zap.String("principal", principal), zap.String("value", raw))
		return 0
	}
	s.watermarks[principal] = id
	return id
}
