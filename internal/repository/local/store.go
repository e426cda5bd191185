package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Additional-Code/atelier/internal/entity"
	"github.com/Additional-Code/atelier/internal/storage"
)

var storeTracer = otel.Tracer("github.com/Additional-Code/atelier/repository/local")

// AllKey holds the cross-principal aggregate read by tailor and admin views.
const AllKey = "orders:all"

// StatusPending is the status the local store assigns in Create.
const StatusPending = "pending"

// MineKey returns the storage key of a principal's own collection.
func MineKey(principal string) string {
	return "orders:" + principal
}

// Store persists orders per principal in key/value storage and mirrors every
// save into the aggregate under AllKey.
//
// Reads never fail: missing or corrupt data reads as empty. When the backing
// storage rejects a write the value is kept in memory and served to later
// reads from this process.
type Store struct {
	storage storage.Storage
	logger  *zap.Logger
	now     func() time.Time

	mu      sync.Mutex
	pending map[string][]entity.Order
}

// NewStore wires a Store over the given storage.
func NewStore(s storage.Storage, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		storage: s,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
		pending: make(map[string][]entity.Order),
	}
}

// LoadMine returns the principal's orders.
func (s *Store) LoadMine(ctx context.Context, principal string) []entity.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(ctx, MineKey(principal))
}

// LoadAll returns the cross-principal aggregate.
func (s *Store) LoadAll(ctx context.Context) []entity.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(ctx, AllKey)
}

// SaveMine overwrites the principal's collection and replaces that
// principal's entries in the aggregate, leaving other principals untouched.
func (s *Store) SaveMine(ctx context.Context, principal string, orders []entity.Order) error {
	ctx, span := storeTracer.Start(ctx, "LocalStore.SaveMine", trace.WithAttributes(
		attribute.String("principal", principal),
		attribute.Int("orders", len(orders)),
	))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.saveMine(ctx, principal, orders)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
	}
	return err
}

// Create builds a new order for principal from draft, assigns an
// ORD-<millis> id with pending status, and appends it.
func (s *Store) Create(ctx context.Context, principal string, draft entity.Order) (*entity.Order, error) {
	now := s.now()
	order := draft.Clone()
	order.ID = fmt.Sprintf("ORD-%d", now.UnixMilli())
	order.CustomerID = principal
	order.Status = StatusPending
	order.CreatedAt = now
	order.UpdatedAt = now

	if err := s.Append(ctx, order); err != nil {
		return order, err
	}
	return order.Clone(), nil
}

// Append adds order to its customer's collection, replacing any entry with
// the same id.
func (s *Store) Append(ctx context.Context, order *entity.Order) error {
	if order == nil {
		return errors.New("nil order")
	}
	if order.CustomerID == "" {
		return errors.New("order has no customer")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	mine := s.read(ctx, MineKey(order.CustomerID))
	replaced := false
	for i := range mine {
		if mine[i].ID == order.ID {
			mine[i] = *order.Clone()
			replaced = true
			break
		}
	}
	if !replaced {
		mine = append(mine, *order.Clone())
	}
	return s.saveMine(ctx, order.CustomerID, mine)
}

// Find looks an order up in the aggregate, then in the collections of the
// given principals.
func (s *Store) Find(ctx context.Context, id string, principals ...string) (*entity.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, order, ok := s.locate(ctx, id, principals)
	if !ok {
		return nil, false
	}
	return order.Clone(), true
}

// UpdateStatus replaces the status of the order with the given id and bumps
// UpdatedAt. A note, when present, replaces AdminNotes. Unknown ids are a
// no-op reported as false.
func (s *Store) UpdateStatus(ctx context.Context, id, status, note string, principals ...string) (bool, error) {
	return s.Update(ctx, id, func(o *entity.Order) error {
		o.Status = status
		if note != "" {
			o.AdminNotes = note
		}
		return nil
	}, principals...)
}

// Update applies fn to the order with the given id and saves the owner's
// collection. fn returning an error aborts without writing.
func (s *Store) Update(ctx context.Context, id string, fn func(*entity.Order) error, principals ...string) (bool, error) {
	ctx, span := storeTracer.Start(ctx, "LocalStore.Update", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	owner, current, ok := s.locate(ctx, id, principals)
	if !ok {
		return false, nil
	}

	patched := current.Clone()
	if err := fn(patched); err != nil {
		return false, err
	}
	patched.ID = current.ID
	patched.CustomerID = owner
	patched.UpdatedAt = s.now()

	mine := s.read(ctx, MineKey(owner))
	replaced := false
	for i := range mine {
		if mine[i].ID == id {
			mine[i] = *patched
			replaced = true
			break
		}
	}
	if !replaced {
		mine = append(mine, *patched)
	}

	if err := s.saveMine(ctx, owner, mine); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		return true, err
	}
	return true, nil
}

func (s *Store) locate(ctx context.Context, id string, principals []string) (string, *entity.Order, bool) {
	if id == "" {
		return "", nil, false
	}
	for _, o := range s.read(ctx, AllKey) {
		if o.ID == id {
			return o.CustomerID, &o, true
		}
	}
	for _, p := range principals {
		if p == "" {
			continue
		}
		for _, o := range s.read(ctx, MineKey(p)) {
			if o.ID == id {
				return p, &o, true
			}
		}
	}
	return "", nil, false
}

func (s *Store) saveMine(ctx context.Context, principal string, orders []entity.Order) error {
	mine := make([]entity.Order, 0, len(orders))
	for _, o := range orders {
		cp := o.Clone()
		cp.CustomerID = principal
		mine = append(mine, *cp)
	}

	mineErr := s.write(ctx, MineKey(principal), mine)

	// An unreadable aggregate is left alone; rewriting it from an empty read
	// would drop every other principal's entries.
	all, err := s.load(ctx, AllKey)
	if err != nil {
		s.logger.Warn("local aggregate unreadable; skipping merge", zap.String("principal", principal), zap.Error(err))
		return errors.Join(mineErr, fmt.Errorf("read %s: %w", AllKey, err))
	}
	merged := make([]entity.Order, 0, len(all)+len(mine))
	for _, o := range all {
		if o.CustomerID != principal {
			merged = append(merged, o)
		}
	}
	merged = append(merged, mine...)
	allErr := s.write(ctx, AllKey, merged)

	return errors.Join(mineErr, allErr)
}

func (s *Store) read(ctx context.Context, key string) []entity.Order {
	orders, err := s.load(ctx, key)
	if err != nil {
		s.logger.Warn("local orders read failed", zap.String("key", key), zap.Error(err))
		return []entity.Order{}
	}
	return orders
}

// load is read without the fallback: missing and corrupt values are empty,
// while storage errors are returned.
func (s *Store) load(ctx context.Context, key string) ([]entity.Order, error) {
	if orders, ok := s.pending[key]; ok {
		return cloneAll(orders), nil
	}

	raw, err := s.storage.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return []entity.Order{}, nil
	}
	if err != nil {
		return nil, err
	}

	var orders []entity.Order
	if err := json.Unmarshal([]byte(raw), &orders); err != nil {
		s.logger.Warn("local orders corrupt; treating as empty", zap.String("key", key), zap.Error(err))
		return []entity.Order{}, nil
	}
	if orders == nil {
		orders = []entity.Order{}
	}
	return orders, nil
}

func (s *Store) write(ctx context.Context, key string, orders []entity.Order) error {
	payload, err := json.Marshal(orders)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.storage.Set(ctx, key, string(payload)); err != nil {
		s.pending[key] = cloneAll(orders)
		s.logger.Warn("local orders write failed; keeping in memory", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("write %s: %w", key, err)
	}
	delete(s.pending, key)
	return nil
}

func cloneAll(orders []entity.Order) []entity.Order {
	out := make([]entity.Order, len(orders))
	for i := range orders {
		out[i] = *orders[i].Clone()
	}
	return out
}
