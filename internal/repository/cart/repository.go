package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"sync"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/atelier/internal/entity"
	"github.com/Additional-Code/atelier/internal/storage"
)

// Module provides the cart repository to Fx.
var Module = fx.Provide(NewRepository)

func cartKey(principal string) string   { return "cart:" + principal }
func buyNowKey(principal string) string { return "buynow:" + principal }

// Repository keeps the transient checkout sources of each principal: the
// cart and at most one buy-now item.
type Repository struct {
	storage storage.Storage
	logger  *zap.Logger
	mu      sync.Mutex
}

// NewRepository wires a Repository over storage.
func NewRepository(s storage.Storage, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{storage: s, logger: logger}
}

// Items returns the principal's cart.
func (r *Repository) Items(ctx context.Context, principal string) ([]entity.OrderItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items(ctx, principal)
}

// AddItem adds item to the cart. An item for the same listing with the same
// customization increases that line's quantity instead.
func (r *Repository) AddItem(ctx context.Context, principal string, item entity.OrderItem) ([]entity.OrderItem, error) {
	if item.ListingID == "" {
		return nil, errors.New("listing id is required")
	}
	if item.Quantity <= 0 {
		item.Quantity = 1
	}
	item.Customization = maps.Clone(item.Customization)

	r.mu.Lock()
	defer r.mu.Unlock()

	items, err := r.items(ctx, principal)
	if err != nil {
		return nil, err
	}
	merged := false
	for i := range items {
		if items[i].ListingID == item.ListingID && maps.Equal(items[i].Customization, item.Customization) {
			items[i].Quantity += item.Quantity
			merged = true
			break
		}
	}
	if !merged {
		items = append(items, item)
	}
	if err := r.put(ctx, cartKey(principal), items); err != nil {
		return nil, err
	}
	return items, nil
}

// RemoveItem drops every line for listingID.
func (r *Repository) RemoveItem(ctx context.Context, principal, listingID string) ([]entity.OrderItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	items, err := r.items(ctx, principal)
	if err != nil {
		return nil, err
	}
	kept := items[:0]
	for _, it := range items {
		if it.ListingID != listingID {
			kept = append(kept, it)
		}
	}
	if err := r.put(ctx, cartKey(principal), kept); err != nil {
		return nil, err
	}
	return kept, nil
}

// Clear empties the cart.
func (r *Repository) Clear(ctx context.Context, principal string) error {
	return r.storage.Delete(ctx, cartKey(principal))
}

// BuyNow returns the pending buy-now item, or nil when there is none.
func (r *Repository) BuyNow(ctx context.Context, principal string) (*entity.OrderItem, error) {
	raw, err := r.storage.Get(ctx, buyNowKey(principal))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read buy-now: %w", err)
	}
	var item entity.OrderItem
	if err := json.Unmarshal([]byte(raw), &item); err != nil {
		r.logger.Warn("buy-now state corrupt; ignoring", zap.String("principal", principal), zap.Error(err))
		return nil, nil
	}
	return &item, nil
}

// SetBuyNow replaces the pending buy-now item.
func (r *Repository) SetBuyNow(ctx context.Context, principal string, item entity.OrderItem) error {
	if item.ListingID == "" {
		return errors.New("listing id is required")
	}
	if item.Quantity <= 0 {
		item.Quantity = 1
	}
	return r.put(ctx, buyNowKey(principal), item)
}

// ClearBuyNow removes the pending buy-now item.
func (r *Repository) ClearBuyNow(ctx context.Context, principal string) error {
	return r.storage.Delete(ctx, buyNowKey(principal))
}

func (r *Repository) items(ctx context.Context, principal string) ([]entity.OrderItem, error) {
	raw, err := r.storage.Get(ctx, cartKey(principal))
	if errors.Is(err, storage.ErrNotFound) {
		return []entity.OrderItem{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cart: %w", err)
	}
	var items []entity.OrderItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		r.logger.Warn("cart state corrupt; treating as empty", zap.String("principal", principal), zap.Error(err))
		return []entity.OrderItem{}, nil
	}
	if items == nil {
		items = []entity.OrderItem{}
	}
	return items, nil
}

func (r *Repository) put(ctx context.Context, key string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return r.storage.Set(ctx, key, string(payload))
}
