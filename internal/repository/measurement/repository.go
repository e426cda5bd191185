package measurement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"sort"
	"sync"
	"time"

	"go.uber.org/fx"

	"github.com/Additional-Code/atelier/internal/entity"
	"github.com/Additional-Code/atelier/internal/storage"
)

// Module provides the measurement profile repository to Fx.
var Module = fx.Provide(NewRepository)

// ErrNotFound is returned when a profile is missing.
var ErrNotFound = errors.New("measurement profile not found")

// Profile is a customer's named set of body measurements.
type Profile struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Unit      string             `json:"unit,omitempty"`
	Values    map[string]float64 `json:"values"`
	Notes     string             `json:"notes,omitempty"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// Snapshot copies the profile for embedding into an order.
func (p Profile) Snapshot() *entity.MeasurementSnapshot {
	return &entity.MeasurementSnapshot{
		ProfileID: p.ID,
		Name:      p.Name,
		Unit:      p.Unit,
		Values:    maps.Clone(p.Values),
		Notes:     p.Notes,
	}
}

func key(principal string) string { return "measurements:" + principal }

// Repository stores profiles per principal.
type Repository struct {
	storage storage.Storage
	mu      sync.Mutex
}

// NewRepository wires a Repository over storage.
func NewRepository(s storage.Storage) *Repository {
	return &Repository{storage: s}
}

// List returns the principal's profiles ordered by name.
func (r *Repository) List(ctx context.Context, principal string) ([]Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all, err := r.load(ctx, principal)
	if err != nil {
		return nil, err
	}
	out := make([]Profile, 0, len(all))
	for _, p := range all {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Get returns a copy of one profile.
func (r *Repository) Get(ctx context.Context, principal, id string) (*Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all, err := r.load(ctx, principal)
	if err != nil {
		return nil, err
	}
	p, ok := all[id]
	if !ok {
		return nil, ErrNotFound
	}
	p.Values = maps.Clone(p.Values)
	return &p, nil
}

// Save creates or replaces a profile.
func (r *Repository) Save(ctx context.Context, principal string, p Profile) (*Profile, error) {
	if p.ID == "" {
		return nil, errors.New("profile id is required")
	}
	p.Values = maps.Clone(p.Values)
	p.UpdatedAt = time.Now().UTC()

	r.mu.Lock()
	defer r.mu.Unlock()

	all, err := r.load(ctx, principal)
	if err != nil {
		return nil, err
	}
	all[p.ID] = p
	if err := r.store(ctx, principal, all); err != nil {
		return nil, err
	}
	return &p, nil
}

// Delete removes a profile; deleting a missing profile is not an error.
func (r *Repository) Delete(ctx context.Context, principal, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	all, err := r.load(ctx, principal)
	if err != nil {
		return err
	}
	if _, ok := all[id]; !ok {
		return nil
	}
	delete(all, id)
	return r.store(ctx, principal, all)
}

func (r *Repository) load(ctx context.Context, principal string) (map[string]Profile, error) {
	raw, err := r.storage.Get(ctx, key(principal))
	if errors.Is(err, storage.ErrNotFound) {
		return map[string]Profile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read measurements: %w", err)
	}
	all := map[string]Profile{}
	if err := json.Unmarshal([]byte(raw), &all); err != nil {
		return map[string]Profile{}, nil
	}
	if all == nil {
		all = map[string]Profile{}
	}
	return all, nil
}

func (r *Repository) store(ctx context.Context, principal string, all map[string]Profile) error {
	payload, err := json.Marshal(all)
	if err != nil {
		return err
	}
	return r.storage.Set(ctx, key(principal), string(payload))
}
