package local

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/atelier/internal/entity"
	"github.com/Additional-Code/atelier/internal/storage"
)

type flakyStorage struct {
	*storage.Memory
	failWrites bool
	failReads  bool
	// failKey fails reads of one key only.
	failKey string
}

func (f *flakyStorage) Get(ctx context.Context, key string) (string, error) {
	if f.failReads || (f.failKey != "" && key == f.failKey) {
		return "", errors.New("storage disabled")
	}
	return f.Memory.Get(ctx, key)
}

func (f *flakyStorage) Set(ctx context.Context, key, value string) error {
	if f.failWrites {
		return errors.New("quota exceeded")
	}
	return f.Memory.Set(ctx, key, value)
}

func newTestStore() (*Store, *flakyStorage) {
	mem := &flakyStorage{Memory: storage.NewMemory()}
	return NewStore(mem, zap.NewNop()), mem
}

func order(id, customer string) entity.Order {
	return entity.Order{
		ID:           id,
		CustomerID:   customer,
		ListingTitle: "Linen Kurta",
		TotalPrice:   decimal.NewFromInt(1200),
		Status:       "Order Placed",
	}
}

func ids(orders []entity.Order) []string {
	out := make([]string, 0, len(orders))
	for _, o := range orders {
		out = append(out, o.ID)
	}
	return out
}

func TestStore_LoadMissingIsEmpty(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()

	assert.Empty(t, s.LoadMine(ctx, "alice"))
	assert.NotNil(t, s.LoadMine(ctx, "alice"))
	assert.Empty(t, s.LoadAll(ctx))
}

func TestStore_LoadCorruptIsEmpty(t *testing.T) {
	s, mem := newTestStore()
	ctx := context.Background()
	require.NoError(t, mem.Memory.Set(ctx, MineKey("alice"), "{not json"))
	require.NoError(t, mem.Memory.Set(ctx, AllKey, "null"))

	assert.Empty(t, s.LoadMine(ctx, "alice"))
	assert.Empty(t, s.LoadAll(ctx))
}

func TestStore_LoadUnreadableIsEmpty(t *testing.T) {
	s, mem := newTestStore()
	ctx := context.Background()
	require.NoError(t, s.SaveMine(ctx, "alice", []entity.Order{order("A1", "alice")}))

	mem.failReads = true
	assert.Empty(t, s.LoadMine(ctx, "alice"))
}

func TestStore_SaveMineKeepsAggregateConsistent(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()

	require.NoError(t, s.SaveMine(ctx, "alice", []entity.Order{order("A1", "alice"), order("A2", "alice")}))
	require.NoError(t, s.SaveMine(ctx, "bob", []entity.Order{order("B1", "bob")}))
	before := s.LoadAll(ctx)

	require.NoError(t, s.SaveMine(ctx, "alice", []entity.Order{order("A3", "alice")}))

	all := s.LoadAll(ctx)
	var alice, others []entity.Order
	for _, o := range all {
		if o.CustomerID == "alice" {
			alice = append(alice, o)
		} else {
			others = append(others, o)
		}
	}
	assert.Equal(t, []string{"A3"}, ids(alice))

	var othersBefore []entity.Order
	for _, o := range before {
		if o.CustomerID != "alice" {
			othersBefore = append(othersBefore, o)
		}
	}
	assert.Equal(t, othersBefore, others)
	assert.Equal(t, []string{"A3"}, ids(s.LoadMine(ctx, "alice")))
}

func TestStore_SaveMineKeepsAggregateWhenUnreadable(t *testing.T) {
	s, mem := newTestStore()
	ctx := context.Background()

	require.NoError(t, s.SaveMine(ctx, "alice", []entity.Order{order("A1", "alice")}))
	require.NoError(t, s.SaveMine(ctx, "bob", []entity.Order{order("B1", "bob")}))

	mem.failKey = AllKey
	err := s.SaveMine(ctx, "bob", []entity.Order{order("B1", "bob"), order("B2", "bob")})
	require.Error(t, err)
	mem.failKey = ""

	assert.Equal(t, []string{"B1", "B2"}, ids(s.LoadMine(ctx, "bob")))
	all := ids(s.LoadAll(ctx))
	assert.Contains(t, all, "A1")
	assert.Contains(t, all, "B1")
	assert.NotContains(t, all, "B2")

	require.NoError(t, s.SaveMine(ctx, "bob", []entity.Order{order("B1", "bob"), order("B2", "bob")}))
	assert.ElementsMatch(t, []string{"A1", "B1", "B2"}, ids(s.LoadAll(ctx)))
}

func TestStore_SaveMineAttributesOrdersToPrincipal(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()

	require.NoError(t, s.SaveMine(ctx, "alice", []entity.Order{order("A1", "")}))
	all := s.LoadAll(ctx)
	require.Len(t, all, 1)
	assert.Equal(t, "alice", all[0].CustomerID)
}

func TestStore_Create(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()
	fixed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	draft := order("", "")
	draft.Customization = map[string]string{"collar": "band"}

	created, err := s.Create(ctx, "alice", draft)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^ORD-\d+$`), created.ID)
	assert.Equal(t, StatusPending, created.Status)
	assert.Equal(t, fixed, created.CreatedAt)
	assert.Equal(t, fixed, created.UpdatedAt)
	assert.Equal(t, "alice", created.CustomerID)

	draft.Customization["collar"] = "spread"
	mine := s.LoadMine(ctx, "alice")
	require.Len(t, mine, 1)
	assert.Equal(t, "band", mine[0].Customization["collar"])
	assert.Equal(t, []string{created.ID}, ids(s.LoadAll(ctx)))
}

func TestStore_AppendReplacesSameID(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()

	o := order("A1", "alice")
	require.NoError(t, s.Append(ctx, &o))
	o.ListingTitle = "Silk Sherwani"
	require.NoError(t, s.Append(ctx, &o))

	mine := s.LoadMine(ctx, "alice")
	require.Len(t, mine, 1)
	assert.Equal(t, "Silk Sherwani", mine[0].ListingTitle)
	assert.Error(t, s.Append(ctx, &entity.Order{ID: "X"}))
}

func TestStore_UpdateStatus(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()
	require.NoError(t, s.SaveMine(ctx, "alice", []entity.Order{order("A1", "alice")}))
	require.NoError(t, s.SaveMine(ctx, "bob", []entity.Order{order("B1", "bob")}))

	later := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return later }

	found, err := s.UpdateStatus(ctx, "A1", "Dispatched", "handed to courier")
	require.NoError(t, err)
	assert.True(t, found)

	mine := s.LoadMine(ctx, "alice")
	require.Len(t, mine, 1)
	assert.Equal(t, "Dispatched", mine[0].Status)
	assert.Equal(t, "handed to courier", mine[0].AdminNotes)
	assert.Equal(t, later, mine[0].UpdatedAt)

	got, ok := s.Find(ctx, "A1")
	require.True(t, ok)
	assert.Equal(t, "Dispatched", got.Status)

	bob := s.LoadMine(ctx, "bob")
	assert.Equal(t, "Order Placed", bob[0].Status)
}

func TestStore_UpdateStatusUnknownIDIsNoop(t *testing.T) {
	s, mem := newTestStore()
	ctx := context.Background()
	require.NoError(t, s.SaveMine(ctx, "alice", []entity.Order{order("A1", "alice")}))
	before := mem.Snapshot()

	found, err := s.UpdateStatus(ctx, "NOPE", "Delivered", "")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, before, mem.Snapshot())
}

func TestStore_UpdateFindsPrincipalCollection(t *testing.T) {
	s, mem := newTestStore()
	ctx := context.Background()
	// A legacy collection that never reached the aggregate.
	require.NoError(t, mem.Memory.Set(ctx, MineKey("carol"), `[{"id":"C1","customerId":"carol","status":"pending"}]`))

	found, err := s.UpdateStatus(ctx, "C1", "Confirmed", "")
	require.NoError(t, err)
	assert.False(t, found)

	found, err = s.UpdateStatus(ctx, "C1", "Confirmed", "", "carol")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"C1"}, ids(s.LoadAll(ctx)))
}

func TestStore_UpdateAbortsOnCallbackError(t *testing.T) {
	s, mem := newTestStore()
	ctx := context.Background()
	require.NoError(t, s.SaveMine(ctx, "alice", []entity.Order{order("A1", "alice")}))
	before := mem.Snapshot()

	_, err := s.Update(ctx, "A1", func(*entity.Order) error { return errors.New("rejected") })
	assert.Error(t, err)
	assert.Equal(t, before, mem.Snapshot())
}

func TestStore_WriteFailureKeepsSessionState(t *testing.T) {
	s, mem := newTestStore()
	ctx := context.Background()
	mem.failWrites = true

	err := s.SaveMine(ctx, "alice", []entity.Order{order("A1", "alice")})
	assert.Error(t, err)
	assert.Equal(t, []string{"A1"}, ids(s.LoadMine(ctx, "alice")))
	assert.Equal(t, []string{"A1"}, ids(s.LoadAll(ctx)))
	assert.Empty(t, mem.Snapshot())

	mem.failWrites = false
	require.NoError(t, s.SaveMine(ctx, "alice", s.LoadMine(ctx, "alice")))
	assert.Len(t, mem.Snapshot(), 2)
}
