package cart

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/atelier/internal/entity"
	"github.com/Additional-Code/atelier/internal/storage"
)

func item(listing string, custom map[string]string) entity.OrderItem {
	return entity.OrderItem{
		ListingID:     listing,
		TailorID:      "tailor-1",
		Title:         "Kurta " + listing,
		Price:         decimal.NewFromInt(999),
		Quantity:      1,
		Customization: custom,
	}
}

func TestRepository_CartLifecycle(t *testing.T) {
	repo := NewRepository(storage.NewMemory(), zap.NewNop())
	ctx := context.Background()

	items, err := repo.Items(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = repo.AddItem(ctx, "alice", item("L1", map[string]string{"fit": "slim"}))
	require.NoError(t, err)
	_, err = repo.AddItem(ctx, "alice", item("L1", map[string]string{"fit": "slim"}))
	require.NoError(t, err)
	items, err = repo.AddItem(ctx, "alice", item("L1", map[string]string{"fit": "regular"}))
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 2, items[0].Quantity)

	items, err = repo.RemoveItem(ctx, "alice", "L1")
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = repo.AddItem(ctx, "alice", item("L2", nil))
	require.NoError(t, err)
	require.NoError(t, repo.Clear(ctx, "alice"))
	items, err = repo.Items(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = repo.AddItem(ctx, "alice", entity.OrderItem{})
	assert.Error(t, err)
}

func TestRepository_BuyNow(t *testing.T) {
	repo := NewRepository(storage.NewMemory(), zap.NewNop())
	ctx := context.Background()

	got, err := repo.BuyNow(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, got)

	it := item("L9", nil)
	it.Quantity = 0
	require.NoError(t, repo.SetBuyNow(ctx, "alice", it))
	got, err = repo.BuyNow(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "L9", got.ListingID)
	assert.Equal(t, 1, got.Quantity)

	require.NoError(t, repo.ClearBuyNow(ctx, "alice"))
	got, err = repo.BuyNow(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRepository_CorruptStateReadsEmpty(t *testing.T) {
	mem := storage.NewMemory()
	repo := NewRepository(mem, zap.NewNop())
	ctx := context.Background()
	require.NoError(t, mem.Set(ctx, "cart:alice", "oops"))
	require.NoError(t, mem.Set(ctx, "buynow:alice", "oops"))

	items, err := repo.Items(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, items)

	got, err := repo.BuyNow(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, got)
}
