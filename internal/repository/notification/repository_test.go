package notification

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/Additional-Code/atelier/internal/database"
	"github.com/Additional-Code/atelier/internal/entity"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	sqldb, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.NewCreateTable().Model((*entity.Notification)(nil)).Exec(context.Background())
	require.NoError(t, err)

	return NewRepository(&database.Connections{Writer: db, Reader: db})
}

func TestRepository_CreateAndListSince(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	for _, n := range []*entity.Notification{
		{Principal: "alice", OrderID: "ORD-1", Kind: "order.placed", Message: "placed"},
		{Principal: "bob", OrderID: "ORD-2", Kind: "order.placed", Message: "placed"},
		{Principal: "alice", OrderID: "ORD-1", Kind: "order.status_changed", Message: "Dispatched"},
	} {
		require.NoError(t, repo.Create(ctx, n))
		assert.NotZero(t, n.ID)
	}

	all, err := repo.ListSince(ctx, "alice", 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "placed", all[0].Message)
	assert.Less(t, all[0].ID, all[1].ID)

	newer, err := repo.ListSince(ctx, "alice", all[0].ID, 10)
	require.NoError(t, err)
	require.Len(t, newer, 1)
	assert.Equal(t, "Dispatched", newer[0].Message)

	limited, err := repo.ListSince(ctx, "alice", 0, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestRepository_Unavailable(t *testing.T) {
	repo := NewRepository(nil)
	ctx := context.Background()

	assert.ErrorIs(t, repo.Create(ctx, &entity.Notification{}), ErrUnavailable)
	_, err := repo.ListSince(ctx, "alice", 0, 10)
	assert.ErrorIs(t, err, ErrUnavailable)
}
