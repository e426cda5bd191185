package measurement

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/atelier/internal/storage"
)

func TestRepository_SaveGetListDelete(t *testing.T) {
	repo := NewRepository(storage.NewMemory())
	ctx := context.Background()

	_, err := repo.Get(ctx, "alice", "P1")
	assert.ErrorIs(t, err, ErrNotFound)

	values := map[string]float64{"chest": 40, "waist": 34}
	_, err = repo.Save(ctx, "alice", Profile{ID: "P2", Name: "Wedding", Values: values})
	require.NoError(t, err)
	_, err = repo.Save(ctx, "alice", Profile{ID: "P1", Name: "Everyday", Unit: "in", Values: values})
	require.NoError(t, err)
	values["chest"] = 99

	got, err := repo.Get(ctx, "alice", "P1")
	require.NoError(t, err)
	assert.Equal(t, 40.0, got.Values["chest"])
	assert.False(t, got.UpdatedAt.IsZero())

	list, err := repo.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Everyday", list[0].Name)

	require.NoError(t, repo.Delete(ctx, "alice", "P1"))
	require.NoError(t, repo.Delete(ctx, "alice", "P1"))
	_, err = repo.Get(ctx, "alice", "P1")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.Save(ctx, "alice", Profile{Name: "no id"})
	assert.Error(t, err)
}

func TestProfile_SnapshotIsCopy(t *testing.T) {
	p := Profile{ID: "P1", Name: "Everyday", Values: map[string]float64{"chest": 40}}
	snap := p.Snapshot()
	p.Values["chest"] = 42

	assert.Equal(t, "P1", snap.ProfileID)
	assert.Equal(t, 40.0, snap.Values["chest"])
}
