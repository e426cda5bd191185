package migration

import (
	"context"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/Additional-Code/atelier/db/migrations"
	"github.com/Additional-Code/atelier/internal/config"
	"github.com/Additional-Code/atelier/internal/database"
)

func TestGooseDialect(t *testing.T) {
	tests := []struct {
		driver  string
		want    string
		wantErr bool
	}{
		{"postgres", "postgres", false},
		{"pg", "postgres", false},
		{"mysql", "mysql", false},
		{"sqlite", "sqlite3", false},
		{"oracle", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			got, err := gooseDialect(tt.driver)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew_DatabaseDisabled(t *testing.T) {
	_, err := New(config.Config{Database: config.Database{Driver: "postgres"}}, nil, zap.NewNop())
	assert.ErrorIs(t, err, ErrDatabaseDisabled)
}

func TestEmbeddedMigrations(t *testing.T) {
	files, err := fs.Glob(migrations.FS, migrations.Dir+"/*.sql")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"sql/00001_create_extended_orders.sql",
		"sql/00002_create_notifications.sql",
	}, files)
}

func TestMigrator_UpDownOnSQLite(t *testing.T) {
	ctx := context.Background()
	lc := fxtest.NewLifecycle(t)
	cfg := config.Config{Database: config.Database{
		Enabled:   true,
		Driver:    "sqlite",
		WriterDSN: "file::memory:?cache=shared",
		ReaderDSN: "file::memory:?cache=shared",
	}}
	conns, err := database.New(lc, cfg, zap.NewNop())
	require.NoError(t, err)
	lc.RequireStart()
	defer lc.RequireStop()

	m, err := New(cfg, conns, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, m.Up(ctx))
	v, err := m.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)
	require.NoError(t, m.Up(ctx), "re-running is a no-op")

	require.NoError(t, m.Down(ctx, 1, false))
	v, _ = m.Version(ctx)
	assert.Equal(t, int64(1), v)

	require.NoError(t, m.Down(ctx, 0, true))
	v, _ = m.Version(ctx)
	assert.Zero(t, v)
}
