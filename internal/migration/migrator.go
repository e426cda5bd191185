package migration

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pressly/goose/v3"
	"github.com/uptrace/bun"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/atelier/db/migrations"
	"github.com/Additional-Code/atelier/internal/config"
	"github.com/Additional-Code/atelier/internal/database"
)

// ErrDatabaseDisabled is returned when migrations run without a database.
var ErrDatabaseDisabled = errors.New("database disabled; set DB_ENABLED=true to migrate")

// Module provides the migrator to Fx.
var Module = fx.Provide(New)

// Migrator applies the embedded order-store schema with goose.
type Migrator struct {
	db     *bun.DB
	logger *zap.Logger
}

// New configures goose for the database driver and the embedded migrations.
func New(cfg config.Config, conns *database.Connections, logger *zap.Logger) (*Migrator, error) {
	if conns == nil {
		return nil, ErrDatabaseDisabled
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	dialect, err := gooseDialect(cfg.Database.Driver)
	if err != nil {
		return nil, err
	}
	if err := goose.SetDialect(dialect); err != nil {
		return nil, err
	}
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(gooseLogger{logger.Sugar().Named("goose")})

	return &Migrator{db: conns.Writer, logger: logger}, nil
}

// Up applies all pending migrations.
func (m *Migrator) Up(ctx context.Context) error {
	err := goose.UpContext(ctx, m.db.DB, migrations.Dir)
	if isNoMigrationErr(err) {
		m.logger.Info("order store schema already current")
		return nil
	}
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return m.logVersion(ctx, "migrations applied")
}

// Down rolls back steps migrations, at least one. all rolls back everything.
func (m *Migrator) Down(ctx context.Context, steps int, all bool) error {
	if all {
		err := goose.DownToContext(ctx, m.db.DB, migrations.Dir, 0)
		if err != nil && !isNoMigrationErr(err) {
			return fmt.Errorf("roll back migrations: %w", err)
		}
		return m.logVersion(ctx, "migrations rolled back")
	}

	for range max(steps, 1) {
		err := goose.DownContext(ctx, m.db.DB, migrations.Dir)
		if isNoMigrationErr(err) {
			break
		}
		if err != nil {
			return fmt.Errorf("roll back migration: %w", err)
		}
	}
	return m.logVersion(ctx, "migrations rolled back")
}

// Version returns the currently applied schema version.
func (m *Migrator) Version(ctx context.Context) (int64, error) {
	return goose.GetDBVersionContext(ctx, m.db.DB)
}

// Status logs the applied state of every embedded migration.
func (m *Migrator) Status(ctx context.Context) error {
	return goose.StatusContext(ctx, m.db.DB, migrations.Dir)
}

func (m *Migrator) logVersion(ctx context.Context, msg string) error {
	v, err := m.Version(ctx)
	if err != nil {
		return err
	}
	m.logger.Info(msg, zap.Int64("version", v))
	return nil
}

func gooseDialect(driver string) (string, error) {
	switch driver {
	case "postgres", "pg":
		return "postgres", nil
	case "mysql":
		return "mysql", nil
	case "sqlite", "sqlite3":
		return "sqlite3", nil
	default:
		return "", fmt.Errorf("unsupported goose dialect for driver %s", driver)
	}
}

func isNoMigrationErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, goose.ErrNoNextVersion) || errors.Is(err, goose.ErrNoMigrationFiles) {
		return true
	}
	return strings.Contains(err.Error(), "no migrations")
}

type gooseLogger struct {
	s *zap.SugaredLogger
}

func (g gooseLogger) Printf(format string, v ...any) {
	g.s.Infof(strings.TrimSuffix(format, "\n"), v...)
}

// Fatalf logs at error level and returns.
func (g gooseLogger) Fatalf(format string, v ...any) {
	g.s.Errorf(strings.TrimSuffix(format, "\n"), v...)
}
