package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/schema"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/atelier/internal/config"
)

const pingTimeout = 5 * time.Second

// Connections holds the pools backing the remote order store. Reader is
// the same pool as Writer unless DB_READER_DSN points elsewhere.
type Connections struct {
	Writer *bun.DB
	Reader *bun.DB
}

// Module registers the database connections with Fx.
var Module = fx.Provide(New)

// New opens the writer and reader pools. With DB_ENABLED=false it returns
// nil, and every consumer treats the remote order store as absent.
func New(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*Connections, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db := cfg.Database
	if !db.Enabled {
		logger.Info("database disabled; orders are kept in local storage only")
		return nil, nil
	}

	dialect, err := selectDialect(db.Driver)
	if err != nil {
		return nil, err
	}

	writer, err := open(db, db.WriterDSN, dialect, logger.Named("db.writer"))
	if err != nil {
		return nil, fmt.Errorf("open writer: %w", err)
	}
	conns := &Connections{Writer: writer, Reader: writer}
	if db.ReaderDSN != db.WriterDSN {
		if conns.Reader, err = open(db, db.ReaderDSN, dialect, logger.Named("db.reader")); err != nil {
			_ = writer.Close()
			return nil, fmt.Errorf("open reader: %w", err)
		}
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			for role, pool := range conns.pools() {
				if err := ping(ctx, pool); err != nil {
					return fmt.Errorf("ping %s: %w", role, err)
				}
			}
			logger.Info("order store connected",
				zap.String("driver", db.Driver),
				zap.Bool("split_reader", conns.Reader != conns.Writer),
			)
			return nil
		},
		OnStop: func(context.Context) error {
			var errs []error
			for role, pool := range conns.pools() {
				if err := pool.Close(); err != nil {
					errs = append(errs, fmt.Errorf("close %s: %w", role, err))
				}
			}
			return errors.Join(errs...)
		},
	})

	return conns, nil
}

func (c *Connections) pools() map[string]*bun.DB {
	if c.Reader == c.Writer {
		return map[string]*bun.DB{"writer": c.Writer}
	}
	return map[string]*bun.DB{"writer": c.Writer, "reader": c.Reader}
}

func open(cfg config.Database, dsn string, dialect schema.Dialect, logger *zap.Logger) (*bun.DB, error) {
	sqldb, err := openSQLDB(cfg.Driver, dsn)
	if err != nil {
		return nil, err
	}
	applyPoolSettings(sqldb, cfg, dsn)
	db := bun.NewDB(sqldb, dialect)
	db.AddQueryHook(NewSlowQueryHook(logger, cfg.SlowQuery))
	return db, nil
}

func selectDialect(driver string) (schema.Dialect, error) {
	switch driver {
	case "postgres":
		return pgdialect.New(), nil
	case "mysql":
		return mysqldialect.New(), nil
	case "sqlite":
		return sqlitedialect.New(), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
}

func openSQLDB(driver, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, errors.New("empty DSN")
	}
	switch driver {
	case "postgres":
		return sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn))), nil
	case "mysql":
		return sql.Open("mysql", dsn)
	case "sqlite":
		return sql.Open("sqlite3", dsn)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}
}

func applyPoolSettings(db *sql.DB, cfg config.Database, dsn string) {
	// Every connection to an in-memory sqlite database gets its own empty
	// database.
	if cfg.Driver == "sqlite" && strings.Contains(dsn, ":memory:") {
		db.SetMaxOpenConns(1)
		return
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxConnLifetime > 0 {
		db.SetConnMaxLifetime(cfg.MaxConnLifetime)
	}
}

func ping(ctx context.Context, db *bun.DB) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return db.PingContext(ctx)
}
