// Package postgres provides PostgreSQL database utilities.
package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"

	"github.com/prn-tf/monedero/internal/config"
	"github.com/prn-tf/monedero/internal/domain"
	"github.com/prn-tf/monedero/internal/repository"
	"github.com/prn-tf/monedero/internal/repository/migrate"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DefaultAcquireTimeout bounds the wait for a pooled connection when none is configured.
const DefaultAcquireTimeout = 5 * time.Second

type txKey struct{}

// DB wraps a pgx connection pool with additional functionality.
type DB struct {
	Pool           *pgxpool.Pool
	logger         zerolog.Logger
	acquireTimeout time.Duration
}

// NewDB creates a new database connection pool.
func NewDB(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	// Configure pool settings
	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = cfg.ConnMaxIdleTime

	// Configure connection settings
	poolConfig.ConnConfig.ConnectTimeout = 10 * time.Second

	// Add query tracer for debugging (optional)
	if logger.GetLevel() <= zerolog.DebugLevel {
		poolConfig.ConnConfig.Tracer = &queryTracer{logger: logger}
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	acquireTimeout := cfg.AcquireTimeout
	if acquireTimeout <= 0 {
		acquireTimeout = DefaultAcquireTimeout
	}

	logger.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Database).
		Int("max_conns", cfg.MaxOpenConns).
		Dur("acquire_timeout", acquireTimeout).
		Msg("connected to PostgreSQL")

	return &DB{
		Pool:           pool,
		logger:         logger,
		acquireTimeout: acquireTimeout,
	}, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	db.Pool.Close()
	db.logger.Info().Msg("database connection pool closed")
	return nil
}

// Health runs a round trip on a pooled connection. It fails when no
// connection frees up within the acquire timeout.
func (db *DB) Health(ctx context.Context) error {
	var one int
	if err := db.queryRow(ctx, "SELECT 1", nil, &one); err != nil {
		return fmt.Errorf("postgres health check failed: %w", err)
	}
	return nil
}

// acquire takes a connection from the pool, waiting at most acquireTimeout.
func (db *DB) acquire(ctx context.Context) (*pgxpool.Conn, error) {
	actx, cancel := context.WithTimeout(ctx, db.acquireTimeout)
	defer cancel()

	conn, err := db.Pool.Acquire(actx)
	if err != nil {
		if ctx.Err() == nil && errors.Is(actx.Err(), context.DeadlineExceeded) {
			return nil, repository.ErrPoolTimeout
		}
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	return conn, nil
}

// WithTx executes a function within a transaction.
// If the function returns an error, the transaction is rolled back.
// Otherwise, the transaction is committed. Nested calls join the outer transaction.
func (db *DB) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}

	conn, err := db.acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("tx error: %v, rollback error: %w", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Querier is an interface that pgxpool.Conn and pgx.Tx implement.
// This allows repositories to work with both.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Ensure both Conn and Tx implement Querier
var (
	_ Querier = (*pgxpool.Conn)(nil)
	_ Querier = (pgx.Tx)(nil)
)

// with runs fn on the transaction carried by ctx, or on a pooled connection.
func (db *DB) with(ctx context.Context, fn func(q Querier) error) error {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(tx)
	}
	conn, err := db.acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()
	return fn(conn)
}

// exec runs a statement and returns its command tag.
func (db *DB) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	var tag pgconn.CommandTag
	err := db.with(ctx, func(q Querier) error {
		var err error
		tag, err = q.Exec(ctx, sql, encodeArgs(args)...)
		return err
	})
	return tag, err
}

// queryRow runs a single-row query and scans it into dest.
func (db *DB) queryRow(ctx context.Context, sql string, args []any, dest ...any) error {
	return db.with(ctx, func(q Querier) error {
		return q.QueryRow(ctx, sql, encodeArgs(args)...).Scan(dest...)
	})
}

// query runs a query and calls each for every row.
func (db *DB) query(ctx context.Context, sql string, args []any, each func(rows pgx.Rows) error) error {
	return db.with(ctx, func(q Querier) error {
		rows, err := q.Query(ctx, sql, encodeArgs(args)...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			if err := each(rows); err != nil {
				return err
			}
		}
		return rows.Err()
	})
}

// encodeArgs converts calendar days to time.Time, which pgx binds to DATE columns.
func encodeArgs(args []any) []any {
	out := make([]any, len(args))
	for i, a := range args {
		switch v := a.(type) {
		case domain.Date:
			out[i] = v.Time
		case *domain.Date:
			if v == nil {
				out[i] = nil
			} else {
				out[i] = v.Time
			}
		default:
			out[i] = a
		}
	}
	return out
}

// Migrator returns a goose migrator over the embedded PostgreSQL schema.
// Goose drives database/sql, so the pool is exposed through the pgx stdlib adapter.
func (db *DB) Migrator() (*migrate.Migrator, error) {
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	return migrate.New(stdlib.OpenDBFromPool(db.Pool), goose.DialectPostgres, sub, db.logger)
}

// Open connects to PostgreSQL and assembles the repositories.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*repository.Store, error) {
	db, err := NewDB(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	migrator, err := db.Migrator()
	if err != nil {
		db.Close()
		return nil, err
	}
	return &repository.Store{
		Repos:    NewRepositories(db),
		Database: db,
		Migrator: migrator,
	}, nil
}

// NewRepositories creates every repository on db.
func NewRepositories(db *DB) *repository.Repositories {
	return &repository.Repositories{
		Users:      NewUserRepository(db),
		Accounts:   NewOwnedRepository(db, repository.Accounts),
		Categories: NewOwnedRepository(db, repository.Categories),
		Records:    NewRecordRepository(db),
		Budgets:    NewOwnedRepository(db, repository.Budgets),
		Recurring:  NewRecurringRepository(db),
		Debts:      NewOwnedRepository(db, repository.Debts),
		Goals:      NewOwnedRepository(db, repository.Goals),
		Tx:         db,
	}
}

// queryTracer implements pgx.QueryTracer for debug logging.
type queryTracer struct {
	logger zerolog.Logger
}

type traceQueryCtxKey struct{}

type traceQueryData struct {
	sql       string
	startTime time.Time
}

func (t *queryTracer) TraceQueryStart(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, traceQueryCtxKey{}, &traceQueryData{
		sql:       data.SQL,
		startTime: time.Now(),
	})
}

func (t *queryTracer) TraceQueryEnd(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryEndData) {
	queryData, ok := ctx.Value(traceQueryCtxKey{}).(*traceQueryData)
	if !ok {
		return
	}

	// Arguments are not logged; they include password hashes.
	event := t.logger.Debug().
		Str("sql", queryData.sql).
		Dur("duration", time.Since(queryData.startTime)).
		Str("command_tag", data.CommandTag.String())

	if data.Err != nil {
		event.Err(data.Err)
	}

	event.Msg("query executed")
}
