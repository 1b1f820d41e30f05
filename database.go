package tidal

import (
	"context"
	stdsql "database/sql"
	"fmt"

	"github.com/syssam/tidal/dialect"
	"github.com/syssam/tidal/dialect/sql"
)

// Session is the execution surface shared by *Database and *Txn, so
// executors run unchanged inside and outside transactions, and against
// the mock backend.
type Session interface {
	dialect.ExecQuerier
	Dialect() string
}

// Database is a handle over a dialect.Driver: the entry point for
// executing statements, starting transactions and paginating queries.
type Database struct {
	drv   dialect.Driver
	stats *sql.StatsDriver // non-nil when statistics collection is enabled
}

// NewDatabase wraps an already-open driver (live or mock).
func NewDatabase(drv dialect.Driver) *Database {
	return &Database{drv: drv}
}

// Connect opens a connection pool for the given options, applies pool
// tuning, optional statistics and debug wrapping, and verifies the
// connection with a ping.
func Connect(ctx context.Context, opts ConnectOptions) (*Database, error) {
	name, err := opts.DialectName()
	if err != nil {
		return nil, err
	}
	dsn, err := opts.DSN()
	if err != nil {
		return nil, err
	}
	drv, err := sql.Open(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("tidal: open %s: %w", name, err)
	}
	pool := drv.DB()
	if opts.MaxOpenConns > 0 {
		pool.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		pool.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		pool.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}
	if opts.ConnMaxIdleTime > 0 {
		pool.SetConnMaxIdleTime(opts.ConnMaxIdleTime)
	}
	db := &Database{drv: drv}
	if opts.SlowThreshold > 0 {
		db.stats = sql.NewStatsDriver(drv,
			sql.WithSlowThreshold(opts.SlowThreshold),
			sql.WithSlowQueryLog(),
		)
		db.drv = db.stats
	}
	if opts.Debug {
		db.drv = sql.NewDebugDriver(db.drv)
	}
	if err := pool.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("tidal: ping %s: %w", name, err)
	}
	return db, nil
}

// Driver returns the underlying driver.
func (db *Database) Driver() dialect.Driver { return db.drv }

// Dialect returns the dialect name of the connection.
func (db *Database) Dialect() string { return db.drv.Dialect() }

// Stats returns the query statistics collector, or nil when statistics
// collection is not enabled.
func (db *Database) Stats() *sql.QueryStats {
	if db.stats == nil {
		return nil
	}
	return db.stats.QueryStats()
}

// Close closes the underlying driver.
func (db *Database) Close() error { return db.drv.Close() }

// Ping verifies the connection is alive. Drivers without a reachable
// *sql.DB (the mock) report success.
func (db *Database) Ping(ctx context.Context) error {
	type pooler interface{ DB() *stdsql.DB }
	if p, ok := db.drv.(pooler); ok {
		return p.DB().PingContext(ctx)
	}
	return nil
}

// Exec executes a statement that does not return rows. Driver errors
// are translated into the tidal taxonomy.
func (db *Database) Exec(ctx context.Context, query string, args, v any) error {
	return TranslateError(db.Dialect(), db.drv.Exec(ctx, query, args, v))
}

// Query executes a statement that returns rows. Driver errors are
// translated into the tidal taxonomy.
func (db *Database) Query(ctx context.Context, query string, args, v any) error {
	return TranslateError(db.Dialect(), db.drv.Query(ctx, query, args, v))
}

// ExecStatement executes a prebuilt statement and returns its result.
func (db *Database) ExecStatement(ctx context.Context, stmt sql.Statement) (stdsql.Result, error) {
	return execStatement(ctx, db, stmt)
}

// QueryStatement executes a prebuilt statement and returns the raw rows.
func (db *Database) QueryStatement(ctx context.Context, stmt sql.Statement) (*sql.Rows, error) {
	return queryStatement(ctx, db, stmt)
}

func execStatement(ctx context.Context, s Session, stmt sql.Statement) (stdsql.Result, error) {
	var res stdsql.Result
	if err := s.Exec(ctx, stmt.SQL, stmt.Args, &res); err != nil {
		return nil, err
	}
	return res, nil
}

func queryStatement(ctx context.Context, s Session, stmt sql.Statement) (*sql.Rows, error) {
	rows := &sql.Rows{}
	if err := s.Query(ctx, stmt.SQL, stmt.Args, rows); err != nil {
		return nil, err
	}
	return rows, nil
}

var (
	_ Session = (*Database)(nil)
	_ Session = (*Txn)(nil)
)
