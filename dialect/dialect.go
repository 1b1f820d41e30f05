package dialect

import (
	"context"
)

// Dialect names as registered with database/sql.
const (
	// MySQL is the mysql dialect (github.com/go-sql-driver/mysql).
	MySQL = "mysql"
	// Postgres is the postgres dialect (github.com/lib/pq).
	Postgres = "postgres"
	// SQLite is the sqlite dialect (modernc.org/sqlite).
	SQLite = "sqlite"
)

// ExecQuerier wraps the two basic database operations.
//
// The args parameter is expected to be a []any, and v depends on the
// operation: Exec accepts nil or *sql.Result, Query accepts *sql.Rows
// (the dialect/sql wrappers, not database/sql directly).
type ExecQuerier interface {
	// Exec executes a statement that does not return rows.
	Exec(ctx context.Context, query string, args, v any) error
	// Query executes a statement that returns rows.
	Query(ctx context.Context, query string, args, v any) error
}

// Driver is the minimal interface a database backend exposes to the
// execution layer. It is implemented by dialect/sql for live databases
// and by dialect/mock for deterministic tests.
type Driver interface {
	ExecQuerier
	// Tx starts and returns a new transaction.
	Tx(ctx context.Context) (Tx, error)
	// Close closes the underlying connection.
	Close() error
	// Dialect returns the dialect name of the driver.
	Dialect() string
}

// Tx wraps transaction operations around an ExecQuerier.
type Tx interface {
	ExecQuerier
	Commit() error
	Rollback() error
}

type nopTx struct {
	Driver
}

func (nopTx) Commit() error   { return nil }
func (nopTx) Rollback() error { return nil }

// NopTx returns a Tx with a no-op Commit/Rollback on top of the given driver.
// It is used when a caller requires transaction semantics the backend
// cannot provide.
func NopTx(d Driver) Tx {
	return nopTx{d}
}
