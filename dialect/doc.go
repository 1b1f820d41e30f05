// Package dialect provides database dialect abstraction for the Tidal
// execution layer.
//
// It defines the interfaces the executor pipeline is written against,
// allowing the same query code to run over MySQL, PostgreSQL and SQLite,
// or over the deterministic mock backend used in tests.
//
// # Dialect Constants
//
// Each supported backend is identified by a constant string matching the
// name its driver registers with database/sql:
//
//	dialect.MySQL    = "mysql"
//	dialect.Postgres = "postgres"
//	dialect.SQLite   = "sqlite"
//
// # Driver Interface
//
// Driver is the contract between the execution layer and a backend:
//
//	type Driver interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Query(ctx context.Context, query string, args, v any) error
//	    Tx(ctx context.Context) (Tx, error)
//	    Close() error
//	    Dialect() string
//	}
//
// The Tx interface carries the same Exec/Query pair plus Commit and
// Rollback, and ExecQuerier is the subset shared by both.
//
// # Implementations
//
//   - dialect/sql: pooled database/sql backend with statement builders
//   - dialect/mock: replay backend that records a transaction log and
//     returns pre-programmed results without executing anything
//
// # Usage
//
//	drv, err := sql.Open(dialect.Postgres, "postgres://...")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer drv.Close()
//	db := tidal.NewDatabase(drv)
package dialect
