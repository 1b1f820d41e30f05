// Package mock implements dialect.Driver as a deterministic test
// double. Nothing is ever executed: queries and execs pop
// pre-programmed results in FIFO order, and every issued statement is
// recorded into a transaction log that tests assert against. This is
// how SQL generation is verified without a live database.
//
//	drv := mock.New(dialect.Postgres)
//	drv.AppendQueryResults([]mock.Row{{"id": int64(1), "name": "Alice"}})
//	db := tidal.NewDatabase(drv)
//	// ... run queries ...
//	log := drv.TransactionLog()
package mock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/syssam/tidal/dialect"
	tsql "github.com/syssam/tidal/dialect/sql"
)

// Row is a single result row keyed by column name.
type Row map[string]any

// ExecResult is a programmed result for an exec statement.
type ExecResult struct {
	LastInsertID int64
	RowsAffected int64
}

// Transaction is one entry of the transaction log: the ordered
// statements issued within a single transaction. Statements executed
// outside an explicit transaction are recorded as one-statement
// transactions.
type Transaction struct {
	Statements []tsql.Statement
}

// Driver is a dialect.Driver that replays programmed results.
// It is safe for concurrent use.
type Driver struct {
	mu      sync.Mutex
	dialect string

	queryResults [][]Row
	queryErrs    []error
	execResults  []ExecResult
	execErrs     []error

	log  []Transaction
	open *Transaction // non-nil while an explicit transaction is running
}

// New returns a mock driver for the given dialect.
func New(d string) *Driver {
	return &Driver{dialect: d}
}

// Dialect implements the dialect.Driver method.
func (d *Driver) Dialect() string { return d.dialect }

// Close implements the dialect.Driver method.
func (d *Driver) Close() error { return nil }

// AppendQueryResults appends result sets to the query queue, one per
// expected query.
func (d *Driver) AppendQueryResults(resultSets ...[]Row) *Driver {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.queryResults = append(d.queryResults, resultSets...)
	return d
}

// AppendQueryErrors appends errors to be returned by upcoming queries.
// Errors are consumed before result sets.
func (d *Driver) AppendQueryErrors(errs ...error) *Driver {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.queryErrs = append(d.queryErrs, errs...)
	return d
}

// AppendExecResults appends results to the exec queue, one per expected
// exec statement.
func (d *Driver) AppendExecResults(results ...ExecResult) *Driver {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.execResults = append(d.execResults, results...)
	return d
}

// AppendExecErrors appends errors to be returned by upcoming execs.
// Errors are consumed before results.
func (d *Driver) AppendExecErrors(errs ...error) *Driver {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.execErrs = append(d.execErrs, errs...)
	return d
}

// TransactionLog returns the ordered log of recorded transactions.
func (d *Driver) TransactionLog() []Transaction {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Transaction, len(d.log))
	copy(out, d.log)
	return out
}

// Statements returns the flat list of all recorded statements, in
// issue order.
func (d *Driver) Statements() []tsql.Statement {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []tsql.Statement
	for _, t := range d.log {
		out = append(out, t.Statements...)
	}
	return out
}

// ExpectationsWereMet returns an error if programmed results remain
// unconsumed.
func (d *Driver) ExpectationsWereMet() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if n := len(d.queryResults) + len(d.queryErrs); n > 0 {
		return fmt.Errorf("mock: %d query expectation(s) not consumed", n)
	}
	if n := len(d.execResults) + len(d.execErrs); n > 0 {
		return fmt.Errorf("mock: %d exec expectation(s) not consumed", n)
	}
	if d.open != nil {
		return errors.New("mock: transaction left open")
	}
	return nil
}

// record appends a statement to the open transaction, or as a
// standalone one-statement transaction.
func (d *Driver) record(stmt tsql.Statement) {
	if d.open != nil {
		d.open.Statements = append(d.open.Statements, stmt)
		return
	}
	d.log = append(d.log, Transaction{Statements: []tsql.Statement{stmt}})
}

// isTxControl reports whether the statement only manipulates
// transaction state. Control statements are recorded in the log but do
// not consume programmed exec results, so tests only program results
// for the statements they care about.
func isTxControl(query string) bool {
	q := strings.ToUpper(strings.TrimSpace(query))
	for _, prefix := range []string{"SAVEPOINT ", "RELEASE SAVEPOINT ", "ROLLBACK TO SAVEPOINT "} {
		if strings.HasPrefix(q, prefix) {
			return true
		}
	}
	return false
}

// Exec implements the dialect.ExecQuerier method.
func (d *Driver) Exec(ctx context.Context, query string, args, v any) error {
	argv, ok := args.([]any)
	if !ok {
		return fmt.Errorf("mock: invalid type %T. expect []any for args", args)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record(tsql.NewStatement(d.dialect, query, argv...))
	if isTxControl(query) {
		return nil
	}
	if len(d.execErrs) > 0 {
		err := d.execErrs[0]
		d.execErrs = d.execErrs[1:]
		return err
	}
	if len(d.execResults) == 0 {
		return fmt.Errorf("mock: unexpected exec: %s", query)
	}
	res := d.execResults[0]
	d.execResults = d.execResults[1:]
	switch v := v.(type) {
	case nil:
	case *sql.Result:
		*v = result{res}
	default:
		return fmt.Errorf("mock: invalid type %T. expect *sql.Result", v)
	}
	return nil
}

// Query implements the dialect.ExecQuerier method.
func (d *Driver) Query(ctx context.Context, query string, args, v any) error {
	vr, ok := v.(*tsql.Rows)
	if !ok {
		return fmt.Errorf("mock: invalid type %T. expect *sql.Rows", v)
	}
	argv, ok := args.([]any)
	if !ok {
		return fmt.Errorf("mock: invalid type %T. expect []any for args", args)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record(tsql.NewStatement(d.dialect, query, argv...))
	if len(d.queryErrs) > 0 {
		err := d.queryErrs[0]
		d.queryErrs = d.queryErrs[1:]
		return err
	}
	if len(d.queryResults) == 0 {
		return fmt.Errorf("mock: unexpected query: %s", query)
	}
	rows := d.queryResults[0]
	d.queryResults = d.queryResults[1:]
	*vr = tsql.Rows{ColumnScanner: newRows(rows)}
	return nil
}

// Tx implements the dialect.Driver method. Only one explicit
// transaction may be open at a time; inner transactions go through
// savepoint statements on the same Tx, matching the live driver.
func (d *Driver) Tx(ctx context.Context) (dialect.Tx, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.open != nil {
		return nil, errors.New("mock: transaction already open")
	}
	d.open = &Transaction{}
	return &tx{drv: d}, nil
}

type tx struct {
	drv  *Driver
	done bool
}

func (t *tx) Exec(ctx context.Context, query string, args, v any) error {
	if t.done {
		return errors.New("mock: transaction has already been committed or rolled back")
	}
	return t.drv.Exec(ctx, query, args, v)
}

func (t *tx) Query(ctx context.Context, query string, args, v any) error {
	if t.done {
		return errors.New("mock: transaction has already been committed or rolled back")
	}
	return t.drv.Query(ctx, query, args, v)
}

func (t *tx) Commit() error   { return t.close() }
func (t *tx) Rollback() error { return t.close() }

func (t *tx) close() error {
	if t.done {
		return errors.New("mock: transaction has already been committed or rolled back")
	}
	t.done = true
	t.drv.mu.Lock()
	defer t.drv.mu.Unlock()
	if t.drv.open != nil {
		t.drv.log = append(t.drv.log, *t.drv.open)
		t.drv.open = nil
	}
	return nil
}

// result adapts ExecResult to database/sql.Result.
type result struct {
	r ExecResult
}

func (r result) LastInsertId() (int64, error) { return r.r.LastInsertID, nil }
func (r result) RowsAffected() (int64, error) { return r.r.RowsAffected, nil }

var _ dialect.Driver = (*Driver)(nil)
