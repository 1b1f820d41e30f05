package tidal

import (
	"context"
	stdsql "database/sql"
	"fmt"

	"github.com/syssam/tidal/dialect"
)

// TxOption configures a transaction.
type TxOption func(*stdsql.TxOptions)

// WithIsolation sets the transaction isolation level.
func WithIsolation(level stdsql.IsolationLevel) TxOption {
	return func(o *stdsql.TxOptions) {
		o.Isolation = level
	}
}

// WithReadOnly marks the transaction read-only.
func WithReadOnly(readOnly bool) TxOption {
	return func(o *stdsql.TxOptions) {
		o.ReadOnly = readOnly
	}
}

// beginner is implemented by drivers that accept transaction options.
type beginner interface {
	BeginTx(ctx context.Context, opts *stdsql.TxOptions) (dialect.Tx, error)
}

// Txn is an open transaction. Nested Begin calls are emulated with
// savepoints on the same underlying transaction, so an inner rollback
// undoes only the inner work.
type Txn struct {
	tx          dialect.Tx
	dialectName string
	depth       int  // 0 for the top-level transaction
	spSeq       *int // shared savepoint counter
	spName      string
	done        bool
}

// Begin starts a transaction.
func (db *Database) Begin(ctx context.Context, opts ...TxOption) (*Txn, error) {
	var txOpts *stdsql.TxOptions
	if len(opts) > 0 {
		txOpts = &stdsql.TxOptions{}
		for _, opt := range opts {
			opt(txOpts)
		}
	}
	var (
		tx  dialect.Tx
		err error
	)
	if b, ok := db.drv.(beginner); ok && txOpts != nil {
		tx, err = b.BeginTx(ctx, txOpts)
	} else {
		tx, err = db.drv.Tx(ctx)
	}
	if err != nil {
		return nil, TranslateError(db.Dialect(), err)
	}
	seq := 0
	return &Txn{tx: tx, dialectName: db.Dialect(), spSeq: &seq}, nil
}

// Begin starts a nested transaction backed by a savepoint.
func (t *Txn) Begin(ctx context.Context) (*Txn, error) {
	if t.done {
		return nil, ErrTxDone
	}
	*t.spSeq++
	name := fmt.Sprintf("tidal_sp_%d", *t.spSeq)
	if err := t.Exec(ctx, "SAVEPOINT "+name, []any{}, nil); err != nil {
		return nil, err
	}
	return &Txn{
		tx:          t.tx,
		dialectName: t.dialectName,
		depth:       t.depth + 1,
		spSeq:       t.spSeq,
		spName:      name,
	}, nil
}

// Dialect implements the Session interface.
func (t *Txn) Dialect() string { return t.dialectName }

// Exec executes a statement inside the transaction.
func (t *Txn) Exec(ctx context.Context, query string, args, v any) error {
	if t.done {
		return ErrTxDone
	}
	return TranslateError(t.dialectName, t.tx.Exec(ctx, query, args, v))
}

// Query executes a query inside the transaction.
func (t *Txn) Query(ctx context.Context, query string, args, v any) error {
	if t.done {
		return ErrTxDone
	}
	return TranslateError(t.dialectName, t.tx.Query(ctx, query, args, v))
}

// Commit commits the transaction. For a nested transaction the
// savepoint is released into the parent; the work becomes permanent
// only when the top-level transaction commits.
func (t *Txn) Commit() error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	if t.depth > 0 {
		return TranslateError(t.dialectName,
			t.tx.Exec(context.Background(), "RELEASE SAVEPOINT "+t.spName, []any{}, nil))
	}
	return TranslateError(t.dialectName, t.tx.Commit())
}

// Rollback rolls back the transaction. For a nested transaction only
// the work since its savepoint is undone.
func (t *Txn) Rollback() error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	if t.depth > 0 {
		return TranslateError(t.dialectName,
			t.tx.Exec(context.Background(), "ROLLBACK TO SAVEPOINT "+t.spName, []any{}, nil))
	}
	return TranslateError(t.dialectName, t.tx.Rollback())
}

// Transaction executes fn within a transaction.
// If fn returns nil the transaction is committed.
// If fn returns an error or panics the transaction is rolled back.
func (db *Database) Transaction(ctx context.Context, fn func(*Txn) error, opts ...TxOption) (err error) {
	tx, err := db.Begin(ctx, opts...)
	if err != nil {
		return err
	}
	return runInTxn(tx, fn)
}

// Transaction executes fn within a nested transaction (savepoint).
func (t *Txn) Transaction(ctx context.Context, fn func(*Txn) error) error {
	inner, err := t.Begin(ctx)
	if err != nil {
		return err
	}
	return runInTxn(inner, fn)
}

func runInTxn(tx *Txn, fn func(*Txn) error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil && !tx.done {
			if rerr := tx.Rollback(); rerr != nil {
				err = NewAggregateError(err, &RollbackError{Err: rerr})
			}
		}
	}()
	err = fn(tx)
	if err != nil {
		return err
	}
	return tx.Commit()
}
