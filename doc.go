// Package tidal is a SQL data access toolkit for MySQL, Postgres and
// SQLite. It combines dialect-aware statement builders with an executor
// pipeline, mutation-tracked models, savepoint-backed nested
// transactions and offset/cursor pagination.
//
// A Database wraps a driver and executes queries built from entities:
//
//	db, err := tidal.Connect(ctx, tidal.ConnectOptions{URL: "postgres://app@db/orders"})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer db.Close()
//
//	rows, err := tidal.Select(orderSchema).
//		Where(sql.EQ("status", "open")).
//		OrderBy(sql.Desc("created_at")).
//		All(ctx, db)
//
// Writes go through ActiveModels, which track per-column mutation
// state so only assigned columns reach the statement:
//
//	order := entity.NewRecord(orderSchema).
//		Set("status", "open").
//		Set("total", total)
//	res, err := tidal.Insert(order).Exec(ctx, db)
//
// Transaction runs a closure atomically, and nesting transactions
// maps onto savepoints:
//
//	err := db.Transaction(ctx, func(tx *tidal.Txn) error {
//		if _, err := tidal.Insert(order).Exec(ctx, tx); err != nil {
//			return err
//		}
//		return tx.Transaction(ctx, func(inner *tidal.Txn) error {
//			_, err := tidal.Insert(line).Exec(ctx, inner)
//			return err
//		})
//	})
//
// The dialect/mock package provides an in-memory backend that records
// every executed statement into a transaction log, for testing code
// against the full pipeline without a database.
package tidal
