package tidal

import (
	"context"
	"fmt"

	"github.com/syssam/tidal/dialect"
	"github.com/syssam/tidal/dialect/sql"
	"github.com/syssam/tidal/entity"
)

// InsertResult reports the outcome of an insert.
type InsertResult struct {
	// LastInsertID is the generated key of the last inserted row, when
	// the entity has an auto-increment column. Zero otherwise.
	LastInsertID int64
	// RowsAffected is the number of rows written.
	RowsAffected int64
}

// InsertQuery builds and executes an INSERT for one or more models.
type InsertQuery struct {
	ent      entity.Entity
	models   []entity.ActiveModel
	conflict func(*sql.InsertBuilder)
}

// Insert returns an InsertQuery for a single model. Only columns in the
// Set state are written; the rest take their database defaults.
func Insert(am entity.ActiveModel) *InsertQuery {
	return &InsertQuery{ent: am.Entity(), models: []entity.ActiveModel{am}}
}

// InsertMany returns a multi-row InsertQuery. All models must belong to
// the given entity.
func InsertMany(e entity.Entity, models ...entity.ActiveModel) *InsertQuery {
	return &InsertQuery{ent: e, models: models}
}

// OnConflictDoNothing makes conflicting rows a no-op instead of an
// error.
func (q *InsertQuery) OnConflictDoNothing() *InsertQuery {
	q.conflict = func(b *sql.InsertBuilder) { b.OnConflictDoNothing() }
	return q
}

// OnConflictUpdate turns the insert into an upsert: when the target
// columns conflict, the given columns are updated with the incoming
// values.
func (q *InsertQuery) OnConflictUpdate(targets []string, updates ...string) *InsertQuery {
	q.conflict = func(b *sql.InsertBuilder) { b.OnConflictUpdate(targets, updates...) }
	return q
}

// Statement renders the insert for the given dialect.
func (q *InsertQuery) Statement(dialectName string) (sql.Statement, error) {
	b, _, err := q.build(dialectName)
	if err != nil {
		return sql.Statement{}, err
	}
	return b.Statement(), nil
}

// build assembles the insert builder and reports whether a RETURNING
// clause was added for the generated key.
func (q *InsertQuery) build(dialectName string) (*sql.InsertBuilder, bool, error) {
	if len(q.models) == 0 {
		return nil, false, fmt.Errorf("insert into %s: no models", q.ent.TableName())
	}
	// The written columns are the union of the Set columns across all
	// models, in entity column order. Models missing one of them fall
	// back to the column default.
	set := make(map[string]bool)
	for _, m := range q.models {
		cols, _ := entity.SetColumns(m)
		for _, c := range cols {
			set[c] = true
		}
	}
	var cols []string
	for _, c := range q.ent.Columns() {
		if set[c.Name] {
			cols = append(cols, c.Name)
		}
	}
	b := sql.Insert(q.ent.TableName()).SetDialect(dialectName)
	if len(cols) == 0 {
		b.Default()
	} else {
		b.Columns(cols...)
		for _, m := range q.models {
			row := make([]any, len(cols))
			for i, col := range cols {
				v, state := m.Get(col)
				if state != entity.StateSet {
					def, _ := entity.ColumnByName(q.ent, col)
					v = def.Default
				}
				row[i] = v
			}
			b.Values(row...)
		}
	}
	if q.conflict != nil {
		q.conflict(b)
	}
	returning := false
	if ai, ok := entity.AutoIncrementColumn(q.ent); ok && dialectName != dialect.MySQL {
		// Postgres has no LastInsertId; RETURNING covers it there and
		// on SQLite alike.
		b.Returning(ai.Name)
		returning = true
	}
	return b, returning, nil
}

// Exec runs the insert and returns the generated key and affected row
// count.
func (q *InsertQuery) Exec(ctx context.Context, s Session) (*InsertResult, error) {
	if len(q.models) == 0 {
		return &InsertResult{}, nil
	}
	b, returning, err := q.build(s.Dialect())
	if err != nil {
		return nil, NewMutationError(q.ent.TableName(), "insert", err)
	}
	stmt := b.Statement()
	if returning {
		return q.execReturning(ctx, s, stmt)
	}
	res, err := execStatement(ctx, s, stmt)
	if err != nil {
		return nil, NewMutationError(q.ent.TableName(), "insert", err)
	}
	out := &InsertResult{}
	if _, ok := entity.AutoIncrementColumn(q.ent); ok {
		if id, err := res.LastInsertId(); err == nil {
			out.LastInsertID = id
		}
	}
	if n, err := res.RowsAffected(); err == nil {
		out.RowsAffected = n
	}
	return out, nil
}

// execReturning drains the RETURNING rows and keeps the last generated
// key, matching LastInsertId semantics on the other dialects.
func (q *InsertQuery) execReturning(ctx context.Context, s Session, stmt sql.Statement) (*InsertResult, error) {
	rows, err := queryStatement(ctx, s, stmt)
	if err != nil {
		return nil, NewMutationError(q.ent.TableName(), "insert", err)
	}
	defer rows.Close()
	out := &InsertResult{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, NewMutationError(q.ent.TableName(), "insert", err)
		}
		out.LastInsertID = id
		out.RowsAffected++
	}
	if err := rows.Err(); err != nil {
		return nil, NewMutationError(q.ent.TableName(), "insert", err)
	}
	return out, nil
}
