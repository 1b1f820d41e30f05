package tidal

import (
	"context"

	"github.com/syssam/tidal/dialect/sql"
	"github.com/syssam/tidal/entity"
)

// UpdateQuery builds and executes an UPDATE.
type UpdateQuery struct {
	ent          entity.Entity
	setCols      []string
	setVals      []any
	nulls        []string
	where        *sql.Predicate
	orderBy      []sql.OrderTerm
	limit        *int
	requireMatch bool
	err          error
}

// Update returns an UpdateQuery for a single model, located by its
// primary key. Only columns in the Set state are written. Executing an
// update that matches no row fails with ErrNoRecordsUpdated.
func Update(am entity.ActiveModel) *UpdateQuery {
	q := &UpdateQuery{ent: am.Entity(), requireMatch: true}
	pk := make(map[string]bool)
	for _, col := range q.ent.PrimaryKey() {
		pk[col] = true
	}
	// Primary key columns locate the row and are never assigned, even
	// when they carry the Set state.
	cols, vals := entity.SetColumns(am)
	for i, col := range cols {
		if pk[col] {
			continue
		}
		q.setCols = append(q.setCols, col)
		q.setVals = append(q.setVals, vals[i])
	}
	pkCols, pkVals, err := entity.PrimaryKeyValues(am)
	if err != nil {
		q.err = err
		return q
	}
	for i, col := range pkCols {
		q.where = and(q.where, sql.EQ(col, pkVals[i]))
	}
	return q
}

// UpdateMany returns an UpdateQuery over the entity, scoped by Where.
func UpdateMany(e entity.Entity) *UpdateQuery {
	return &UpdateQuery{ent: e}
}

// Set assigns a value to a column.
func (q *UpdateQuery) Set(column string, v any) *UpdateQuery {
	q.setCols = append(q.setCols, column)
	q.setVals = append(q.setVals, v)
	return q
}

// SetNull assigns NULL to a column.
func (q *UpdateQuery) SetNull(column string) *UpdateQuery {
	q.nulls = append(q.nulls, column)
	return q
}

// Where appends a predicate with AND.
func (q *UpdateQuery) Where(ps ...*sql.Predicate) *UpdateQuery {
	for _, p := range ps {
		q.where = and(q.where, p)
	}
	return q
}

// OrderBy appends order terms. Only rendered on MySQL.
func (q *UpdateQuery) OrderBy(terms ...sql.OrderTerm) *UpdateQuery {
	q.orderBy = append(q.orderBy, terms...)
	return q
}

// Limit caps the number of updated rows. Only rendered on MySQL.
func (q *UpdateQuery) Limit(n int) *UpdateQuery {
	q.limit = &n
	return q
}

// Statement renders the update for the given dialect.
func (q *UpdateQuery) Statement(dialectName string) (sql.Statement, error) {
	if q.err != nil {
		return sql.Statement{}, q.err
	}
	b := sql.Update(q.ent.TableName()).SetDialect(dialectName)
	for i, col := range q.setCols {
		b.Set(col, q.setVals[i])
	}
	for _, col := range q.nulls {
		b.SetNull(col)
	}
	b.Where(q.where)
	b.OrderBy(q.orderBy...)
	if q.limit != nil {
		b.Limit(*q.limit)
	}
	return b.Statement(), nil
}

// Exec runs the update and returns the number of affected rows. An
// update with no assignments is a no-op.
func (q *UpdateQuery) Exec(ctx context.Context, s Session) (int64, error) {
	if q.err != nil {
		return 0, NewMutationError(q.ent.TableName(), "update", q.err)
	}
	if len(q.setCols) == 0 && len(q.nulls) == 0 {
		return 0, nil
	}
	stmt, err := q.Statement(s.Dialect())
	if err != nil {
		return 0, NewMutationError(q.ent.TableName(), "update", err)
	}
	res, err := execStatement(ctx, s, stmt)
	if err != nil {
		return 0, NewMutationError(q.ent.TableName(), "update", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, NewMutationError(q.ent.TableName(), "update", err)
	}
	if n == 0 && q.requireMatch {
		return 0, ErrNoRecordsUpdated
	}
	return n, nil
}

func and(p, q *sql.Predicate) *sql.Predicate {
	if p == nil {
		return q
	}
	if q == nil {
		return p
	}
	return sql.And(p, q)
}
