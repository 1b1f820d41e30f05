package tidal

import (
	"context"

	"github.com/syssam/tidal/dialect/sql"
	"github.com/syssam/tidal/entity"
)

// DeleteQuery builds and executes a DELETE.
type DeleteQuery struct {
	ent   entity.Entity
	where *sql.Predicate
	err   error
}

// Delete returns a DeleteQuery for a single model, located by its
// primary key.
func Delete(am entity.ActiveModel) *DeleteQuery {
	q := &DeleteQuery{ent: am.Entity()}
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

// DeleteMany returns a DeleteQuery over the entity, scoped by Where.
// Without a Where it deletes every row.
func DeleteMany(e entity.Entity) *DeleteQuery {
	return &DeleteQuery{ent: e}
}

// Where appends a predicate with AND.
func (q *DeleteQuery) Where(ps ...*sql.Predicate) *DeleteQuery {
	for _, p := range ps {
		q.where = and(q.where, p)
	}
	return q
}

// Statement renders the delete for the given dialect.
func (q *DeleteQuery) Statement(dialectName string) (sql.Statement, error) {
	if q.err != nil {
		return sql.Statement{}, q.err
	}
	return sql.Delete(q.ent.TableName()).SetDialect(dialectName).Where(q.where).Statement(), nil
}

// Exec runs the delete and returns the number of deleted rows.
func (q *DeleteQuery) Exec(ctx context.Context, s Session) (int64, error) {
	stmt, err := q.Statement(s.Dialect())
	if err != nil {
		return 0, NewMutationError(q.ent.TableName(), "delete", err)
	}
	res, err := execStatement(ctx, s, stmt)
	if err != nil {
		return 0, NewMutationError(q.ent.TableName(), "delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, NewMutationError(q.ent.TableName(), "delete", err)
	}
	return n, nil
}
