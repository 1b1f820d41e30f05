package tidal

import (
	"context"

	"github.com/syssam/tidal/dialect/sql"
	"github.com/syssam/tidal/entity"
)

// FromQueryResult is implemented by typed models that hydrate
// themselves from a scanned row.
type FromQueryResult interface {
	FromQueryResult(row map[string]any) error
}

// SelectQuery builds and executes a SELECT over an entity.
type SelectQuery struct {
	ent entity.Entity
	sel *sql.Selector
}

// Select returns a SelectQuery over all columns of the entity.
func Select(e entity.Entity) *SelectQuery {
	return &SelectQuery{
		ent: e,
		sel: sql.Select(entity.ColumnNames(e)...).From(e.TableName()),
	}
}

// Columns narrows the selection to the given columns.
func (q *SelectQuery) Columns(columns ...string) *SelectQuery {
	q.sel.Select(columns...)
	return q
}

// Distinct marks the selection as DISTINCT.
func (q *SelectQuery) Distinct() *SelectQuery {
	q.sel.Distinct()
	return q
}

// Where appends a predicate with AND.
func (q *SelectQuery) Where(ps ...*sql.Predicate) *SelectQuery {
	for _, p := range ps {
		q.sel.Where(p)
	}
	return q
}

// Join appends an INNER JOIN.
func (q *SelectQuery) Join(table string, on *sql.Predicate) *SelectQuery {
	q.sel.Join(table, on)
	return q
}

// LeftJoin appends a LEFT JOIN.
func (q *SelectQuery) LeftJoin(table string, on *sql.Predicate) *SelectQuery {
	q.sel.LeftJoin(table, on)
	return q
}

// GroupBy appends GROUP BY columns.
func (q *SelectQuery) GroupBy(columns ...string) *SelectQuery {
	q.sel.GroupBy(columns...)
	return q
}

// Having sets the HAVING predicate.
func (q *SelectQuery) Having(p *sql.Predicate) *SelectQuery {
	q.sel.Having(p)
	return q
}

// OrderBy appends ORDER BY terms.
func (q *SelectQuery) OrderBy(terms ...sql.OrderTerm) *SelectQuery {
	q.sel.OrderBy(terms...)
	return q
}

// Limit sets the LIMIT clause.
func (q *SelectQuery) Limit(n int) *SelectQuery {
	q.sel.Limit(n)
	return q
}

// Offset sets the OFFSET clause.
func (q *SelectQuery) Offset(n int) *SelectQuery {
	q.sel.Offset(n)
	return q
}

// For sets the row locking mode.
func (q *SelectQuery) For(mode sql.LockMode) *SelectQuery {
	q.sel.For(mode)
	return q
}

// Entity returns the entity the query selects from.
func (q *SelectQuery) Entity() entity.Entity { return q.ent }

// Selector returns the underlying selector (used by the paginator).
func (q *SelectQuery) Selector() *sql.Selector { return q.sel }

// Clone returns a duplicate of the query.
func (q *SelectQuery) Clone() *SelectQuery {
	return &SelectQuery{ent: q.ent, sel: q.sel.Clone()}
}

// Statement renders the query for the given dialect.
func (q *SelectQuery) Statement(dialectName string) sql.Statement {
	return q.sel.Clone().SetDialect(dialectName).Statement()
}

// All executes the query and returns every row, normalized by the
// entity column types.
func (q *SelectQuery) All(ctx context.Context, s Session) ([]map[string]any, error) {
	rows, err := queryStatement(ctx, s, q.Statement(s.Dialect()))
	if err != nil {
		return nil, NewQueryError(q.ent.TableName(), "select", err)
	}
	defer rows.Close()
	out, err := scanAll(rows, q.ent)
	if err != nil {
		return nil, NewQueryError(q.ent.TableName(), "select", err)
	}
	return out, nil
}

// One executes the query with LIMIT 1 and returns the first row, or
// nil when the result is empty.
func (q *SelectQuery) One(ctx context.Context, s Session) (map[string]any, error) {
	rows, err := q.Clone().Limit(1).All(ctx, s)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// OneOrErr is like One but returns a NotFoundError on an empty result.
func (q *SelectQuery) OneOrErr(ctx context.Context, s Session) (map[string]any, error) {
	row, err := q.One(ctx, s)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, NewNotFoundError(q.ent.TableName())
	}
	return row, nil
}

// Only returns the single matching row. It returns a NotFoundError on
// an empty result and a NotSingularError when more than one row
// matches.
func (q *SelectQuery) Only(ctx context.Context, s Session) (map[string]any, error) {
	rows, err := q.Clone().Limit(2).All(ctx, s)
	if err != nil {
		return nil, err
	}
	switch len(rows) {
	case 0:
		return nil, NewNotFoundError(q.ent.TableName())
	case 1:
		return rows[0], nil
	default:
		return nil, NewNotSingularError(q.ent.TableName())
	}
}

// Count executes SELECT COUNT(*) over the query. The base query is
// counted as a subquery so ORDER BY and LIMIT do not skew the result.
func (q *SelectQuery) Count(ctx context.Context, s Session) (int64, error) {
	stmt := q.sel.CountSelector().SetDialect(s.Dialect()).Statement()
	rows, err := queryStatement(ctx, s, stmt)
	if err != nil {
		return 0, NewQueryError(q.ent.TableName(), "count", err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return 0, NewQueryError(q.ent.TableName(), "count", err)
		}
		return 0, nil
	}
	var n int64
	if err := rows.Scan(&n); err != nil {
		return 0, NewQueryError(q.ent.TableName(), "count", err)
	}
	return n, rows.Err()
}

// Exist reports whether the query matches at least one row.
func (q *SelectQuery) Exist(ctx context.Context, s Session) (bool, error) {
	stmt := q.sel.ExistsSelector().SetDialect(s.Dialect()).Statement()
	rows, err := queryStatement(ctx, s, stmt)
	if err != nil {
		return false, NewQueryError(q.ent.TableName(), "exist", err)
	}
	defer rows.Close()
	if !rows.Next() {
		return false, rows.Err()
	}
	var exists bool
	if err := rows.Scan(&exists); err != nil {
		return false, NewQueryError(q.ent.TableName(), "exist", err)
	}
	return exists, rows.Err()
}

// Rows executes the query and returns a row iterator. The caller must
// Close it.
func (q *SelectQuery) Rows(ctx context.Context, s Session) (*RowIter, error) {
	rows, err := queryStatement(ctx, s, q.Statement(s.Dialect()))
	if err != nil {
		return nil, NewQueryError(q.ent.TableName(), "select", err)
	}
	cols, err := rows.Columns()
	if err != nil {
		_ = rows.Close()
		return nil, NewQueryError(q.ent.TableName(), "select", err)
	}
	return &RowIter{rows: rows, cols: cols, ent: q.ent}, nil
}

// RowIter iterates over a streamed result set row by row.
type RowIter struct {
	rows *sql.Rows
	cols []string
	ent  entity.Entity
	cur  map[string]any
	err  error
}

// Next advances to the next row. It returns false when the rows are
// exhausted or an error occurred; check Err after the loop.
func (it *RowIter) Next() bool {
	if it.err != nil || !it.rows.Next() {
		return false
	}
	row, err := scanRow(it.rows, it.cols, it.ent)
	if err != nil {
		it.err = err
		return false
	}
	it.cur = row
	return true
}

// Row returns the current row.
func (it *RowIter) Row() map[string]any { return it.cur }

// Err returns the first error encountered during iteration.
func (it *RowIter) Err() error {
	if it.err != nil {
		return it.err
	}
	return it.rows.Err()
}

// Close releases the underlying rows.
func (it *RowIter) Close() error { return it.rows.Close() }

// AllInto executes the query and hydrates one model per row.
func AllInto[T any, PT interface {
	*T
	FromQueryResult
}](ctx context.Context, s Session, q *SelectQuery) ([]*T, error) {
	rows, err := q.All(ctx, s)
	if err != nil {
		return nil, err
	}
	out := make([]*T, 0, len(rows))
	for _, row := range rows {
		m := PT(new(T))
		if err := m.FromQueryResult(row); err != nil {
			return nil, NewQueryError(q.ent.TableName(), "select", err)
		}
		out = append(out, (*T)(m))
	}
	return out, nil
}

// OneInto executes the query and hydrates the first row into a model.
// It returns (nil, nil) on an empty result.
func OneInto[T any, PT interface {
	*T
	FromQueryResult
}](ctx context.Context, s Session, q *SelectQuery) (*T, error) {
	row, err := q.One(ctx, s)
	if err != nil || row == nil {
		return nil, err
	}
	m := PT(new(T))
	if err := m.FromQueryResult(row); err != nil {
		return nil, NewQueryError(q.ent.TableName(), "select", err)
	}
	return (*T)(m), nil
}

// SelectStatement executes a prebuilt statement and returns the rows
// as maps, without entity type normalization.
func SelectStatement(ctx context.Context, s Session, stmt sql.Statement) ([]map[string]any, error) {
	rows, err := queryStatement(ctx, s, stmt)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAll(rows, nil)
}

// scanAll drains the rows into maps, normalizing values by the entity
// column types when an entity is given.
func scanAll(rows *sql.Rows, e entity.Entity) ([]map[string]any, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []map[string]any
	for rows.Next() {
		row, err := scanRow(rows, cols, e)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func scanRow(rows sql.ColumnScanner, cols []string, e entity.Entity) (map[string]any, error) {
	dest := make([]any, len(cols))
	for i := range dest {
		dest[i] = new(any)
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, err
	}
	row := make(map[string]any, len(cols))
	for i, col := range cols {
		v := *(dest[i].(*any))
		if e != nil {
			if def, err := entity.ColumnByName(e, col); err == nil {
				cv, err := def.Type.ConvertValue(v)
				if err != nil {
					return nil, err
				}
				v = cv
			}
		}
		row[col] = v
	}
	return row, nil
}
