package sql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/syssam/tidal/dialect"
)

// Querier is implemented by all statement builders and returns the
// rendered SQL string with its bound arguments.
type Querier interface {
	Query() (string, []any)
}

// Statement is a rendered, dialect-aware SQL unit: the string that will
// be sent to the driver together with its bound parameters. It is the
// exchange format between the builders, the executors and the mock
// transaction log.
type Statement struct {
	Dialect string
	SQL     string
	Args    []any
}

// NewStatement returns a Statement for the given dialect.
func NewStatement(dialect, sql string, args ...any) Statement {
	return Statement{Dialect: dialect, SQL: sql, Args: args}
}

// String returns a loggable representation of the statement.
func (s Statement) String() string {
	if len(s.Args) == 0 {
		return s.SQL
	}
	return fmt.Sprintf("%s %v", s.SQL, s.Args)
}

// Builder is the base query builder shared by all statement builders.
// It tracks the dialect, the rendered SQL and the collected arguments,
// and renders placeholders according to the dialect ("?" for MySQL and
// SQLite, "$n" for Postgres).
type Builder struct {
	sb      strings.Builder
	dialect string
	args    []any
	// argOffset shifts the placeholder numbering when this builder
	// renders a subquery of a statement that already collected args.
	argOffset int
	errs      []error
}

// SetDialect sets the builder dialect. The zero value renders MySQL
// style placeholders.
func (b *Builder) SetDialect(dialect string) { b.dialect = dialect }

// Dialect returns the builder dialect.
func (b *Builder) Dialect() string { return b.dialect }

// Quote quotes the given identifier with the char of the current
// dialect. Dotted identifiers (table.column) are quoted per part, and
// the "*" selector is passed through.
func (b *Builder) Quote(ident string) string {
	quote := `"`
	if b.dialect == dialect.MySQL {
		quote = "`"
	}
	if ident == "*" || strings.ContainsAny(ident, "(` \"") {
		// Already quoted, an expression, or a function call.
		return ident
	}
	parts := strings.Split(ident, ".")
	for i, p := range parts {
		if p != "*" {
			parts[i] = quote + p + quote
		}
	}
	return strings.Join(parts, ".")
}

// WriteString appends the given string to the rendered query.
func (b *Builder) WriteString(s string) *Builder {
	b.sb.WriteString(s)
	return b
}

// WriteByte appends the given byte to the rendered query.
func (b *Builder) WriteByte(c byte) *Builder {
	b.sb.WriteByte(c)
	return b
}

// Ident appends the quoted identifier to the rendered query.
func (b *Builder) Ident(s string) *Builder {
	return b.WriteString(b.Quote(s))
}

// IdentComma appends the given quoted identifiers separated by commas.
func (b *Builder) IdentComma(ss ...string) *Builder {
	for i, s := range ss {
		if i > 0 {
			b.WriteString(", ")
		}
		b.Ident(s)
	}
	return b
}

// Arg appends an argument placeholder to the query and collects the value.
func (b *Builder) Arg(v any) *Builder {
	b.args = append(b.args, v)
	if b.dialect == dialect.Postgres {
		b.WriteString("$" + strconv.Itoa(b.argOffset+len(b.args)))
	} else {
		b.WriteByte('?')
	}
	return b
}

// Args appends a comma separated list of argument placeholders.
func (b *Builder) Args(vs ...any) *Builder {
	for i, v := range vs {
		if i > 0 {
			b.WriteString(", ")
		}
		b.Arg(v)
	}
	return b
}

// AddError records an error that occurred while building the statement.
// The first recorded error is returned by Err.
func (b *Builder) AddError(err error) *Builder {
	b.errs = append(b.errs, err)
	return b
}

// Err returns the first error recorded while building the statement.
func (b *Builder) Err() error {
	if len(b.errs) > 0 {
		return b.errs[0]
	}
	return nil
}

// join renders the given querier into this builder, merging its
// arguments and continuing the placeholder numbering. Subqueries
// inherit the outer dialect.
func (b *Builder) join(q Querier) {
	switch q := q.(type) {
	case *Predicate:
		q.render(b)
	case *Selector:
		s := q.Clone()
		s.dialect = b.dialect
		query, args := s.queryOffset(b.argOffset + len(b.args))
		b.WriteString(query)
		b.args = append(b.args, args...)
	default:
		query, args := q.Query()
		b.WriteString(query)
		b.args = append(b.args, args...)
	}
}

// String returns the rendered SQL.
func (b *Builder) String() string { return b.sb.String() }

// DialectBuilder is the entry point for building statements bound to
// a specific dialect.
type DialectBuilder struct {
	dialect string
}

// Dialect returns a DialectBuilder for the given dialect name.
func Dialect(name string) *DialectBuilder {
	return &DialectBuilder{dialect: name}
}

// Select returns a Selector for the given columns.
func (d *DialectBuilder) Select(columns ...string) *Selector {
	s := Select(columns...)
	s.dialect = d.dialect
	return s
}

// Insert returns an InsertBuilder for the given table.
func (d *DialectBuilder) Insert(table string) *InsertBuilder {
	i := Insert(table)
	i.dialect = d.dialect
	return i
}

// Update returns an UpdateBuilder for the given table.
func (d *DialectBuilder) Update(table string) *UpdateBuilder {
	u := Update(table)
	u.dialect = d.dialect
	return u
}

// Delete returns a DeleteBuilder for the given table.
func (d *DialectBuilder) Delete(table string) *DeleteBuilder {
	del := Delete(table)
	del.dialect = d.dialect
	return del
}

// OrderTerm is a single ORDER BY term.
type OrderTerm struct {
	Column string
	Desc   bool
}

// Asc returns an ascending order term for the given column.
func Asc(column string) OrderTerm { return OrderTerm{Column: column} }

// Desc returns a descending order term for the given column.
func Desc(column string) OrderTerm { return OrderTerm{Column: column, Desc: true} }

type join struct {
	kind  string // "JOIN", "LEFT JOIN"
	table string
	on    *Predicate
}

// LockMode is the row locking clause appended to a SELECT.
type LockMode string

// Row locking modes. SQLite has no row locking clause; it is silently
// dropped there since the whole database locks on write.
const (
	LockNone      LockMode = ""
	LockForUpdate LockMode = "FOR UPDATE"
	LockForShare  LockMode = "FOR SHARE"
)

// Selector builds a SELECT statement.
type Selector struct {
	dialect  string
	columns  []string
	from     string
	joins    []join
	where    *Predicate
	groupBy  []string
	having   *Predicate
	orderBy  []OrderTerm
	limit    *int
	offset   *int
	distinct bool
	lock     LockMode
	sub      *Selector // subquery used as the FROM clause
	exists   bool      // render as SELECT EXISTS (sub)
}

// Select returns a Selector for the given columns. An empty column list
// renders "*".
func Select(columns ...string) *Selector {
	return &Selector{columns: columns}
}

// SetDialect sets the dialect the statement is rendered for.
func (s *Selector) SetDialect(dialect string) *Selector {
	s.dialect = dialect
	return s
}

// Dialect returns the selector dialect.
func (s *Selector) Dialect() string { return s.dialect }

// Select replaces the selected columns.
func (s *Selector) Select(columns ...string) *Selector {
	s.columns = columns
	return s
}

// SelectedColumns returns the currently selected columns.
func (s *Selector) SelectedColumns() []string { return s.columns }

// Distinct marks the selection as DISTINCT.
func (s *Selector) Distinct() *Selector {
	s.distinct = true
	return s
}

// From sets the FROM table.
func (s *Selector) From(table string) *Selector {
	s.from = table
	return s
}

// Table returns the FROM table.
func (s *Selector) Table() string { return s.from }

// Where appends the given predicate to the WHERE clause with AND.
func (s *Selector) Where(p *Predicate) *Selector {
	if p == nil {
		return s
	}
	if s.where == nil {
		s.where = p
	} else {
		s.where = And(s.where, p)
	}
	return s
}

// WherePredicate returns the accumulated WHERE predicate, or nil.
func (s *Selector) WherePredicate() *Predicate { return s.where }

// Join appends an INNER JOIN on the given predicate.
func (s *Selector) Join(table string, on *Predicate) *Selector {
	s.joins = append(s.joins, join{kind: "JOIN", table: table, on: on})
	return s
}

// LeftJoin appends a LEFT JOIN on the given predicate.
func (s *Selector) LeftJoin(table string, on *Predicate) *Selector {
	s.joins = append(s.joins, join{kind: "LEFT JOIN", table: table, on: on})
	return s
}

// GroupBy appends columns to the GROUP BY clause.
func (s *Selector) GroupBy(columns ...string) *Selector {
	s.groupBy = append(s.groupBy, columns...)
	return s
}

// Having sets the HAVING predicate.
func (s *Selector) Having(p *Predicate) *Selector {
	s.having = p
	return s
}

// OrderBy appends order terms to the ORDER BY clause.
func (s *Selector) OrderBy(terms ...OrderTerm) *Selector {
	s.orderBy = append(s.orderBy, terms...)
	return s
}

// OrderTerms returns the current ORDER BY terms.
func (s *Selector) OrderTerms() []OrderTerm { return s.orderBy }

// ClearOrder drops the ORDER BY clause.
func (s *Selector) ClearOrder() *Selector {
	s.orderBy = nil
	return s
}

// Limit sets the LIMIT clause.
func (s *Selector) Limit(n int) *Selector {
	s.limit = &n
	return s
}

// Offset sets the OFFSET clause.
func (s *Selector) Offset(n int) *Selector {
	s.offset = &n
	return s
}

// ClearLimitOffset drops the LIMIT and OFFSET clauses.
func (s *Selector) ClearLimitOffset() *Selector {
	s.limit, s.offset = nil, nil
	return s
}

// For sets the row locking mode of the selection.
func (s *Selector) For(mode LockMode) *Selector {
	s.lock = mode
	return s
}

// Clone returns a duplicate of the selector. Predicates are shared,
// slices are copied.
func (s *Selector) Clone() *Selector {
	if s == nil {
		return nil
	}
	c := *s
	c.columns = append([]string(nil), s.columns...)
	c.joins = append([]join(nil), s.joins...)
	c.groupBy = append([]string(nil), s.groupBy...)
	c.orderBy = append([]OrderTerm(nil), s.orderBy...)
	if s.limit != nil {
		v := *s.limit
		c.limit = &v
	}
	if s.offset != nil {
		v := *s.offset
		c.offset = &v
	}
	return &c
}

// CountSelector returns a SELECT COUNT(*) over this selection. The base
// query is wrapped as a subquery so ORDER BY, LIMIT and OFFSET on it do
// not skew the count.
func (s *Selector) CountSelector() *Selector {
	base := s.Clone()
	base.ClearOrder()
	base.ClearLimitOffset()
	base.lock = LockNone
	return &Selector{
		dialect: s.dialect,
		columns: []string{"COUNT(*)"},
		sub:     base,
	}
}

// ExistsSelector returns a SELECT EXISTS (...) over this selection.
// The ordering is dropped since it cannot change the outcome.
func (s *Selector) ExistsSelector() *Selector {
	base := s.Clone()
	base.ClearOrder()
	base.lock = LockNone
	return &Selector{
		dialect: s.dialect,
		sub:     base,
		exists:  true,
	}
}

// Query renders the statement and returns the SQL string and arguments.
func (s *Selector) Query() (string, []any) {
	return s.queryOffset(0)
}

// queryOffset renders the statement with its placeholder numbering
// shifted by the given amount of already-bound outer arguments.
func (s *Selector) queryOffset(offset int) (string, []any) {
	b := &Builder{dialect: s.dialect, argOffset: offset}
	if s.exists {
		b.WriteString("SELECT EXISTS (")
		b.join(s.sub)
		b.WriteByte(')')
		return b.String(), b.args
	}
	b.WriteString("SELECT ")
	if s.distinct {
		b.WriteString("DISTINCT ")
	}
	if len(s.columns) == 0 {
		b.WriteString("*")
	} else {
		for i, c := range s.columns {
			if i > 0 {
				b.WriteString(", ")
			}
			b.Ident(c)
		}
	}
	b.WriteString(" FROM ")
	switch {
	case s.sub != nil:
		b.WriteByte('(')
		b.join(s.sub)
		b.WriteString(") AS ")
		b.Ident("count_sub")
	default:
		b.Ident(s.from)
	}
	for _, j := range s.joins {
		b.WriteByte(' ')
		b.WriteString(j.kind)
		b.WriteByte(' ')
		b.Ident(j.table)
		if j.on != nil {
			b.WriteString(" ON ")
			j.on.render(b)
		}
	}
	if s.where != nil {
		b.WriteString(" WHERE ")
		s.where.render(b)
	}
	if len(s.groupBy) > 0 {
		b.WriteString(" GROUP BY ")
		b.IdentComma(s.groupBy...)
	}
	if s.having != nil {
		b.WriteString(" HAVING ")
		s.having.render(b)
	}
	if len(s.orderBy) > 0 {
		b.WriteString(" ORDER BY ")
		for i, t := range s.orderBy {
			if i > 0 {
				b.WriteString(", ")
			}
			b.Ident(t.Column)
			if t.Desc {
				b.WriteString(" DESC")
			}
		}
	}
	if s.limit != nil {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.Itoa(*s.limit))
	}
	if s.offset != nil {
		b.WriteString(" OFFSET ")
		b.WriteString(strconv.Itoa(*s.offset))
	}
	if s.lock != LockNone && s.dialect != dialect.SQLite {
		b.WriteByte(' ')
		b.WriteString(string(s.lock))
	}
	return b.String(), b.args
}

// Statement renders the selector into a Statement.
func (s *Selector) Statement() Statement {
	query, args := s.Query()
	return NewStatement(s.dialect, query, args...)
}

// InsertBuilder builds an INSERT statement.
type InsertBuilder struct {
	dialect   string
	table     string
	columns   []string
	values    [][]any
	defaults  bool
	returning []string
	conflict  *conflict
}

type conflict struct {
	doNothing  bool
	updateCols []string
	targetCols []string
}

// Insert returns an InsertBuilder for the given table.
func Insert(table string) *InsertBuilder {
	return &InsertBuilder{table: table}
}

// SetDialect sets the dialect the statement is rendered for.
func (i *InsertBuilder) SetDialect(dialect string) *InsertBuilder {
	i.dialect = dialect
	return i
}

// Columns sets the insert columns.
func (i *InsertBuilder) Columns(columns ...string) *InsertBuilder {
	i.columns = columns
	return i
}

// Values appends a row of values. Call multiple times for a multi-row
// insert.
func (i *InsertBuilder) Values(values ...any) *InsertBuilder {
	i.values = append(i.values, values)
	return i
}

// Default marks the insert to use the table default values.
func (i *InsertBuilder) Default() *InsertBuilder {
	i.defaults = true
	return i
}

// Returning appends a RETURNING clause. It is ignored on MySQL, which
// reports generated keys through LAST_INSERT_ID instead.
func (i *InsertBuilder) Returning(columns ...string) *InsertBuilder {
	i.returning = columns
	return i
}

// OnConflictDoNothing makes conflicting rows a no-op. Rendered as
// ON CONFLICT DO NOTHING on Postgres/SQLite and as
// ON DUPLICATE KEY UPDATE col = col on MySQL.
func (i *InsertBuilder) OnConflictDoNothing() *InsertBuilder {
	i.conflict = &conflict{doNothing: true}
	return i
}

// OnConflictUpdate updates the given columns with the incoming values
// when the target columns conflict. On MySQL the target columns are
// ignored (the conflicting unique key is implied).
func (i *InsertBuilder) OnConflictUpdate(targets []string, updates ...string) *InsertBuilder {
	i.conflict = &conflict{targetCols: targets, updateCols: updates}
	return i
}

// Query renders the statement and returns the SQL string and arguments.
func (i *InsertBuilder) Query() (string, []any) {
	b := &Builder{dialect: i.dialect}
	b.WriteString("INSERT ")
	if c := i.conflict; c != nil && c.doNothing && i.dialect == dialect.MySQL && len(i.columns) == 0 {
		// A default-values insert has no column to self-assign in
		// ON DUPLICATE KEY UPDATE; IGNORE is the remaining no-op form.
		b.WriteString("IGNORE ")
	}
	b.WriteString("INTO ")
	b.Ident(i.table)
	switch {
	case i.defaults && i.dialect == dialect.MySQL:
		b.WriteString(" () VALUES ()")
	case i.defaults:
		b.WriteString(" DEFAULT VALUES")
	default:
		b.WriteString(" (")
		b.IdentComma(i.columns...)
		b.WriteString(") VALUES ")
		for r, row := range i.values {
			if r > 0 {
				b.WriteString(", ")
			}
			b.WriteByte('(')
			b.Args(row...)
			b.WriteByte(')')
		}
	}
	if c := i.conflict; c != nil {
		switch i.dialect {
		case dialect.MySQL:
			cols := c.updateCols
			if c.doNothing {
				if len(i.columns) == 0 {
					// Already rendered as INSERT IGNORE.
					break
				}
				// MySQL has no DO NOTHING; assigning a column to
				// itself makes the conflicting row a no-op.
				cols = i.columns[:1]
			}
			b.WriteString(" ON DUPLICATE KEY UPDATE ")
			for n, col := range cols {
				if n > 0 {
					b.WriteString(", ")
				}
				b.Ident(col)
				b.WriteString(" = VALUES(")
				b.Ident(col)
				b.WriteByte(')')
			}
		default:
			b.WriteString(" ON CONFLICT")
			if len(c.targetCols) > 0 {
				b.WriteString(" (")
				b.IdentComma(c.targetCols...)
				b.WriteByte(')')
			}
			if c.doNothing {
				b.WriteString(" DO NOTHING")
			} else {
				b.WriteString(" DO UPDATE SET ")
				for n, col := range c.updateCols {
					if n > 0 {
						b.WriteString(", ")
					}
					b.Ident(col)
					b.WriteString(" = excluded.")
					b.Ident(col)
				}
			}
		}
	}
	if len(i.returning) > 0 && i.dialect != dialect.MySQL {
		b.WriteString(" RETURNING ")
		b.IdentComma(i.returning...)
	}
	return b.String(), b.args
}

// Statement renders the builder into a Statement.
func (i *InsertBuilder) Statement() Statement {
	query, args := i.Query()
	return NewStatement(i.dialect, query, args...)
}

// UpdateBuilder builds an UPDATE statement.
type UpdateBuilder struct {
	dialect   string
	table     string
	columns   []string
	values    []any
	nulls     []string
	where     *Predicate
	orderBy   []OrderTerm
	limit     *int
	returning []string
}

// Update returns an UpdateBuilder for the given table.
func Update(table string) *UpdateBuilder {
	return &UpdateBuilder{table: table}
}

// SetDialect sets the dialect the statement is rendered for.
func (u *UpdateBuilder) SetDialect(dialect string) *UpdateBuilder {
	u.dialect = dialect
	return u
}

// Set assigns a value to a column.
func (u *UpdateBuilder) Set(column string, value any) *UpdateBuilder {
	u.columns = append(u.columns, column)
	u.values = append(u.values, value)
	return u
}

// SetNull assigns NULL to a column.
func (u *UpdateBuilder) SetNull(column string) *UpdateBuilder {
	u.nulls = append(u.nulls, column)
	return u
}

// Empty reports whether the builder has no assignments.
func (u *UpdateBuilder) Empty() bool {
	return len(u.columns) == 0 && len(u.nulls) == 0
}

// Where appends the given predicate to the WHERE clause with AND.
func (u *UpdateBuilder) Where(p *Predicate) *UpdateBuilder {
	if p == nil {
		return u
	}
	if u.where == nil {
		u.where = p
	} else {
		u.where = And(u.where, p)
	}
	return u
}

// OrderBy appends order terms. Only rendered on MySQL.
func (u *UpdateBuilder) OrderBy(terms ...OrderTerm) *UpdateBuilder {
	u.orderBy = append(u.orderBy, terms...)
	return u
}

// Limit sets the update limit. Only rendered on MySQL.
func (u *UpdateBuilder) Limit(n int) *UpdateBuilder {
	u.limit = &n
	return u
}

// Returning appends a RETURNING clause (Postgres/SQLite).
func (u *UpdateBuilder) Returning(columns ...string) *UpdateBuilder {
	u.returning = columns
	return u
}

// Query renders the statement and returns the SQL string and arguments.
func (u *UpdateBuilder) Query() (string, []any) {
	b := &Builder{dialect: u.dialect}
	b.WriteString("UPDATE ")
	b.Ident(u.table)
	b.WriteString(" SET ")
	for n, col := range u.columns {
		if n > 0 {
			b.WriteString(", ")
		}
		b.Ident(col)
		b.WriteString(" = ")
		b.Arg(u.values[n])
	}
	for n, col := range u.nulls {
		if n > 0 || len(u.columns) > 0 {
			b.WriteString(", ")
		}
		b.Ident(col)
		b.WriteString(" = NULL")
	}
	if u.where != nil {
		b.WriteString(" WHERE ")
		u.where.render(b)
	}
	if u.dialect == dialect.MySQL {
		if len(u.orderBy) > 0 {
			b.WriteString(" ORDER BY ")
			for i, t := range u.orderBy {
				if i > 0 {
					b.WriteString(", ")
				}
				b.Ident(t.Column)
				if t.Desc {
					b.WriteString(" DESC")
				}
			}
		}
		if u.limit != nil {
			b.WriteString(" LIMIT ")
			b.WriteString(strconv.Itoa(*u.limit))
		}
	}
	if len(u.returning) > 0 && u.dialect != dialect.MySQL {
		b.WriteString(" RETURNING ")
		b.IdentComma(u.returning...)
	}
	return b.String(), b.args
}

// Statement renders the builder into a Statement.
func (u *UpdateBuilder) Statement() Statement {
	query, args := u.Query()
	return NewStatement(u.dialect, query, args...)
}

// DeleteBuilder builds a DELETE statement.
type DeleteBuilder struct {
	dialect   string
	table     string
	where     *Predicate
	returning []string
}

// Delete returns a DeleteBuilder for the given table.
func Delete(table string) *DeleteBuilder {
	return &DeleteBuilder{table: table}
}

// SetDialect sets the dialect the statement is rendered for.
func (d *DeleteBuilder) SetDialect(dialect string) *DeleteBuilder {
	d.dialect = dialect
	return d
}

// Where appends the given predicate to the WHERE clause with AND.
func (d *DeleteBuilder) Where(p *Predicate) *DeleteBuilder {
	if p == nil {
		return d
	}
	if d.where == nil {
		d.where = p
	} else {
		d.where = And(d.where, p)
	}
	return d
}

// Returning appends a RETURNING clause (Postgres/SQLite).
func (d *DeleteBuilder) Returning(columns ...string) *DeleteBuilder {
	d.returning = columns
	return d
}

// Query renders the statement and returns the SQL string and arguments.
func (d *DeleteBuilder) Query() (string, []any) {
	b := &Builder{dialect: d.dialect}
	b.WriteString("DELETE FROM ")
	b.Ident(d.table)
	if d.where != nil {
		b.WriteString(" WHERE ")
		d.where.render(b)
	}
	if len(d.returning) > 0 && d.dialect != dialect.MySQL {
		b.WriteString(" RETURNING ")
		b.IdentComma(d.returning...)
	}
	return b.String(), b.args
}

// Statement renders the builder into a Statement.
func (d *DeleteBuilder) Statement() Statement {
	query, args := d.Query()
	return NewStatement(d.dialect, query, args...)
}
