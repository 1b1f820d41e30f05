package tidal

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/syssam/tidal/dialect/sql"
)

// cursorVersion is bumped when the token layout changes, so stale
// tokens from older deployments are rejected instead of misdecoded.
const cursorVersion = 1

type cursorToken struct {
	Version uint8 `msgpack:"v"`
	Keys    []any `msgpack:"k"`
}

// EncodeCursor packs the key values of a row into an opaque token.
func EncodeCursor(keys ...any) (string, error) {
	data, err := msgpack.Marshal(cursorToken{Version: cursorVersion, Keys: keys})
	if err != nil {
		return "", fmt.Errorf("tidal: encode cursor: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// DecodeCursor unpacks a token back into its key values.
func DecodeCursor(token string) ([]any, error) {
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("tidal: decode cursor: %w", err)
	}
	var t cursorToken
	if err := msgpack.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("tidal: decode cursor: %w", err)
	}
	if t.Version != cursorVersion {
		return nil, fmt.Errorf("tidal: decode cursor: unsupported version %d", t.Version)
	}
	return t.Keys, nil
}

// CursorPage is one window of a cursor-paginated result.
type CursorPage struct {
	Rows []map[string]any
	// StartCursor and EndCursor point at the first and last row of the
	// page. Empty when the page is empty.
	StartCursor string
	EndCursor   string
	// HasMore reports whether rows exist beyond this page in the fetch
	// direction.
	HasMore bool
}

// CursorPaginator pages through a query with keyset predicates instead
// of OFFSET, so deep pages stay cheap and concurrent inserts do not
// shift the window. Rows are ordered by the key columns; the key must
// be unique for the ordering to be total.
type CursorPaginator struct {
	q    *SelectQuery
	s    Session
	keys []string
	// after and before hold decoded cursor key values, nil when unset.
	after  []any
	before []any
	limit  int
	// fromLast fetches the window at the tail of the ordering.
	fromLast bool
	err      error
}

// Cursor returns a CursorPaginator over the query, keyed by the given
// columns. Without columns the entity primary key is used.
func (q *SelectQuery) Cursor(s Session, keyColumns ...string) *CursorPaginator {
	if len(keyColumns) == 0 {
		keyColumns = q.ent.PrimaryKey()
	}
	return &CursorPaginator{q: q, s: s, keys: keyColumns, limit: 100}
}

// After narrows the window to rows strictly after the cursor.
func (c *CursorPaginator) After(token string) *CursorPaginator {
	keys, err := c.decode(token)
	if err != nil {
		c.err = err
		return c
	}
	c.after = keys
	return c
}

// Before narrows the window to rows strictly before the cursor.
func (c *CursorPaginator) Before(token string) *CursorPaginator {
	keys, err := c.decode(token)
	if err != nil {
		c.err = err
		return c
	}
	c.before = keys
	return c
}

// First fetches the n rows at the head of the window.
func (c *CursorPaginator) First(n int) *CursorPaginator {
	c.limit = n
	c.fromLast = false
	return c
}

// Last fetches the n rows at the tail of the window. The page is still
// returned in ascending key order.
func (c *CursorPaginator) Last(n int) *CursorPaginator {
	c.limit = n
	c.fromLast = true
	return c
}

func (c *CursorPaginator) decode(token string) ([]any, error) {
	keys, err := DecodeCursor(token)
	if err != nil {
		return nil, err
	}
	if len(keys) != len(c.keys) {
		return nil, fmt.Errorf("tidal: cursor carries %d keys, query is keyed by %d", len(keys), len(c.keys))
	}
	return keys, nil
}

// Fetch runs the windowed query and returns one page.
func (c *CursorPaginator) Fetch(ctx context.Context) (*CursorPage, error) {
	if c.err != nil {
		return nil, c.err
	}
	if c.limit <= 0 {
		return nil, fmt.Errorf("tidal: cursor page size must be positive, got %d", c.limit)
	}
	sel := c.q.Clone()
	if c.after != nil {
		sel.Where(keysetPredicate(c.keys, c.after, false))
	}
	if c.before != nil {
		sel.Where(keysetPredicate(c.keys, c.before, true))
	}
	for _, k := range c.keys {
		if c.fromLast {
			sel.OrderBy(sql.Desc(k))
		} else {
			sel.OrderBy(sql.Asc(k))
		}
	}
	// One extra row detects whether the window continues.
	sel.Limit(c.limit + 1)
	rows, err := sel.All(ctx, c.s)
	if err != nil {
		return nil, err
	}
	page := &CursorPage{HasMore: len(rows) > c.limit}
	if page.HasMore {
		rows = rows[:c.limit]
	}
	if c.fromLast {
		reverse(rows)
	}
	page.Rows = rows
	if len(rows) > 0 {
		if page.StartCursor, err = c.rowCursor(rows[0]); err != nil {
			return nil, err
		}
		if page.EndCursor, err = c.rowCursor(rows[len(rows)-1]); err != nil {
			return nil, err
		}
	}
	return page, nil
}

func (c *CursorPaginator) rowCursor(row map[string]any) (string, error) {
	keys := make([]any, len(c.keys))
	for i, k := range c.keys {
		v, ok := row[k]
		if !ok {
			return "", fmt.Errorf("tidal: cursor key %q is not selected", k)
		}
		keys[i] = v
	}
	return EncodeCursor(keys...)
}

// keysetPredicate renders the row-comparison for a composite key. For
// key (a, b) after (x, y) it expands to
//
//	a > x OR (a = x AND b > y)
//
// which every backend plans with the matching index, unlike the row
// value syntax that MySQL refuses in index scans.
func keysetPredicate(cols []string, vals []any, before bool) *sql.Predicate {
	cmp := func(col string, v any) *sql.Predicate {
		if before {
			return sql.LT(col, v)
		}
		return sql.GT(col, v)
	}
	var terms []*sql.Predicate
	for i := range cols {
		term := cmp(cols[i], vals[i])
		for j := 0; j < i; j++ {
			term = sql.And(sql.EQ(cols[j], vals[j]), term)
		}
		terms = append(terms, term)
	}
	if len(terms) == 1 {
		return terms[0]
	}
	return sql.Or(terms...)
}

func reverse(rows []map[string]any) {
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
}
