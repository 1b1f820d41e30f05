package tidal

import (
	"context"
	"fmt"
)

// ItemsAndPages carries the totals of a paginated query.
type ItemsAndPages struct {
	NumItems int64
	NumPages int64
}

// Paginator slices a query into fixed-size pages with LIMIT/OFFSET.
// Pages are zero-based.
type Paginator struct {
	q        *SelectQuery
	s        Session
	pageSize int64
	page     int64
}

// Paginate returns a Paginator over the query with the given page size.
// The page size must be positive; a non-positive size fails on fetch.
func (q *SelectQuery) Paginate(s Session, pageSize int64) *Paginator {
	return &Paginator{q: q, s: s, pageSize: pageSize}
}

// PageSize returns the page size.
func (p *Paginator) PageSize() int64 { return p.pageSize }

// CurPage returns the current page index.
func (p *Paginator) CurPage() int64 { return p.page }

// FetchPage fetches the given page. The paginator position is not
// moved.
func (p *Paginator) FetchPage(ctx context.Context, page int64) ([]map[string]any, error) {
	if p.pageSize <= 0 {
		return nil, fmt.Errorf("tidal: paginate %s: page size must be positive, got %d", p.q.ent.TableName(), p.pageSize)
	}
	if page < 0 {
		return nil, fmt.Errorf("tidal: paginate %s: negative page %d", p.q.ent.TableName(), page)
	}
	return p.q.Clone().
		Limit(int(p.pageSize)).
		Offset(int(page*p.pageSize)).
		All(ctx, p.s)
}

// Fetch fetches the current page.
func (p *Paginator) Fetch(ctx context.Context) ([]map[string]any, error) {
	return p.FetchPage(ctx, p.page)
}

// Next advances the paginator to the next page.
func (p *Paginator) Next() *Paginator {
	p.page++
	return p
}

// FetchAndNext fetches the current page and advances. more is false
// when the fetched page is the last one: a short or empty page.
func (p *Paginator) FetchAndNext(ctx context.Context) (rows []map[string]any, more bool, err error) {
	rows, err = p.Fetch(ctx)
	if err != nil {
		return nil, false, err
	}
	p.Next()
	return rows, int64(len(rows)) == p.pageSize, nil
}

// NumItems returns the total number of rows the query matches,
// independent of pagination.
func (p *Paginator) NumItems(ctx context.Context) (int64, error) {
	return p.q.Count(ctx, p.s)
}

// NumPages returns the total number of pages.
func (p *Paginator) NumPages(ctx context.Context) (int64, error) {
	ip, err := p.NumItemsAndPages(ctx)
	if err != nil {
		return 0, err
	}
	return ip.NumPages, nil
}

// NumItemsAndPages returns both totals with a single count query.
func (p *Paginator) NumItemsAndPages(ctx context.Context) (ItemsAndPages, error) {
	if p.pageSize <= 0 {
		return ItemsAndPages{}, fmt.Errorf("tidal: paginate %s: page size must be positive, got %d", p.q.ent.TableName(), p.pageSize)
	}
	n, err := p.NumItems(ctx)
	if err != nil {
		return ItemsAndPages{}, err
	}
	return ItemsAndPages{
		NumItems: n,
		NumPages: (n + p.pageSize - 1) / p.pageSize,
	}, nil
}
