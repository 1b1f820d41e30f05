package tidal

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// RowStream delivers a query result row by row through a buffered
// channel, with a background goroutine prefetching ahead of the
// consumer.
type RowStream struct {
	ch     chan map[string]any
	g      *errgroup.Group
	cancel context.CancelFunc
}

// Stream executes the query and returns a stream over its rows. The
// buffer is the prefetch depth; non-positive values get a default. The
// caller must drain Rows or call Close, then check Err.
func (q *SelectQuery) Stream(ctx context.Context, s Session, buffer int) *RowStream {
	if buffer <= 0 {
		buffer = 64
	}
	ctx, cancel := context.WithCancel(ctx)
	g, ctx := errgroup.WithContext(ctx)
	st := &RowStream{
		ch:     make(chan map[string]any, buffer),
		g:      g,
		cancel: cancel,
	}
	g.Go(func() error {
		defer close(st.ch)
		it, err := q.Rows(ctx, s)
		if err != nil {
			return err
		}
		defer it.Close()
		for it.Next() {
			select {
			case st.ch <- it.Row():
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return it.Err()
	})
	return st
}

// Rows returns the channel the rows arrive on. It is closed when the
// result set is exhausted or the stream fails; check Err afterwards.
func (st *RowStream) Rows() <-chan map[string]any { return st.ch }

// Err blocks until the prefetcher finishes and returns its error.
func (st *RowStream) Err() error { return st.g.Wait() }

// Close abandons the stream early and releases the prefetcher. It
// reports errors other than the cancellation it triggers.
func (st *RowStream) Close() error {
	st.cancel()
	err := st.g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
