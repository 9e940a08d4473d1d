// Package view tracks how much of a sorted artifact sequence has been
// materialized for display, and derives the priority set that steers the
// analysis scheduler toward what the user is about to see.
package view

import "sync/atomic"

// Page is a half-open slice [Start, End) of the current sorted sequence
// to append to the rendered view.
type Page struct {
	Start int
	End   int
}

// Pager tracks progressive materialization of a sorted sequence. The
// in-flight guard makes overlapping LoadMore calls (rapid clicks, a
// scroll handler firing during an async gap) a no-op instead of a
// double-append.
type Pager struct {
	pageSize int
	total    int
	rendered atomic.Int64
	loading  atomic.Bool
}

// NewPager creates a Pager with the given page size.
func NewPager(pageSize int) *Pager {
	if pageSize <= 0 {
		pageSize = 12
	}
	return &Pager{pageSize: pageSize}
}

// PageSize returns the configured page size.
func (p *Pager) PageSize() int {
	return p.pageSize
}

// Reset points the pager at a freshly sorted sequence of the given
// length with nothing rendered yet.
func (p *Pager) Reset(total int) {
	p.rendered.Store(0)
	p.total = total
}

// Rendered returns how many items have been materialized.
func (p *Pager) Rendered() int {
	return int(p.rendered.Load())
}

// Exhausted reports whether the whole sequence has been rendered.
func (p *Pager) Exhausted() bool {
	return p.Rendered() >= p.total
}

// LoadMore appends the next page-size slice to the rendered view. It
// returns false when a load is already in flight or the sequence is
// exhausted.
func (p *Pager) LoadMore() (Page, bool) {
	if !p.loading.CompareAndSwap(false, true) {
		return Page{}, false
	}
	defer p.loading.Store(false)

	start := int(p.rendered.Load())
	if start >= p.total {
		return Page{}, false
	}
	end := start + p.pageSize
	if end > p.total {
		end = p.total
	}
	p.rendered.Store(int64(end))
	return Page{Start: start, End: end}, true
}
