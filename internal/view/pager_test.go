package view

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPagerProgression(t *testing.T) {
	t.Parallel()

	p := NewPager(12)
	p.Reset(30)

	page, ok := p.LoadMore()
	require.True(t, ok)
	assert.Equal(t, Page{Start: 0, End: 12}, page)
	assert.Equal(t, 12, p.Rendered())
	assert.False(t, p.Exhausted())

	page, ok = p.LoadMore()
	require.True(t, ok)
	assert.Equal(t, Page{Start: 12, End: 24}, page)
	assert.Equal(t, 24, p.Rendered())

	page, ok = p.LoadMore()
	require.True(t, ok)
	assert.Equal(t, Page{Start: 24, End: 30}, page)
	assert.Equal(t, 30, p.Rendered())
	assert.True(t, p.Exhausted())

	// Fourth call is a no-op.
	_, ok = p.LoadMore()
	assert.False(t, ok)
	assert.Equal(t, 30, p.Rendered())
}

func TestPagerReset(t *testing.T) {
	t.Parallel()

	p := NewPager(12)
	p.Reset(30)
	_, _ = p.LoadMore()
	require.Equal(t, 12, p.Rendered())

	p.Reset(5)
	assert.Equal(t, 0, p.Rendered())
	assert.False(t, p.Exhausted())

	page, ok := p.LoadMore()
	require.True(t, ok)
	assert.Equal(t, Page{Start: 0, End: 5}, page)
	assert.True(t, p.Exhausted())
}

func TestPagerEmptySequence(t *testing.T) {
	t.Parallel()

	p := NewPager(12)
	p.Reset(0)
	assert.True(t, p.Exhausted())

	_, ok := p.LoadMore()
	assert.False(t, ok)
}

func TestPagerDefaultPageSize(t *testing.T) {
	t.Parallel()

	p := NewPager(0)
	assert.Equal(t, 12, p.PageSize())
}

func TestPagerConcurrentLoadsNeverOverlap(t *testing.T) {
	t.Parallel()

	p := NewPager(10)
	p.Reset(1000)

	var mu sync.Mutex
	seen := make(map[int]bool)

	var wg sync.WaitGroup
	for k := 0; k < 8; k++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				page, ok := p.LoadMore()
				if !ok {
					if p.Exhausted() {
						return
					}
					continue
				}
				mu.Lock()
				// No two loads may return the same start offset.
				assert.False(t, seen[page.Start])
				seen[page.Start] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1000, p.Rendered())
	assert.Len(t, seen, 100)
}
