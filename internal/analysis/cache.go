package analysis

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/jespergran98/originGuessr-Analyzer/internal/quality"
	"github.com/jespergran98/originGuessr-Analyzer/internal/store"
)

// ScoreCache memoizes quality scores by image URL for the lifetime of a
// session. Entries are never evicted. When a persistent store is
// configured, probed dimensions are written through so later runs skip
// the network probe entirely.
type ScoreCache struct {
	mu      sync.RWMutex
	entries map[string]quality.Scores
	store   store.Store
}

// NewScoreCache creates a cache. st may be nil when persistence is
// disabled.
func NewScoreCache(st store.Store) *ScoreCache {
	return &ScoreCache{
		entries: make(map[string]quality.Scores),
		store:   st,
	}
}

// Get returns the cached scores for an image URL. On a session miss it
// falls back to persisted dimensions, rescoring and memoizing them.
func (c *ScoreCache) Get(ctx context.Context, imageURL string) (quality.Scores, bool) {
	c.mu.RLock()
	scores, ok := c.entries[imageURL]
	c.mu.RUnlock()
	if ok {
		return scores, true
	}

	if c.store == nil {
		return quality.Scores{}, false
	}
	dims, err := c.store.GetDimensions(ctx, imageURL)
	if err != nil {
		zap.L().Warn("dimension store read failed",
			zap.String("url", imageURL),
			zap.Error(err),
		)
		return quality.Scores{}, false
	}
	if dims == nil {
		return quality.Scores{}, false
	}

	scores = quality.Score(dims.Width, dims.Height)
	c.mu.Lock()
	c.entries[imageURL] = scores
	c.mu.Unlock()
	return scores, true
}

// Put memoizes freshly probed scores and writes the dimensions through
// to the persistent store when one is configured. Store failures are
// logged, not propagated: the session cache alone is enough to run on.
func (c *ScoreCache) Put(ctx context.Context, imageURL string, dims store.Dimensions, scores quality.Scores) {
	c.mu.Lock()
	c.entries[imageURL] = scores
	c.mu.Unlock()

	if c.store == nil {
		return
	}
	if err := c.store.PutDimensions(ctx, imageURL, dims); err != nil {
		zap.L().Warn("dimension store write failed",
			zap.String("url", imageURL),
			zap.Error(err),
		)
	}
}

// Len reports the number of memoized URLs.
func (c *ScoreCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
