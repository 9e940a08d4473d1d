// Package store persists probed image dimensions and link-liveness
// reports across analyzer runs. Persistence is optional: with no driver
// configured the analyzer runs on its in-memory session cache alone.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/jespergran98/originGuessr-Analyzer/internal/config"
)

// Dimensions are the natural pixel dimensions of one probed image.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// LinkReport is one persisted link-liveness sweep.
type LinkReport struct {
	ID        string    `json:"id"`
	CheckedAt time.Time `json:"checked_at"`
	Total     int       `json:"total"`
	Failed    int       `json:"failed"`
	Details   []byte    `json:"details"`
}

// Store defines the persistence interface for the analyzer.
type Store interface {
	// Dimension cache
	GetDimensions(ctx context.Context, imageURL string) (*Dimensions, error)
	PutDimensions(ctx context.Context, imageURL string, d Dimensions) error

	// Link reports
	SaveLinkReport(ctx context.Context, report LinkReport) error
	LatestLinkReport(ctx context.Context) (*LinkReport, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// New creates a Store for the configured driver. An empty driver yields
// a nil Store, meaning persistence is disabled.
func New(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "":
		return nil, nil
	case "sqlite":
		return NewSQLite(cfg.DatabaseURL)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
