package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// Pool is the subset of pgxpool.Pool the store uses; pgxmock satisfies
// it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool; used by tests.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS image_dimensions (
	image_url TEXT PRIMARY KEY,
	width     INTEGER NOT NULL,
	height    INTEGER NOT NULL,
	probed_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS link_reports (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	checked_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	total      INTEGER NOT NULL,
	failed     INTEGER NOT NULL,
	details    JSONB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_link_reports_checked_at ON link_reports(checked_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) GetDimensions(ctx context.Context, imageURL string) (*Dimensions, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT width, height FROM image_dimensions WHERE image_url = $1`,
		imageURL,
	)

	var d Dimensions
	err := row.Scan(&d.Width, &d.Height)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get dimensions")
	}
	return &d, nil
}

func (s *PostgresStore) PutDimensions(ctx context.Context, imageURL string, d Dimensions) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO image_dimensions (image_url, width, height, probed_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (image_url) DO UPDATE SET width = EXCLUDED.width, height = EXCLUDED.height`,
		imageURL, d.Width, d.Height,
	)
	return eris.Wrap(err, "postgres: put dimensions")
}

func (s *PostgresStore) SaveLinkReport(ctx context.Context, report LinkReport) error {
	id := report.ID
	if id == "" {
		id = uuid.New().String()
	}
	checkedAt := report.CheckedAt
	if checkedAt.IsZero() {
		checkedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO link_reports (id, checked_at, total, failed, details) VALUES ($1, $2, $3, $4, $5)`,
		id, checkedAt, report.Total, report.Failed, report.Details,
	)
	return eris.Wrap(err, "postgres: save link report")
}

func (s *PostgresStore) LatestLinkReport(ctx context.Context) (*LinkReport, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, checked_at, total, failed, details FROM link_reports
		 ORDER BY checked_at DESC LIMIT 1`,
	)

	var r LinkReport
	err := row.Scan(&r.ID, &r.CheckedAt, &r.Total, &r.Failed, &r.Details)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: latest link report")
	}
	return &r, nil
}
