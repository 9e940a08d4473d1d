package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS image_dimensions (
	image_url TEXT PRIMARY KEY,
	width     INTEGER NOT NULL,
	height    INTEGER NOT NULL,
	probed_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS link_reports (
	id         TEXT PRIMARY KEY,
	checked_at DATETIME NOT NULL,
	total      INTEGER NOT NULL,
	failed     INTEGER NOT NULL,
	details    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_link_reports_checked_at ON link_reports(checked_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetDimensions(ctx context.Context, imageURL string) (*Dimensions, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT width, height FROM image_dimensions WHERE image_url = ?`,
		imageURL,
	)

	var d Dimensions
	err := row.Scan(&d.Width, &d.Height)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get dimensions")
	}
	return &d, nil
}

func (s *SQLiteStore) PutDimensions(ctx context.Context, imageURL string, d Dimensions) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO image_dimensions (image_url, width, height, probed_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(image_url) DO UPDATE SET width = excluded.width, height = excluded.height`,
		imageURL, d.Width, d.Height, time.Now().UTC(),
	)
	return eris.Wrap(err, "sqlite: put dimensions")
}

func (s *SQLiteStore) SaveLinkReport(ctx context.Context, report LinkReport) error {
	id := report.ID
	if id == "" {
		id = uuid.New().String()
	}
	checkedAt := report.CheckedAt
	if checkedAt.IsZero() {
		checkedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO link_reports (id, checked_at, total, failed, details) VALUES (?, ?, ?, ?, ?)`,
		id, checkedAt, report.Total, report.Failed, string(report.Details),
	)
	return eris.Wrap(err, "sqlite: save link report")
}

func (s *SQLiteStore) LatestLinkReport(ctx context.Context) (*LinkReport, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, checked_at, total, failed, details FROM link_reports
		 ORDER BY checked_at DESC LIMIT 1`,
	)

	var r LinkReport
	var details string
	err := row.Scan(&r.ID, &r.CheckedAt, &r.Total, &r.Failed, &details)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: latest link report")
	}
	r.Details = []byte(details)
	return &r, nil
}
