package ingest

import (
	"context"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/jespergran98/originGuessr-Analyzer/internal/config"
	"github.com/jespergran98/originGuessr-Analyzer/internal/fetcher"
	"github.com/jespergran98/originGuessr-Analyzer/internal/model"
)

// Loader fetches and normalizes the artifact collection.
type Loader struct {
	fetcher *fetcher.HTTPFetcher
	url     string
}

// NewLoader creates a Loader for the configured source.
func NewLoader(cfg config.SourceConfig) *Loader {
	return &Loader{
		fetcher: fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
			UserAgent:  cfg.UserAgent,
			Timeout:    cfg.Timeout(),
			MaxRetries: cfg.MaxRetries,
		}),
		url: cfg.URL,
	}
}

// Load fetches the source document and builds the normalized collection.
// Failures are ErrDataLoad or ErrEmptyCollection; both are fatal to the
// dashboard session.
func (l *Loader) Load(ctx context.Context) (*Collection, error) {
	body, err := l.fetcher.Download(ctx, l.url)
	if err != nil {
		return nil, eris.Wrapf(ErrDataLoad, "ingest: fetch %s: %v", l.url, err)
	}
	defer body.Close() //nolint:errcheck

	doc, err := fetcher.DecodeJSONObject[rawDocument](body)
	if err != nil {
		return nil, eris.Wrapf(ErrDataLoad, "ingest: decode payload: %v", err)
	}
	if doc.Artifacts == nil {
		return nil, eris.Wrap(ErrDataLoad, "ingest: payload has no artifact sequence")
	}
	if len(*doc.Artifacts) == 0 {
		return nil, eris.Wrap(ErrEmptyCollection, "ingest: zero artifacts")
	}

	coll := newCollection(*doc.Artifacts)
	zap.L().Info("artifact collection loaded",
		zap.String("source", l.url),
		zap.Int("artifacts", coll.Len()),
	)
	return coll, nil
}

// Collection holds the normalized, ordered artifact snapshot.
type Collection struct {
	artifacts []model.Artifact
	byID      map[string]int
}

func newCollection(raw []rawArtifact) *Collection {
	artifacts := make([]model.Artifact, 0, len(raw))
	byID := make(map[string]int, len(raw))

	for _, r := range raw {
		id := r.ID
		if id == "" {
			id = uuid.New().String()
		}
		a := model.Artifact{
			ID:                id,
			Title:             r.Title,
			Description:       r.Description,
			Year:              r.Year.value,
			Author:            r.Author,
			AuthorLink:        r.AuthorLink,
			License:           r.License,
			Image:             r.Image,
			Lat:               r.Lat,
			Lng:               r.Lng,
			IsPlayable:        r.IsPlayable,
			TitleLength:       model.TrimmedLength(r.Title),
			DescriptionLength: model.TrimmedLength(r.Description),
			Analysis:          model.AnalysisUnscored,
		}
		byID[a.ID] = len(artifacts)
		artifacts = append(artifacts, a)
	}

	return &Collection{artifacts: artifacts, byID: byID}
}

// Len returns the number of artifacts.
func (c *Collection) Len() int {
	return len(c.artifacts)
}

// All returns a copy of the ordered artifact snapshot.
func (c *Collection) All() []model.Artifact {
	out := make([]model.Artifact, len(c.artifacts))
	copy(out, c.artifacts)
	return out
}

// ByID returns the artifact with the given id.
func (c *Collection) ByID(id string) (model.Artifact, bool) {
	i, ok := c.byID[id]
	if !ok {
		return model.Artifact{}, false
	}
	return c.artifacts[i], true
}
