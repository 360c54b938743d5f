// Package search answers facility queries over a loaded dataset.
package search

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/leapstack-labs/snfsearch/internal/ingest"
	"github.com/leapstack-labs/snfsearch/internal/models"
	"github.com/leapstack-labs/snfsearch/internal/score"
)

// Unlimited disables a maximum filter.
const Unlimited = -1

// Query defaults.
const (
	DefaultLimit     = 20
	DefaultMinRating = 1
)

// ErrInvalidQuery is returned for a query that fails validation.
var ErrInvalidQuery = errors.New("invalid query")

// Query selects and ranks facilities near a zip code.
type Query struct {
	Zip             string
	Limit           int
	MinRating       int
	MaxDeficiencies int
	MaxPenalties    int
}

// NewQuery returns a query for zip with default filters.
func NewQuery(zip string) Query {
	return Query{
		Zip:             zip,
		Limit:           DefaultLimit,
		MinRating:       DefaultMinRating,
		MaxDeficiencies: Unlimited,
		MaxPenalties:    Unlimited,
	}
}

// Validate checks the query's bounds.
func (q Query) Validate() error {
	switch {
	case q.Zip == "":
		return fmt.Errorf("%w: zip code is required", ErrInvalidQuery)
	case q.Limit < 0:
		return fmt.Errorf("%w: limit must not be negative", ErrInvalidQuery)
	case q.MinRating < 1 || q.MinRating > 5:
		return fmt.Errorf("%w: minimum rating must be between 1 and 5", ErrInvalidQuery)
	case q.MaxDeficiencies < Unlimited:
		return fmt.Errorf("%w: maximum deficiencies must not be negative", ErrInvalidQuery)
	case q.MaxPenalties < Unlimited:
		return fmt.Errorf("%w: maximum penalties must not be negative", ErrInvalidQuery)
	}
	return nil
}

// Match reports whether p passes the query's filters.
func (q Query) Match(p *models.Provider) bool {
	if p.OverallRating < q.MinRating {
		return false
	}
	if q.MaxDeficiencies != Unlimited && p.NumDeficiencies > q.MaxDeficiencies {
		return false
	}
	if q.MaxPenalties != Unlimited && p.NumPenalties > q.MaxPenalties {
		return false
	}
	return true
}

// Engine answers queries against one dataset. The dataset is never modified,
// so an Engine is safe for concurrent use.
type Engine struct {
	dataset *ingest.Dataset
	scorer  *score.Scorer
	logger  *slog.Logger
}

// NewEngine builds the scorer over the full provider population of ds.
func NewEngine(ds *ingest.Dataset, weights score.Weights, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	scorer, err := score.NewScorer(ds.Providers.All(), ds.ZipCodes, weights, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build scorer: %w", err)
	}
	return &Engine{dataset: ds, scorer: scorer, logger: logger}, nil
}

// Dataset returns the dataset the engine queries.
func (e *Engine) Dataset() *ingest.Dataset { return e.dataset }

// Search returns copies of the matching providers scored against q.Zip,
// best score first. Providers with equal scores keep their load order.
func (e *Engine) Search(q Query) ([]*models.Provider, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if _, ok := e.dataset.ZipCodes.Get(q.Zip); !ok {
		e.logger.Warn("target zip code not mapped, all distances are unknown", "zip", q.Zip)
	}

	var results []*models.Provider
	for _, p := range e.dataset.Providers.All() {
		if !q.Match(p) {
			continue
		}
		c := p.Clone()
		b := e.scorer.Populate(c, q.Zip)
		e.logger.Debug("scored provider", "provider", c.Num, "score", *c.Score, "percentiles", b)
		results = append(results, c)
	}

	slices.SortStableFunc(results, func(a, b *models.Provider) int {
		switch {
		case *a.Score > *b.Score:
			return -1
		case *a.Score < *b.Score:
			return 1
		}
		return 0
	})

	if len(results) > q.Limit {
		results = results[:q.Limit]
	}
	e.logger.Debug("search complete", "zip", q.Zip, "matched", len(results))
	return results, nil
}
