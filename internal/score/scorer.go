package score

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/leapstack-labs/snfsearch/internal/models"
)

// Scorer scores providers against a fixed population. It only reads its
// state after construction and is safe for concurrent use as long as each
// call populates a distinct provider.
type Scorer struct {
	rating       *CDF
	deficiencies *CDF
	penalties    *CDF
	zips         *models.ZipCodeRepository
	weights      Weights
	logger       *slog.Logger
}

// NewScorer builds the metric CDFs over population. Every provider scored
// later is ranked against this population, so it must be the full data set
// rather than a filtered subset.
func NewScorer(population []*models.Provider, zips *models.ZipCodeRepository, weights Weights, logger *slog.Logger) (*Scorer, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	ratings := make([]float64, len(population))
	deficiencies := make([]float64, len(population))
	penalties := make([]float64, len(population))
	for i, p := range population {
		ratings[i] = float64(p.OverallRating)
		deficiencies[i] = float64(p.NumDeficiencies)
		penalties[i] = float64(p.NumPenalties)
	}

	return &Scorer{
		rating:       NewCDF(ratings, HigherIsBetter),
		deficiencies: NewCDF(deficiencies, LowerIsBetter),
		penalties:    NewCDF(penalties, LowerIsBetter),
		zips:         zips,
		weights:      weights,
		logger:       logger,
	}, nil
}

// Breakdown returns the percentiles of p relative to zip without modifying p.
func (s *Scorer) Breakdown(p *models.Provider, zip string) Breakdown {
	distance := s.zips.Distance(p.Zip, zip)
	return Breakdown{
		Rating:       s.rating.Percentile(float64(p.OverallRating)),
		Deficiencies: s.deficiencies.Percentile(float64(p.NumDeficiencies)),
		Penalties:    s.penalties.Percentile(float64(p.NumPenalties)),
		Distance:     DistancePercentile(s.zips.Unit().ToMiles(distance)),
	}
}

// Populate sets the score of p relative to zip. When p's zip code is mapped it
// also sets Lat, Lng, and Distance; otherwise those stay unset and the
// distance percentile is that of an infinite distance.
func (s *Scorer) Populate(p *models.Provider, zip string) Breakdown {
	b := s.Breakdown(p, zip)
	score := s.weights.Combine(b)
	p.Score = &score

	z, ok := s.zips.Get(p.Zip)
	if !ok {
		s.logger.Debug("provider zip code not mapped",
			slog.String("provider", p.Num),
			slog.String("zip", p.Zip))
		return b
	}
	lat, lng := z.Lat, z.Lng
	distance := s.zips.Distance(p.Zip, zip)
	p.Lat, p.Lng = &lat, &lng
	if !math.IsInf(distance, 1) {
		p.Distance = &distance
		p.DistanceUnit = s.zips.Unit().String()
	}
	return b
}

// PopulateAll populates every provider in providers.
func (s *Scorer) PopulateAll(providers []*models.Provider, zip string) {
	for _, p := range providers {
		s.Populate(p, zip)
	}
}

// Population returns the number of providers the scorer ranks against.
func (s *Scorer) Population() int { return s.rating.Len() }

func (b Breakdown) String() string {
	return fmt.Sprintf("rating=%.1f deficiencies=%.1f penalties=%.1f distance=%.1f",
		b.Rating, b.Deficiencies, b.Penalties, b.Distance)
}
