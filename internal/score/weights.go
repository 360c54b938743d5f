package score

import (
	"errors"
	"fmt"
)

// Weights are the relative weights of the four percentiles in the composite
// score. The zero value is invalid; use DefaultWeights.
type Weights struct {
	Rating       float64 `koanf:"rating" json:"rating" yaml:"rating"`
	Deficiencies float64 `koanf:"deficiencies" json:"deficiencies" yaml:"deficiencies"`
	Penalties    float64 `koanf:"penalties" json:"penalties" yaml:"penalties"`
	Distance     float64 `koanf:"distance" json:"distance" yaml:"distance"`
}

// DefaultWeights weighs every percentile equally.
func DefaultWeights() Weights {
	return Weights{Rating: 1, Deficiencies: 1, Penalties: 1, Distance: 1}
}

// ErrInvalidWeights is returned by Validate.
var ErrInvalidWeights = errors.New("invalid score weights")

// Validate rejects negative weights and weights that sum to zero.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"rating":       w.Rating,
		"deficiencies": w.Deficiencies,
		"penalties":    w.Penalties,
		"distance":     w.Distance,
	} {
		if v < 0 {
			return fmt.Errorf("%w: %s weight is negative (%g)", ErrInvalidWeights, name, v)
		}
	}
	if w.sum() == 0 {
		return fmt.Errorf("%w: all weights are zero", ErrInvalidWeights)
	}
	return nil
}

func (w Weights) sum() float64 {
	return w.Rating + w.Deficiencies + w.Penalties + w.Distance
}

// Breakdown holds the four percentiles behind one composite score.
type Breakdown struct {
	Rating       float64 `json:"rating"`
	Deficiencies float64 `json:"deficiencies"`
	Penalties    float64 `json:"penalties"`
	Distance     float64 `json:"distance"`
}

// Combine returns the weighted mean of b.
func (w Weights) Combine(b Breakdown) float64 {
	total := w.Rating*b.Rating +
		w.Deficiencies*b.Deficiencies +
		w.Penalties*b.Penalties +
		w.Distance*b.Distance
	return total / w.sum()
}
