// Package score ranks facilities against the population they were loaded
// with. Each metric is converted to a percentile through an empirical CDF and
// the percentiles are combined into one weighted composite score.
package score

import "sort"

// Order states which end of a metric is better.
type Order int

const (
	// HigherIsBetter sorts ascending, as for star ratings.
	HigherIsBetter Order = iota
	// LowerIsBetter sorts descending, as for deficiency and penalty counts.
	LowerIsBetter
)

// CDF is an empirical cumulative distribution over a population.
//
// The rank of a value is the index of its first occurrence in the population
// sorted worst first. Tied values share that index, which favors duplicates.
type CDF struct {
	order  Order
	sorted []float64
}

// NewCDF builds the CDF of values. values is not modified.
func NewCDF(values []float64, order Order) *CDF {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	if order == LowerIsBetter {
		sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))
	} else {
		sort.Float64s(sorted)
	}
	return &CDF{order: order, sorted: sorted}
}

// Len returns the population size.
func (c *CDF) Len() int { return len(c.sorted) }

// Rank returns the number of population values strictly worse than v. For a
// value in the population this is the index of its first occurrence.
func (c *CDF) Rank(v float64) int {
	if c.order == LowerIsBetter {
		return sort.Search(len(c.sorted), func(i int) bool { return c.sorted[i] <= v })
	}
	return sort.Search(len(c.sorted), func(i int) bool { return c.sorted[i] >= v })
}

// Percentile returns 100 * Rank(v) / Len(), or 0 for an empty population.
func (c *CDF) Percentile(v float64) float64 {
	if len(c.sorted) == 0 {
		return 0
	}
	return 100 * float64(c.Rank(v)) / float64(len(c.sorted))
}
