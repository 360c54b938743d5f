package score

import "math"

// commuteBreakpoint is the cumulative share of commuters, in percent, who
// travel at most Miles to work.
type commuteBreakpoint struct {
	Miles   float64
	Percent float64
}

// commuteCDF is the US average commute distance distribution published by the
// DOT Bureau of Transportation Statistics (OmniStats vol. 3 issue 4).
var commuteCDF = []commuteBreakpoint{
	{5, 29},
	{10, 51},
	{15, 68},
	{20, 78},
	{25, 85},
	{30, 90},
	{35, 93},
}

// DistancePercentile returns the percentage of people who commute farther
// than miles, interpolating linearly within the bracket lo <= miles < hi.
// The first bracket starts at 0 miles and 0 percent. Distances at or beyond
// the last breakpoint, including +Inf for unknown distances, score 0.
func DistancePercentile(miles float64) float64 {
	if math.IsNaN(miles) {
		return 0
	}
	lo := commuteBreakpoint{}
	for _, hi := range commuteCDF {
		if miles < hi.Miles {
			pct := (hi.Percent-lo.Percent)*(miles-lo.Miles)/(hi.Miles-lo.Miles) + lo.Percent
			return 100 - pct
		}
		lo = hi
	}
	return 0
}
