package grading

import (
	"errors"
	"sort"
)

// ErrInvalidCorrectionCount indicates a pipeline wiring bug: consensus is
// only defined over two or three corrections.
var ErrInvalidCorrectionCount = errors.New("consensus requires exactly two or three corrections")

// Consensus reduces 2 or 3 corrections to one final score. With two, it is
// the plain average. With three, the pair of totals closest to each other is
// averaged and the outlier discarded. When the two adjacent gaps are equal,
// the pair containing the lowest total wins.
func Consensus(corrections []Correction) (float64, error) {
	switch len(corrections) {
	case 2:
		return (corrections[0].TotalScore + corrections[1].TotalScore) / 2, nil
	case 3:
		totals := []float64{
			corrections[0].TotalScore,
			corrections[1].TotalScore,
			corrections[2].TotalScore,
		}
		sort.Float64s(totals)

		gapLow := totals[1] - totals[0]
		gapHigh := totals[2] - totals[1]
		if gapLow <= gapHigh {
			return (totals[0] + totals[1]) / 2, nil
		}
		return (totals[1] + totals[2]) / 2, nil
	default:
		return 0, ErrInvalidCorrectionCount
	}
}
