package grading

import "math"

// CheckDivergence compares two examiner totals against the configured
// threshold. Pure and symmetric in its two inputs.
func CheckDivergence(a, b Correction, threshold float64) DivergenceResult {
	diff := math.Abs(a.TotalScore - b.TotalScore)
	return DivergenceResult{
		Divergent: diff > threshold,
		Diff:      diff,
		Threshold: threshold,
	}
}
