// Package boxplot computes box-plot statistics for SPC measurement groups.
//
// Quartiles use the median-of-halves (Tukey hinge style) method: Q1 is the
// median of the lower floor(n/2) sorted values and Q3 the median of the
// values from ceil(n/2) onward. This deliberately differs from the linear
// interpolation estimators used by numpy and montanaflynn's Percentile, and
// must not be "corrected": charts and tooltips depend on these exact values.
package boxplot

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	dstats "spcdash/domain/stats"
)

// DefaultOutlierThreshold is the IQR multiplier defining outliers
const DefaultOutlierThreshold = 1.5

// NormalizeThreshold returns k, or the default when k is negative or not finite
func NormalizeThreshold(k float64) float64 {
	if math.IsNaN(k) || math.IsInf(k, 0) || k < 0 {
		return DefaultOutlierThreshold
	}
	return k
}

// CalculateStats summarizes values for a box plot. Empty input is a defined
// degenerate case, not an error: every field is zero and Outliers is empty.
// Callers must drop non-finite values first; ProcessGroupedStatistics does.
func CalculateStats(values []float64, outlierThreshold float64) dstats.BoxPlotStatistics {
	if len(values) == 0 {
		return dstats.BoxPlotStatistics{Outliers: []float64{}}
	}
	k := NormalizeThreshold(outlierThreshold)

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	n := len(sorted)

	median := medianOr(sorted, sorted[0])
	q1 := medianOr(sorted[:n/2], sorted[0])
	q3 := medianOr(sorted[(n+1)/2:], sorted[n-1])
	iqr := q3 - q1

	lowerBound := q1 - k*iqr
	upperBound := q3 + k*iqr

	outliers := make([]float64, 0)
	nonOutliers := make([]float64, 0, n)
	for _, v := range sorted {
		if v < lowerBound || v > upperBound {
			outliers = append(outliers, v)
		} else {
			nonOutliers = append(nonOutliers, v)
		}
	}

	whiskerMin, whiskerMax := sorted[0], sorted[n-1]
	if len(nonOutliers) > 0 {
		whiskerMin, _ = stats.Min(nonOutliers)
		whiskerMax, _ = stats.Max(nonOutliers)
	}

	mean, _ := stats.Mean(values)
	sd, _ := stats.StandardDeviationPopulation(values)

	return dstats.BoxPlotStatistics{
		Q1:                q1,
		Median:            median,
		Q3:                q3,
		IQR:               iqr,
		WhiskerMin:        whiskerMin,
		WhiskerMax:        whiskerMax,
		Outliers:          outliers,
		Mean:              mean,
		StandardDeviation: sd,
	}
}

// medianOr returns the median of an already sorted slice, or fallback when
// the slice is empty.
func medianOr(sorted []float64, fallback float64) float64 {
	m, err := stats.Median(sorted)
	if err != nil {
		return fallback
	}
	return m
}

// IsOutlier reports whether v falls outside the fences of s for threshold k
func IsOutlier(s dstats.BoxPlotStatistics, v, k float64) bool {
	k = NormalizeThreshold(k)
	return v < s.LowerFence(k) || v > s.UpperFence(k)
}
