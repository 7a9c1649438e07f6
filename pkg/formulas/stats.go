// Package formulas computes the feature-graph operator families (§4.5):
// single-series range statistics, two-series statistics, smoothing, and
// compound technical-analysis indicators. Every function operates on plain
// float64 slices, the same float64 values the feature store holds, so no
// conversion happens at the operator boundary.
package formulas

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of data.
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the sample standard deviation of data.
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// Variance calculates the sample variance of data.
func Variance(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.Variance(data, nil)
}

// ZScore standardizes the last value of data against the mean and standard
// deviation of the whole window. Returns 0 when the window has zero
// variance (a constant series has no deviation to score against).
func ZScore(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sd := StdDev(data)
	if sd == 0 {
		return 0
	}
	return (data[len(data)-1] - Mean(data)) / sd
}

// Quantile returns the q-th quantile (0..1) of data using gonum's empirical
// CDF interpolation. data must already be sorted ascending; callers own
// sorting since the feature graph usually has a pre-sorted window buffer.
func Quantile(q float64, sortedData []float64) float64 {
	if len(sortedData) == 0 {
		return 0
	}
	return stat.Quantile(q, stat.Empirical, sortedData, nil)
}

// Median returns the median of data, sorting a defensive copy first.
func Median(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	cp := append([]float64(nil), data...)
	sort.Float64s(cp)
	return Quantile(0.5, cp)
}

// PctChange returns the percentage change of the last value of data
// relative to the first, i.e. (last-first)/first. Returns 0 if the window
// has fewer than two points or the first value is zero.
func PctChange(data []float64) float64 {
	if len(data) < 2 || data[0] == 0 {
		return 0
	}
	return (data[len(data)-1] - data[0]) / data[0]
}

// Returns converts a price series into simple percentage returns,
// Returns[i] = (data[i]-data[i-1])/data[i-1].
func Returns(data []float64) []float64 {
	if len(data) < 2 {
		return nil
	}
	out := make([]float64, len(data)-1)
	for i := 1; i < len(data); i++ {
		if data[i-1] != 0 {
			out[i-1] = (data[i] - data[i-1]) / data[i-1]
		}
	}
	return out
}

// Skewness calculates the sample skewness of data.
func Skewness(data []float64) float64 {
	if len(data) < 3 {
		return 0
	}
	return stat.Skew(data, nil)
}

// IsNaN reports whether f is NaN — used throughout this package wherever a
// go-talib series carries its warm-up gap as NaN rather than a shorter slice.
func IsNaN(f float64) bool {
	return math.IsNaN(f)
}
