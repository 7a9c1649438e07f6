package formulas

import (
	"gonum.org/v1/gonum/stat"
)

// Correlation calculates the Pearson correlation coefficient between x and
// y. Both slices must be the same non-zero length.
func Correlation(x, y []float64) float64 {
	if len(x) == 0 || len(x) != len(y) {
		return 0
	}
	return stat.Correlation(x, y, nil)
}

// Covariance calculates the sample covariance between x and y.
func Covariance(x, y []float64) float64 {
	if len(x) < 2 || len(x) != len(y) {
		return 0
	}
	return stat.Covariance(x, y, nil)
}

// Beta calculates the linear-regression slope of y against x (y's
// sensitivity to x), i.e. Cov(x,y)/Var(x). Used for hedge-ratio and
// synthetic-index-exposure features.
func Beta(x, y []float64) float64 {
	varX := Variance(x)
	if varX == 0 {
		return 0
	}
	return Covariance(x, y) / varX
}

// Spread returns the last-value difference y[last]-x[last], the simplest
// two-instrument feature (e.g. cross-venue basis).
func Spread(x, y []float64) float64 {
	if len(x) == 0 || len(y) == 0 {
		return 0
	}
	return y[len(y)-1] - x[len(x)-1]
}

// SpreadRatio returns y[last]/x[last], 0 if x[last] is zero.
func SpreadRatio(x, y []float64) float64 {
	if len(x) == 0 || len(y) == 0 || x[len(x)-1] == 0 {
		return 0
	}
	return y[len(y)-1] / x[len(x)-1]
}
