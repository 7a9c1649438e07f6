// Package featuregraph builds and evaluates the DAG of feature operators
// that turn raw market insights into derived ones (§4.5). A Node declares
// which feature-ids it reads and writes; an Operator is the pluggable
// calculation a Node wraps. Operators are a closed, table-driven set so the
// graph's layering is decidable at construction time — no open class
// hierarchy, per §9's polymorphism note.
package featuregraph

import (
	"sort"

	"github.com/arkinlabs/engine/internal/featurestore"
	"github.com/arkinlabs/engine/pkg/formulas"
)

// Operator is the calculation a Node performs once its scoped inputs have
// been read from the feature store. windows maps each of Inputs() to an
// oldest-first slice of Lookback(name) values already fill-resolved per
// Fill(). Evaluate returns one value per name in Outputs(); a missing key
// or NaN value means the operator's own precondition failed for that output
// and a NaN insight is written to preserve the grid.
type Operator interface {
	Inputs() []string
	Outputs() []string
	Fill() featurestore.FillStrategy
	Lookback(input string) int
	Evaluate(windows map[string][]float64) map[string]float64
}

func last(values []float64) float64 {
	if len(values) == 0 {
		return formulas.NaN()
	}
	return values[len(values)-1]
}

// --- Range family: a single-series statistic over n grid ticks. ---

type RangeStat int

const (
	RangeSum RangeStat = iota
	RangeAbsSum
	RangeSumAbsPositive
	RangeSumAbsNegative
	RangeCount
	RangeMean
	RangeStdDev
	RangeQuantile
	RangeMin
	RangeMax
)

// RangeOp computes one statistic over the trailing N grid ticks of Input.
type RangeOp struct {
	Input    string
	Output   string
	Stat     RangeStat
	N        int
	Quantile float64 // used only when Stat == RangeQuantile, 0..1
	FillMode featurestore.FillStrategy
}

func (o RangeOp) Inputs() []string               { return []string{o.Input} }
func (o RangeOp) Outputs() []string               { return []string{o.Output} }
func (o RangeOp) Fill() featurestore.FillStrategy { return o.FillMode }
func (o RangeOp) Lookback(string) int             { return o.N }

func (o RangeOp) Evaluate(windows map[string][]float64) map[string]float64 {
	data := windows[o.Input]
	if len(data) == 0 {
		return map[string]float64{o.Output: formulas.NaN()}
	}
	var v float64
	switch o.Stat {
	case RangeSum:
		for _, x := range data {
			v += x
		}
	case RangeAbsSum:
		for _, x := range data {
			if x < 0 {
				v -= x
			} else {
				v += x
			}
		}
	case RangeSumAbsPositive:
		for _, x := range data {
			if x > 0 {
				v += x
			}
		}
	case RangeSumAbsNegative:
		for _, x := range data {
			if x < 0 {
				v += -x
			}
		}
	case RangeCount:
		v = float64(len(data))
	case RangeMean:
		v = formulas.Mean(data)
	case RangeStdDev:
		v = formulas.StdDev(data)
	case RangeQuantile:
		sorted := append([]float64(nil), data...)
		sort.Float64s(sorted)
		v = formulas.Quantile(o.Quantile, sorted)
	case RangeMin:
		v = data[0]
		for _, x := range data {
			if x < v {
				v = x
			}
		}
	case RangeMax:
		v = data[0]
		for _, x := range data {
			if x > v {
				v = x
			}
		}
	default:
		v = formulas.NaN()
	}
	return map[string]float64{o.Output: v}
}

// --- DualRange family: a statistic over two aligned series. ---

type DualStat int

const (
	DualWeightedMean DualStat = iota
	DualCorrelation
	DualBeta
	DualCovariance
)

// DualRangeOp computes one statistic over the trailing N grid ticks of two
// input series. For DualWeightedMean, InputB supplies the weights.
type DualRangeOp struct {
	InputA, InputB string
	Output         string
	Stat           DualStat
	N              int
	FillMode       featurestore.FillStrategy
}

func (o DualRangeOp) Inputs() []string               { return []string{o.InputA, o.InputB} }
func (o DualRangeOp) Outputs() []string              { return []string{o.Output} }
func (o DualRangeOp) Fill() featurestore.FillStrategy { return o.FillMode }
func (o DualRangeOp) Lookback(string) int             { return o.N }

func (o DualRangeOp) Evaluate(windows map[string][]float64) map[string]float64 {
	a, b := windows[o.InputA], windows[o.InputB]
	if len(a) == 0 || len(a) != len(b) {
		return map[string]float64{o.Output: formulas.NaN()}
	}
	var v float64
	switch o.Stat {
	case DualWeightedMean:
		var sum, norm float64
		for i := range a {
			sum += a[i] * b[i]
			norm += b[i]
		}
		if norm == 0 {
			v = formulas.NaN()
		} else {
			v = sum / norm
		}
	case DualCorrelation:
		v = formulas.Correlation(a, b)
	case DualBeta:
		v = formulas.Beta(a, b)
	case DualCovariance:
		v = formulas.Covariance(a, b)
	default:
		v = formulas.NaN()
	}
	return map[string]float64{o.Output: v}
}

// --- TwoValue family: pointwise combination of two latest values. ---

type TwoValueKind int

const (
	TwoValueImbalance TwoValueKind = iota
	TwoValueRatio
	TwoValueDifference
	TwoValueSum
)

// TwoValueOp combines the single latest value of InputA and InputB.
type TwoValueOp struct {
	InputA, InputB string
	Output         string
	Kind           TwoValueKind
	FillMode       featurestore.FillStrategy
}

func (o TwoValueOp) Inputs() []string               { return []string{o.InputA, o.InputB} }
func (o TwoValueOp) Outputs() []string               { return []string{o.Output} }
func (o TwoValueOp) Fill() featurestore.FillStrategy { return o.FillMode }
func (o TwoValueOp) Lookback(string) int             { return 1 }

func (o TwoValueOp) Evaluate(windows map[string][]float64) map[string]float64 {
	a, b := last(windows[o.InputA]), last(windows[o.InputB])
	var v float64
	switch o.Kind {
	case TwoValueImbalance:
		denom := a + b
		if denom == 0 {
			v = 0
		} else {
			v = (a - b) / denom
		}
	case TwoValueRatio:
		if b == 0 {
			v = formulas.NaN()
		} else {
			v = a / b
		}
	case TwoValueDifference:
		v = a - b
	case TwoValueSum:
		v = a + b
	default:
		v = formulas.NaN()
	}
	return map[string]float64{o.Output: v}
}

// --- Lag family: compares value at t against value at t-lag*g. ---

type LagKind int

const (
	LagDifference LagKind = iota
	LagPctChange
	LagLogChange
)

// LagOp compares Input's current value to its value LagTicks grid ticks ago.
type LagOp struct {
	Input    string
	Output   string
	LagTicks int
	Kind     LagKind
	FillMode featurestore.FillStrategy
}

func (o LagOp) Inputs() []string               { return []string{o.Input} }
func (o LagOp) Outputs() []string               { return []string{o.Output} }
func (o LagOp) Fill() featurestore.FillStrategy { return o.FillMode }
func (o LagOp) Lookback(string) int             { return o.LagTicks + 1 }

func (o LagOp) Evaluate(windows map[string][]float64) map[string]float64 {
	data := windows[o.Input]
	if len(data) < o.LagTicks+1 {
		return map[string]float64{o.Output: formulas.NaN()}
	}
	current := data[len(data)-1]
	prior := data[len(data)-1-o.LagTicks]
	var v float64
	switch o.Kind {
	case LagDifference:
		v = current - prior
	case LagPctChange:
		if prior == 0 {
			v = formulas.NaN()
		} else {
			v = (current - prior) / prior
		}
	case LagLogChange:
		if prior <= 0 || current <= 0 {
			v = formulas.NaN()
		} else {
			v = logRatio(current, prior)
		}
	default:
		v = formulas.NaN()
	}
	return map[string]float64{o.Output: v}
}

// --- Smoothing family: wraps pkg/formulas' moving-average methods. ---

// SmoothingOp emits the last value of the configured moving average over
// the trailing window.
type SmoothingOp struct {
	Input    string
	Output   string
	Params   formulas.SmoothingParams
	FillMode featurestore.FillStrategy
}

func (o SmoothingOp) Inputs() []string               { return []string{o.Input} }
func (o SmoothingOp) Outputs() []string               { return []string{o.Output} }
func (o SmoothingOp) Fill() featurestore.FillStrategy { return o.FillMode }
func (o SmoothingOp) Lookback(string) int             { return o.Params.MaxPeriod() }

func (o SmoothingOp) Evaluate(windows map[string][]float64) map[string]float64 {
	v, ok := o.Params.Apply(windows[o.Input])
	if !ok {
		v = formulas.NaN()
	}
	return map[string]float64{o.Output: v}
}
