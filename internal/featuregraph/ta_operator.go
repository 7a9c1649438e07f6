package featuregraph

import (
	"math"

	"github.com/arkinlabs/engine/internal/featurestore"
	"github.com/arkinlabs/engine/pkg/formulas"
)

func logRatio(current, prior float64) float64 {
	return math.Log(current / prior)
}

// TAKind selects a compound technical-analysis indicator.
type TAKind int

const (
	TABollinger TAKind = iota
	TARSI
	TAMACD
	TATrueRange
)

// Output names for the multi-value compound indicators.
const (
	OutputBollingerMiddle     = "bollinger_middle"
	OutputBollingerUpper      = "bollinger_upper"
	OutputBollingerLower      = "bollinger_lower"
	OutputBollingerOscillator = "bollinger_oscillator"
	OutputBollingerWidth      = "bollinger_width"

	OutputMACDLine      = "macd_line"
	OutputMACDSignal    = "macd_signal"
	OutputMACDHistogram = "macd_histogram"
)

// CompoundTAOp wraps one of pkg/formulas' multi-step indicators. Close is
// always required; High and Low are only read for TATrueRange.
type CompoundTAOp struct {
	Close, High, Low string
	OutputPrefix     string // namespaces single-output kinds (RSI, TrueRange)
	Kind             TAKind
	Period           int
	FastPeriod       int // MACD
	SlowPeriod       int // MACD
	SignalPeriod     int // MACD
	StdDevMultiplier float64
	FillMode         featurestore.FillStrategy
}

func (o CompoundTAOp) Inputs() []string {
	if o.Kind == TATrueRange {
		return []string{o.Close, o.High, o.Low}
	}
	return []string{o.Close}
}

func (o CompoundTAOp) Outputs() []string {
	switch o.Kind {
	case TABollinger:
		return []string{OutputBollingerMiddle, OutputBollingerUpper, OutputBollingerLower, OutputBollingerOscillator, OutputBollingerWidth}
	case TAMACD:
		return []string{OutputMACDLine, OutputMACDSignal, OutputMACDHistogram}
	default:
		return []string{o.OutputPrefix}
	}
}

func (o CompoundTAOp) Fill() featurestore.FillStrategy { return o.FillMode }

func (o CompoundTAOp) Lookback(name string) int {
	switch o.Kind {
	case TAMACD:
		return o.SlowPeriod + o.SignalPeriod
	case TATrueRange:
		return 2
	default:
		return o.Period
	}
}

func (o CompoundTAOp) Evaluate(windows map[string][]float64) map[string]float64 {
	switch o.Kind {
	case TABollinger:
		b, ok := formulas.ComputeBollinger(windows[o.Close], o.Period, o.StdDevMultiplier)
		if !ok {
			nan := formulas.NaN()
			return map[string]float64{
				OutputBollingerMiddle: nan, OutputBollingerUpper: nan, OutputBollingerLower: nan,
				OutputBollingerOscillator: nan, OutputBollingerWidth: nan,
			}
		}
		return map[string]float64{
			OutputBollingerMiddle:     b.Middle,
			OutputBollingerUpper:      b.Upper,
			OutputBollingerLower:      b.Lower,
			OutputBollingerOscillator: b.Oscillator,
			OutputBollingerWidth:      b.Width,
		}
	case TARSI:
		v, ok := formulas.RSI(windows[o.Close], o.Period)
		if !ok {
			v = formulas.NaN()
		}
		return map[string]float64{o.OutputPrefix: v}
	case TAMACD:
		m, ok := formulas.ComputeMACD(windows[o.Close], o.FastPeriod, o.SlowPeriod, o.SignalPeriod)
		if !ok {
			nan := formulas.NaN()
			return map[string]float64{OutputMACDLine: nan, OutputMACDSignal: nan, OutputMACDHistogram: nan}
		}
		return map[string]float64{OutputMACDLine: m.Value, OutputMACDSignal: m.Signal, OutputMACDHistogram: m.Histogram}
	case TATrueRange:
		v, ok := formulas.TrueRange(windows[o.High], windows[o.Low], windows[o.Close])
		if !ok {
			v = formulas.NaN()
		}
		return map[string]float64{o.OutputPrefix: v}
	default:
		return map[string]float64{o.OutputPrefix: formulas.NaN()}
	}
}
