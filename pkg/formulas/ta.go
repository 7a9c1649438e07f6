package formulas

import (
	"github.com/markcheno/go-talib"
)

// RSI returns the last Relative Strength Index value over period, or false
// if closes is too short.
func RSI(closes []float64, period int) (float64, bool) {
	if len(closes) < period+1 {
		return 0, false
	}
	return lastNonNaN(talib.Rsi(closes, period))
}

// MACD holds the last values of the Moving Average Convergence Divergence
// line, its signal line, and their difference (the histogram).
type MACD struct {
	Value     float64
	Signal    float64
	Histogram float64
}

// ComputeMACD returns the last MACD triple for the given fast/slow/signal
// periods (conventionally 12/26/9).
func ComputeMACD(closes []float64, fastPeriod, slowPeriod, signalPeriod int) (MACD, bool) {
	if len(closes) < slowPeriod+signalPeriod {
		return MACD{}, false
	}
	macd, signal, hist := talib.Macd(closes, fastPeriod, slowPeriod, signalPeriod)
	v, ok := lastNonNaN(macd)
	if !ok {
		return MACD{}, false
	}
	s, _ := lastNonNaN(signal)
	h, _ := lastNonNaN(hist)
	return MACD{Value: v, Signal: s, Histogram: h}, true
}

// BollingerBands holds the last values of the middle/upper/lower bands plus
// the derived oscillator (price position within the bands, 0..1) and width
// (band spread relative to the middle band).
type BollingerBands struct {
	Middle     float64
	Upper      float64
	Lower      float64
	Oscillator float64
	Width      float64
}

// ComputeBollinger returns the last Bollinger Bands values for the given
// period and standard-deviation multiplier (conventionally 20, 2.0).
func ComputeBollinger(closes []float64, period int, stdDevMultiplier float64) (BollingerBands, bool) {
	if len(closes) < period {
		return BollingerBands{}, false
	}
	upper, middle, lower := talib.BBands(closes, period, stdDevMultiplier, stdDevMultiplier, 0) // 0 = SMA basis
	u, ok := lastNonNaN(upper)
	if !ok {
		return BollingerBands{}, false
	}
	m, _ := lastNonNaN(middle)
	l, _ := lastNonNaN(lower)

	diff := u - l
	price := closes[len(closes)-1]
	oscillator := 0.5
	if diff != 0 {
		oscillator = (price - l) / diff
	}
	width := 0.0
	if m != 0 {
		width = diff / m
	}
	return BollingerBands{Middle: m, Upper: u, Lower: l, Oscillator: oscillator, Width: width}, true
}

// TrueRange returns the last True Range value from aligned high/low/close
// series.
func TrueRange(high, low, close []float64) (float64, bool) {
	if len(high) != len(low) || len(low) != len(close) || len(high) < 2 {
		return 0, false
	}
	return lastNonNaN(talib.TrueRange(high, low, close))
}

// ATR returns the last Average True Range value over period.
func ATR(high, low, close []float64, period int) (float64, bool) {
	if len(high) != len(low) || len(low) != len(close) || len(high) < period+1 {
		return 0, false
	}
	return lastNonNaN(talib.Atr(high, low, close, period))
}

// DistanceFromEMA returns the percentage distance of the last close from
// its EMA(period): (price-ema)/ema. False if ema is zero or data is short.
func DistanceFromEMA(closes []float64, period int) (float64, bool) {
	ema, ok := (SmoothingParams{Method: EMA, Period: period}).Apply(closes)
	if !ok || ema == 0 {
		return 0, false
	}
	price := closes[len(closes)-1]
	return (price - ema) / ema, true
}
