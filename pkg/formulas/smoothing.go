package formulas

import (
	"math"

	"github.com/markcheno/go-talib"
)

// SmoothingMethod names one of the moving-average families the feature
// graph's Smoothing operator can apply.
type SmoothingMethod int

const (
	SMA SmoothingMethod = iota
	EMA
	DEMA
	TEMA
	KAMA
	ALMA
)

// SmoothingParams carries the period (and, for KAMA/ALMA, the extra
// parameters) a Smoothing node was configured with.
type SmoothingParams struct {
	Method     SmoothingMethod
	Period     int
	FastPeriod int     // KAMA only, typically 2
	SlowPeriod int     // KAMA only, typically 30
	Offset     float64 // ALMA only, 0..1, typically 0.85
	Sigma      float64 // ALMA only, >0, typically 6.0
}

// MaxPeriod returns the minimum input length p needs before Apply produces
// a meaningful last value.
func (p SmoothingParams) MaxPeriod() int {
	switch p.Method {
	case KAMA:
		m := p.Period
		if p.FastPeriod > m {
			m = p.FastPeriod
		}
		if p.SlowPeriod > m {
			m = p.SlowPeriod
		}
		return m
	default:
		return p.Period
	}
}

// Apply smooths data per p and returns the most recent smoothed value. ok
// is false when data is too short for the method's warm-up period.
func (p SmoothingParams) Apply(data []float64) (float64, bool) {
	if len(data) < p.MaxPeriod() {
		return 0, false
	}
	switch p.Method {
	case SMA:
		return lastNonNaN(talib.Sma(data, p.Period))
	case EMA:
		return lastNonNaN(talib.Ema(data, p.Period))
	case DEMA:
		return lastNonNaN(talib.Dema(data, p.Period))
	case TEMA:
		return lastNonNaN(talib.Tema(data, p.Period))
	case KAMA:
		return kama(data, p.Period, p.FastPeriod, p.SlowPeriod)
	case ALMA:
		return alma(data, p.Period, p.Offset, p.Sigma)
	default:
		return 0, false
	}
}

func lastNonNaN(series []float64) (float64, bool) {
	if len(series) == 0 {
		return 0, false
	}
	v := series[len(series)-1]
	if math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// kama computes Kaufman's Adaptive Moving Average over the whole window and
// returns its last value. go-talib doesn't implement KAMA, so this follows
// the efficiency-ratio/smoothing-constant recurrence directly.
func kama(data []float64, period, fastPeriod, slowPeriod int) (float64, bool) {
	if fastPeriod <= 0 || slowPeriod <= 0 || period <= 0 || fastPeriod >= slowPeriod {
		return 0, false
	}
	fastAlpha := 2.0 / float64(fastPeriod+1)
	slowAlpha := 2.0 / float64(slowPeriod+1)

	value := Mean(data[:period])
	for i := period; i < len(data); i++ {
		change := math.Abs(data[i] - data[i-period])
		volatility := 0.0
		for j := i - period + 1; j <= i; j++ {
			volatility += math.Abs(data[j] - data[j-1])
		}

		er := 0.0
		if volatility != 0 {
			er = change / volatility
		}
		sc := math.Pow(er*(fastAlpha-slowAlpha)+slowAlpha, 2)
		value = value + sc*(data[i]-value)
	}
	return value, true
}

// alma computes the Arnaud Legoux Moving Average's last value over the
// trailing period-sized window of data. go-talib doesn't implement ALMA.
func alma(data []float64, period int, offset, sigma float64) (float64, bool) {
	if period <= 0 || len(data) < period || offset < 0 || offset > 1 || sigma <= 0 {
		return 0, false
	}
	window := data[len(data)-period:]
	m := offset * float64(period-1)
	s := float64(period) / sigma

	var sum, norm float64
	for j, price := range window {
		exponent := -math.Pow(float64(j)-m, 2) / (2 * s * s)
		weight := math.Exp(exponent)
		sum += price * weight
		norm += weight
	}
	if norm == 0 {
		return 0, false
	}
	return sum / norm, true
}
