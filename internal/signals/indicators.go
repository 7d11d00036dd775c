// Package signals computes technical indicators over daily price bars
package signals

import (
	"math"
	"sort"

	"github.com/bobmcallan/vnstock-chat/internal/models"
)

// Trend classifies the direction of a price series
type Trend string

const (
	TrendUp      Trend = "up"
	TrendDown    Trend = "down"
	TrendSideway Trend = "sideways"
)

// Crossover results for moving-average pairs
const (
	CrossGolden = "golden_cross"
	CrossDeath  = "death_cross"
	CrossNone   = "none"
)

// series holds bar values newest first, as every indicator below indexes from the latest session.
type series struct {
	close  []float64
	high   []float64
	low    []float64
	volume []int64
}

// newSeries converts oldest-first bars into a newest-first float series.
func newSeries(bars []models.PriceBar) series {
	n := len(bars)
	s := series{
		close:  make([]float64, n),
		high:   make([]float64, n),
		low:    make([]float64, n),
		volume: make([]int64, n),
	}
	for i, b := range bars {
		j := n - 1 - i
		s.close[j] = b.Close.InexactFloat64()
		s.high[j] = b.High.InexactFloat64()
		s.low[j] = b.Low.InexactFloat64()
		s.volume[j] = b.Volume
	}
	return s
}

func (s series) shift(k int) series {
	return series{close: s.close[k:], high: s.high[k:], low: s.low[k:], volume: s.volume[k:]}
}

func (s series) len() int { return len(s.close) }

// SMA calculates the simple moving average of the latest period closes
func SMA(bars []models.PriceBar, period int) float64 {
	return newSeries(bars).sma(period)
}

func (s series) sma(period int) float64 {
	if period <= 0 || s.len() < period {
		return 0
	}
	sum := 0.0
	for i := 0; i < period; i++ {
		sum += s.close[i]
	}
	return sum / float64(period)
}

// EMA calculates the exponential moving average, seeded with the SMA of the oldest window
func EMA(bars []models.PriceBar, period int) float64 {
	if period <= 0 || len(bars) < period {
		return 0
	}
	multiplier := 2.0 / float64(period+1)
	ema := SMA(bars[:period], period)
	for _, b := range bars[period:] {
		ema = (b.Close.InexactFloat64()-ema)*multiplier + ema
	}
	return ema
}

// RSI calculates the relative strength index over period sessions.
// Returns 50 when there is not enough history.
func RSI(bars []models.PriceBar, period int) float64 {
	return newSeries(bars).rsi(period)
}

func (s series) rsi(period int) float64 {
	if period <= 0 || s.len() < period+1 {
		return 50
	}

	var gains, losses float64
	for i := 0; i < period; i++ {
		change := s.close[i] - s.close[i+1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}

	if losses == 0 {
		if gains == 0 {
			return 50
		}
		return 100
	}

	rs := gains / losses
	return 100 - (100 / (1 + rs))
}

// ATR calculates the average true range
func ATR(bars []models.PriceBar, period int) float64 {
	s := newSeries(bars)
	if period <= 0 || s.len() < period+1 {
		return 0
	}

	sum := 0.0
	for i := 0; i < period; i++ {
		prevClose := s.close[i+1]
		tr := math.Max(s.high[i]-s.low[i], math.Max(math.Abs(s.high[i]-prevClose), math.Abs(s.low[i]-prevClose)))
		sum += tr
	}
	return sum / float64(period)
}

// AverageVolume calculates the mean volume of the latest period sessions
func AverageVolume(bars []models.PriceBar, period int) int64 {
	return newSeries(bars).averageVolume(period)
}

func (s series) averageVolume(period int) int64 {
	if period <= 0 || s.len() < period {
		return 0
	}
	var sum int64
	for i := 0; i < period; i++ {
		sum += s.volume[i]
	}
	return sum / int64(period)
}

// VolumeRatio compares the latest session volume with the period average
func VolumeRatio(bars []models.PriceBar, period int) float64 {
	s := newSeries(bars)
	if s.len() == 0 {
		return 1
	}
	avg := s.averageVolume(period)
	if avg == 0 {
		return 1
	}
	return float64(s.volume[0]) / float64(avg)
}

// HighLow returns the highest high and lowest low across bars
func HighLow(bars []models.PriceBar) (high, low float64) {
	if len(bars) == 0 {
		return 0, 0
	}
	low = math.MaxFloat64
	for _, b := range bars {
		if h := b.High.InexactFloat64(); h > high {
			high = h
		}
		if l := b.Low.InexactFloat64(); l < low {
			low = l
		}
	}
	return high, low
}

// SupportResistance estimates support as the lower quartile of lows and
// resistance as the upper quartile of highs within the lookback window.
func SupportResistance(bars []models.PriceBar, lookback int) (support, resistance float64) {
	s := newSeries(bars)
	if lookback > s.len() {
		lookback = s.len()
	}
	if lookback <= 0 {
		return 0, 0
	}

	highs := append([]float64(nil), s.high[:lookback]...)
	lows := append([]float64(nil), s.low[:lookback]...)
	sort.Float64s(highs)
	sort.Float64s(lows)

	return lows[int(float64(len(lows))*0.25)], highs[int(float64(len(highs))*0.75)]
}

// DetectCrossover reports whether the short SMA crossed the long SMA on the latest session
func DetectCrossover(bars []models.PriceBar, shortPeriod, longPeriod int) string {
	s := newSeries(bars)
	if s.len() < longPeriod+1 {
		return CrossNone
	}

	short, long := s.sma(shortPeriod), s.sma(longPeriod)
	prev := s.shift(1)
	prevShort, prevLong := prev.sma(shortPeriod), prev.sma(longPeriod)

	switch {
	case prevShort <= prevLong && short > long:
		return CrossGolden
	case prevShort >= prevLong && short < long:
		return CrossDeath
	default:
		return CrossNone
	}
}

// ClassifyRSI labels an RSI reading
func ClassifyRSI(rsi float64) string {
	if rsi >= 70 {
		return "overbought"
	}
	if rsi <= 30 {
		return "oversold"
	}
	return "neutral"
}

// ClassifyVolume labels a volume ratio
func ClassifyVolume(ratio float64) string {
	if ratio >= 2.0 {
		return "spike"
	}
	if ratio <= 0.5 {
		return "low"
	}
	return "normal"
}

// DistanceToSMA returns the percentage distance from price to sma
func DistanceToSMA(price, sma float64) float64 {
	if sma == 0 {
		return 0
	}
	return ((price - sma) / sma) * 100
}

// DetermineTrend classifies the trend from price and two moving averages.
// A zero long average means the history was too short and only the short one is used.
func DetermineTrend(price, shortSMA, longSMA float64) Trend {
	if shortSMA == 0 {
		return TrendSideway
	}
	if longSMA == 0 {
		switch {
		case price > shortSMA:
			return TrendUp
		case price < shortSMA:
			return TrendDown
		}
		return TrendSideway
	}
	if price > shortSMA && shortSMA > longSMA {
		return TrendUp
	}
	if price < shortSMA && shortSMA < longSMA {
		return TrendDown
	}
	return TrendSideway
}
