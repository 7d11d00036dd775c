package signals

import (
	"github.com/bobmcallan/vnstock-chat/internal/models"
)

// Indicators is the technical read of one price history
type Indicators struct {
	Sessions    int     `json:"sessions"`
	Last        float64 `json:"last"`
	SMA20       float64 `json:"sma20,omitempty"`
	SMA50       float64 `json:"sma50,omitempty"`
	EMA20       float64 `json:"ema20,omitempty"`
	DistSMA20   float64 `json:"dist_sma20,omitempty"`
	RSI14       float64 `json:"rsi14"`
	RSIState    string  `json:"rsi_state"`
	ATR14       float64 `json:"atr14,omitempty"`
	AvgVolume20 int64   `json:"avg_volume20,omitempty"`
	VolumeRatio float64 `json:"volume_ratio"`
	VolumeState string  `json:"volume_state"`
	High        float64 `json:"high"`
	Low         float64 `json:"low"`
	Support     float64 `json:"support"`
	Resistance  float64 `json:"resistance"`
	Crossover   string  `json:"crossover"`
	Trend       Trend   `json:"trend"`
}

// Computer derives indicators from daily bars
type Computer struct{}

// NewComputer creates a new indicator computer
func NewComputer() *Computer {
	return &Computer{}
}

// Compute returns the indicators for oldest-first bars, or nil with fewer than two sessions.
func (c *Computer) Compute(bars []models.PriceBar) *Indicators {
	if len(bars) < 2 {
		return nil
	}

	s := newSeries(bars)
	last := s.close[0]

	sma20 := s.sma(20)
	sma50 := s.sma(50)
	rsi := s.rsi(14)
	volRatio := VolumeRatio(bars, min(20, len(bars)))
	support, resistance := SupportResistance(bars, 60)
	high, low := HighLow(bars)

	ind := &Indicators{
		Sessions:    len(bars),
		Last:        last,
		SMA20:       sma20,
		SMA50:       sma50,
		EMA20:       EMA(bars, 20),
		DistSMA20:   DistanceToSMA(last, sma20),
		RSI14:       rsi,
		RSIState:    ClassifyRSI(rsi),
		ATR14:       ATR(bars, 14),
		AvgVolume20: AverageVolume(bars, 20),
		VolumeRatio: volRatio,
		VolumeState: ClassifyVolume(volRatio),
		High:        high,
		Low:         low,
		Support:     support,
		Resistance:  resistance,
		Crossover:   DetectCrossover(bars, 20, 50),
		Trend:       DetermineTrend(last, sma20, sma50),
	}
	return ind
}
