package indicators

import (
	"math"

	"github.com/avolkov/signalfusion/models"
)

// Default lookback periods.
const (
	RSIPeriod        = 14
	BBPeriod         = 20
	BBStdDev         = 2.0
	StochasticPeriod = 14
	StochasticSmooth = 3
	MACDFastPeriod   = 12
	MACDSlowPeriod   = 26
	MACDSignalPeriod = 9
)

// tradingDaysPerYear annualizes return volatility.
const tradingDaysPerYear = 252

// RSI computes the Relative Strength Index over the trailing period.
// Returns the neutral 50 when fewer than period+1 samples exist and
// 100 when there are no losses in the window.
func RSI(points []models.PricePoint, period int) float64 {
	if len(points) < period+1 {
		return 50.0
	}

	var gains, losses float64
	for i := 1; i <= period; i++ {
		change := points[len(points)-i].Price - points[len(points)-i-1].Price
		if change >= 0 {
			gains += change
		} else {
			losses -= change
		}
	}

	if losses == 0 {
		if gains == 0 {
			return 50.0 // flat window, no direction
		}
		return 100.0
	}

	rs := gains / losses
	return 100.0 - (100.0 / (1.0 + rs))
}

// SMA computes the mean of the trailing period samples. Falls back to
// the most recent price when the history is shorter than the period.
func SMA(points []models.PricePoint, period int) float64 {
	if len(points) == 0 {
		return 0
	}
	if len(points) < period {
		return points[len(points)-1].Price
	}

	var sum float64
	for i := len(points) - period; i < len(points); i++ {
		sum += points[i].Price
	}
	return sum / float64(period)
}

// EMA computes the exponential moving average over the whole series,
// seeded with the first sample. A single-element series returns that
// element.
func EMA(points []models.PricePoint, period int) float64 {
	if len(points) == 0 {
		return 0
	}

	k := 2.0 / float64(period+1)
	ema := points[0].Price
	for i := 1; i < len(points); i++ {
		ema = points[i].Price*k + ema*(1-k)
	}
	return ema
}

// MACD computes EMA(12)-EMA(26), the 9-period signal line and the
// histogram. The signal line is the EMA of the running MACD series.
func MACD(points []models.PricePoint) models.MACDResult {
	if len(points) == 0 {
		return models.MACDResult{}
	}

	kFast := 2.0 / float64(MACDFastPeriod+1)
	kSlow := 2.0 / float64(MACDSlowPeriod+1)
	kSignal := 2.0 / float64(MACDSignalPeriod+1)

	emaFast := points[0].Price
	emaSlow := points[0].Price
	signal := 0.0 // first MACD value is always 0, valid seed

	for i := 1; i < len(points); i++ {
		emaFast = points[i].Price*kFast + emaFast*(1-kFast)
		emaSlow = points[i].Price*kSlow + emaSlow*(1-kSlow)
		signal = (emaFast-emaSlow)*kSignal + signal*(1-kSignal)
	}

	macd := emaFast - emaSlow
	return models.MACDResult{
		MACD:      macd,
		Signal:    signal,
		Histogram: macd - signal,
	}
}

// Bollinger computes the SMA envelope at stdDev standard deviations
// over the trailing period.
func Bollinger(points []models.PricePoint, period int, stdDev float64) models.BollingerBands {
	middle := SMA(points, period)
	if len(points) < period {
		return models.BollingerBands{Upper: middle, Middle: middle, Lower: middle}
	}

	var variance float64
	for i := len(points) - period; i < len(points); i++ {
		diff := points[i].Price - middle
		variance += diff * diff
	}
	sigma := math.Sqrt(variance / float64(period))

	return models.BollingerBands{
		Upper:  middle + stdDev*sigma,
		Middle: middle,
		Lower:  middle - stdDev*sigma,
	}
}

// Stochastic computes %K from the position of the last price within
// the trailing high/low range and %D as a 3-sample smoothing of %K.
// A zero range clamps %K to the neutral 50.
func Stochastic(points []models.PricePoint, period int) models.StochasticResult {
	if len(points) < 2 {
		return models.StochasticResult{K: 50, D: 50}
	}

	var kValues []float64
	for offset := StochasticSmooth - 1; offset >= 0; offset-- {
		end := len(points) - offset
		if end < 1 {
			continue
		}
		kValues = append(kValues, stochasticK(points[:end], period))
	}

	var sum float64
	for _, k := range kValues {
		sum += k
	}

	return models.StochasticResult{
		K: kValues[len(kValues)-1],
		D: sum / float64(len(kValues)),
	}
}

func stochasticK(points []models.PricePoint, period int) float64 {
	start := len(points) - period
	if start < 0 {
		start = 0
	}

	lowest := math.Inf(1)
	highest := math.Inf(-1)
	for i := start; i < len(points); i++ {
		high := points[i].High
		if high == 0 {
			high = points[i].Price
		}
		low := points[i].Low
		if low == 0 {
			low = points[i].Price
		}
		highest = math.Max(highest, high)
		lowest = math.Min(lowest, low)
	}

	if highest == lowest {
		return 50.0
	}
	return (points[len(points)-1].Price - lowest) / (highest - lowest) * 100.0
}

// Volatility is the standard deviation of simple returns over the
// whole series, annualized by sqrt(252). Returns 0 below 2 samples.
func Volatility(points []models.PricePoint) float64 {
	if len(points) < 2 {
		return 0
	}

	returns := make([]float64, 0, len(points)-1)
	for i := 1; i < len(points); i++ {
		if points[i-1].Price == 0 {
			continue
		}
		returns = append(returns, (points[i].Price-points[i-1].Price)/points[i-1].Price)
	}
	if len(returns) == 0 {
		return 0
	}

	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns))

	return math.Sqrt(variance) * math.Sqrt(tradingDaysPerYear)
}

// VolumeChange is the percent change between the current volume and
// the volume five samples back, 0 when either is missing.
func VolumeChange(points []models.PricePoint) float64 {
	if len(points) < 6 {
		return 0
	}
	first := points[len(points)-6].Volume
	last := points[len(points)-1].Volume
	if first <= 0 || last <= 0 {
		return 0
	}
	return (last - first) / first * 100.0
}

// Compute calculates all indicators over one price series. The input
// is read-only and the result carries no identity between calls.
func Compute(points []models.PricePoint) *models.TechnicalIndicators {
	return &models.TechnicalIndicators{
		RSI:       RSI(points, RSIPeriod),
		MACD:      MACD(points),
		Bollinger: Bollinger(points, BBPeriod, BBStdDev),
		MovingAverages: models.MovingAverages{
			SMA20:  SMA(points, 20),
			SMA50:  SMA(points, 50),
			SMA200: SMA(points, 200),
			EMA12:  EMA(points, 12),
			EMA26:  EMA(points, 26),
		},
		Stochastic:   Stochastic(points, StochasticPeriod),
		VolumeChange: VolumeChange(points),
		Volatility:   Volatility(points),
	}
}
