package fusion

// Weights is the fixed factor table fusing the four sub-scores into
// one directional score. All fusion tuning lives here, nowhere else.
type Weights struct {
	Technical       float64
	Sentiment       float64
	PriceAction     float64
	MarketStructure float64
}

// DefaultWeights is the canonical split. Must sum to 1.
var DefaultWeights = Weights{
	Technical:       0.40,
	Sentiment:       0.30,
	PriceAction:     0.20,
	MarketStructure: 0.10,
}

// Sum returns the total weight, checked to equal 1 by tests.
func (w Weights) Sum() float64 {
	return w.Technical + w.Sentiment + w.PriceAction + w.MarketStructure
}

// Action thresholds on the fused score.
const (
	buyThreshold  = 0.3
	sellThreshold = -0.3
	// Above the clear threshold the direction is taken even when the
	// technical and sentiment factors disagree; between the action
	// threshold and this bound a disagreement maps to SWAP.
	clearThreshold = 0.6
)

// Confidence model: base plus contributions from signal alignment,
// sentiment strength and fused-score magnitude, clamped to bounds.
const (
	confidenceBase  = 0.5
	confidenceMin   = 0.1
	confidenceMax   = 0.95
	alignmentFactor = 0.20
	sentimentFactor = 0.15
	magnitudeFactor = 0.25
)

// Price target constants for long and short framing.
const (
	longStopPct  = 0.95
	longTakePct  = 1.15
	shortStopPct = 1.05
	shortTakePct = 0.85
)

// forecastHorizons maps each horizon to its time-decay multiplier on
// fused score x confidence.
var forecastHorizons = []struct {
	Horizon string
	Decay   float64
}{
	{"1h", 0.01},
	{"4h", 0.03},
	{"24h", 0.08},
	{"7d", 0.15},
}
