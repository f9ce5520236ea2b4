package models

// RiskTier classifies a wallet's composite score.
type RiskTier string

const (
	TierLow      RiskTier = "LOW"
	TierMedium   RiskTier = "MEDIUM"
	TierHigh     RiskTier = "HIGH"
	TierCritical RiskTier = "CRITICAL"
)

// Signal names, in evaluation order.
const (
	SignalWalletFreshness  = "WalletFreshness"
	SignalOutcomeCertainty = "OutcomeCertainty"
	SignalEntryTiming      = "EntryTiming"
	SignalMarketFocus      = "MarketFocus"
	SignalPositionSize     = "PositionSize"
	SignalSurgicalBehavior = "SurgicalBehavior"
)

// SignalScore is the outcome of one behavioral signal for one wallet.
// Rationale states which band was selected and why, so a score can be audited.
type SignalScore struct {
	Name      string  `json:"name"`
	Score     float64 `json:"score"`
	Weight    float64 `json:"weight"`
	Rationale string  `json:"rationale"`
}

// Weighted returns the signal's contribution to the composite score.
func (s SignalScore) Weighted() float64 {
	return s.Score * s.Weight
}

// Report is the full scoring result for one wallet: the six signal scores,
// the weighted composite, and the resulting risk tier.
type Report struct {
	Wallet          string        `json:"wallet"`
	Volume          float64       `json:"volume"`
	TradeCount      int           `json:"trade_count"`
	MarketCount     int           `json:"market_count"`
	MalformedEvents int           `json:"malformed_events,omitempty"`
	Signals         []SignalScore `json:"signals"`
	Composite       float64       `json:"composite"`
	Tier            RiskTier      `json:"tier"`
}

// Signal returns the named signal score, or a zero value when absent.
func (r *Report) Signal(name string) SignalScore {
	for _, s := range r.Signals {
		if s.Name == name {
			return s
		}
	}
	return SignalScore{Name: name}
}
