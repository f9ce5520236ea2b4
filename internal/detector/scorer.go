package detector

import (
	"github.com/piyushhhxyz/insider-detect/internal/models"
)

// Composite returns the weighted sum of the signal scores, clamped to [0, 1].
// With valid weights (summing to 1.0) and signal scores in [0, 1] the clamp
// never fires; it guards against externally supplied scores.
func Composite(signals []models.SignalScore) float64 {
	total := 0.0
	for _, s := range signals {
		total += s.Weighted()
	}
	if total < 0 {
		return 0
	}
	if total > 1 {
		return 1
	}
	return total
}

// Classify maps a composite score to its risk tier.
func (t Tiers) Classify(score float64) models.RiskTier {
	switch {
	case score >= t.Critical:
		return models.TierCritical
	case score >= t.High:
		return models.TierHigh
	case score >= t.Medium:
		return models.TierMedium
	default:
		return models.TierLow
	}
}
