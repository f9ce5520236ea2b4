// Package detector implements the signal-extraction and composite-scoring
// engine: six behavioral signals computed over a wallet's economic history,
// combined into a weighted composite score and a risk tier.
package detector

import (
	"fmt"
	"math"
	"time"
)

// weightTolerance is the floating-point slack allowed when checking that the
// six signal weights sum to 1.0.
const weightTolerance = 1e-6

// Weights holds the contribution of each signal to the composite score.
// They must be non-negative and sum to 1.0.
type Weights struct {
	Freshness float64
	Certainty float64
	Timing    float64
	Focus     float64
	Size      float64
	Surgical  float64
}

// Sum returns the total of all six weights.
func (w Weights) Sum() float64 {
	return w.Freshness + w.Certainty + w.Timing + w.Focus + w.Size + w.Surgical
}

// Tiers holds the composite-score thresholds for risk classification.
// Thresholds must be strictly descending; scores below Medium are LOW.
type Tiers struct {
	Critical float64
	High     float64
	Medium   float64
}

// FreshnessBands are the deposit-to-first-trade gap cut-offs.
type FreshnessBands struct {
	CriticalGap   time.Duration // gap below this scores 1.0
	SuspiciousGap time.Duration // ... 0.7
	ModerateGap   time.Duration // ... 0.4; anything slower scores 0.0
}

// CertaintyParams bound the "bought cheap, won big" check.
type CertaintyParams struct {
	MinPrice       float64 // lowest entry price considered
	MaxPrice       float64 // highest entry price still counted as cheap
	MinPayoutRatio float64 // required potential payout / amount paid
}

// TimingBands are the final-fraction-of-lifecycle cut-offs for entry timing.
type TimingBands struct {
	CriticalPct   float64 // entry within the final N of the window scores 1.0
	SuspiciousPct float64 // ... 0.7
	ModeratePct   float64 // ... 0.4
}

// SizeBands are the max single-market notional cut-offs.
type SizeBands struct {
	LargeUSD  float64
	MediumUSD float64
	SmallUSD  float64
}

// SurgicalParams bound the fund→bet→win→exit pattern check.
type SurgicalParams struct {
	WithdrawPct    float64 // fraction of post-trade balance withdrawn after the last trade
	MinProfitRatio float64 // required redeemed / deposited
}

// Config is the immutable scoring configuration. Construct it once (via
// DefaultConfig or the application config), validate it, and pass it into
// the engine; there are no ambient scoring parameters.
type Config struct {
	Weights   Weights
	Tiers     Tiers
	Freshness FreshnessBands
	Certainty CertaintyParams
	Timing    TimingBands
	Size      SizeBands
	Surgical  SurgicalParams
}

// DefaultConfig returns the reference weights, thresholds, and band
// parameters.
func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			Freshness: 0.15,
			Certainty: 0.25,
			Timing:    0.20,
			Focus:     0.15,
			Size:      0.10,
			Surgical:  0.15,
		},
		Tiers: Tiers{
			Critical: 0.85,
			High:     0.70,
			Medium:   0.50,
		},
		Freshness: FreshnessBands{
			CriticalGap:   2 * time.Hour,
			SuspiciousGap: 24 * time.Hour,
			ModerateGap:   7 * 24 * time.Hour,
		},
		Certainty: CertaintyParams{
			MinPrice:       0.05,
			MaxPrice:       0.50,
			MinPayoutRatio: 2.0,
		},
		Timing: TimingBands{
			CriticalPct:   0.05,
			SuspiciousPct: 0.15,
			ModeratePct:   0.30,
		},
		Size: SizeBands{
			LargeUSD:  10_000,
			MediumUSD: 5_000,
			SmallUSD:  1_000,
		},
		Surgical: SurgicalParams{
			WithdrawPct:    0.80,
			MinProfitRatio: 1.5,
		},
	}
}

// Validate checks all scoring parameters. An invalid configuration is fatal
// at startup; it is never silently corrected.
func (c Config) Validate() error {
	for _, w := range []struct {
		name  string
		value float64
	}{
		{"freshness", c.Weights.Freshness},
		{"certainty", c.Weights.Certainty},
		{"timing", c.Weights.Timing},
		{"focus", c.Weights.Focus},
		{"size", c.Weights.Size},
		{"surgical", c.Weights.Surgical},
	} {
		if w.value < 0 {
			return fmt.Errorf("signal weight %s must not be negative, got %v", w.name, w.value)
		}
	}
	if sum := c.Weights.Sum(); math.Abs(sum-1.0) > weightTolerance {
		return fmt.Errorf("signal weights must sum to 1.0, got %v", sum)
	}

	if c.Tiers.Critical <= 0 || c.Tiers.Critical > 1 {
		return fmt.Errorf("critical tier threshold must be in (0, 1], got %v", c.Tiers.Critical)
	}
	if c.Tiers.Critical <= c.Tiers.High || c.Tiers.High <= c.Tiers.Medium || c.Tiers.Medium <= 0 {
		return fmt.Errorf("tier thresholds must be strictly descending, got critical=%v high=%v medium=%v",
			c.Tiers.Critical, c.Tiers.High, c.Tiers.Medium)
	}

	if c.Freshness.CriticalGap <= 0 ||
		c.Freshness.SuspiciousGap <= c.Freshness.CriticalGap ||
		c.Freshness.ModerateGap <= c.Freshness.SuspiciousGap {
		return fmt.Errorf("freshness gaps must be strictly ascending and positive")
	}

	if c.Certainty.MinPrice < 0 || c.Certainty.MaxPrice > 1 || c.Certainty.MinPrice >= c.Certainty.MaxPrice {
		return fmt.Errorf("certainty price band must satisfy 0 <= min < max <= 1, got [%v, %v]",
			c.Certainty.MinPrice, c.Certainty.MaxPrice)
	}
	if c.Certainty.MinPayoutRatio < 1 {
		return fmt.Errorf("certainty payout ratio must be at least 1, got %v", c.Certainty.MinPayoutRatio)
	}

	if c.Timing.CriticalPct <= 0 ||
		c.Timing.SuspiciousPct <= c.Timing.CriticalPct ||
		c.Timing.ModeratePct <= c.Timing.SuspiciousPct ||
		c.Timing.ModeratePct >= 1 {
		return fmt.Errorf("timing bands must be strictly ascending within (0, 1)")
	}

	if c.Size.SmallUSD <= 0 || c.Size.MediumUSD <= c.Size.SmallUSD || c.Size.LargeUSD <= c.Size.MediumUSD {
		return fmt.Errorf("size bands must be strictly ascending and positive")
	}

	if c.Surgical.WithdrawPct <= 0 || c.Surgical.WithdrawPct > 1 {
		return fmt.Errorf("surgical withdraw fraction must be in (0, 1], got %v", c.Surgical.WithdrawPct)
	}
	if c.Surgical.MinProfitRatio < 1 {
		return fmt.Errorf("surgical profit ratio must be at least 1, got %v", c.Surgical.MinProfitRatio)
	}

	return nil
}
