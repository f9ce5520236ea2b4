package detector

import (
	"fmt"
	"time"

	"github.com/piyushhhxyz/insider-detect/internal/models"
)

// Band scores are deliberately coarse: the source methodology defines no
// interpolation between bands.
const (
	scoreFull       = 1.0
	scoreSuspicious = 0.7
	scorePartial    = 0.5
	scoreModerate   = 0.4
	scoreNone       = 0.0
)

// walletFreshness scores the gap between the first funding deposit and the
// first trade. Burner wallets fund and trade within hours. Only deposits that
// precede the first trade count.
func walletFreshness(w *walletCtx) (float64, string) {
	if len(w.events.Trades) == 0 {
		return scoreNone, "no trades recorded; scored 0.0"
	}
	firstTrade := w.events.Trades[0].Timestamp

	var firstDeposit time.Time
	for _, f := range w.events.Funding {
		if f.Direction != models.DirectionDeposit || f.Timestamp.After(firstTrade) {
			continue
		}
		if firstDeposit.IsZero() || f.Timestamp.Before(firstDeposit) {
			firstDeposit = f.Timestamp
		}
	}
	if firstDeposit.IsZero() {
		return scoreNone, "no deposit preceding first trade; scored 0.0"
	}

	gap := firstTrade.Sub(firstDeposit)
	bands := w.cfg.Freshness
	switch {
	case gap < bands.CriticalGap:
		return scoreFull, fmt.Sprintf("funded %s before first trade (under %s); scored 1.0", gap, bands.CriticalGap)
	case gap < bands.SuspiciousGap:
		return scoreSuspicious, fmt.Sprintf("funded %s before first trade (under %s); scored 0.7", gap, bands.SuspiciousGap)
	case gap < bands.ModerateGap:
		return scoreModerate, fmt.Sprintf("funded %s before first trade (under %s); scored 0.4", gap, bands.ModerateGap)
	default:
		return scoreNone, fmt.Sprintf("funded %s before first trade (beyond %s); scored 0.0", gap, bands.ModerateGap)
	}
}

// outcomeCertainty scores "bought cheap, bet on a long shot, and won": buys
// priced as unlikely outcomes with a payout ratio of at least the configured
// multiple, proven profitable by redemptions exceeding the amount paid.
// Redemption is the proof of a win, since explicit resolution-outcome
// metadata is frequently absent.
func outcomeCertainty(w *walletCtx) (float64, string) {
	params := w.cfg.Certainty

	hasBuys := false
	insufficient := false
	best := -1.0
	rationale := ""

	record := func(score float64, why string) {
		if score > best {
			best = score
			rationale = why
		}
	}

	for _, pos := range w.positions {
		var paid, priceSum float64
		var buys int
		for _, t := range pos.Trades {
			if t.Side != models.SideBuy {
				continue
			}
			buys++
			paid += t.Size
			priceSum += t.Price
		}
		if buys == 0 {
			continue
		}
		hasBuys = true

		avgPrice := priceSum / float64(buys)
		cheap := avgPrice >= params.MinPrice && avgPrice <= params.MaxPrice
		payoutRatio := 0.0
		if avgPrice > 0 {
			payoutRatio = 1.0 / avgPrice
		}
		cheapLongShot := cheap && payoutRatio >= params.MinPayoutRatio
		won := paid > 0 && pos.Redeemed > paid
		resolutionKnown := pos.Market != nil && pos.Market.Resolved

		switch {
		case cheapLongShot && won:
			record(scoreFull, fmt.Sprintf(
				"bought at avg price %.2f (%.1fx payout) and redeemed %.2f over %.2f paid; scored 1.0",
				avgPrice, payoutRatio, pos.Redeemed, paid))
		case cheapLongShot && resolutionKnown:
			record(scorePartial, fmt.Sprintf(
				"bought at avg price %.2f (%.1fx payout) without redemption proof of profit; scored 0.5",
				avgPrice, payoutRatio))
		case won:
			record(scorePartial, fmt.Sprintf(
				"redeemed %.2f over %.2f paid without a cheap long-shot entry; scored 0.5",
				pos.Redeemed, paid))
		case cheapLongShot:
			// Cheap entry on a market with no resolution and no redemption:
			// the outcome is not yet knowable either way.
			insufficient = true
		default:
			record(scoreNone, "no cheap high-payout entries with proof of profit; scored 0.0")
		}
	}

	if best < 0 {
		if insufficient {
			return scoreNone, "insufficient data: no resolved market or redemption evidence; scored 0.0"
		}
		if !hasBuys {
			return scoreNone, "no buy trades; scored 0.0"
		}
		return scoreNone, "no cheap high-payout entries with proof of profit; scored 0.0"
	}
	return best, rationale
}

// entryTiming scores how late in a market's lifecycle the wallet first
// entered, preferring the actual resolution time over the scheduled deadline
// as the window end. The latest-entering market decides the band.
func entryTiming(w *walletCtx) (float64, string) {
	best := -1.0
	for _, pos := range w.positions {
		if pos.Market == nil || len(pos.Trades) == 0 {
			continue
		}
		start := pos.Market.StartTime
		end := pos.Market.CloseTime()
		if start.IsZero() || end.IsZero() || !end.After(start) {
			continue
		}
		frac := pos.Trades[0].Timestamp.Sub(start).Seconds() / end.Sub(start).Seconds()
		if frac < 0 || frac > 1 {
			continue
		}
		if frac > best {
			best = frac
		}
	}

	if best < 0 {
		return scoreNone, "insufficient market timing data; scored 0.0"
	}

	bands := w.cfg.Timing
	pct := best * 100
	switch {
	case best >= 1-bands.CriticalPct:
		return scoreFull, fmt.Sprintf("entered at %.1f%% of market lifecycle (final %.0f%%); scored 1.0", pct, bands.CriticalPct*100)
	case best >= 1-bands.SuspiciousPct:
		return scoreSuspicious, fmt.Sprintf("entered at %.1f%% of market lifecycle (final %.0f%%); scored 0.7", pct, bands.SuspiciousPct*100)
	case best >= 1-bands.ModeratePct:
		return scoreModerate, fmt.Sprintf("entered at %.1f%% of market lifecycle (final %.0f%%); scored 0.4", pct, bands.ModeratePct*100)
	default:
		return scoreNone, fmt.Sprintf("entered at %.1f%% of market lifecycle; scored 0.0", pct)
	}
}

// marketFocus scores concentration: targeted insider knowledge shows up as
// trading in very few distinct markets.
func marketFocus(w *walletCtx) (float64, string) {
	distinct := 0
	for _, pos := range w.positions {
		if len(pos.Trades) > 0 {
			distinct++
		}
	}

	switch distinct {
	case 0:
		return scoreNone, "no trades recorded; scored 0.0"
	case 1:
		return scoreFull, "traded 1 distinct market; scored 1.0"
	case 2:
		return scoreSuspicious, "traded 2 distinct markets; scored 0.7"
	case 3:
		return scoreModerate, "traded 3 distinct markets; scored 0.4"
	default:
		return scoreNone, fmt.Sprintf("traded %d distinct markets; scored 0.0", distinct)
	}
}

// positionSize scores the largest total notional the wallet placed on any
// single market.
func positionSize(w *walletCtx) (float64, string) {
	maxNotional := 0.0
	for _, pos := range w.positions {
		var notional float64
		for _, t := range pos.Trades {
			notional += t.Size
		}
		if notional > maxNotional {
			maxNotional = notional
		}
	}

	bands := w.cfg.Size
	switch {
	case maxNotional >= bands.LargeUSD:
		return scoreFull, fmt.Sprintf("max single-market notional $%.2f (at least $%.0f); scored 1.0", maxNotional, bands.LargeUSD)
	case maxNotional >= bands.MediumUSD:
		return scoreSuspicious, fmt.Sprintf("max single-market notional $%.2f (at least $%.0f); scored 0.7", maxNotional, bands.MediumUSD)
	case maxNotional >= bands.SmallUSD:
		return scoreModerate, fmt.Sprintf("max single-market notional $%.2f (at least $%.0f); scored 0.4", maxNotional, bands.SmallUSD)
	default:
		return scoreNone, fmt.Sprintf("max single-market notional $%.2f below $%.0f; scored 0.0", maxNotional, bands.SmallUSD)
	}
}
