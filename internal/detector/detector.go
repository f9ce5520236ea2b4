package detector

import (
	"fmt"
	"sort"
	"sync"

	"github.com/piyushhhxyz/insider-detect/internal/logger"
	"github.com/piyushhhxyz/insider-detect/internal/models"
)

// batchWorkers bounds concurrent wallet evaluations in ScoreBatch.
const batchWorkers = 8

// Engine runs the six behavioral signals against a wallet's event set and
// produces a risk report. It is stateless apart from its immutable
// configuration and safe for concurrent use.
type Engine struct {
	cfg Config
}

// NewEngine validates cfg and constructs an engine. An invalid configuration
// is the only fatal error class in the scoring core.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scoring configuration: %w", err)
	}
	return &Engine{cfg: cfg}, nil
}

// position groups one wallet's activity on a single market. Key is the
// resolved market ID, or the raw feed identifier when no context exists.
type position struct {
	Key      string
	Market   *models.Market // nil when context is missing
	Trades   []models.Trade // chronological
	Redeemed float64
}

// walletCtx is the prepared per-wallet input shared by all signals.
type walletCtx struct {
	cfg       Config
	events    *models.WalletEvents
	positions []position
}

// signalFunc computes one signal over a prepared wallet context. It never
// fails: missing or partial data degrades to the lowest applicable band with
// an explanatory rationale.
type signalFunc func(*walletCtx) (float64, string)

type signalDef struct {
	Name   string
	Weight func(Weights) float64
	Fn     signalFunc
}

// signalSet is the closed, ordered set of behavioral signals.
func signalSet() []signalDef {
	return []signalDef{
		{models.SignalWalletFreshness, func(w Weights) float64 { return w.Freshness }, walletFreshness},
		{models.SignalOutcomeCertainty, func(w Weights) float64 { return w.Certainty }, outcomeCertainty},
		{models.SignalEntryTiming, func(w Weights) float64 { return w.Timing }, entryTiming},
		{models.SignalMarketFocus, func(w Weights) float64 { return w.Focus }, marketFocus},
		{models.SignalPositionSize, func(w Weights) float64 { return w.Size }, positionSize},
		{models.SignalSurgicalBehavior, func(w Weights) float64 { return w.Surgical }, surgicalBehavior},
	}
}

// Score evaluates one wallet's complete event set against the resolved market
// context and returns its report. The computation is pure: the same events
// and context always produce an identical report.
func (e *Engine) Score(events *models.WalletEvents, lookup MarketLookup) models.Report {
	clean, malformed := sanitize(events)
	if malformed > 0 {
		logger.Warn("wallet %s: excluded %d malformed event(s) from scoring", clean.Wallet, malformed)
	}

	wctx := &walletCtx{
		cfg:       e.cfg,
		events:    clean,
		positions: buildPositions(clean, lookup),
	}

	report := models.Report{
		Wallet:          clean.Wallet,
		TradeCount:      len(clean.Trades),
		MalformedEvents: malformed,
	}
	for _, t := range clean.Trades {
		if t.Side == models.SideBuy {
			report.Volume += t.Size
		}
	}
	for _, pos := range wctx.positions {
		if len(pos.Trades) > 0 {
			report.MarketCount++
		}
	}

	for _, def := range signalSet() {
		score, rationale := def.Fn(wctx)
		report.Signals = append(report.Signals, models.SignalScore{
			Name:      def.Name,
			Score:     score,
			Weight:    def.Weight(e.cfg.Weights),
			Rationale: rationale,
		})
	}

	report.Composite = Composite(report.Signals)
	report.Tier = e.cfg.Tiers.Classify(report.Composite)
	return report
}

// ScoreBatch scores independent wallets concurrently. Wallets share only the
// read-only market lookup; one wallet's data quality never affects another's
// report. Results are returned in input order.
func (e *Engine) ScoreBatch(batch []*models.WalletEvents, lookup MarketLookup) []models.Report {
	reports := make([]models.Report, len(batch))
	sem := make(chan struct{}, batchWorkers)
	var wg sync.WaitGroup
	for i, events := range batch {
		wg.Add(1)
		go func(i int, events *models.WalletEvents) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			reports[i] = e.Score(events, lookup)
		}(i, events)
	}
	wg.Wait()
	return reports
}

// sanitize copies the event set, dropping records that lack a timestamp or a
// positive amount, and orders everything chronologically. The caller's slices
// are never mutated.
func sanitize(events *models.WalletEvents) (*models.WalletEvents, int) {
	clean := &models.WalletEvents{Wallet: events.Wallet}
	malformed := 0

	for _, t := range events.Trades {
		if t.Timestamp.IsZero() || t.Size <= 0 || t.Price < 0 || t.Price > 1 {
			malformed++
			continue
		}
		clean.Trades = append(clean.Trades, t)
	}
	for _, f := range events.Funding {
		if f.Timestamp.IsZero() || f.Amount <= 0 {
			malformed++
			continue
		}
		clean.Funding = append(clean.Funding, f)
	}
	for _, r := range events.Redemptions {
		if r.Timestamp.IsZero() || r.Amount <= 0 {
			malformed++
			continue
		}
		clean.Redemptions = append(clean.Redemptions, r)
	}

	sort.SliceStable(clean.Trades, func(i, j int) bool {
		if !clean.Trades[i].Timestamp.Equal(clean.Trades[j].Timestamp) {
			return clean.Trades[i].Timestamp.Before(clean.Trades[j].Timestamp)
		}
		return clean.Trades[i].ID < clean.Trades[j].ID
	})
	sort.SliceStable(clean.Funding, func(i, j int) bool {
		if !clean.Funding[i].Timestamp.Equal(clean.Funding[j].Timestamp) {
			return clean.Funding[i].Timestamp.Before(clean.Funding[j].Timestamp)
		}
		return clean.Funding[i].ID < clean.Funding[j].ID
	})
	sort.SliceStable(clean.Redemptions, func(i, j int) bool {
		if !clean.Redemptions[i].Timestamp.Equal(clean.Redemptions[j].Timestamp) {
			return clean.Redemptions[i].Timestamp.Before(clean.Redemptions[j].Timestamp)
		}
		return clean.Redemptions[i].ID < clean.Redemptions[j].ID
	})

	return clean, malformed
}

// buildPositions groups trades and redemptions per owning market, resolving
// token identifiers through the lookup. Unresolvable references group by
// their raw identifier so every signal still sees the activity. Positions are
// sorted by key for deterministic iteration.
func buildPositions(events *models.WalletEvents, lookup MarketLookup) []position {
	byKey := make(map[string]*position)

	resolve := func(marketID string) (string, *models.Market) {
		if lookup == nil {
			return marketID, nil
		}
		m, err := lookup.Resolve(marketID)
		if err != nil || m == nil {
			return marketID, nil
		}
		return m.ID, m
	}

	for _, t := range events.Trades {
		key, market := resolve(t.MarketID)
		pos, ok := byKey[key]
		if !ok {
			pos = &position{Key: key, Market: market}
			byKey[key] = pos
		}
		pos.Trades = append(pos.Trades, t)
	}
	for _, r := range events.Redemptions {
		key, market := resolve(r.MarketID)
		pos, ok := byKey[key]
		if !ok {
			pos = &position{Key: key, Market: market}
			byKey[key] = pos
		}
		pos.Redeemed += r.Amount
	}

	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	positions := make([]position, 0, len(keys))
	for _, k := range keys {
		positions = append(positions, *byKey[k])
	}
	return positions
}
