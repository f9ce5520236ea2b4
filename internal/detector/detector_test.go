package detector

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/piyushhhxyz/insider-detect/internal/models"
)

var t0 = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func mkTrade(id, marketID string, side models.Side, price, size float64, at time.Time) models.Trade {
	return models.Trade{
		ID: id, Wallet: "0xwallet", MarketID: marketID,
		Side: side, Price: price, Size: size, Timestamp: at,
	}
}

func mkDeposit(id string, amount float64, at time.Time) models.FundingEvent {
	return models.FundingEvent{
		ID: id, Wallet: "0xwallet", Direction: models.DirectionDeposit,
		Amount: amount, Timestamp: at,
	}
}

func mkWithdrawal(id string, amount float64, at time.Time) models.FundingEvent {
	return models.FundingEvent{
		ID: id, Wallet: "0xwallet", Direction: models.DirectionWithdrawal,
		Amount: amount, Timestamp: at,
	}
}

func mkRedemption(id, marketID string, amount float64, at time.Time) models.Redemption {
	return models.Redemption{
		ID: id, Wallet: "0xwallet", MarketID: marketID,
		Amount: amount, Timestamp: at,
	}
}

// mapLookup resolves from a fixed token-to-market map, counting calls.
type mapLookup struct {
	markets map[string]*models.Market
	calls   int
}

func (l *mapLookup) Resolve(marketID string) (*models.Market, error) {
	l.calls++
	m, ok := l.markets[marketID]
	if !ok {
		return nil, ErrMarketNotFound
	}
	return m, nil
}

// resolvedMarket spans t0 to t0+1000h and resolved at its deadline.
func resolvedMarket(id string, tokens ...string) *models.Market {
	return &models.Market{
		ID:             id,
		Question:       "Will X happen?",
		StartTime:      t0,
		EndTime:        t0.Add(1000 * time.Hour),
		ResolutionTime: t0.Add(1000 * time.Hour),
		Resolved:       true,
		WinningOutcome: "Yes",
		TokenIDs:       tokens,
	}
}

// insiderEvents is the canonical burner-wallet profile: funded minutes before
// a single large cheap entry late in the market window, redeemed a multiple of
// the stake, and drained right after.
func insiderEvents() *models.WalletEvents {
	entry := t0.Add(960 * time.Hour) // 96% of the market window
	return &models.WalletEvents{
		Wallet: "0xwallet",
		Funding: []models.FundingEvent{
			mkDeposit("d1", 9000, entry.Add(-30*time.Minute)),
			mkWithdrawal("w1", 49000, entry.Add(35*time.Hour)),
		},
		Trades: []models.Trade{
			mkTrade("t1", "token-1", models.SideBuy, 0.18, 9000, entry),
		},
		Redemptions: []models.Redemption{
			mkRedemption("r1", "token-1", 50000, entry.Add(30*time.Hour)),
		},
	}
}

func insiderLookup() *mapLookup {
	return &mapLookup{markets: map[string]*models.Market{
		"token-1": resolvedMarket("market-1", "token-1"),
	}}
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultConfig())
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	return e
}

func TestNewEngineRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Weights.Certainty = 0.15 // sum drops to 0.90
	if _, err := NewEngine(cfg); err == nil {
		t.Fatal("Expected error for weights not summing to 1.0")
	}
}

func TestScoreInsiderProfile(t *testing.T) {
	e := newTestEngine(t)
	report := e.Score(insiderEvents(), insiderLookup())

	want := map[string]float64{
		models.SignalWalletFreshness:  1.0,
		models.SignalOutcomeCertainty: 1.0,
		models.SignalEntryTiming:      1.0,
		models.SignalMarketFocus:      1.0,
		models.SignalPositionSize:     0.7, // $9k is above medium, below large
		models.SignalSurgicalBehavior: 1.0,
	}
	for name, score := range want {
		if got := report.Signal(name).Score; got != score {
			t.Errorf("%s = %v, want %v (%s)", name, got, score, report.Signal(name).Rationale)
		}
	}

	wantComposite := 0.97
	if diff := report.Composite - wantComposite; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("Composite = %v, want %v", report.Composite, wantComposite)
	}
	if report.Tier != models.TierCritical {
		t.Errorf("Tier = %s, want %s", report.Tier, models.TierCritical)
	}
	if report.Volume != 9000 {
		t.Errorf("Volume = %v, want 9000", report.Volume)
	}
	if report.MarketCount != 1 {
		t.Errorf("MarketCount = %d, want 1", report.MarketCount)
	}
}

func TestScoreDiversifiedTrader(t *testing.T) {
	e := newTestEngine(t)

	// Funded a month before trading, spread across eight markets in small
	// clips at fair prices, never redeemed or withdrew.
	events := &models.WalletEvents{
		Wallet:  "0xwallet",
		Funding: []models.FundingEvent{mkDeposit("d1", 2000, t0)},
	}
	tradeTime := t0.Add(30 * 24 * time.Hour)
	for i := 0; i < 8; i++ {
		events.Trades = append(events.Trades, mkTrade(
			fmt.Sprintf("t%d", i), fmt.Sprintf("token-%d", i),
			models.SideBuy, 0.60, 200, tradeTime.Add(time.Duration(i)*time.Hour),
		))
	}

	report := e.Score(events, nil)
	if report.Composite != 0 {
		t.Errorf("Composite = %v, want 0", report.Composite)
	}
	if report.Tier != models.TierLow {
		t.Errorf("Tier = %s, want %s", report.Tier, models.TierLow)
	}
	if report.MarketCount != 8 {
		t.Errorf("MarketCount = %d, want 8", report.MarketCount)
	}
}

func TestScoreMissingMarketContext(t *testing.T) {
	e := newTestEngine(t)

	// Same insider profile, but no market can be resolved: only the timing
	// signal needs lifecycle metadata, so it alone degrades to zero.
	lookup := &mapLookup{markets: map[string]*models.Market{}}
	report := e.Score(insiderEvents(), lookup)

	timing := report.Signal(models.SignalEntryTiming)
	if timing.Score != 0 {
		t.Errorf("EntryTiming = %v, want 0", timing.Score)
	}
	if timing.Rationale == "" {
		t.Error("Expected degradation rationale for missing market context")
	}
	if got := report.Signal(models.SignalWalletFreshness).Score; got != 1.0 {
		t.Errorf("WalletFreshness = %v, want 1.0", got)
	}

	// Composite loses exactly the timing contribution: 0.97 - 0.20 = 0.77.
	wantComposite := 0.77
	if diff := report.Composite - wantComposite; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("Composite = %v, want %v", report.Composite, wantComposite)
	}
	if report.Tier != models.TierHigh {
		t.Errorf("Tier = %s, want %s", report.Tier, models.TierHigh)
	}
}

func TestScoreDeterministic(t *testing.T) {
	e := newTestEngine(t)

	// Same events presented in reverse order must produce a byte-identical
	// report.
	forward := insiderEvents()
	forward.Trades = append(forward.Trades,
		mkTrade("t2", "token-1", models.SideBuy, 0.20, 500, t0.Add(961*time.Hour)))

	reversed := insiderEvents()
	reversed.Trades = []models.Trade{
		mkTrade("t2", "token-1", models.SideBuy, 0.20, 500, t0.Add(961*time.Hour)),
		reversed.Trades[0],
	}
	reversed.Funding[0], reversed.Funding[1] = reversed.Funding[1], reversed.Funding[0]

	a, err := json.Marshal(e.Score(forward, insiderLookup()))
	if err != nil {
		t.Fatalf("Failed to marshal report: %v", err)
	}
	b, err := json.Marshal(e.Score(reversed, insiderLookup()))
	if err != nil {
		t.Fatalf("Failed to marshal report: %v", err)
	}
	if string(a) != string(b) {
		t.Errorf("Reports differ across input orderings:\n%s\n%s", a, b)
	}
}

func TestScoreExcludesMalformedEvents(t *testing.T) {
	e := newTestEngine(t)

	events := insiderEvents()
	events.Trades = append(events.Trades,
		mkTrade("bad1", "token-1", models.SideBuy, 1.7, 100, t0.Add(970*time.Hour)), // price out of range
		mkTrade("bad2", "token-1", models.SideBuy, 0.2, -5, t0.Add(970*time.Hour)),  // non-positive size
		mkTrade("bad3", "token-1", models.SideBuy, 0.2, 100, time.Time{}),           // missing timestamp
	)
	events.Funding = append(events.Funding, mkDeposit("bad4", 0, t0))

	report := e.Score(events, insiderLookup())
	if report.MalformedEvents != 4 {
		t.Errorf("MalformedEvents = %d, want 4", report.MalformedEvents)
	}
	if report.TradeCount != 1 {
		t.Errorf("TradeCount = %d, want 1", report.TradeCount)
	}
	if report.Tier != models.TierCritical {
		t.Errorf("Tier = %s, want %s", report.Tier, models.TierCritical)
	}
}

func TestScoreBatch(t *testing.T) {
	e := newTestEngine(t)
	lookup := NewCachedResolver(insiderLookup())

	clean := insiderEvents()
	dirty := insiderEvents()
	dirty.Wallet = "0xdirty"
	dirty.Trades = append(dirty.Trades, mkTrade("bad", "token-1", models.SideBuy, 0.2, 100, time.Time{}))
	empty := &models.WalletEvents{Wallet: "0xempty"}

	reports := e.ScoreBatch([]*models.WalletEvents{clean, dirty, empty}, lookup)
	if len(reports) != 3 {
		t.Fatalf("Expected 3 reports, got %d", len(reports))
	}
	for i, wallet := range []string{"0xwallet", "0xdirty", "0xempty"} {
		if reports[i].Wallet != wallet {
			t.Errorf("reports[%d].Wallet = %s, want %s", i, reports[i].Wallet, wallet)
		}
	}

	// One wallet's malformed data never leaks into another's report.
	if reports[0].MalformedEvents != 0 {
		t.Errorf("Clean wallet counted %d malformed events", reports[0].MalformedEvents)
	}
	if reports[1].MalformedEvents != 1 {
		t.Errorf("Dirty wallet counted %d malformed events, want 1", reports[1].MalformedEvents)
	}
	if reports[0].Tier != models.TierCritical || reports[1].Tier != models.TierCritical {
		t.Errorf("Expected CRITICAL for both scored wallets, got %s and %s",
			reports[0].Tier, reports[1].Tier)
	}
	if reports[2].Tier != models.TierLow {
		t.Errorf("Empty wallet tier = %s, want %s", reports[2].Tier, models.TierLow)
	}
}

func TestBuildPositionsGroupsByResolvedMarket(t *testing.T) {
	// Two token ids belonging to the same market collapse into one position.
	market := resolvedMarket("market-1", "token-yes", "token-no")
	lookup := &mapLookup{markets: map[string]*models.Market{
		"token-yes": market,
		"token-no":  market,
	}}

	events := &models.WalletEvents{
		Wallet: "0xwallet",
		Trades: []models.Trade{
			mkTrade("t1", "token-yes", models.SideBuy, 0.3, 100, t0.Add(time.Hour)),
			mkTrade("t2", "token-no", models.SideBuy, 0.7, 100, t0.Add(2*time.Hour)),
			mkTrade("t3", "token-unknown", models.SideBuy, 0.5, 100, t0.Add(3*time.Hour)),
		},
		Redemptions: []models.Redemption{
			mkRedemption("r1", "token-yes", 250, t0.Add(4*time.Hour)),
		},
	}

	clean, _ := sanitize(events)
	positions := buildPositions(clean, lookup)
	if len(positions) != 2 {
		t.Fatalf("Expected 2 positions, got %d", len(positions))
	}
	// Sorted by key: "market-1" before "token-unknown".
	if positions[0].Key != "market-1" || positions[1].Key != "token-unknown" {
		t.Errorf("Position keys = %s, %s", positions[0].Key, positions[1].Key)
	}
	if len(positions[0].Trades) != 2 {
		t.Errorf("Resolved position has %d trades, want 2", len(positions[0].Trades))
	}
	if positions[0].Redeemed != 250 {
		t.Errorf("Resolved position redeemed %v, want 250", positions[0].Redeemed)
	}
	if positions[1].Market != nil {
		t.Error("Unresolvable token must carry nil market context")
	}
}
