package models

import (
	"testing"
	"time"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func validTrade() Trade {
	return Trade{
		ID: "t1", Wallet: "0xwallet", MarketID: "token-1",
		Side: SideBuy, Price: 0.35, Size: 100, Timestamp: now,
	}
}

func TestTradeValidate(t *testing.T) {
	tr := validTrade()
	if err := tr.Validate(); err != nil {
		t.Fatalf("Valid trade failed validation: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Trade)
	}{
		{"empty wallet", func(tr *Trade) { tr.Wallet = "" }},
		{"empty market", func(tr *Trade) { tr.MarketID = "" }},
		{"bad side", func(tr *Trade) { tr.Side = "HOLD" }},
		{"price above one", func(tr *Trade) { tr.Price = 1.5 }},
		{"negative price", func(tr *Trade) { tr.Price = -0.1 }},
		{"zero size", func(tr *Trade) { tr.Size = 0 }},
		{"zero timestamp", func(tr *Trade) { tr.Timestamp = time.Time{} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := validTrade()
			tt.mutate(&tr)
			if err := tr.Validate(); err == nil {
				t.Error("Expected validation error, got nil")
			}
		})
	}
}

func TestFundingEventValidate(t *testing.T) {
	f := FundingEvent{
		ID: "f1", Wallet: "0xwallet", Direction: DirectionDeposit,
		Amount: 500, Timestamp: now,
	}
	if err := f.Validate(); err != nil {
		t.Fatalf("Valid funding event failed validation: %v", err)
	}

	f.Direction = "TRANSFER"
	if err := f.Validate(); err == nil {
		t.Error("Expected error for unknown direction")
	}
	f.Direction = DirectionWithdrawal
	f.Amount = 0
	if err := f.Validate(); err == nil {
		t.Error("Expected error for zero amount")
	}
}

func TestRedemptionValidate(t *testing.T) {
	r := Redemption{
		ID: "r1", Wallet: "0xwallet", MarketID: "token-1",
		Amount: 1200, Timestamp: now,
	}
	if err := r.Validate(); err != nil {
		t.Fatalf("Valid redemption failed validation: %v", err)
	}
	r.Amount = -1
	if err := r.Validate(); err == nil {
		t.Error("Expected error for negative amount")
	}
}

func TestMarketValidate(t *testing.T) {
	m := Market{
		ID:             "market-1",
		StartTime:      now,
		EndTime:        now.Add(48 * time.Hour),
		ResolutionTime: now.Add(24 * time.Hour),
		Resolved:       true,
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("Valid market failed validation: %v", err)
	}

	t.Run("resolved without resolution time", func(t *testing.T) {
		bad := m
		bad.ResolutionTime = time.Time{}
		if err := bad.Validate(); err == nil {
			t.Error("Expected error for resolved market without resolution time")
		}
	})
	t.Run("resolution before start", func(t *testing.T) {
		bad := m
		bad.ResolutionTime = now.Add(-time.Hour)
		if err := bad.Validate(); err == nil {
			t.Error("Expected error for resolution preceding start")
		}
	})
	t.Run("end before start", func(t *testing.T) {
		bad := m
		bad.EndTime = now.Add(-time.Hour)
		if err := bad.Validate(); err == nil {
			t.Error("Expected error for deadline preceding start")
		}
	})
	t.Run("unresolved needs no times", func(t *testing.T) {
		open := Market{ID: "market-2"}
		if err := open.Validate(); err != nil {
			t.Errorf("Open market failed validation: %v", err)
		}
	})
}

func TestMarketCloseTime(t *testing.T) {
	m := Market{EndTime: now.Add(48 * time.Hour)}
	if got := m.CloseTime(); !got.Equal(m.EndTime) {
		t.Errorf("CloseTime = %v, want scheduled deadline", got)
	}
	m.ResolutionTime = now.Add(24 * time.Hour)
	if got := m.CloseTime(); !got.Equal(m.ResolutionTime) {
		t.Errorf("CloseTime = %v, want actual resolution time", got)
	}
	if got := (&Market{}).CloseTime(); !got.IsZero() {
		t.Errorf("CloseTime = %v, want zero for unknown window", got)
	}
}

func TestReportSignal(t *testing.T) {
	r := Report{
		Signals: []SignalScore{
			{Name: SignalMarketFocus, Score: 0.7, Weight: 0.15},
		},
	}
	if got := r.Signal(SignalMarketFocus); got.Score != 0.7 {
		t.Errorf("Signal score = %v, want 0.7", got.Score)
	}
	if got := r.Signal(SignalEntryTiming); got.Score != 0 || got.Name != SignalEntryTiming {
		t.Errorf("Missing signal = %+v, want named zero value", got)
	}
}

func TestSignalScoreWeighted(t *testing.T) {
	s := SignalScore{Score: 0.5, Weight: 0.2}
	if got := s.Weighted(); got != 0.1 {
		t.Errorf("Weighted = %v, want 0.1", got)
	}
}
