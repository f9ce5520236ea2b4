// Package models defines the core domain entities: wallet activity events,
// markets, and risk reports.
package models

import (
	"errors"
	"time"
)

// Side is the direction of a trade.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Direction distinguishes funding deposits from withdrawals.
type Direction string

const (
	DirectionDeposit    Direction = "DEPOSIT"
	DirectionWithdrawal Direction = "WITHDRAWAL"
)

// Trade is a single fill on a prediction market. MarketID carries the
// outcome-token identifier exactly as the activity feed reported it; the
// market context resolver maps it to the owning market.
type Trade struct {
	ID        string    `json:"id"`
	Wallet    string    `json:"wallet"`
	MarketID  string    `json:"market_id"`
	Side      Side      `json:"side"`
	Price     float64   `json:"price"`
	Size      float64   `json:"size"`
	Timestamp time.Time `json:"timestamp"`
}

// Validate checks trade field constraints.
func (t *Trade) Validate() error {
	if t.Wallet == "" {
		return errors.New("trade wallet must not be empty")
	}
	if t.MarketID == "" {
		return errors.New("trade market ID must not be empty")
	}
	if t.Side != SideBuy && t.Side != SideSell {
		return errors.New("trade side must be BUY or SELL")
	}
	if t.Price < 0.0 || t.Price > 1.0 {
		return errors.New("trade price must be between 0.0 and 1.0")
	}
	if t.Size <= 0 {
		return errors.New("trade size must be positive")
	}
	if t.Timestamp.IsZero() {
		return errors.New("trade timestamp must be set")
	}
	return nil
}

// FundingEvent is a movement of quote-currency balance into or out of the
// wallet, independent of any market.
type FundingEvent struct {
	ID        string    `json:"id"`
	Wallet    string    `json:"wallet"`
	Direction Direction `json:"direction"`
	Amount    float64   `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}

// Validate checks funding event field constraints.
func (f *FundingEvent) Validate() error {
	if f.Wallet == "" {
		return errors.New("funding event wallet must not be empty")
	}
	if f.Direction != DirectionDeposit && f.Direction != DirectionWithdrawal {
		return errors.New("funding event direction must be DEPOSIT or WITHDRAWAL")
	}
	if f.Amount <= 0 {
		return errors.New("funding event amount must be positive")
	}
	if f.Timestamp.IsZero() {
		return errors.New("funding event timestamp must be set")
	}
	return nil
}

// Redemption is a payout received after a market resolved in the wallet's
// favor. Its existence is the proof of a winning position.
type Redemption struct {
	ID        string    `json:"id"`
	Wallet    string    `json:"wallet"`
	MarketID  string    `json:"market_id"`
	Amount    float64   `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}

// Validate checks redemption field constraints.
func (r *Redemption) Validate() error {
	if r.Wallet == "" {
		return errors.New("redemption wallet must not be empty")
	}
	if r.Amount <= 0 {
		return errors.New("redemption amount must be positive")
	}
	if r.Timestamp.IsZero() {
		return errors.New("redemption timestamp must be set")
	}
	return nil
}

// WalletEvents is the complete, immutable record set for one wallet in a
// scoring run. The scoring engine only reads it.
type WalletEvents struct {
	Wallet      string         `json:"wallet"`
	Trades      []Trade        `json:"trades"`
	Funding     []FundingEvent `json:"funding"`
	Redemptions []Redemption   `json:"redemptions"`
}
