package detector

import (
	"fmt"
	"sort"
	"time"

	"github.com/piyushhhxyz/insider-detect/internal/models"
)

// The surgical pattern is the fund → bet → win → exit profile: deposit,
// trade, redemption, withdrawal in that relative order. It is detected with
// an explicit forward-only sequence machine so "out of order" is a
// first-class terminal outcome.

type eventKind int

// Kind values double as the expected sequence position.
const (
	kindDeposit eventKind = iota
	kindTrade
	kindRedemption
	kindWithdrawal
)

func (k eventKind) String() string {
	switch k {
	case kindDeposit:
		return "deposit"
	case kindTrade:
		return "trade"
	case kindRedemption:
		return "redemption"
	default:
		return "withdrawal"
	}
}

type seqEvent struct {
	kind eventKind
	ts   time.Time
}

type seqOutcome int

const (
	seqIncomplete seqOutcome = iota
	seqComplete
	seqViolated
)

// runSequence advances through the expected kinds. Repeats of an
// already-satisfied kind are allowed; a later kind arriving before the
// expected one is a terminal violation.
func runSequence(events []seqEvent) (outcome seqOutcome, expected, got eventKind) {
	state := kindDeposit
	done := false
	for _, ev := range events {
		if done {
			break
		}
		switch {
		case ev.kind == state:
			if state == kindWithdrawal {
				done = true
			} else {
				state++
			}
		case ev.kind < state:
			// Earlier stage repeating, e.g. a top-up deposit mid-trading.
		default:
			return seqViolated, state, ev.kind
		}
	}
	if done {
		return seqComplete, state, state
	}
	return seqIncomplete, state, state
}

// surgicalBehavior scores the full fund→bet→win→exit pattern: the ordered
// sequence must be present, the wallet must have pulled most of its balance
// out after its last trade, and the redemptions must dwarf the deposits.
func surgicalBehavior(w *walletCtx) (float64, string) {
	if len(w.events.Trades) == 0 {
		return scoreNone, "no trades recorded; scored 0.0"
	}

	events := make([]seqEvent, 0, len(w.events.Trades)+len(w.events.Funding)+len(w.events.Redemptions))
	for _, f := range w.events.Funding {
		kind := kindDeposit
		if f.Direction == models.DirectionWithdrawal {
			kind = kindWithdrawal
		}
		events = append(events, seqEvent{kind: kind, ts: f.Timestamp})
	}
	for _, t := range w.events.Trades {
		events = append(events, seqEvent{kind: kindTrade, ts: t.Timestamp})
	}
	for _, r := range w.events.Redemptions {
		events = append(events, seqEvent{kind: kindRedemption, ts: r.Timestamp})
	}
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].ts.Equal(events[j].ts) {
			return events[i].ts.Before(events[j].ts)
		}
		return events[i].kind < events[j].kind
	})

	outcome, expected, got := runSequence(events)
	switch outcome {
	case seqViolated:
		return scoreNone, fmt.Sprintf("%s observed before %s; sequence out of order, scored 0.0", got, expected)
	case seqIncomplete:
		return scoreNone, fmt.Sprintf("fund→trade→redeem→withdraw sequence incomplete (no %s observed); scored 0.0", expected)
	}

	var deposited, withdrawnAfter, bought, sold, redeemed float64
	lastTrade := w.events.Trades[len(w.events.Trades)-1].Timestamp
	for _, f := range w.events.Funding {
		switch f.Direction {
		case models.DirectionDeposit:
			deposited += f.Amount
		case models.DirectionWithdrawal:
			if f.Timestamp.After(lastTrade) {
				withdrawnAfter += f.Amount
			}
		}
	}
	for _, t := range w.events.Trades {
		if t.Side == models.SideBuy {
			bought += t.Size
		} else {
			sold += t.Size
		}
	}
	for _, r := range w.events.Redemptions {
		redeemed += r.Amount
	}

	postTradeBalance := deposited - bought + sold + redeemed
	profitRatio := 0.0
	if deposited > 0 {
		profitRatio = redeemed / deposited
	}
	params := w.cfg.Surgical

	if postTradeBalance > 0 &&
		withdrawnAfter >= params.WithdrawPct*postTradeBalance &&
		profitRatio >= params.MinProfitRatio {
		return scoreFull, fmt.Sprintf(
			"full fund→trade→redeem→withdraw pattern: withdrew %.2f of %.2f balance, %.1fx profit; scored 1.0",
			withdrawnAfter, postTradeBalance, profitRatio)
	}
	return scorePartial, fmt.Sprintf(
		"fund→trade→redeem→withdraw pattern present but withdrew %.2f of %.2f balance at %.1fx profit; scored 0.5",
		withdrawnAfter, postTradeBalance, profitRatio)
}
