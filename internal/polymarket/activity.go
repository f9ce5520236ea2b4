package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/piyushhhxyz/insider-detect/internal/models"
)

// ActivityClient fetches a wallet's complete activity history from the
// Polymarket data API and normalizes it into trades, funding events, and
// redemptions. Pagination is handled here; callers receive the full set.
type ActivityClient struct {
	*apiClient
	baseURL  string
	pageSize int
}

// NewActivityClient creates an activity feed client.
func NewActivityClient(baseURL string, cfg ClientConfig) *ActivityClient {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}
	return &ActivityClient{
		apiClient: newAPIClient(cfg),
		baseURL:   strings.TrimRight(baseURL, "/"),
		pageSize:  pageSize,
	}
}

// activityItem is one raw record from the data API /activity endpoint.
type activityItem struct {
	Type            string  `json:"type"`
	Timestamp       int64   `json:"timestamp"`
	Asset           string  `json:"asset"`
	ConditionID     string  `json:"conditionId"`
	Side            string  `json:"side"`
	Size            float64 `json:"size"`
	USDCSize        float64 `json:"usdcSize"`
	Price           float64 `json:"price"`
	TransactionHash string  `json:"transactionHash"`
}

// id builds a stable natural key so re-indexing the same wallet is
// idempotent.
func (it *activityItem) id(wallet string) string {
	return fmt.Sprintf("%s:%s:%s:%s:%d", it.TransactionHash, it.Type, wallet, it.Asset, it.Timestamp)
}

// FetchWalletEvents pages through the activity feed for one wallet and
// returns its normalized event set. Record kinds outside the event model
// (splits, merges, conversions) are skipped.
func (c *ActivityClient) FetchWalletEvents(ctx context.Context, wallet string) (*models.WalletEvents, error) {
	wallet = strings.ToLower(wallet)
	events := &models.WalletEvents{Wallet: wallet}
	seen := make(map[string]struct{})

	for offset := 0; ; offset += c.pageSize {
		items, err := c.fetchPage(ctx, wallet, offset)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch activity for %s: %w", wallet, err)
		}
		for _, it := range items {
			id := it.id(wallet)
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			c.classify(events, wallet, id, it)
		}
		if len(items) < c.pageSize {
			break
		}
	}
	return events, nil
}

func (c *ActivityClient) fetchPage(ctx context.Context, wallet string, offset int) ([]activityItem, error) {
	u, err := url.Parse(c.baseURL + "/activity")
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	q := u.Query()
	q.Set("user", wallet)
	q.Set("limit", fmt.Sprintf("%d", c.pageSize))
	q.Set("offset", fmt.Sprintf("%d", offset))
	u.RawQuery = q.Encode()

	resp, err := c.doRequest(ctx, u.String())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var items []activityItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("failed to decode activity page: %w", err)
	}
	return items, nil
}

// classify appends the raw record to the matching event slice. Trades
// reference the outcome token as reported by the feed; the market context
// resolver maps it to the owning market later.
func (c *ActivityClient) classify(events *models.WalletEvents, wallet, id string, it activityItem) {
	ts := time.Unix(it.Timestamp, 0).UTC()
	switch it.Type {
	case "TRADE":
		side := models.Side(strings.ToUpper(it.Side))
		if side != models.SideBuy && side != models.SideSell {
			return
		}
		events.Trades = append(events.Trades, models.Trade{
			ID:        id,
			Wallet:    wallet,
			MarketID:  it.Asset,
			Side:      side,
			Price:     it.Price,
			Size:      it.USDCSize,
			Timestamp: ts,
		})
	case "DEPOSIT", "REWARD":
		events.Funding = append(events.Funding, models.FundingEvent{
			ID:        id,
			Wallet:    wallet,
			Direction: models.DirectionDeposit,
			Amount:    it.USDCSize,
			Timestamp: ts,
		})
	case "WITHDRAWAL":
		events.Funding = append(events.Funding, models.FundingEvent{
			ID:        id,
			Wallet:    wallet,
			Direction: models.DirectionWithdrawal,
			Amount:    it.USDCSize,
			Timestamp: ts,
		})
	case "REDEEM":
		marketID := it.Asset
		if marketID == "" {
			marketID = it.ConditionID
		}
		events.Redemptions = append(events.Redemptions, models.Redemption{
			ID:        id,
			Wallet:    wallet,
			MarketID:  marketID,
			Amount:    it.USDCSize,
			Timestamp: ts,
		})
	}
}
