package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/piyushhhxyz/insider-detect/internal/models"
)

// CatalogClient fetches market lifecycle and resolution metadata from the
// Gamma API. Results may be partial (unresolved markets, missing times); the
// scoring core degrades gracefully on whatever is returned.
type CatalogClient struct {
	*apiClient
	baseURL string
}

// NewCatalogClient creates a market catalog client.
func NewCatalogClient(baseURL string, cfg ClientConfig) *CatalogClient {
	return &CatalogClient{
		apiClient: newAPIClient(cfg),
		baseURL:   strings.TrimRight(baseURL, "/"),
	}
}

// gammaMarket is the raw Gamma API market shape. Outcomes, prices, and token
// ids arrive as JSON-encoded strings inside the JSON document.
type gammaMarket struct {
	ConditionID   string `json:"conditionId"`
	Question      string `json:"question"`
	Slug          string `json:"slug"`
	StartDate     string `json:"startDate"`
	CreatedAt     string `json:"createdAt"`
	EndDate       string `json:"endDate"`
	ClosedTime    string `json:"closedTime"`
	Closed        bool   `json:"closed"`
	Outcomes      string `json:"outcomes"`
	OutcomePrices string `json:"outcomePrices"`
	ClobTokenIds  string `json:"clobTokenIds"`
}

// MarketByToken returns the market owning the given outcome-token
// identifier, or nil when the catalog has no match.
func (c *CatalogClient) MarketByToken(ctx context.Context, tokenID string) (*models.Market, error) {
	u, err := url.Parse(c.baseURL + "/markets")
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	q := u.Query()
	q.Set("clob_token_ids", tokenID)
	u.RawQuery = q.Encode()

	resp, err := c.doRequest(ctx, u.String())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch market for token %s: %w", tokenID, err)
	}
	defer resp.Body.Close()

	var raw []gammaMarket
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode market response: %w", err)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	return parseMarket(raw[0]), nil
}

// parseMarket normalizes the Gamma shape into the event model. A market
// counts as resolved only when an actual close time is known, so the
// resolved-implies-resolution-time invariant always holds.
func parseMarket(g gammaMarket) *models.Market {
	m := &models.Market{
		ID:       g.ConditionID,
		Question: g.Question,
		Slug:     g.Slug,
		EndTime:  parseGammaTime(g.EndDate),
		TokenIDs: parseStringList(g.ClobTokenIds),
	}

	m.StartTime = parseGammaTime(g.StartDate)
	if m.StartTime.IsZero() {
		m.StartTime = parseGammaTime(g.CreatedAt)
	}

	m.ResolutionTime = parseGammaTime(g.ClosedTime)
	if !m.ResolutionTime.IsZero() && !m.StartTime.IsZero() && m.ResolutionTime.Before(m.StartTime) {
		// Inconsistent catalog data; drop the start rather than invert the window.
		m.StartTime = time.Time{}
	}
	m.Resolved = g.Closed && !m.ResolutionTime.IsZero()

	if m.Resolved {
		m.WinningOutcome = winningOutcome(parseStringList(g.Outcomes), parseStringList(g.OutcomePrices))
	}
	return m
}

// winningOutcome picks the outcome whose price settled at 1.
func winningOutcome(outcomes, prices []string) string {
	for i, p := range prices {
		if i >= len(outcomes) {
			break
		}
		price, err := strconv.ParseFloat(p, 64)
		if err != nil {
			continue
		}
		if price >= 0.99 {
			return outcomes[i]
		}
	}
	return ""
}

// parseStringList decodes Gamma's JSON-string-encoded lists, e.g.
// "[\"Yes\", \"No\"]".
func parseStringList(raw string) []string {
	if raw == "" {
		return nil
	}
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil
	}
	return list
}

// parseGammaTime handles both RFC3339 and postgres-style timestamps
// ("2026-01-03 12:14:07+00").
func parseGammaTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range []string{
		time.RFC3339,
		"2006-01-02 15:04:05Z07:00",
		"2006-01-02 15:04:05-07",
	} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
