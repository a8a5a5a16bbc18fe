// Package markets resolves Polymarket 15-minute up/down markets and their
// order books.
//
// Market lookup is two-stage: the gamma events endpoint is queried by slug,
// and when the event payload carries no usable token list the CLOB
// /markets/{conditionId} endpoint supplies token ids and outcomes.
package markets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/web3guy0/duallimit/types"
)

// ErrNoMarket signals that no market exists for a slug. Discovery treats it
// as "try the next fallback".
var ErrNoMarket = errors.New("no market for slug")

// Client talks to the gamma API (market metadata) and the CLOB REST API
// (tokens, order books).
type Client struct {
	gammaURL   string
	clobURL    string
	httpClient *http.Client
}

// NewClient creates a market-data client for the given endpoints.
func NewClient(gammaURL, clobURL string) *Client {
	return &Client{
		gammaURL:   strings.TrimRight(gammaURL, "/"),
		clobURL:    strings.TrimRight(clobURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type gammaEvent struct {
	Title   string `json:"title"`
	Slug    string `json:"slug"`
	Active  bool   `json:"active"`
	Closed  bool   `json:"closed"`
	Markets []struct {
		ConditionID  string `json:"conditionId"`
		Question     string `json:"question"`
		Slug         string `json:"slug"`
		Active       bool   `json:"active"`
		Closed       bool   `json:"closed"`
		Outcomes     string `json:"outcomes"`
		ClobTokenIds string `json:"clobTokenIds"`
	} `json:"markets"`
}

// GetMarketBySlug fetches the market for an event slug. Returns ErrNoMarket
// when the event does not exist or carries no markets.
func (c *Client) GetMarketBySlug(ctx context.Context, slug string) (types.Market, error) {
	var events []gammaEvent
	u := fmt.Sprintf("%s/events?slug=%s", c.gammaURL, url.QueryEscape(slug))
	if err := c.getJSON(ctx, u, &events); err != nil {
		return types.Market{}, fmt.Errorf("gamma event %s: %w", slug, err)
	}
	if len(events) == 0 || len(events[0].Markets) == 0 {
		return types.Market{}, fmt.Errorf("%w: %s", ErrNoMarket, slug)
	}

	ev := events[0]
	gm := ev.Markets[0]
	market := types.Market{
		ConditionID: gm.ConditionID,
		Slug:        gm.Slug,
		Question:    gm.Question,
		Active:      ev.Active && gm.Active,
		Closed:      ev.Closed || gm.Closed,
	}
	if market.Slug == "" {
		market.Slug = ev.Slug
	}
	if market.Question == "" {
		market.Question = ev.Title
	}

	market.Tokens = tokensFromGamma(gm.Outcomes, gm.ClobTokenIds)
	if len(market.Tokens) == 0 {
		tokens, err := c.getMarketTokens(ctx, gm.ConditionID)
		if err == nil {
			market.Tokens = tokens
		}
	}
	return market, nil
}

// tokensFromGamma zips the gamma outcomes and clobTokenIds JSON-string
// arrays into tokens. Returns nil when either array is missing or skewed.
func tokensFromGamma(outcomesRaw, tokenIDsRaw string) []types.Token {
	if outcomesRaw == "" || tokenIDsRaw == "" {
		return nil
	}
	var outcomes, tokenIDs []string
	if err := json.Unmarshal([]byte(outcomesRaw), &outcomes); err != nil {
		return nil
	}
	if err := json.Unmarshal([]byte(tokenIDsRaw), &tokenIDs); err != nil {
		return nil
	}
	if len(outcomes) != len(tokenIDs) || len(outcomes) == 0 {
		return nil
	}
	tokens := make([]types.Token, 0, len(outcomes))
	for i := range outcomes {
		tokens = append(tokens, types.Token{TokenID: tokenIDs[i], Outcome: outcomes[i]})
	}
	return tokens
}

// getMarketTokens fetches token ids and outcomes from the CLOB market
// endpoint.
func (c *Client) getMarketTokens(ctx context.Context, conditionID string) ([]types.Token, error) {
	var resp struct {
		Tokens []struct {
			TokenID string `json:"token_id"`
			Outcome string `json:"outcome"`
		} `json:"tokens"`
	}
	u := fmt.Sprintf("%s/markets/%s", c.clobURL, url.PathEscape(conditionID))
	if err := c.getJSON(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("clob market %s: %w", conditionID, err)
	}
	tokens := make([]types.Token, 0, len(resp.Tokens))
	for _, t := range resp.Tokens {
		tokens = append(tokens, types.Token{TokenID: t.TokenID, Outcome: t.Outcome})
	}
	return tokens, nil
}

// OrderBook is one token's resting orders, prices kept as decimals.
type OrderBook struct {
	Bids []BookLevel
	Asks []BookLevel
}

// BookLevel is one price level.
type BookLevel struct {
	Price decimal.Decimal
	Size  decimal.Decimal
}

// GetOrderBook fetches the book for a token. A payload carrying an error
// field is treated as an empty book, matching the API's behavior for
// just-created markets.
func (c *Client) GetOrderBook(ctx context.Context, tokenID string) (OrderBook, error) {
	var resp struct {
		Bids []struct {
			Price string `json:"price"`
			Size  string `json:"size"`
		} `json:"bids"`
		Asks []struct {
			Price string `json:"price"`
			Size  string `json:"size"`
		} `json:"asks"`
		Error string `json:"error"`
	}
	u := fmt.Sprintf("%s/book?token_id=%s", c.clobURL, url.QueryEscape(tokenID))
	if err := c.getJSON(ctx, u, &resp); err != nil {
		return OrderBook{}, fmt.Errorf("order book %s: %w", shortToken(tokenID), err)
	}
	if resp.Error != "" {
		return OrderBook{}, nil
	}

	var book OrderBook
	for _, b := range resp.Bids {
		if price, err := decimal.NewFromString(b.Price); err == nil {
			size, _ := decimal.NewFromString(b.Size)
			book.Bids = append(book.Bids, BookLevel{Price: price, Size: size})
		}
	}
	for _, a := range resp.Asks {
		if price, err := decimal.NewFromString(a.Price); err == nil {
			size, _ := decimal.NewFromString(a.Size)
			book.Asks = append(book.Asks, BookLevel{Price: price, Size: size})
		}
	}
	return book, nil
}

// BestBid returns the highest bid, nil when the bid side is empty. The API
// may sort either way, so scan the whole side.
func (b OrderBook) BestBid() *decimal.Decimal {
	var best *decimal.Decimal
	for i := range b.Bids {
		p := b.Bids[i].Price
		if best == nil || p.GreaterThan(*best) {
			best = &p
		}
	}
	return best
}

// BestAsk returns the lowest ask, nil when the ask side is empty.
func (b OrderBook) BestAsk() *decimal.Decimal {
	var best *decimal.Decimal
	for i := range b.Asks {
		p := b.Asks[i].Price
		if best == nil || p.LessThan(*best) {
			best = &p
		}
	}
	return best
}

func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return ErrNoMarket
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func shortToken(tokenID string) string {
	if len(tokenID) > 16 {
		return tokenID[:16] + "..."
	}
	return tokenID
}
