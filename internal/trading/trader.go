// Package trading owns the in-memory dual-limit trading state: pending
// trades per period, batched limit buys, fill detection and the
// hedge/stop-loss sell.
package trading

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/web3guy0/duallimit/exec"
	"github.com/web3guy0/duallimit/storage"
	"github.com/web3guy0/duallimit/types"
)

const (
	limitSellMaxRetries = 5
	limitSellRetryDelay = 3 * time.Second
)

var (
	// minLimitSellShares: below this the CLOB rejects the order as dust,
	// so the hedge sell is skipped entirely.
	minLimitSellShares = decimal.NewFromFloat(0.01)
	// filledBalanceMin: a polled balance above this counts as a fill.
	filledBalanceMin = decimal.NewFromFloat(0.001)
)

// ErrHedgeSellFailed reports that every limit-sell attempt in one hedge
// pass failed. The caller leaves its guard unset so the next poll cycle
// retries.
var ErrHedgeSellFailed = errors.New("limit sell failed after retries")

// PendingTrade is the in-process record of one attempted position. Entries
// are never deleted; stale periods stay for audit and are excluded from
// active-position checks by period comparison.
type PendingTrade struct {
	TokenID         string
	ConditionID     string
	Kind            types.TokenKind
	PeriodTimestamp int64
	Sold            bool
	// OrderID is kept for cancellation; cleared once cancelled.
	OrderID string
	// Units is set when a fill is detected.
	Units *decimal.Decimal
}

// Trader owns all trading state. It is confined to the control-loop
// goroutine; no locking, by construction.
type Trader struct {
	gateway exec.Gateway
	db      *storage.Database
	pending map[string]*PendingTrade
	sleep   func(ctx context.Context, d time.Duration)
}

// NewTrader creates a Trader over the given gateway. db may be nil when
// audit persistence is disabled.
func NewTrader(gateway exec.Gateway, db *storage.Database) *Trader {
	return &Trader{
		gateway: gateway,
		db:      db,
		pending: make(map[string]*PendingTrade),
		sleep:   sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func limitKey(period int64, tokenID string) string {
	return fmt.Sprintf("%d_%s_limit", period, tokenID)
}

func hedgeKey(period int64, tokenID string) string {
	return fmt.Sprintf("%d_%s_hedge", period, tokenID)
}

// HasActivePosition reports whether an unsold trade exists for this period
// and token kind. Checked before every new buy.
func (t *Trader) HasActivePosition(period int64, kind types.TokenKind) bool {
	for _, trade := range t.pending {
		if trade.PeriodTimestamp == period && trade.Kind == kind && !trade.Sold {
			return true
		}
	}
	return false
}

// PendingLimitTrade returns the resting limit buy record for (period,
// token), or nil.
func (t *Trader) PendingLimitTrade(period int64, tokenID string) *PendingTrade {
	return t.pending[limitKey(period, tokenID)]
}

// PendingTrades returns the full trade map for diagnostics. Callers must
// not mutate it off the control-loop goroutine.
func (t *Trader) PendingTrades() map[string]*PendingTrade {
	return t.pending
}

// ExecuteLimitBuyBatch places resting limit buys for every opportunity that
// does not already have an active position, in one batched request. A batch
// response whose order ids are all empty is treated as a whole-batch
// failure and every order is retried individually before giving up.
func (t *Trader) ExecuteLimitBuyBatch(ctx context.Context, opps []types.BuyOpportunity, limitPrice, sharesPerOrder decimal.Decimal) error {
	toPlace := make([]types.BuyOpportunity, 0, len(opps))
	for _, opp := range opps {
		if !t.HasActivePosition(opp.PeriodTimestamp, opp.Kind) {
			toPlace = append(toPlace, opp)
		}
	}
	if len(toPlace) == 0 {
		return nil
	}

	price := limitPrice.Round(2)
	size := sharesPerOrder.Round(2)
	log.Info().Int("orders", len(toPlace)).Str("price", price.StringFixed(2)).
		Str("size", size.String()).Msg("📋 Placing limit buy orders (batch)")
	for _, opp := range toPlace {
		log.Info().Str("token", opp.Kind.DisplayName()).
			Str("price", price.StringFixed(2)).Str("size", size.String()).Msg("   order")
	}

	params := make([]exec.LimitOrderParams, 0, len(toPlace))
	for _, opp := range toPlace {
		params = append(params, exec.LimitOrderParams{
			TokenID:  opp.TokenID,
			Side:     exec.Buy,
			Price:    price,
			Size:     size,
			TickSize: exec.TickSize01,
		})
	}

	results, err := t.gateway.PlaceLimitOrdersBatch(ctx, params)
	if err != nil || allEmptyOrderIDs(results) {
		if err != nil {
			log.Warn().Err(err).Msg("⚠️ Batch placement failed - retrying each order individually")
		} else {
			log.Warn().Msg("⚠️ Batch returned no order IDs - retrying each order individually")
		}
		results = t.placeIndividually(ctx, params)
	} else {
		log.Info().Int("orders", len(results)).Msg("✅ Batch sent in one request")
	}

	confirmed, notConfirmed := 0, 0
	for i, opp := range toPlace {
		r := results[i]
		t.pending[limitKey(opp.PeriodTimestamp, opp.TokenID)] = &PendingTrade{
			TokenID:         opp.TokenID,
			ConditionID:     opp.ConditionID,
			Kind:            opp.Kind,
			PeriodTimestamp: opp.PeriodTimestamp,
			OrderID:         r.OrderID,
		}
		t.audit("limit_buy", opp.Kind, opp.TokenID, price, size, r)
		if r.Confirmed() {
			confirmed++
			log.Info().Str("token", opp.Kind.DisplayName()).Str("order_id", r.OrderID).
				Str("status", r.Status).Msg("   ✅ confirmed")
		} else {
			notConfirmed++
			log.Warn().Str("token", opp.Kind.DisplayName()).Str("order_id", r.OrderID).
				Str("status", r.Status).Str("error", r.ErrorMsg).Msg("   ❌ not confirmed")
		}
	}
	if notConfirmed > 0 {
		log.Warn().Int("confirmed", confirmed).Int("not_confirmed", notConfirmed).
			Msg("📋 Batch result")
	}
	return nil
}

// placeIndividually is the per-order fallback after a whole-batch failure.
// Placement errors become empty results so the caller still records the
// attempt.
func (t *Trader) placeIndividually(ctx context.Context, params []exec.LimitOrderParams) []exec.OrderResult {
	results := make([]exec.OrderResult, 0, len(params))
	for _, p := range params {
		r, err := t.gateway.PlaceLimitOrder(ctx, p)
		if err != nil {
			log.Warn().Err(err).Msg("   ❌ individual placement failed")
			r = exec.OrderResult{Status: "failed"}
		}
		results = append(results, r)
	}
	return results
}

func allEmptyOrderIDs(results []exec.OrderResult) bool {
	if len(results) == 0 {
		return false
	}
	for _, r := range results {
		if r.OrderID != "" {
			return false
		}
	}
	return true
}

// GetBalance returns the polled share balance for a token, 0 when the
// gateway cannot answer. Fill detection is advisory only.
func (t *Trader) GetBalance(ctx context.Context, tokenID string) decimal.Decimal {
	bal, err := t.gateway.GetBalance(ctx, tokenID)
	if err != nil {
		log.Warn().Err(err).Msg("Balance query failed - treating as zero")
		return decimal.Zero
	}
	return bal
}

// CancelPendingLimitBuy cancels the resting limit buy for (period, token).
// It uses the stored order id when there is one, otherwise it looks up open
// orders on the gateway. The stored id is cleared after a successful
// cancel.
func (t *Trader) CancelPendingLimitBuy(ctx context.Context, period int64, tokenID string) error {
	trade := t.pending[limitKey(period, tokenID)]
	if trade != nil && trade.OrderID != "" {
		if err := t.gateway.CancelOrder(ctx, trade.OrderID); err != nil {
			return err
		}
		log.Info().Str("order_id", trade.OrderID).Msg("   🗑️ Cancelled limit order")
		t.audit("cancel", trade.Kind, tokenID, decimal.Zero, decimal.Zero,
			exec.OrderResult{OrderID: trade.OrderID, Status: "cancelled"})
		trade.OrderID = ""
		return nil
	}

	open, err := t.gateway.GetOpenOrders(ctx, tokenID)
	if err != nil {
		return err
	}
	for _, o := range open {
		if o.Side == string(exec.Buy) && o.AssetID == tokenID {
			if err := t.gateway.CancelOrder(ctx, o.ID); err != nil {
				return err
			}
			log.Info().Str("order_id", o.ID).Msg("   🗑️ Cancelled limit order")
			return nil
		}
	}
	log.Warn().Str("token", shortToken(tokenID)).Msg("   ⚠️ No open limit order found to cancel")
	return nil
}

// ExecuteLimitSell places a limit sell for the filled side of a hedge. An
// empty order id in the response counts as failure.
func (t *Trader) ExecuteLimitSell(ctx context.Context, tokenID string, kind types.TokenKind, price, size decimal.Decimal) error {
	result, err := t.gateway.PlaceLimitOrder(ctx, exec.LimitOrderParams{
		TokenID:  tokenID,
		Side:     exec.Sell,
		Price:    price,
		Size:     size,
		TickSize: exec.TickSize01,
	})
	if err != nil {
		return err
	}
	if result.OrderID == "" {
		return &exec.PlacementError{TokenID: tokenID, Err: errors.New("limit sell returned no order ID")}
	}
	log.Info().Str("token", kind.DisplayName()).Str("size", size.String()).
		Str("price", price.StringFixed(2)).Str("order_id", result.OrderID).
		Msg("✅ LIMIT SELL PLACED")
	t.audit("limit_sell", kind, tokenID, price, size, result)
	return nil
}

// ExecuteMarketBuy places a FAK market buy for a hedge position, recorded
// under the hedge key so it never collides with the resting limit buy for
// the same token.
func (t *Trader) ExecuteMarketBuy(ctx context.Context, opp types.BuyOpportunity, amountUSD decimal.Decimal) error {
	result, err := t.gateway.PlaceMarketOrder(ctx, exec.MarketOrderParams{
		TokenID:   opp.TokenID,
		Side:      exec.Buy,
		Amount:    amountUSD,
		OrderType: exec.FAK,
	})
	if err != nil {
		return err
	}
	log.Info().Str("token", opp.Kind.DisplayName()).Str("order_id", result.OrderID).
		Msg("✅ MARKET BUY (hedge) PLACED")
	t.pending[hedgeKey(opp.PeriodTimestamp, opp.TokenID)] = &PendingTrade{
		TokenID:         opp.TokenID,
		ConditionID:     opp.ConditionID,
		Kind:            opp.Kind,
		PeriodTimestamp: opp.PeriodTimestamp,
		OrderID:         result.OrderID,
	}
	t.audit("market_buy", opp.Kind, opp.TokenID, decimal.Zero, amountUSD, result)
	return nil
}

// ExecuteSell places a FAK market sell and marks the position sold.
func (t *Trader) ExecuteSell(ctx context.Context, tokenID string, size decimal.Decimal, kind types.TokenKind, period int64) error {
	result, err := t.gateway.PlaceMarketOrder(ctx, exec.MarketOrderParams{
		TokenID:   tokenID,
		Side:      exec.Sell,
		Amount:    size,
		OrderType: exec.FAK,
	})
	if err != nil {
		return err
	}
	log.Info().Str("token", kind.DisplayName()).Str("size", size.String()).
		Msg("✅ STOP-LOSS SELL PLACED")
	t.audit("market_sell", kind, tokenID, decimal.Zero, size, result)
	t.MarkTradeSold(period, tokenID)
	return nil
}

// MarkTradeSold flags the pending trade for (period, token) as sold.
// Terminal for that slot for that period.
func (t *Trader) MarkTradeSold(period int64, tokenID string) {
	for _, trade := range t.pending {
		if trade.PeriodTimestamp == period && trade.TokenID == tokenID {
			trade.Sold = true
			return
		}
	}
}

func (t *Trader) audit(action string, kind types.TokenKind, tokenID string, price, size decimal.Decimal, r exec.OrderResult) {
	if t.db == nil {
		return
	}
	t.db.SaveOrderEvent(&storage.OrderEvent{
		Action:    action,
		TokenKind: kind.DisplayName(),
		TokenID:   tokenID,
		Price:     price,
		Size:      size,
		OrderID:   r.OrderID,
		Status:    r.Status,
	})
}

func shortToken(tokenID string) string {
	if len(tokenID) > 16 {
		return tokenID[:16] + "..."
	}
	return tokenID
}
