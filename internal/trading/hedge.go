package trading

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/web3guy0/duallimit/types"
)

// HedgePair is one market's resolved up/down pair, eligible for a hedge
// check this cycle.
type HedgePair struct {
	Asset       types.Asset
	ConditionID string
	UpTokenID   string
	DownTokenID string
}

// CheckHedge runs the stop-loss state transition for one market:
//
//	exactly one side filled + unfilled side's price ≥ (1 - sellTriggerBid)
//	→ cancel the unfilled resting buy (best effort), then limit sell the
//	filled side at sellAtPrice.
//
// The trigger uses the unfilled side's ask, falling back to bid, falling
// back to zero. Note the threshold inversion: sellTriggerBid=0.8 means the
// hedge fires at 0.20, not 0.80; the config name is historical and the
// computed behavior is load-bearing.
//
// Returns placed=true only when the limit sell was actually placed, so the
// caller sets its once-per-(period, market) guard on success alone and
// retries across cycles otherwise. The limit sell itself is retried up to
// limitSellMaxRetries times with a fixed delay; exhaustion returns
// ErrHedgeSellFailed.
func (t *Trader) CheckHedge(ctx context.Context, snap *types.MarketSnapshot, pair HedgePair, sellTriggerBid, sellAtPrice decimal.Decimal) (placed bool, err error) {
	if pair.UpTokenID == "" || pair.DownTokenID == "" {
		return false, nil
	}

	upBal := t.GetBalance(ctx, pair.UpTokenID)
	downBal := t.GetBalance(ctx, pair.DownTokenID)
	upFilled := upBal.GreaterThan(filledBalanceMin)
	downFilled := downBal.GreaterThan(filledBalanceMin)
	if upFilled == downFilled {
		return false, nil
	}

	unfilledTokenID := pair.DownTokenID
	if downFilled {
		unfilledTokenID = pair.UpTokenID
	}
	ask := snap.AskForToken(unfilledTokenID)
	bid := snap.BidForToken(unfilledTokenID)
	triggerPrice := decimal.Zero
	switch {
	case ask != nil:
		triggerPrice = *ask
	case bid != nil:
		triggerPrice = *bid
	}
	threshold := decimal.NewFromInt(1).Sub(sellTriggerBid)
	if triggerPrice.LessThan(threshold) {
		return false, nil
	}

	filledTokenID, filledKind, filledBal := pair.UpTokenID, types.UpKind(pair.Asset), upBal
	if downFilled {
		filledTokenID, filledKind, filledBal = pair.DownTokenID, types.DownKind(pair.Asset), downBal
	}
	filledUnits := filledBal.Round(6)
	if filledUnits.LessThan(minLimitSellShares) {
		log.Info().Str("asset", string(pair.Asset)).Str("size", filledUnits.String()).
			Str("min", minLimitSellShares.String()).Msg("   filled size below minimum, skip limit sell")
		return false, nil
	}

	log.Info().
		Str("asset", string(pair.Asset)).
		Str("trigger_price", triggerPrice.StringFixed(2)).
		Str("threshold", threshold.StringFixed(2)).
		Str("filled", filledKind.DisplayName()).
		Str("size", filledUnits.String()).
		Str("sell_at", sellAtPrice.StringFixed(2)).
		Msg("📤 SL trigger: close unfilled limit buy, then sell BOUGHT side")

	// Cancel is best-effort: a failed cancel never blocks the sell.
	if err := t.CancelPendingLimitBuy(ctx, snap.PeriodTimestamp, unfilledTokenID); err != nil {
		log.Warn().Err(err).Msg("   ⚠️ Could not cancel unfilled limit buy")
	}

	for attempt := 1; attempt <= limitSellMaxRetries; attempt++ {
		err := t.ExecuteLimitSell(ctx, filledTokenID, filledKind, sellAtPrice, filledUnits)
		if err == nil {
			u := filledUnits
			if trade := t.PendingLimitTrade(snap.PeriodTimestamp, filledTokenID); trade != nil {
				trade.Units = &u
			}
			t.MarkTradeSold(snap.PeriodTimestamp, filledTokenID)
			return true, nil
		}
		log.Warn().Err(err).Int("attempt", attempt).Int("max", limitSellMaxRetries).
			Msg("   Limit sell attempt failed")
		if attempt < limitSellMaxRetries {
			log.Info().Dur("delay", limitSellRetryDelay).Msg("   Retrying limit sell")
			t.sleep(ctx, limitSellRetryDelay)
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
		}
	}
	log.Warn().Int("attempts", limitSellMaxRetries).
		Msg("   ⚠️ Limit sell failed after retries; will retry next poll")
	return false, ErrHedgeSellFailed
}
