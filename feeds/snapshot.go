// Package feeds builds per-cycle market snapshots from the CLOB order
// books, plus an optional websocket price watcher.
package feeds

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/web3guy0/duallimit/internal/clock"
	"github.com/web3guy0/duallimit/internal/markets"
	"github.com/web3guy0/duallimit/types"
)

// SnapshotProvider fetches top-of-book for every tracked token and
// assembles one immutable MarketSnapshot per poll cycle.
type SnapshotProvider struct {
	client *markets.Client
	clk    *clock.Clock
}

// NewSnapshotProvider creates a provider over the market-data client.
func NewSnapshotProvider(client *markets.Client, clk *clock.Clock) *SnapshotProvider {
	return &SnapshotProvider{client: client, clk: clk}
}

// Fetch builds the snapshot for the given resolved markets. Period and
// time-remaining are always recomputed from the clock at assembly, never
// cached. A market whose tokens cannot be resolved contributes an empty
// price pair; individual book failures leave that token's price nil.
func (p *SnapshotProvider) Fetch(ctx context.Context, resolved markets.ResolvedMarkets) *types.MarketSnapshot {
	snap := &types.MarketSnapshot{}
	snap.BTC = p.fetchMarket(ctx, resolved.BTC)
	snap.ETH = p.fetchMarket(ctx, resolved.ETH)
	snap.SOL = p.fetchMarket(ctx, resolved.SOL)
	snap.XRP = p.fetchMarket(ctx, resolved.XRP)

	snap.PeriodTimestamp = p.clk.CurrentPeriod()
	snap.TimeRemainingSec = p.clk.SecondsRemaining(snap.PeriodTimestamp)
	return snap
}

func (p *SnapshotProvider) fetchMarket(ctx context.Context, m types.Market) types.MarketPrices {
	prices := types.MarketPrices{ConditionID: m.ConditionID}
	upID, downID, err := markets.ResolveTokens(m)
	if err != nil {
		log.Debug().Str("slug", m.Slug).Err(err).Msg("No up/down tokens for market")
		return prices
	}
	prices.Up = p.fetchTokenPrice(ctx, upID)
	prices.Down = p.fetchTokenPrice(ctx, downID)
	return prices
}

// fetchTokenPrice returns top-of-book for one token. Book fetch errors are
// contained here: the cycle proceeds with an empty price rather than
// failing the snapshot.
func (p *SnapshotProvider) fetchTokenPrice(ctx context.Context, tokenID string) *types.TokenPrice {
	tp := &types.TokenPrice{TokenID: tokenID}
	book, err := p.client.GetOrderBook(ctx, tokenID)
	if err != nil {
		log.Warn().Err(err).Msg("Order book fetch failed")
		return tp
	}
	tp.Bid = book.BestBid()
	tp.Ask = book.BestAsk()
	return tp
}

// FormatPrices renders the per-cycle console price line, one "U$bid/$ask
// D$bid/$ask" pair per asset plus time remaining.
func FormatPrices(snap *types.MarketSnapshot) string {
	return fmt.Sprintf("BTC: U%s D%s | ETH: U%s D%s | SOL: U%s D%s | XRP: U%s D%s | ⏱️  %dm %ds",
		fmtBidAsk(snap.BTC.Up), fmtBidAsk(snap.BTC.Down),
		fmtBidAsk(snap.ETH.Up), fmtBidAsk(snap.ETH.Down),
		fmtBidAsk(snap.SOL.Up), fmtBidAsk(snap.SOL.Down),
		fmtBidAsk(snap.XRP.Up), fmtBidAsk(snap.XRP.Down),
		snap.TimeRemainingSec/60, snap.TimeRemainingSec%60,
	)
}

func fmtBidAsk(tp *types.TokenPrice) string {
	if tp == nil {
		return "N/A"
	}
	bid, ask := "N/A", "N/A"
	if tp.Bid != nil {
		bid = "$" + tp.Bid.StringFixed(2)
	}
	if tp.Ask != nil {
		ask = "$" + tp.Ask.StringFixed(2)
	}
	return bid + "/" + ask
}
