// Package core orchestrates the dual-limit control loop.
package core

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/web3guy0/duallimit/bot"
	"github.com/web3guy0/duallimit/exec"
	"github.com/web3guy0/duallimit/feeds"
	"github.com/web3guy0/duallimit/internal/clock"
	"github.com/web3guy0/duallimit/internal/config"
	"github.com/web3guy0/duallimit/internal/markets"
	"github.com/web3guy0/duallimit/internal/trading"
	"github.com/web3guy0/duallimit/types"
)

// ═══════════════════════════════════════════════════════════════════════════════
// ENGINE - Central orchestrator
// ═══════════════════════════════════════════════════════════════════════════════
//
// One poll cycle, in strict order:
//   Clock → Discovery (period change only) → Snapshot → Opportunities →
//   Trader → Gateway
//
// The engine is the only component that remembers WHEN to act (period
// transitions, lastPlacedPeriod, hedge guard); the trader is the only one
// that remembers WHAT positions exist. All state mutation stays on this
// goroutine.
//
// ═══════════════════════════════════════════════════════════════════════════════

// asapWindowSec: batch placement is allowed this long into a period when it
// was missed at the rollover (e.g. the process started mid-period). Hedge
// checks wait until after it.
const asapWindowSec = 2

// BookSubscriber is the optional websocket watcher hook.
type BookSubscriber interface {
	Subscribe(conditionID, upTokenID, downTokenID string) error
}

// Engine drives the poll cadence and period-transition handling.
type Engine struct {
	cfg       *config.Config
	clk       *clock.Clock
	discovery *markets.Discovery
	snapshots *feeds.SnapshotProvider
	trader    *trading.Trader
	gateway   exec.Gateway
	notifier  *bot.Notifier
	watcher   BookSubscriber

	resolved         markets.ResolvedMarkets
	boundary         clock.Boundary
	lastPlacedPeriod int64
	hedgeDone        map[string]bool

	sleep func(ctx context.Context, d time.Duration)
}

// NewEngine wires the control loop. notifier and watcher may be nil.
func NewEngine(cfg *config.Config, clk *clock.Clock, discovery *markets.Discovery,
	snapshots *feeds.SnapshotProvider, trader *trading.Trader, gateway exec.Gateway,
	notifier *bot.Notifier, watcher BookSubscriber) *Engine {
	return &Engine{
		cfg:       cfg,
		clk:       clk,
		discovery: discovery,
		snapshots: snapshots,
		trader:    trader,
		gateway:   gateway,
		notifier:  notifier,
		watcher:   watcher,
		hedgeDone: make(map[string]bool),
		sleep:     sleepCtx,
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

func (e *Engine) pollInterval() time.Duration {
	return time.Duration(e.cfg.Trading.CheckIntervalMs) * time.Millisecond
}

// Run performs initial discovery and then polls until ctx is cancelled.
// An in-flight cycle always finishes before Run returns.
func (e *Engine) Run(ctx context.Context) error {
	t := e.cfg.Trading
	log.Info().Msg("🔍 Discovering BTC, ETH, Solana, XRP markets...")
	e.resolved = e.discovery.DiscoverAll(ctx, t.EnableETHTrading, t.EnableSolanaTrading, t.EnableXRPTrading)
	e.logBTCTokens()
	e.subscribeWatcher()

	period := e.clk.CurrentPeriod()
	log.Info().Int64("period", period).
		Int64("next_in_sec", e.clk.SecondsRemaining(period)).
		Msg("⏰ Starting market monitoring")

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		e.cycle(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		e.sleep(ctx, e.pollInterval())
	}
}

// cycle runs one poll iteration. Errors inside a cycle are contained to
// the action that produced them; the loop never dies.
func (e *Engine) cycle(ctx context.Context) {
	t := e.cfg.Trading

	snap := e.snapshots.Fetch(ctx, e.resolved)
	log.Info().Msg("📊 " + feeds.FormatPrices(snap))

	// Between-period dead zone.
	if snap.TimeRemainingSec == 0 {
		return
	}

	// First observation: record the period, take no action - there is no
	// previous state to compare against.
	if e.boundary.Last() == 0 {
		e.boundary.Observe(snap.PeriodTimestamp)
		return
	}

	if e.boundary.Observe(snap.PeriodTimestamp) {
		e.hedgeDone = make(map[string]bool)
		log.Info().Msg("🔄 Period changed - refreshing markets for new period...")
		e.resolved = e.discovery.Refresh(ctx, e.resolved,
			t.EnableETHTrading, t.EnableSolanaTrading, t.EnableXRPTrading)
		log.Info().Msg("✅ Markets refreshed")
		e.subscribeWatcher()

		// Re-fetch with the new markets so token ids match the new period,
		// then place the batch ASAP - time-to-order is the edge here.
		snap = e.snapshots.Fetch(ctx, e.resolved)
		log.Info().Msg("📊 " + feeds.FormatPrices(snap))
		e.placeBatchOnce(ctx, snap, "batch ASAP")
		return
	}

	elapsed := clock.PeriodSeconds - snap.TimeRemainingSec

	// Covers starting mid-period: the rollover path above never ran for
	// this period.
	if elapsed <= asapWindowSec {
		e.placeBatchOnce(ctx, snap, "batch")
	}

	if t.HedgeEnabled() && !e.gateway.Simulated() && elapsed > asapWindowSec {
		e.runHedgeChecks(ctx, snap)
	}
}

// placeBatchOnce places this period's batch of limit buys at most once,
// guarded by lastPlacedPeriod. The guard is set before the attempt: one
// attempt per period, failures logged and not retried until next period.
func (e *Engine) placeBatchOnce(ctx context.Context, snap *types.MarketSnapshot, label string) {
	if e.lastPlacedPeriod == snap.PeriodTimestamp {
		return
	}
	e.lastPlacedPeriod = snap.PeriodTimestamp

	t := e.cfg.Trading
	opps := trading.BuildOpportunities(snap, t.DualLimitPrice,
		t.EnableETHTrading, t.EnableSolanaTrading, t.EnableXRPTrading)
	if len(opps) == 0 {
		return
	}
	log.Info().Int("orders", len(opps)).Str("limit", t.DualLimitPrice.StringFixed(2)).
		Str("mode", label).Msg("🎯 Market start - placing limit buys")
	if err := e.trader.ExecuteLimitBuyBatch(ctx, opps, t.DualLimitPrice, t.DualLimitShares); err != nil {
		log.Error().Err(err).Msg("Error executing limit buy batch")
		return
	}
	e.notifier.NotifyBatchPlaced(snap.PeriodTimestamp, len(opps), t.DualLimitPrice)
}

// runHedgeChecks evaluates the stop-loss for every enabled market whose
// up/down pair is resolved and whose (period, market) guard has not fired.
// The guard is set only on a successfully placed sell, so exhausted retries
// roll over to the next cycle automatically.
func (e *Engine) runHedgeChecks(ctx context.Context, snap *types.MarketSnapshot) {
	t := e.cfg.Trading
	for _, pair := range e.hedgePairs(snap) {
		key := fmt.Sprintf("%d_%s", snap.PeriodTimestamp, pair.ConditionID)
		if e.hedgeDone[key] {
			continue
		}
		placed, err := e.trader.CheckHedge(ctx, snap, pair, t.SLSellTriggerBid, t.SLSellAtPrice)
		if err != nil {
			log.Warn().Err(err).Str("asset", string(pair.Asset)).Msg("Hedge check failed")
		}
		if placed {
			e.hedgeDone[key] = true
			e.notifier.NotifyHedge(string(pair.Asset), t.SLSellAtPrice)
		}
		if ctx.Err() != nil {
			return
		}
	}
}

// hedgePairs lists the markets eligible for a hedge check this cycle: both
// tokens resolved, asset enabled (BTC always is).
func (e *Engine) hedgePairs(snap *types.MarketSnapshot) []trading.HedgePair {
	t := e.cfg.Trading
	enabled := map[types.Asset]bool{
		types.AssetBTC: true,
		types.AssetETH: t.EnableETHTrading,
		types.AssetSOL: t.EnableSolanaTrading,
		types.AssetXRP: t.EnableXRPTrading,
	}
	var pairs []trading.HedgePair
	for _, a := range types.Assets {
		if !enabled[a] {
			continue
		}
		mp := snap.ByAsset(a)
		if mp.Up == nil || mp.Down == nil {
			continue
		}
		pairs = append(pairs, trading.HedgePair{
			Asset:       a,
			ConditionID: mp.ConditionID,
			UpTokenID:   mp.Up.TokenID,
			DownTokenID: mp.Down.TokenID,
		})
	}
	return pairs
}

// subscribeWatcher registers resolved pairs with the websocket watcher.
func (e *Engine) subscribeWatcher() {
	if e.watcher == nil {
		return
	}
	for _, a := range types.Assets {
		m := e.resolved.ByAsset(a)
		if !m.Tradeable() {
			continue
		}
		upID, downID, err := markets.ResolveTokens(m)
		if err != nil {
			continue
		}
		if err := e.watcher.Subscribe(m.ConditionID, upID, downID); err != nil {
			log.Debug().Err(err).Str("asset", string(a)).Msg("Watcher subscribe failed")
		}
	}
}

// logBTCTokens echoes the mandatory asset's token ids once at startup.
func (e *Engine) logBTCTokens() {
	upID, downID, err := markets.ResolveTokens(e.resolved.BTC)
	if err != nil {
		return
	}
	log.Info().Str("up_token_id", upID).Msg("BTC Up token")
	log.Info().Str("down_token_id", downID).Msg("BTC Down token")
}
