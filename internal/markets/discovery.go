package markets

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/web3guy0/duallimit/internal/clock"
	"github.com/web3guy0/duallimit/types"
)

// fallbackPeriods is how many prior periods discovery probes for assets
// whose markets are sometimes listed under an older window timestamp.
const fallbackPeriods = 3

// DiscoveryError reports that no active market was found for an asset.
type DiscoveryError struct {
	Asset types.Asset
	Tried []string
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("no active %s 15-minute up/down market (tried: %s)",
		e.Asset, strings.Join(e.Tried, ", "))
}

// assetSpec drives per-asset discovery behavior.
type assetSpec struct {
	prefixes        []string
	includePrevious bool
}

var assetSpecs = map[types.Asset]assetSpec{
	types.AssetBTC: {prefixes: []string{"btc"}, includePrevious: true},
	types.AssetETH: {prefixes: []string{"eth"}, includePrevious: true},
	types.AssetSOL: {prefixes: []string{"solana", "sol"}, includePrevious: false},
	types.AssetXRP: {prefixes: []string{"xrp"}, includePrevious: false},
}

// Discovery resolves the active market per tracked asset once per period.
type Discovery struct {
	client *Client
	clk    *clock.Clock
}

// NewDiscovery creates a Discovery over the given market-data client.
func NewDiscovery(client *Client, clk *clock.Clock) *Discovery {
	return &Discovery{client: client, clk: clk}
}

// ResolvedMarkets is one discovery pass's result, placeholder-filled for
// disabled or undiscoverable assets.
type ResolvedMarkets struct {
	BTC types.Market
	ETH types.Market
	SOL types.Market
	XRP types.Market
}

// ByAsset returns the market for one asset.
func (r ResolvedMarkets) ByAsset(a types.Asset) types.Market {
	switch a {
	case types.AssetBTC:
		return r.BTC
	case types.AssetETH:
		return r.ETH
	case types.AssetSOL:
		return r.SOL
	case types.AssetXRP:
		return r.XRP
	}
	return types.Market{}
}

// PlaceholderMarket returns the disabled stand-in used when an asset is off
// or its market could not be found. It is never tradeable.
func PlaceholderMarket(asset types.Asset) types.Market {
	name := strings.ToLower(string(asset))
	if asset == types.AssetSOL {
		name = "solana"
	}
	return types.Market{
		ConditionID: fmt.Sprintf("dummy_%s_fallback", name),
		Slug:        fmt.Sprintf("%s-updown-15m-fallback", name),
		Question:    fmt.Sprintf("%s Trading Disabled", asset),
		Active:      false,
		Closed:      true,
	}
}

// DiscoverAll resolves markets for every tracked asset. Per-asset failures
// degrade to placeholders; a BTC failure is logged the same way and does
// not halt anything. The seen-ids set keeps two assets from claiming the
// same market in one pass.
func (d *Discovery) DiscoverAll(ctx context.Context, enableETH, enableSOL, enableXRP bool) ResolvedMarkets {
	seen := make(map[string]bool)

	resolve := func(asset types.Asset, enabled bool) types.Market {
		if !enabled {
			return PlaceholderMarket(asset)
		}
		m, err := d.discoverOne(ctx, asset, seen)
		if err != nil {
			log.Warn().Err(err).Str("asset", string(asset)).
				Msg("⚠️ Could not discover market - using fallback")
			return PlaceholderMarket(asset)
		}
		seen[m.ConditionID] = true
		return m
	}

	// ETH first, then BTC, mirrors the order the seen-ids guard was tuned
	// for (shared events occasionally alias slugs across assets).
	eth := resolve(types.AssetETH, enableETH)
	log.Info().Msg("🔍 Discovering BTC market...")
	btc := resolve(types.AssetBTC, true)
	sol := resolve(types.AssetSOL, enableSOL)
	xrp := resolve(types.AssetXRP, enableXRP)

	return ResolvedMarkets{BTC: btc, ETH: eth, SOL: sol, XRP: xrp}
}

// Refresh re-runs discovery at a period rollover. Where DiscoverAll
// degrades a failed asset to a placeholder, Refresh keeps that asset's
// previous market as a best-effort fallback: a stale market beats none
// while the new period's listing is still propagating.
func (d *Discovery) Refresh(ctx context.Context, prev ResolvedMarkets, enableETH, enableSOL, enableXRP bool) ResolvedMarkets {
	seen := make(map[string]bool)

	resolve := func(asset types.Asset, enabled bool, previous types.Market) types.Market {
		if !enabled {
			return PlaceholderMarket(asset)
		}
		m, err := d.discoverOne(ctx, asset, seen)
		if err != nil {
			log.Warn().Err(err).Str("asset", string(asset)).
				Msg("⚠️ Failed to refresh market - using previous")
			return previous
		}
		seen[m.ConditionID] = true
		return m
	}

	eth := resolve(types.AssetETH, enableETH, prev.ETH)
	btc := resolve(types.AssetBTC, true, prev.BTC)
	sol := resolve(types.AssetSOL, enableSOL, prev.SOL)
	xrp := resolve(types.AssetXRP, enableXRP, prev.XRP)

	return ResolvedMarkets{BTC: btc, ETH: eth, SOL: sol, XRP: xrp}
}

// discoverOne walks the asset's slug prefixes and, where enabled, up to
// fallbackPeriods prior windows. First active, unclosed, unclaimed market
// wins.
func (d *Discovery) discoverOne(ctx context.Context, asset types.Asset, seen map[string]bool) (types.Market, error) {
	spec, ok := assetSpecs[asset]
	if !ok {
		return types.Market{}, &DiscoveryError{Asset: asset}
	}
	rounded := d.clk.CurrentPeriod()

	var tried []string
	for i, prefix := range spec.prefixes {
		if i > 0 {
			log.Info().Str("asset", string(asset)).Str("prefix", prefix).
				Msg("🔍 Trying alternate slug prefix")
		}
		offsets := 1
		if spec.includePrevious {
			offsets = fallbackPeriods + 1
		}
		for off := 0; off < offsets; off++ {
			slug := fmt.Sprintf("%s-updown-15m-%d", prefix, rounded-int64(off)*clock.PeriodSeconds)
			tried = append(tried, slug)
			m, err := d.client.GetMarketBySlug(ctx, slug)
			if err != nil {
				continue
			}
			if seen[m.ConditionID] || !m.Tradeable() {
				continue
			}
			log.Info().Str("asset", string(asset)).Str("slug", m.Slug).
				Str("condition_id", m.ConditionID).Msg("Found market by slug")
			return m, nil
		}
	}
	return types.Market{}, &DiscoveryError{Asset: asset, Tried: tried}
}
