package trading

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/web3guy0/duallimit/types"
)

func fullSnap() *types.MarketSnapshot {
	pair := func(prefix string) types.MarketPrices {
		return types.MarketPrices{
			ConditionID: "0x" + prefix,
			Up:          &types.TokenPrice{TokenID: prefix + "-up"},
			Down:        &types.TokenPrice{TokenID: prefix + "-down"},
		}
	}
	return &types.MarketSnapshot{
		BTC:              pair("btc"),
		ETH:              pair("eth"),
		SOL:              pair("sol"),
		XRP:              pair("xrp"),
		PeriodTimestamp:  testPeriod,
		TimeRemainingSec: 899,
	}
}

func TestBuildOpportunitiesAllEnabled(t *testing.T) {
	opps := BuildOpportunities(fullSnap(), decimal.NewFromFloat(0.45), true, true, true)
	if len(opps) != 8 {
		t.Fatalf("opportunities = %d, want 8", len(opps))
	}

	wantKinds := []types.TokenKind{
		types.BTCUp, types.BTCDown,
		types.ETHUp, types.ETHDown,
		types.SOLUp, types.SOLDown,
		types.XRPUp, types.XRPDown,
	}
	for i, want := range wantKinds {
		if opps[i].Kind != want {
			t.Errorf("opps[%d].Kind = %s, want %s", i, opps[i].Kind, want)
		}
	}
	for _, o := range opps {
		if !o.BidPrice.Equal(decimal.NewFromFloat(0.45)) {
			t.Errorf("%s BidPrice = %s, want 0.45", o.Kind, o.BidPrice)
		}
		if o.PeriodTimestamp != testPeriod || o.TimeElapsedSec != 1 {
			t.Errorf("%s period/elapsed = %d/%d", o.Kind, o.PeriodTimestamp, o.TimeElapsedSec)
		}
	}
}

func TestBuildOpportunitiesBTCOnly(t *testing.T) {
	opps := BuildOpportunities(fullSnap(), decimal.NewFromFloat(0.45), false, false, false)
	if len(opps) != 2 {
		t.Fatalf("opportunities = %d, want 2 (BTC is always on)", len(opps))
	}
	if opps[0].Kind != types.BTCUp || opps[1].Kind != types.BTCDown {
		t.Errorf("kinds = %s, %s", opps[0].Kind, opps[1].Kind)
	}
}

func TestBuildOpportunitiesSkipsMissingTokens(t *testing.T) {
	snap := fullSnap()
	snap.BTC.Down = nil
	snap.ETH = types.MarketPrices{ConditionID: "dummy_eth_fallback"}

	opps := BuildOpportunities(snap, decimal.NewFromFloat(0.45), true, false, false)
	if len(opps) != 1 {
		t.Fatalf("opportunities = %d, want 1", len(opps))
	}
	if opps[0].Kind != types.BTCUp {
		t.Errorf("kind = %s, want BTC Up", opps[0].Kind)
	}
}
