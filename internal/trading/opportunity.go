package trading

import (
	"github.com/shopspring/decimal"

	"github.com/web3guy0/duallimit/internal/clock"
	"github.com/web3guy0/duallimit/types"
)

// BuildOpportunities turns a snapshot into the limit buys to attempt this
// period, one per enabled up/down token present in the snapshot. Emission
// order is deterministic (BTC, ETH, SOL, XRP; Up before Down); correctness
// never depends on it, diagnostics may.
func BuildOpportunities(snap *types.MarketSnapshot, limitPrice decimal.Decimal, enableETH, enableSOL, enableXRP bool) []types.BuyOpportunity {
	elapsed := clock.PeriodSeconds - snap.TimeRemainingSec

	var opps []types.BuyOpportunity
	add := func(mp types.MarketPrices, tp *types.TokenPrice, kind types.TokenKind) {
		if tp == nil {
			return
		}
		opps = append(opps, types.BuyOpportunity{
			ConditionID:      mp.ConditionID,
			TokenID:          tp.TokenID,
			Kind:             kind,
			BidPrice:         limitPrice,
			PeriodTimestamp:  snap.PeriodTimestamp,
			TimeRemainingSec: snap.TimeRemainingSec,
			TimeElapsedSec:   elapsed,
		})
	}

	add(snap.BTC, snap.BTC.Up, types.BTCUp)
	add(snap.BTC, snap.BTC.Down, types.BTCDown)
	if enableETH {
		add(snap.ETH, snap.ETH.Up, types.ETHUp)
		add(snap.ETH, snap.ETH.Down, types.ETHDown)
	}
	if enableSOL {
		add(snap.SOL, snap.SOL.Up, types.SOLUp)
		add(snap.SOL, snap.SOL.Down, types.SOLDown)
	}
	if enableXRP {
		add(snap.XRP, snap.XRP.Up, types.XRPUp)
		add(snap.XRP, snap.XRP.Down, types.XRPDown)
	}
	return opps
}
