package types

import (
	"github.com/shopspring/decimal"
)

// ═══════════════════════════════════════════════════════════════════════════════
// SHARED TYPES - Avoid import cycles
// ═══════════════════════════════════════════════════════════════════════════════

// Asset is one of the tracked 15-minute up/down underlyings.
type Asset string

const (
	AssetBTC Asset = "BTC"
	AssetETH Asset = "ETH"
	AssetSOL Asset = "SOL"
	AssetXRP Asset = "XRP"
)

// Assets lists the tracked assets in discovery/opportunity order.
var Assets = []Asset{AssetBTC, AssetETH, AssetSOL, AssetXRP}

// TokenKind identifies one side of one asset's up/down pair.
type TokenKind string

const (
	BTCUp   TokenKind = "btc_up"
	BTCDown TokenKind = "btc_down"
	ETHUp   TokenKind = "eth_up"
	ETHDown TokenKind = "eth_down"
	SOLUp   TokenKind = "sol_up"
	SOLDown TokenKind = "sol_down"
	XRPUp   TokenKind = "xrp_up"
	XRPDown TokenKind = "xrp_down"
)

// DisplayName returns the human label used in log lines and alerts.
func (k TokenKind) DisplayName() string {
	switch k {
	case BTCUp:
		return "BTC Up"
	case BTCDown:
		return "BTC Down"
	case ETHUp:
		return "ETH Up"
	case ETHDown:
		return "ETH Down"
	case SOLUp:
		return "SOL Up"
	case SOLDown:
		return "SOL Down"
	case XRPUp:
		return "XRP Up"
	case XRPDown:
		return "XRP Down"
	}
	return string(k)
}

// Opposite returns the other side of the same market.
func (k TokenKind) Opposite() TokenKind {
	switch k {
	case BTCUp:
		return BTCDown
	case BTCDown:
		return BTCUp
	case ETHUp:
		return ETHDown
	case ETHDown:
		return ETHUp
	case SOLUp:
		return SOLDown
	case SOLDown:
		return SOLUp
	case XRPUp:
		return XRPDown
	case XRPDown:
		return XRPUp
	}
	return k
}

// UpKind returns the Up-side kind for an asset.
func UpKind(a Asset) TokenKind {
	switch a {
	case AssetBTC:
		return BTCUp
	case AssetETH:
		return ETHUp
	case AssetSOL:
		return SOLUp
	case AssetXRP:
		return XRPUp
	}
	return ""
}

// DownKind returns the Down-side kind for an asset.
func DownKind(a Asset) TokenKind {
	return UpKind(a).Opposite()
}

// Token is one tradable side of a binary market.
type Token struct {
	TokenID string `json:"token_id"`
	Outcome string `json:"outcome"`
}

// Market is a resolved up/down market for one period.
type Market struct {
	ConditionID string  `json:"conditionId"`
	Slug        string  `json:"slug"`
	Question    string  `json:"question"`
	Active      bool    `json:"active"`
	Closed      bool    `json:"closed"`
	Tokens      []Token `json:"tokens"`
}

// Tradeable reports whether the market can receive orders.
func (m Market) Tradeable() bool {
	return m.Active && !m.Closed
}

// TokenPrice is top-of-book for one token. Nil bid/ask means that side of
// the book is empty; callers must never read nil as zero.
type TokenPrice struct {
	TokenID string
	Bid     *decimal.Decimal
	Ask     *decimal.Decimal
}

// MarketPrices pairs the up/down top-of-book for one market. Either side is
// nil when the token could not be resolved for this period.
type MarketPrices struct {
	ConditionID string
	Up          *TokenPrice
	Down        *TokenPrice
}

// MarketSnapshot is one immutable per-cycle view of all tracked markets.
// It is recomputed every poll cycle and never mutated.
type MarketSnapshot struct {
	BTC              MarketPrices
	ETH              MarketPrices
	SOL              MarketPrices
	XRP              MarketPrices
	PeriodTimestamp  int64
	TimeRemainingSec int64
}

// ByAsset returns the price pair for one asset.
func (s *MarketSnapshot) ByAsset(a Asset) MarketPrices {
	switch a {
	case AssetBTC:
		return s.BTC
	case AssetETH:
		return s.ETH
	case AssetSOL:
		return s.SOL
	case AssetXRP:
		return s.XRP
	}
	return MarketPrices{}
}

// AskForToken returns the best ask for a token id anywhere in the snapshot,
// or nil when the token is unknown or its ask side is empty.
func (s *MarketSnapshot) AskForToken(tokenID string) *decimal.Decimal {
	if tp := s.priceForToken(tokenID); tp != nil {
		return tp.Ask
	}
	return nil
}

// BidForToken returns the best bid for a token id anywhere in the snapshot.
func (s *MarketSnapshot) BidForToken(tokenID string) *decimal.Decimal {
	if tp := s.priceForToken(tokenID); tp != nil {
		return tp.Bid
	}
	return nil
}

func (s *MarketSnapshot) priceForToken(tokenID string) *TokenPrice {
	for _, a := range Assets {
		mp := s.ByAsset(a)
		if mp.Up != nil && mp.Up.TokenID == tokenID {
			return mp.Up
		}
		if mp.Down != nil && mp.Down.TokenID == tokenID {
			return mp.Down
		}
	}
	return nil
}

// BuyOpportunity is one candidate resting limit buy for the current period.
// Built fresh each period, never persisted.
type BuyOpportunity struct {
	ConditionID      string
	TokenID          string
	Kind             TokenKind
	BidPrice         decimal.Decimal
	PeriodTimestamp  int64
	TimeRemainingSec int64
	TimeElapsedSec   int64
}
