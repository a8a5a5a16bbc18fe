// Package exec places and cancels orders against the Polymarket CLOB.
//
// The Gateway interface has two implementations selected once at startup:
// LiveClient signs and submits real orders, SimulatedClient fabricates
// confirmed results without touching the network. Callers never branch on a
// simulation flag per call; they ask the gateway.
package exec

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// Side of an order.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// OrderType is the market-order execution mode.
type OrderType string

const (
	FOK OrderType = "FOK" // fill or kill
	FAK OrderType = "FAK" // fill and kill
)

// TickSize01 is the only tick size these markets use.
const TickSize01 = "0.01"

// LimitOrderParams describe one resting limit order.
type LimitOrderParams struct {
	TokenID  string
	Side     Side
	Price    decimal.Decimal
	Size     decimal.Decimal
	TickSize string
	NegRisk  bool
}

// MarketOrderParams describe one immediate-execution order. Amount is USD
// to spend for buys and shares to sell for sells.
type MarketOrderParams struct {
	TokenID   string
	Side      Side
	Amount    decimal.Decimal
	OrderType OrderType
}

// OrderResult is the gateway's answer for one placed order.
type OrderResult struct {
	OrderID  string `json:"orderID"`
	Status   string `json:"status"`
	Success  *bool  `json:"success,omitempty"`
	ErrorMsg string `json:"errorMsg,omitempty"`
}

// Confirmed reports whether the CLOB acknowledged the order as resting or
// matched. Anything else, including an empty order id, is not confirmed.
func (r OrderResult) Confirmed() bool {
	if r.OrderID == "" {
		return false
	}
	if r.Success != nil && !*r.Success {
		return false
	}
	return r.Status == "live" || r.Status == "matched"
}

// OpenOrder is one resting order reported by the CLOB.
type OpenOrder struct {
	ID           string `json:"id"`
	AssetID      string `json:"asset_id"`
	Side         string `json:"side"`
	OriginalSize string `json:"original_size"`
	Price        string `json:"price"`
}

// Gateway abstracts order placement, cancellation, balance and open-order
// queries. Callers decide fallback behavior on errors; the gateway never
// swallows them.
type Gateway interface {
	PlaceLimitOrder(ctx context.Context, p LimitOrderParams) (OrderResult, error)
	PlaceLimitOrdersBatch(ctx context.Context, params []LimitOrderParams) ([]OrderResult, error)
	PlaceMarketOrder(ctx context.Context, p MarketOrderParams) (OrderResult, error)
	CancelOrder(ctx context.Context, orderID string) error
	GetBalance(ctx context.Context, tokenID string) (decimal.Decimal, error)
	GetOpenOrders(ctx context.Context, assetID string) ([]OpenOrder, error)
	Simulated() bool
}

// AuthError means credentials are invalid or the CLOB is unreachable at
// startup. Fatal in live mode, tolerated in simulation.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string { return fmt.Sprintf("authentication failed: %v", e.Err) }
func (e *AuthError) Unwrap() error { return e.Err }

// PlacementError means an individual or batched order attempt failed.
type PlacementError struct {
	TokenID string
	Err     error
}

func (e *PlacementError) Error() string {
	return fmt.Sprintf("order placement failed for %s: %v", shortToken(e.TokenID), e.Err)
}
func (e *PlacementError) Unwrap() error { return e.Err }

// CancelError means a cancel attempt failed. Always best-effort for
// callers.
type CancelError struct {
	OrderID string
	Err     error
}

func (e *CancelError) Error() string {
	return fmt.Sprintf("cancel failed for order %s: %v", e.OrderID, e.Err)
}
func (e *CancelError) Unwrap() error { return e.Err }

func shortToken(tokenID string) string {
	if len(tokenID) > 16 {
		return tokenID[:16] + "..."
	}
	return tokenID
}
