package exec

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/shopspring/decimal"
)

// SimulatedClient is the paper-trading Gateway. Orders are acknowledged as
// live with synthetic ids, balances are always zero and cancels are no-ops,
// so the trader's state machine runs exactly as in live mode without side
// effects.
type SimulatedClient struct {
	seq atomic.Int64
}

// NewSimulatedClient creates a paper-trading gateway.
func NewSimulatedClient() *SimulatedClient {
	log.Info().Msg("🎮 Simulated execution client initialized")
	return &SimulatedClient{}
}

// Simulated reports true.
func (c *SimulatedClient) Simulated() bool { return true }

func (c *SimulatedClient) nextID() string {
	return fmt.Sprintf("SIM_%d", c.seq.Add(1))
}

// PlaceLimitOrder records nothing and confirms with a synthetic id.
func (c *SimulatedClient) PlaceLimitOrder(_ context.Context, p LimitOrderParams) (OrderResult, error) {
	id := c.nextID()
	log.Info().
		Str("order_id", id).
		Str("token", shortToken(p.TokenID)).
		Str("side", string(p.Side)).
		Str("price", p.Price.StringFixed(2)).
		Str("size", p.Size.StringFixed(2)).
		Msg("🎮 SIMULATION: limit order not placed")
	return OrderResult{OrderID: id, Status: "live"}, nil
}

// PlaceLimitOrdersBatch confirms every order with a synthetic id.
func (c *SimulatedClient) PlaceLimitOrdersBatch(ctx context.Context, params []LimitOrderParams) ([]OrderResult, error) {
	results := make([]OrderResult, 0, len(params))
	for _, p := range params {
		r, _ := c.PlaceLimitOrder(ctx, p)
		results = append(results, r)
	}
	return results, nil
}

// PlaceMarketOrder confirms with a synthetic id.
func (c *SimulatedClient) PlaceMarketOrder(_ context.Context, p MarketOrderParams) (OrderResult, error) {
	id := c.nextID()
	log.Info().
		Str("order_id", id).
		Str("token", shortToken(p.TokenID)).
		Str("side", string(p.Side)).
		Str("amount", p.Amount.String()).
		Str("type", string(p.OrderType)).
		Msg("🎮 SIMULATION: market order not placed")
	return OrderResult{OrderID: id, Status: "matched"}, nil
}

// CancelOrder is a no-op.
func (c *SimulatedClient) CancelOrder(_ context.Context, orderID string) error {
	log.Info().Str("order_id", orderID).Msg("🎮 SIMULATION: cancel not sent")
	return nil
}

// GetBalance always reports zero shares; simulated limit buys never fill.
func (c *SimulatedClient) GetBalance(context.Context, string) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

// GetOpenOrders reports none.
func (c *SimulatedClient) GetOpenOrders(context.Context, string) ([]OpenOrder, error) {
	return nil, nil
}
