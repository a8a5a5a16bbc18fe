package exec

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
)

func TestOrderResultConfirmed(t *testing.T) {
	f := false
	tr := true
	tests := []struct {
		name string
		r    OrderResult
		want bool
	}{
		{"live with id", OrderResult{OrderID: "X", Status: "live"}, true},
		{"matched with id", OrderResult{OrderID: "X", Status: "matched"}, true},
		{"live without id", OrderResult{Status: "live"}, false},
		{"explicit failure", OrderResult{OrderID: "X", Status: "live", Success: &f}, false},
		{"explicit success", OrderResult{OrderID: "X", Status: "matched", Success: &tr}, true},
		{"unknown status", OrderResult{OrderID: "X", Status: "delayed"}, false},
		{"empty", OrderResult{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.Confirmed(); got != tt.want {
				t.Errorf("Confirmed() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSimulatedClient(t *testing.T) {
	c := NewSimulatedClient()
	ctx := context.Background()

	if !c.Simulated() {
		t.Fatal("Simulated() must be true")
	}

	r, err := c.PlaceLimitOrder(ctx, LimitOrderParams{
		TokenID: "tok", Side: Buy,
		Price: decimal.NewFromFloat(0.45), Size: decimal.NewFromInt(1),
	})
	if err != nil {
		t.Fatalf("PlaceLimitOrder: %v", err)
	}
	if !r.Confirmed() {
		t.Errorf("simulated limit order must confirm, got %+v", r)
	}

	results, err := c.PlaceLimitOrdersBatch(ctx, []LimitOrderParams{
		{TokenID: "a", Side: Buy}, {TokenID: "b", Side: Buy},
	})
	if err != nil {
		t.Fatalf("PlaceLimitOrdersBatch: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("batch results = %d, want 2", len(results))
	}
	if results[0].OrderID == results[1].OrderID {
		t.Error("simulated order ids must be unique")
	}

	bal, err := c.GetBalance(ctx, "tok")
	if err != nil || !bal.IsZero() {
		t.Errorf("GetBalance = %s, %v; want 0, nil", bal, err)
	}

	if err := c.CancelOrder(ctx, r.OrderID); err != nil {
		t.Errorf("CancelOrder: %v", err)
	}

	open, err := c.GetOpenOrders(ctx, "tok")
	if err != nil || len(open) != 0 {
		t.Errorf("GetOpenOrders = %v, %v; want empty", open, err)
	}
}
