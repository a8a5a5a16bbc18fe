package markets

import (
	"errors"
	"testing"

	"github.com/web3guy0/duallimit/types"
)

func TestNormalizeOutcome(t *testing.T) {
	tests := []struct {
		outcome string
		want    Side
	}{
		{"Up", SideUp},
		{"UP", SideUp},
		{"up", SideUp},
		{"Bitcoin Up", SideUp},
		{"1", SideUp},
		{"Down", SideDown},
		{"DOWN", SideDown},
		{"Bitcoin Down", SideDown},
		{"0", SideDown},
		{"Yes", SideUnknown},
		{"", SideUnknown},
		{"  Up  ", SideUp},
	}
	for _, tt := range tests {
		if got := NormalizeOutcome(tt.outcome); got != tt.want {
			t.Errorf("NormalizeOutcome(%q) = %v, want %v", tt.outcome, got, tt.want)
		}
	}
}

func TestResolveTokens(t *testing.T) {
	market := func(tokens ...types.Token) types.Market {
		return types.Market{Slug: "btc-updown-15m-1700000100", Tokens: tokens}
	}

	t.Run("resolves both sides", func(t *testing.T) {
		m := market(
			types.Token{TokenID: "111", Outcome: "Up"},
			types.Token{TokenID: "222", Outcome: "Down"},
		)
		up, down, err := ResolveTokens(m)
		if err != nil {
			t.Fatalf("ResolveTokens: %v", err)
		}
		if up != "111" || down != "222" {
			t.Errorf("got up=%q down=%q", up, down)
		}
	})

	t.Run("order independent", func(t *testing.T) {
		m := market(
			types.Token{TokenID: "222", Outcome: "Down"},
			types.Token{TokenID: "111", Outcome: "Up"},
		)
		up, down, err := ResolveTokens(m)
		if err != nil {
			t.Fatalf("ResolveTokens: %v", err)
		}
		if up != "111" || down != "222" {
			t.Errorf("got up=%q down=%q", up, down)
		}
	})

	t.Run("missing side", func(t *testing.T) {
		m := market(types.Token{TokenID: "111", Outcome: "Up"})
		if _, _, err := ResolveTokens(m); !errors.Is(err, ErrUnresolvedToken) {
			t.Fatalf("err = %v, want ErrUnresolvedToken", err)
		}
	})

	t.Run("duplicate side", func(t *testing.T) {
		m := market(
			types.Token{TokenID: "111", Outcome: "Up"},
			types.Token{TokenID: "333", Outcome: "UP"},
			types.Token{TokenID: "222", Outcome: "Down"},
		)
		if _, _, err := ResolveTokens(m); !errors.Is(err, ErrUnresolvedToken) {
			t.Fatalf("err = %v, want ErrUnresolvedToken", err)
		}
	})

	t.Run("no tokens", func(t *testing.T) {
		if _, _, err := ResolveTokens(market()); !errors.Is(err, ErrUnresolvedToken) {
			t.Fatalf("err = %v, want ErrUnresolvedToken", err)
		}
	})
}
