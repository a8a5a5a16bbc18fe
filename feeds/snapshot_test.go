package feeds

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/web3guy0/duallimit/internal/clock"
	"github.com/web3guy0/duallimit/internal/markets"
	"github.com/web3guy0/duallimit/types"
)

const snapPeriod int64 = 1700000100

func bookServer(t *testing.T, books map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/book" {
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		body, ok := books[r.URL.Query().Get("token_id")]
		if !ok {
			fmt.Fprint(w, `{"error":"No orderbook exists"}`)
			return
		}
		fmt.Fprint(w, body)
	}))
}

func snapProvider(srv *httptest.Server, nowOffset int64) *SnapshotProvider {
	clk := &clock.Clock{Now: func() time.Time { return time.Unix(snapPeriod+nowOffset, 0) }}
	return NewSnapshotProvider(markets.NewClient(srv.URL, srv.URL), clk)
}

func btcMarket() types.Market {
	return types.Market{
		ConditionID: "0xbtc",
		Slug:        "btc-updown-15m-1700000100",
		Active:      true,
		Tokens: []types.Token{
			{TokenID: "btc-up", Outcome: "Up"},
			{TokenID: "btc-down", Outcome: "Down"},
		},
	}
}

func TestFetchSnapshot(t *testing.T) {
	srv := bookServer(t, map[string]string{
		"btc-up":   `{"bids":[{"price":"0.44","size":"10"}],"asks":[{"price":"0.46","size":"10"}]}`,
		"btc-down": `{"bids":[],"asks":[{"price":"0.55","size":"5"}]}`,
	})
	defer srv.Close()

	p := snapProvider(srv, 30)
	resolved := markets.ResolvedMarkets{
		BTC: btcMarket(),
		ETH: markets.PlaceholderMarket(types.AssetETH),
		SOL: markets.PlaceholderMarket(types.AssetSOL),
		XRP: markets.PlaceholderMarket(types.AssetXRP),
	}
	snap := p.Fetch(context.Background(), resolved)

	if snap.PeriodTimestamp != snapPeriod {
		t.Errorf("PeriodTimestamp = %d, want %d", snap.PeriodTimestamp, snapPeriod)
	}
	if snap.TimeRemainingSec != 870 {
		t.Errorf("TimeRemainingSec = %d, want 870", snap.TimeRemainingSec)
	}

	if snap.BTC.Up == nil || snap.BTC.Up.Bid == nil || !snap.BTC.Up.Bid.Equal(decimal.NewFromFloat(0.44)) {
		t.Errorf("BTC up bid = %+v, want 0.44", snap.BTC.Up)
	}
	if snap.BTC.Down == nil || snap.BTC.Down.Bid != nil {
		t.Errorf("BTC down bid must be nil for an empty side, got %+v", snap.BTC.Down)
	}
	if snap.BTC.Down.Ask == nil || !snap.BTC.Down.Ask.Equal(decimal.NewFromFloat(0.55)) {
		t.Errorf("BTC down ask = %+v, want 0.55", snap.BTC.Down)
	}

	// Placeholder markets carry no resolvable tokens: empty price pair.
	if snap.ETH.Up != nil || snap.ETH.Down != nil {
		t.Errorf("placeholder market must yield nil prices, got %+v", snap.ETH)
	}
}

func TestSnapshotTokenLookup(t *testing.T) {
	srv := bookServer(t, map[string]string{
		"btc-up": `{"bids":[{"price":"0.30","size":"1"}],"asks":[{"price":"0.32","size":"1"}]}`,
	})
	defer srv.Close()

	p := snapProvider(srv, 10)
	snap := p.Fetch(context.Background(), markets.ResolvedMarkets{BTC: btcMarket()})

	if ask := snap.AskForToken("btc-up"); ask == nil || !ask.Equal(decimal.NewFromFloat(0.32)) {
		t.Errorf("AskForToken = %v, want 0.32", ask)
	}
	// btc-down book served the error payload: known token, empty sides.
	if ask := snap.AskForToken("btc-down"); ask != nil {
		t.Errorf("AskForToken for empty book = %v, want nil", ask)
	}
	if bid := snap.BidForToken("unknown-token"); bid != nil {
		t.Errorf("BidForToken for unknown token = %v, want nil", bid)
	}
}

func TestFormatPrices(t *testing.T) {
	bid := decimal.NewFromFloat(0.44)
	ask := decimal.NewFromFloat(0.46)
	snap := &types.MarketSnapshot{
		BTC: types.MarketPrices{
			Up:   &types.TokenPrice{TokenID: "btc-up", Bid: &bid, Ask: &ask},
			Down: &types.TokenPrice{TokenID: "btc-down"},
		},
		PeriodTimestamp:  snapPeriod,
		TimeRemainingSec: 754,
	}
	got := FormatPrices(snap)
	want := "BTC: U$0.44/$0.46 DN/A/N/A | ETH: UN/A DN/A | SOL: UN/A DN/A | XRP: UN/A DN/A | ⏱️  12m 34s"
	if got != want {
		t.Errorf("FormatPrices\n got: %s\nwant: %s", got, want)
	}
}
