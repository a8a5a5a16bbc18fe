package markets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetMarketBySlug(t *testing.T) {
	t.Run("tokens from gamma payload", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/events" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			fmt.Fprint(w, `[{
				"title": "Bitcoin Up or Down",
				"slug": "btc-updown-15m-1700000100",
				"active": true, "closed": false,
				"markets": [{
					"conditionId": "0xabc",
					"question": "Bitcoin Up or Down?",
					"slug": "btc-updown-15m-1700000100",
					"active": true, "closed": false,
					"outcomes": "[\"Up\",\"Down\"]",
					"clobTokenIds": "[\"111\",\"222\"]"
				}]
			}]`)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, srv.URL)
		m, err := c.GetMarketBySlug(context.Background(), "btc-updown-15m-1700000100")
		if err != nil {
			t.Fatalf("GetMarketBySlug: %v", err)
		}
		if m.ConditionID != "0xabc" || !m.Tradeable() {
			t.Errorf("market = %+v", m)
		}
		if len(m.Tokens) != 2 || m.Tokens[0].TokenID != "111" || m.Tokens[1].Outcome != "Down" {
			t.Errorf("tokens = %+v", m.Tokens)
		}
	})

	t.Run("falls back to clob market endpoint", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/events":
				fmt.Fprint(w, `[{"active":true,"closed":false,"markets":[{"conditionId":"0xdef","active":true,"closed":false}]}]`)
			case "/markets/0xdef":
				fmt.Fprint(w, `{"tokens":[{"token_id":"333","outcome":"Up"},{"token_id":"444","outcome":"Down"}]}`)
			default:
				t.Errorf("unexpected path %s", r.URL.Path)
			}
		}))
		defer srv.Close()

		c := NewClient(srv.URL, srv.URL)
		m, err := c.GetMarketBySlug(context.Background(), "eth-updown-15m-1700000100")
		if err != nil {
			t.Fatalf("GetMarketBySlug: %v", err)
		}
		if len(m.Tokens) != 2 || m.Tokens[0].TokenID != "333" {
			t.Errorf("tokens = %+v", m.Tokens)
		}
	})

	t.Run("empty event list is ErrNoMarket", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `[]`)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, srv.URL)
		if _, err := c.GetMarketBySlug(context.Background(), "nope"); !errors.Is(err, ErrNoMarket) {
			t.Fatalf("err = %v, want ErrNoMarket", err)
		}
	})

	t.Run("404 is ErrNoMarket", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, srv.URL)
		if _, err := c.GetMarketBySlug(context.Background(), "nope"); !errors.Is(err, ErrNoMarket) {
			t.Fatalf("err = %v, want ErrNoMarket", err)
		}
	})

	t.Run("closed event closes the market", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `[{"active":true,"closed":true,"markets":[{"conditionId":"0xold","active":true,"closed":false,"outcomes":"[\"Up\",\"Down\"]","clobTokenIds":"[\"1\",\"2\"]"}]}]`)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, srv.URL)
		m, err := c.GetMarketBySlug(context.Background(), "btc-updown-15m-1699999200")
		if err != nil {
			t.Fatalf("GetMarketBySlug: %v", err)
		}
		if m.Tradeable() {
			t.Error("market under a closed event must not be tradeable")
		}
	})
}

func TestTokensFromGamma(t *testing.T) {
	tests := []struct {
		name     string
		outcomes string
		ids      string
		want     int
	}{
		{"matched pair", `["Up","Down"]`, `["1","2"]`, 2},
		{"skewed lengths", `["Up","Down"]`, `["1"]`, 0},
		{"missing outcomes", "", `["1","2"]`, 0},
		{"bad json", `not-json`, `["1","2"]`, 0},
		{"empty arrays", `[]`, `[]`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tokensFromGamma(tt.outcomes, tt.ids); len(got) != tt.want {
				t.Errorf("tokensFromGamma = %d tokens, want %d", len(got), tt.want)
			}
		})
	}
}

func TestGetOrderBook(t *testing.T) {
	t.Run("parses levels", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("token_id"); got != "111" {
				t.Errorf("token_id = %q", got)
			}
			fmt.Fprint(w, `{"bids":[{"price":"0.44","size":"100"},{"price":"0.45","size":"50"}],"asks":[{"price":"0.47","size":"20"},{"price":"0.46","size":"10"}]}`)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, srv.URL)
		book, err := c.GetOrderBook(context.Background(), "111")
		if err != nil {
			t.Fatalf("GetOrderBook: %v", err)
		}
		if bid := book.BestBid(); bid == nil || bid.String() != "0.45" {
			t.Errorf("BestBid = %v, want 0.45", bid)
		}
		if ask := book.BestAsk(); ask == nil || ask.String() != "0.46" {
			t.Errorf("BestAsk = %v, want 0.46", ask)
		}
	})

	t.Run("error payload is an empty book", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"error":"No orderbook exists"}`)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, srv.URL)
		book, err := c.GetOrderBook(context.Background(), "111")
		if err != nil {
			t.Fatalf("GetOrderBook: %v", err)
		}
		if book.BestBid() != nil || book.BestAsk() != nil {
			t.Error("error payload must yield nil best bid and ask")
		}
	})

	t.Run("empty sides are nil", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"bids":[],"asks":[{"price":"0.99","size":"5"}]}`)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, srv.URL)
		book, err := c.GetOrderBook(context.Background(), "111")
		if err != nil {
			t.Fatalf("GetOrderBook: %v", err)
		}
		if book.BestBid() != nil {
			t.Error("empty bid side must be nil, not zero")
		}
		if ask := book.BestAsk(); ask == nil || ask.String() != "0.99" {
			t.Errorf("BestAsk = %v, want 0.99", ask)
		}
	})
}
