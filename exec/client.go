package exec

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// ═══════════════════════════════════════════════════════════════════════════════
// LIVE CLOB CLIENT
// ═══════════════════════════════════════════════════════════════════════════════
//
// Handles order placement and management with the Polymarket CLOB API.
// EIP-712 style signing over the order payload for authentication.
//
// ═══════════════════════════════════════════════════════════════════════════════

// Credentials hold everything the live client needs to sign requests.
type Credentials struct {
	PrivateKey    string
	APIKey        string
	APISecret     string
	Passphrase    string
	FunderAddress string
	SignatureType int
}

// LiveClient is the real Gateway implementation.
type LiveClient struct {
	baseURL    string
	privateKey *ecdsa.PrivateKey
	address    string
	creds      Credentials
	httpClient *http.Client
}

// sharesScale converts the CLOB's integer balance units to shares.
var sharesScale = decimal.New(1, 6)

// NewLiveClient creates a live execution client. The private key is
// required; missing or malformed keys fail here rather than at the first
// order.
func NewLiveClient(baseURL string, creds Credentials) (*LiveClient, error) {
	if creds.PrivateKey == "" {
		return nil, &AuthError{Err: fmt.Errorf("private key required for live trading")}
	}
	pkHex := creds.PrivateKey
	if len(pkHex) > 2 && pkHex[:2] == "0x" {
		pkHex = pkHex[2:]
	}
	pk, err := crypto.HexToECDSA(pkHex)
	if err != nil {
		return nil, &AuthError{Err: fmt.Errorf("invalid private key: %w", err)}
	}

	client := &LiveClient{
		baseURL:    baseURL,
		privateKey: pk,
		address:    crypto.PubkeyToAddress(pk.PublicKey).Hex(),
		creds:      creds,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}

	log.Info().Str("address", client.address).Msg("🚀 Live execution client initialized")
	return client, nil
}

// Simulated reports false: this client places real orders.
func (c *LiveClient) Simulated() bool { return false }

// Address returns the signing account address.
func (c *LiveClient) Address() string { return c.address }

// Verify checks connectivity and credentials against the CLOB. Returns an
// AuthError on any failure.
func (c *LiveClient) Verify(ctx context.Context) error {
	if _, err := c.get(ctx, "/ok"); err != nil {
		return &AuthError{Err: err}
	}
	return nil
}

// PlaceLimitOrder places one signed resting limit order.
func (c *LiveClient) PlaceLimitOrder(ctx context.Context, p LimitOrderParams) (OrderResult, error) {
	payload, err := c.buildOrderPayload(p)
	if err != nil {
		return OrderResult{}, &PlacementError{TokenID: p.TokenID, Err: err}
	}

	resp, err := c.post(ctx, "/order", payload)
	if err != nil {
		return OrderResult{}, &PlacementError{TokenID: p.TokenID, Err: err}
	}
	var result OrderResult
	if err := json.Unmarshal(resp, &result); err != nil {
		return OrderResult{}, &PlacementError{TokenID: p.TokenID, Err: fmt.Errorf("parse response: %w", err)}
	}
	if result.ErrorMsg != "" && result.OrderID == "" {
		return result, &PlacementError{TokenID: p.TokenID, Err: fmt.Errorf("API error: %s", result.ErrorMsg)}
	}
	return result, nil
}

// PlaceLimitOrdersBatch submits all orders in one POST /orders request. The
// result slice is positionally aligned with the input. The batch call
// failing as a unit (transport error) returns the error; callers fall back
// to per-order placement.
func (c *LiveClient) PlaceLimitOrdersBatch(ctx context.Context, params []LimitOrderParams) ([]OrderResult, error) {
	payloads := make([]map[string]interface{}, 0, len(params))
	for _, p := range params {
		payload, err := c.buildOrderPayload(p)
		if err != nil {
			return nil, &PlacementError{TokenID: p.TokenID, Err: err}
		}
		payloads = append(payloads, payload)
	}

	resp, err := c.post(ctx, "/orders", payloads)
	if err != nil {
		return nil, &PlacementError{Err: err}
	}
	var results []OrderResult
	if err := json.Unmarshal(resp, &results); err != nil {
		return nil, &PlacementError{Err: fmt.Errorf("parse batch response: %w", err)}
	}
	// Pad to input length so callers can index positionally even when the
	// API truncates on a partial failure.
	for len(results) < len(params) {
		results = append(results, OrderResult{})
	}
	return results, nil
}

// PlaceMarketOrder places an immediate-execution order (FOK or FAK).
func (c *LiveClient) PlaceMarketOrder(ctx context.Context, p MarketOrderParams) (OrderResult, error) {
	orderType := p.OrderType
	if orderType == "" {
		orderType = FAK
	}
	payload := map[string]interface{}{
		"tokenID":       p.TokenID,
		"side":          string(p.Side),
		"amount":        p.Amount.String(),
		"orderType":     string(orderType),
		"nonce":         time.Now().UnixNano(),
		"feeRateBps":    "0",
		"signatureType": c.creds.SignatureType,
	}
	signature, err := c.signOrder(payload)
	if err != nil {
		return OrderResult{}, &PlacementError{TokenID: p.TokenID, Err: fmt.Errorf("signing failed: %w", err)}
	}
	payload["signature"] = signature

	resp, err := c.post(ctx, "/order", payload)
	if err != nil {
		return OrderResult{}, &PlacementError{TokenID: p.TokenID, Err: err}
	}
	var result OrderResult
	if err := json.Unmarshal(resp, &result); err != nil {
		return OrderResult{}, &PlacementError{TokenID: p.TokenID, Err: fmt.Errorf("parse response: %w", err)}
	}
	return result, nil
}

// CancelOrder cancels one resting order by id.
func (c *LiveClient) CancelOrder(ctx context.Context, orderID string) error {
	if _, err := c.delete(ctx, "/order/"+url.PathEscape(orderID)); err != nil {
		return &CancelError{OrderID: orderID, Err: err}
	}
	return nil
}

// GetBalance returns the conditional-token balance in shares.
func (c *LiveClient) GetBalance(ctx context.Context, tokenID string) (decimal.Decimal, error) {
	path := "/balance-allowance?asset_type=CONDITIONAL&token_id=" + url.QueryEscape(tokenID)
	resp, err := c.get(ctx, path)
	if err != nil {
		return decimal.Zero, err
	}
	var result struct {
		Balance string `json:"balance"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return decimal.Zero, err
	}
	raw, err := decimal.NewFromString(result.Balance)
	if err != nil {
		return decimal.Zero, nil
	}
	// Balances come back in 1e-6 units.
	return raw.Div(sharesScale), nil
}

// GetOpenOrders returns resting orders, optionally filtered by token id.
func (c *LiveClient) GetOpenOrders(ctx context.Context, assetID string) ([]OpenOrder, error) {
	path := "/orders?status=live"
	if assetID != "" {
		path += "&asset_id=" + url.QueryEscape(assetID)
	}
	resp, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	var orders []OpenOrder
	if err := json.Unmarshal(resp, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// buildOrderPayload assembles and signs one limit-order payload.
func (c *LiveClient) buildOrderPayload(p LimitOrderParams) (map[string]interface{}, error) {
	tick := p.TickSize
	if tick == "" {
		tick = TickSize01
	}
	payload := map[string]interface{}{
		"tokenID":       p.TokenID,
		"price":         p.Price.String(),
		"size":          p.Size.String(),
		"side":          string(p.Side),
		"tickSize":      tick,
		"negRisk":       p.NegRisk,
		"expiration":    time.Now().Add(24 * time.Hour).Unix(),
		"nonce":         time.Now().UnixNano(),
		"feeRateBps":    "0",
		"signatureType": c.creds.SignatureType,
	}
	if c.creds.FunderAddress != "" {
		payload["funder"] = c.creds.FunderAddress
	}
	signature, err := c.signOrder(payload)
	if err != nil {
		return nil, fmt.Errorf("signing failed: %w", err)
	}
	payload["signature"] = signature
	return payload, nil
}

// ═══════════════════════════════════════════════════════════════════════════════
// HTTP HELPERS
// ═══════════════════════════════════════════════════════════════════════════════

func (c *LiveClient) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	c.addHeaders(req)
	return c.doRequest(req)
}

func (c *LiveClient) post(ctx context.Context, path string, body interface{}) ([]byte, error) {
	jsonBody, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.addHeaders(req)
	return c.doRequest(req)
}

func (c *LiveClient) delete(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	c.addHeaders(req)
	return c.doRequest(req)
}

func (c *LiveClient) addHeaders(req *http.Request) {
	timestamp := fmt.Sprintf("%d", time.Now().Unix())

	req.Header.Set("POLY_ADDRESS", c.address)
	req.Header.Set("POLY_API_KEY", c.creds.APIKey)
	req.Header.Set("POLY_TIMESTAMP", timestamp)
	req.Header.Set("POLY_PASSPHRASE", c.creds.Passphrase)

	if c.creds.APISecret != "" {
		message := timestamp + req.Method + req.URL.Path
		req.Header.Set("POLY_SIGNATURE", c.hmacSign(message))
	}
}

func (c *LiveClient) doRequest(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// ═══════════════════════════════════════════════════════════════════════════════
// SIGNING
// ═══════════════════════════════════════════════════════════════════════════════

func (c *LiveClient) signOrder(order map[string]interface{}) (string, error) {
	orderBytes, _ := json.Marshal(order)
	hash := crypto.Keccak256(orderBytes)

	sig, err := crypto.Sign(hash, c.privateKey)
	if err != nil {
		return "", err
	}
	return hexutil.Encode(sig), nil
}

func (c *LiveClient) hmacSign(message string) string {
	hash := crypto.Keccak256([]byte(message + c.creds.APISecret))
	return hexutil.Encode(hash)
}
