package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Trading.CheckIntervalMs != 1000 {
		t.Errorf("CheckIntervalMs = %d, want 1000", cfg.Trading.CheckIntervalMs)
	}
	if !cfg.Trading.DualLimitPrice.Equal(decimal.NewFromFloat(0.45)) {
		t.Errorf("DualLimitPrice = %s, want 0.45", cfg.Trading.DualLimitPrice)
	}
	if !cfg.Trading.DualLimitShares.Equal(decimal.NewFromInt(1)) {
		t.Errorf("DualLimitShares = %s, want 1", cfg.Trading.DualLimitShares)
	}
	if !cfg.Trading.HedgeEnabled() {
		t.Error("stop-loss must default on")
	}
	if !cfg.Trading.SLSellTriggerBid.Equal(decimal.NewFromFloat(0.8)) {
		t.Errorf("SLSellTriggerBid = %s, want 0.8", cfg.Trading.SLSellTriggerBid)
	}
	if !cfg.Trading.SLSellAtPrice.Equal(decimal.NewFromFloat(0.85)) {
		t.Errorf("SLSellAtPrice = %s, want 0.85", cfg.Trading.SLSellAtPrice)
	}
	if cfg.Trading.EnableETHTrading || cfg.Trading.EnableSolanaTrading || cfg.Trading.EnableXRPTrading {
		t.Error("optional assets must default off")
	}
	if cfg.Polymarket.GammaAPIURL == "" || cfg.Polymarket.ClobAPIURL == "" {
		t.Error("API endpoints must have defaults")
	}
}

func TestLoadCreatesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Trading.DualLimitPrice.Equal(decimal.NewFromFloat(0.45)) {
		t.Errorf("DualLimitPrice = %s, want default", cfg.Trading.DualLimitPrice)
	}

	// The defaults were persisted so the operator has a file to edit.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	var onDisk map[string]any
	if err := json.Unmarshal(data, &onDisk); err != nil {
		t.Fatalf("written config is not valid JSON: %v", err)
	}
	if _, ok := onDisk["trading"]; !ok {
		t.Error("written config missing trading section")
	}
}

func TestLoadExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{
		"trading": {
			"check_interval_ms": 2500,
			"enable_eth_trading": true,
			"dual_limit_price": "0.40",
			"dual_limit_shares": "10",
			"dual_limit_SL_enabled": false,
			"dual_limit_SL_sell_trigger_bid": "0.75",
			"dual_limit_SL_sell_at_price": "0.90"
		}
	}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Trading.CheckIntervalMs != 2500 {
		t.Errorf("CheckIntervalMs = %d, want 2500", cfg.Trading.CheckIntervalMs)
	}
	if !cfg.Trading.EnableETHTrading {
		t.Error("EnableETHTrading not read")
	}
	if !cfg.Trading.DualLimitPrice.Equal(decimal.NewFromFloat(0.40)) {
		t.Errorf("DualLimitPrice = %s, want 0.40", cfg.Trading.DualLimitPrice)
	}
	if cfg.Trading.HedgeEnabled() {
		t.Error("explicit false must disable the stop-loss")
	}
	if !cfg.Trading.SLSellTriggerBid.Equal(decimal.NewFromFloat(0.75)) {
		t.Errorf("SLSellTriggerBid = %s, want 0.75", cfg.Trading.SLSellTriggerBid)
	}
	// Untouched keys keep their defaults.
	if cfg.Polymarket.GammaAPIURL == "" {
		t.Error("defaults lost for absent sections")
	}
}

func TestLoadRejectsBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("Load must fail on malformed JSON")
	}
}

func TestEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	t.Setenv("WALLET_PRIVATE_KEY", "0xdeadbeef")
	t.Setenv("CLOB_API_KEY", "key-from-env")
	t.Setenv("TELEGRAM_CHAT_ID", "12345")
	t.Setenv("DEBUG", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Polymarket.PrivateKey != "0xdeadbeef" {
		t.Errorf("PrivateKey = %q", cfg.Polymarket.PrivateKey)
	}
	if cfg.Polymarket.APIKey != "key-from-env" {
		t.Errorf("APIKey = %q", cfg.Polymarket.APIKey)
	}
	if cfg.TelegramChatID != 12345 {
		t.Errorf("TelegramChatID = %d", cfg.TelegramChatID)
	}
	if !cfg.Debug {
		t.Error("DEBUG=true not applied")
	}
}

func TestCheckIntervalFloor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"trading":{"check_interval_ms":0}}`), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Trading.CheckIntervalMs != 1000 {
		t.Errorf("CheckIntervalMs = %d, want floored to 1000", cfg.Trading.CheckIntervalMs)
	}
}
