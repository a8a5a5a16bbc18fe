// Package config loads the bot configuration from a JSON file with env
// overrides for credentials.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// PolymarketConfig holds API endpoints and credentials.
type PolymarketConfig struct {
	GammaAPIURL        string `json:"gamma_api_url"`
	ClobAPIURL         string `json:"clob_api_url"`
	APIKey             string `json:"api_key"`
	APISecret          string `json:"api_secret"`
	APIPassphrase      string `json:"api_passphrase"`
	PrivateKey         string `json:"private_key"`
	ProxyWalletAddress string `json:"proxy_wallet_address"`
	SignatureType      int    `json:"signature_type"`
}

// TradingConfig holds the dual-limit strategy parameters. Field names match
// the config.json keys operators already use.
type TradingConfig struct {
	CheckIntervalMs     int             `json:"check_interval_ms"`
	EnableETHTrading    bool            `json:"enable_eth_trading"`
	EnableSolanaTrading bool            `json:"enable_solana_trading"`
	EnableXRPTrading    bool            `json:"enable_xrp_trading"`
	DualLimitPrice      decimal.Decimal `json:"dual_limit_price"`
	DualLimitShares     decimal.Decimal `json:"dual_limit_shares"`
	// SLEnabled gates the hedge/stop-loss limit sell. Defaults true.
	SLEnabled *bool `json:"dual_limit_SL_enabled"`
	// SLSellTriggerBid: the hedge fires when the unfilled side's ask (or
	// bid) reaches 1 - this value. The name predates the inversion; keep it.
	SLSellTriggerBid decimal.Decimal `json:"dual_limit_SL_sell_trigger_bid"`
	SLSellAtPrice    decimal.Decimal `json:"dual_limit_SL_sell_at_price"`
}

// Config is the full bot configuration.
type Config struct {
	Polymarket PolymarketConfig `json:"polymarket"`
	Trading    TradingConfig    `json:"trading"`

	// Optional infrastructure, env-only (not part of config.json).
	DatabaseURL    string `json:"-"`
	DatabasePath   string `json:"-"`
	TelegramToken  string `json:"-"`
	TelegramChatID int64  `json:"-"`
	Debug          bool   `json:"-"`
}

// HedgeEnabled reports whether the stop-loss limit sell is on.
func (t TradingConfig) HedgeEnabled() bool {
	return t.SLEnabled == nil || *t.SLEnabled
}

// Default returns the documented default configuration.
func Default() *Config {
	enabled := true
	return &Config{
		Polymarket: PolymarketConfig{
			GammaAPIURL: "https://gamma-api.polymarket.com",
			ClobAPIURL:  "https://clob.polymarket.com",
		},
		Trading: TradingConfig{
			CheckIntervalMs:  1000,
			DualLimitPrice:   decimal.NewFromFloat(0.45),
			DualLimitShares:  decimal.NewFromInt(1),
			SLEnabled:        &enabled,
			SLSellTriggerBid: decimal.NewFromFloat(0.8),
			SLSellAtPrice:    decimal.NewFromFloat(0.85),
		},
	}
}

// Load reads the config file at path, creating it with defaults when it does
// not exist, then applies env overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
		out, _ := json.MarshalIndent(cfg, "", "  ")
		if werr := os.WriteFile(path, out, 0o600); werr != nil {
			return nil, fmt.Errorf("write default config %s: %w", path, werr)
		}
		log.Info().Str("path", path).Msg("📝 Wrote default config file")
	default:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	cfg.applyEnv()

	if cfg.Trading.CheckIntervalMs <= 0 {
		cfg.Trading.CheckIntervalMs = 1000
	}
	return cfg, nil
}

// applyEnv overrides credentials and infra settings from the environment so
// secrets can stay out of config.json.
func (c *Config) applyEnv() {
	c.Polymarket.PrivateKey = getEnv("WALLET_PRIVATE_KEY", c.Polymarket.PrivateKey)
	c.Polymarket.APIKey = getEnv("CLOB_API_KEY", c.Polymarket.APIKey)
	c.Polymarket.APISecret = getEnv("CLOB_API_SECRET", c.Polymarket.APISecret)
	c.Polymarket.APIPassphrase = getEnv("CLOB_PASSPHRASE", c.Polymarket.APIPassphrase)
	c.Polymarket.ProxyWalletAddress = getEnv("FUNDER_ADDRESS", c.Polymarket.ProxyWalletAddress)
	c.Polymarket.SignatureType = getEnvInt("SIGNATURE_TYPE", c.Polymarket.SignatureType)

	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.DatabasePath = getEnv("DATABASE_PATH", c.DatabasePath)
	c.TelegramToken = getEnv("TELEGRAM_BOT_TOKEN", c.TelegramToken)
	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		if id, err := strconv.ParseInt(chatID, 10, 64); err == nil {
			c.TelegramChatID = id
		}
	}
	c.Debug = getEnvBool("DEBUG", c.Debug)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}
