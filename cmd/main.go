package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/web3guy0/duallimit/bot"
	"github.com/web3guy0/duallimit/core"
	"github.com/web3guy0/duallimit/exec"
	"github.com/web3guy0/duallimit/feeds"
	"github.com/web3guy0/duallimit/internal/clock"
	"github.com/web3guy0/duallimit/internal/config"
	"github.com/web3guy0/duallimit/internal/markets"
	"github.com/web3guy0/duallimit/internal/trading"
	"github.com/web3guy0/duallimit/storage"
)

func main() {
	// ═══════════════════════════════════════════════════════════════════════════════
	// BOOTSTRAP
	// ═══════════════════════════════════════════════════════════════════════════════

	simulation := flag.Bool("simulation", true, "log intended orders without sending them")
	noSimulation := flag.Bool("no-simulation", false, "enable live trading (overrides -simulation)")
	configPath := flag.String("c", "config.json", "path to config file")
	flag.Parse()
	if *noSimulation {
		*simulation = false
	}

	// Load environment
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("No .env file found")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})

	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	mode := "LIVE TRADING"
	if *simulation {
		mode = "SIMULATION"
	}
	log.Info().Msg("═══════════════════════════════════════════════════════════════")
	log.Info().Msgf("        DUAL-LIMIT 15M UP/DOWN BOT - %s MODE", mode)
	log.Info().Msg("═══════════════════════════════════════════════════════════════")
	log.Info().Msgf("Strategy: limit buy both sides @ $%s x %s shares at period start",
		cfg.Trading.DualLimitPrice.StringFixed(2), cfg.Trading.DualLimitShares.String())
	log.Info().
		Bool("eth", cfg.Trading.EnableETHTrading).
		Bool("solana", cfg.Trading.EnableSolanaTrading).
		Bool("xrp", cfg.Trading.EnableXRPTrading).
		Msg("Assets: BTC always on")
	if cfg.Trading.HedgeEnabled() {
		threshold := decimal.NewFromInt(1).Sub(cfg.Trading.SLSellTriggerBid)
		log.Info().Msgf("Stop-loss: sell filled side @ $%s when other side reaches $%s",
			cfg.Trading.SLSellAtPrice.StringFixed(2), threshold.StringFixed(2))
	} else {
		log.Info().Msg("Stop-loss: disabled")
	}

	// ═══════════════════════════════════════════════════════════════════════════════
	// INITIALIZE COMPONENTS
	// ═══════════════════════════════════════════════════════════════════════════════

	// 1. Storage (audit trail)
	dbTarget := cfg.DatabaseURL
	if dbTarget == "" {
		dbTarget = cfg.DatabasePath
	}
	db, err := storage.New(dbTarget)
	if err != nil {
		log.Warn().Err(err).Msg("Database connection failed, continuing without audit trail")
		db = nil
	}
	defer db.Close()

	// 2. Execution gateway - picked once here, nothing downstream branches on
	// the mode again.
	var gateway exec.Gateway
	if *simulation {
		gateway = exec.NewSimulatedClient()
		log.Info().Msg("🧪 Simulation gateway initialized - no orders will reach the exchange")
	} else {
		live, err := exec.NewLiveClient(cfg.Polymarket.ClobAPIURL, exec.Credentials{
			PrivateKey:    cfg.Polymarket.PrivateKey,
			APIKey:        cfg.Polymarket.APIKey,
			APISecret:     cfg.Polymarket.APISecret,
			Passphrase:    cfg.Polymarket.APIPassphrase,
			FunderAddress: cfg.Polymarket.ProxyWalletAddress,
			SignatureType: cfg.Polymarket.SignatureType,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize execution client")
		}
		if err := live.Verify(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("CLOB credential check failed")
		}
		gateway = live
		log.Info().Msg("✅ Execution layer initialized")
	}

	// 3. Market discovery + snapshots
	clk := clock.New()
	client := markets.NewClient(cfg.Polymarket.GammaAPIURL, cfg.Polymarket.ClobAPIURL)
	discovery := markets.NewDiscovery(client, clk)
	snapshots := feeds.NewSnapshotProvider(client, clk)
	log.Info().Msg("✅ Market discovery initialized")

	// 4. Book watcher (telemetry; trading never depends on it)
	watcher := feeds.NewBookWatcher()
	if err := watcher.Connect(); err != nil {
		log.Warn().Err(err).Msg("Book watcher unavailable, continuing without it")
		watcher = nil
	} else {
		defer watcher.Stop()
	}

	// 5. Telegram notifier (optional)
	notifier, err := bot.NewNotifier(cfg.TelegramToken, cfg.TelegramChatID)
	if err != nil {
		log.Warn().Err(err).Msg("Telegram init failed, continuing without alerts")
		notifier = nil
	}
	notifier.NotifyStartup(*simulation)

	// 6. Trader + engine
	trader := trading.NewTrader(gateway, db)
	var sub core.BookSubscriber
	if watcher != nil {
		sub = watcher
	}
	engine := core.NewEngine(cfg, clk, discovery, snapshots, trader, gateway, notifier, sub)

	// ═══════════════════════════════════════════════════════════════════════════════
	// RUN
	// ═══════════════════════════════════════════════════════════════════════════════

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info().Msg("🛑 Shutdown signal received, finishing current cycle...")
		cancel()
	}()

	if err := engine.Run(ctx); err != nil && err != context.Canceled {
		log.Fatal().Err(err).Msg("Engine stopped")
	}
	log.Info().Msg("👋 Shutdown complete")
}
