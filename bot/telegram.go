// Package bot sends optional Telegram alerts for order activity.
package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// ═══════════════════════════════════════════════════════════════════════════════
// TELEGRAM NOTIFIER - Trade alerts
// ═══════════════════════════════════════════════════════════════════════════════

// Notifier pushes one-way alerts to a Telegram chat. The nil Notifier is a
// valid disabled handle; every method on it is a no-op.
type Notifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

// NewNotifier creates a Notifier, or (nil, nil) when token or chat id is
// unset - alerts are optional infrastructure.
func NewNotifier(token string, chatID int64) (*Notifier, error) {
	if token == "" || chatID == 0 {
		return nil, nil
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram init: %w", err)
	}
	log.Info().Str("bot", api.Self.UserName).Msg("📱 Telegram notifier connected")
	return &Notifier{api: api, chatID: chatID}, nil
}

func (n *Notifier) send(text string) {
	if n == nil {
		return
	}
	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := n.api.Send(msg); err != nil {
		log.Warn().Err(err).Msg("Telegram send failed")
	}
}

// NotifyBatchPlaced alerts that a period's batch of limit buys went out.
func (n *Notifier) NotifyBatchPlaced(period int64, count int, price decimal.Decimal) {
	n.send(fmt.Sprintf("📋 *Batch placed*\nPeriod: %d\nOrders: %d\nLimit: $%s",
		period, count, price.StringFixed(2)))
}

// NotifyHedge alerts that the stop-loss limit sell fired for one market.
func (n *Notifier) NotifyHedge(asset string, sellAt decimal.Decimal) {
	n.send(fmt.Sprintf("📤 *Hedge fired: %s*\nSold filled side at $%s",
		asset, sellAt.StringFixed(2)))
}

// NotifyStartup announces the bot coming up.
func (n *Notifier) NotifyStartup(simulation bool) {
	mode := "LIVE"
	if simulation {
		mode = "SIMULATION"
	}
	n.send(fmt.Sprintf("🚀 *Dual limit bot started*\nMode: %s", mode))
}
