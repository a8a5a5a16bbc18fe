package feeds

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// PolymarketWSURL is the CLOB market-channel websocket endpoint.
const PolymarketWSURL = "wss://ws-subscriptions-clob.polymarket.com/ws/market"

// BookWatcher subscribes to the CLOB market channel and logs top-of-book
// moves between poll cycles. It is telemetry only: trading decisions always
// come from the polled snapshot, so a dropped connection costs nothing but
// log lines.
type BookWatcher struct {
	conn       *websocket.Conn
	mu         sync.Mutex
	subscribed map[string]bool
	connected  bool
	stopCh     chan struct{}
}

// NewBookWatcher creates an unconnected watcher.
func NewBookWatcher() *BookWatcher {
	return &BookWatcher{
		subscribed: make(map[string]bool),
		stopCh:     make(chan struct{}),
	}
}

// Connect dials the market channel and starts the read loop.
func (w *BookWatcher) Connect() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.connected {
		return nil
	}
	conn, _, err := websocket.DefaultDialer.Dial(PolymarketWSURL, nil)
	if err != nil {
		return fmt.Errorf("websocket dial failed: %w", err)
	}
	w.conn = conn
	w.connected = true
	go w.readLoop()
	log.Info().Str("url", PolymarketWSURL).Msg("✅ Connected to market websocket")
	return nil
}

// Subscribe registers a market's up/down token pair. Repeat calls for the
// same condition id are no-ops.
func (w *BookWatcher) Subscribe(conditionID, upTokenID, downTokenID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.connected {
		return fmt.Errorf("not connected")
	}
	if w.subscribed[conditionID] || upTokenID == "" || downTokenID == "" {
		return nil
	}
	msg := map[string]interface{}{
		"type":       "market",
		"assets_ids": []string{upTokenID, downTokenID},
	}
	data, _ := json.Marshal(msg)
	if err := w.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("subscribe failed: %w", err)
	}
	w.subscribed[conditionID] = true
	return nil
}

// Stop closes the connection and ends the read loop.
func (w *BookWatcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.connected {
		return
	}
	close(w.stopCh)
	w.conn.Close()
	w.connected = false
}

type wsPriceChange struct {
	Market       string `json:"market"`
	EventType    string `json:"event_type"`
	PriceChanges []struct {
		AssetID string `json:"asset_id"`
		BestBid string `json:"best_bid"`
		BestAsk string `json:"best_ask"`
	} `json:"price_changes"`
}

func (w *BookWatcher) readLoop() {
	for {
		select {
		case <-w.stopCh:
			return
		default:
		}
		_, message, err := w.conn.ReadMessage()
		if err != nil {
			log.Warn().Err(err).Msg("Websocket read error - watcher stopped")
			w.mu.Lock()
			w.connected = false
			w.mu.Unlock()
			return
		}
		w.handleMessage(message)
	}
}

func (w *BookWatcher) handleMessage(data []byte) {
	var pc wsPriceChange
	if err := json.Unmarshal(data, &pc); err != nil || pc.EventType != "price_change" {
		return
	}
	for _, ch := range pc.PriceChanges {
		log.Debug().
			Str("token", shortID(ch.AssetID)).
			Str("best_bid", ch.BestBid).
			Str("best_ask", ch.BestAsk).
			Msg("📡 Book move")
	}
}

func shortID(id string) string {
	if len(id) > 16 {
		return id[:16] + "..."
	}
	return id
}
