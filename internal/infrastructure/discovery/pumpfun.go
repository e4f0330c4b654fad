package discovery

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const PumpPortalWSURL = "wss://pumpportal.fun/api/data"

// NewTokenEvent is one freshly launched token announced by the feed.
type NewTokenEvent struct {
	Mint         string
	Symbol       string
	Name         string
	UsdMarketCap *float64
}

// PumpFeed consumes a pump.fun-style new-token websocket stream and fans
// events out to registered callbacks.
type PumpFeed struct {
	wsURL     string
	conn      *websocket.Conn
	done      chan struct{}
	callbacks []func(NewTokenEvent)
	mu        sync.Mutex
	log       *zap.Logger
}

func NewPumpFeed(wsURL string, log *zap.Logger) *PumpFeed {
	if wsURL == "" {
		wsURL = PumpPortalWSURL
	}
	return &PumpFeed{
		wsURL: wsURL,
		done:  make(chan struct{}),
		log:   log,
	}
}

func (f *PumpFeed) OnNewToken(callback func(NewTokenEvent)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callbacks = append(f.callbacks, callback)
}

// Connect dials the feed, subscribes to new-token events and starts the read
// loop. Done() closes when the connection is lost.
func (f *PumpFeed) Connect() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.conn != nil {
		return nil
	}

	c, _, err := websocket.DefaultDialer.Dial(f.wsURL, nil)
	if err != nil {
		return err
	}
	f.conn = c

	subMsg := map[string]interface{}{
		"method": "subscribeNewToken",
	}
	if err := f.conn.WriteJSON(subMsg); err != nil {
		f.conn.Close()
		f.conn = nil
		return err
	}

	go f.readLoop()
	return nil
}

func (f *PumpFeed) Done() <-chan struct{} {
	return f.done
}

func (f *PumpFeed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conn == nil {
		return nil
	}
	return f.conn.Close()
}

func (f *PumpFeed) readLoop() {
	defer func() {
		f.mu.Lock()
		if f.conn != nil {
			f.conn.Close()
			f.conn = nil
		}
		f.mu.Unlock()
		close(f.done)
	}()

	for {
		_, message, err := f.conn.ReadMessage()
		if err != nil {
			f.log.Warn("discovery feed read error", zap.Error(err))
			return
		}

		var msg struct {
			Mint         string   `json:"mint"`
			Symbol       string   `json:"symbol"`
			Name         string   `json:"name"`
			UsdMarketCap *float64 `json:"usd_market_cap"`
		}
		if err := json.Unmarshal(message, &msg); err != nil {
			f.log.Debug("discovery feed unmarshal error", zap.Error(err))
			continue
		}
		if msg.Mint == "" {
			// Subscription acks and heartbeats carry no mint.
			continue
		}

		event := NewTokenEvent{
			Mint:         msg.Mint,
			Symbol:       msg.Symbol,
			Name:         msg.Name,
			UsdMarketCap: msg.UsdMarketCap,
		}

		f.mu.Lock()
		callbacks := make([]func(NewTokenEvent), len(f.callbacks))
		copy(callbacks, f.callbacks)
		f.mu.Unlock()

		for _, cb := range callbacks {
			cb(event)
		}
	}
}
