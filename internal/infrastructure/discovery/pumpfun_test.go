package discovery

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

func TestPumpFeed_DeliversNewTokenEvents(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()

		// First message must be the subscription request.
		var sub map[string]interface{}
		if err := c.ReadJSON(&sub); err != nil {
			return
		}
		if sub["method"] != "subscribeNewToken" {
			t.Errorf("expected subscribeNewToken, got %v", sub["method"])
			return
		}

		// Ack without a mint, then a real token event.
		_ = c.WriteJSON(map[string]interface{}{"message": "Successfully subscribed"})
		_ = c.WriteJSON(map[string]interface{}{
			"mint":           "So1AnaM1ntAddre55000000000000pump",
			"symbol":         "ABC",
			"name":           "Abc Coin",
			"usd_market_cap": 45000.0,
		})

		// Hold the connection open until the client closes it.
		_, _, _ = c.ReadMessage()
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	feed := NewPumpFeed(wsURL, zap.NewNop())

	events := make(chan NewTokenEvent, 4)
	feed.OnNewToken(func(ev NewTokenEvent) {
		events <- ev
	})
	if err := feed.Connect(); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer feed.Close()

	select {
	case ev := <-events:
		if ev.Mint != "So1AnaM1ntAddre55000000000000pump" {
			t.Errorf("unexpected mint %q", ev.Mint)
		}
		if ev.Symbol != "ABC" {
			t.Errorf("unexpected symbol %q", ev.Symbol)
		}
		if ev.UsdMarketCap == nil || *ev.UsdMarketCap != 45000 {
			t.Errorf("unexpected market cap %v", ev.UsdMarketCap)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for a token event")
	}

	// The ack without a mint must not have produced an event.
	select {
	case ev := <-events:
		t.Errorf("unexpected extra event: %+v", ev)
	default:
	}
}

func TestPumpFeed_DoneClosesOnDisconnect(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		// Drop the connection right after the subscription.
		_, _, _ = c.ReadMessage()
		c.Close()
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	feed := NewPumpFeed(wsURL, zap.NewNop())
	if err := feed.Connect(); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	select {
	case <-feed.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("Done() did not close after the server dropped the connection")
	}
}
