package wsbridge

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hackingsage/Quant-Trading-Simulator/matchserver"
	"github.com/hackingsage/Quant-Trading-Simulator/wire"
)

func TestBridgeStreamsAckAsJSON(t *testing.T) {
	eng := matchserver.New(matchserver.Config{PoolCapacity: 1024, InstrumentID: 1})
	eng.Start()
	defer eng.Stop()

	feed := matchserver.NewFeed(eng)
	go feed.Run()
	defer feed.CloseFeed()

	bridge := New(feed, "*", nil)
	ts := httptest.NewServer(http.HandlerFunc(bridge.ServeHTTP))
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	feed.SubmitNewOrder(wire.NewOrderMsg{UserID: 1, Side: 0, Price: 100, Quantity: 10})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for i := 0; i < 10; i++ {
		var msg map[string]interface{}
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("ReadJSON: %v", err)
		}
		if msg["type"] == "ack" {
			return
		}
	}
	t.Fatalf("expected an ack message within 10 frames")
}

func TestCheckOrigin(t *testing.T) {
	cases := []struct {
		corsOrigin string
		reqOrigin  string
		want       bool
	}{
		{corsOrigin: "*", reqOrigin: "https://evil.example", want: true},
		{corsOrigin: "", reqOrigin: "https://evil.example", want: true},
		{corsOrigin: "https://trusted.example", reqOrigin: "https://trusted.example", want: true},
		{corsOrigin: "https://trusted.example", reqOrigin: "https://evil.example", want: false},
		{corsOrigin: "https://trusted.example", reqOrigin: "", want: false},
	}
	for _, c := range cases {
		b := &Bridge{corsOrigin: c.corsOrigin}
		req := httptest.NewRequest(http.MethodGet, "/stream", nil)
		req.Header.Set("Origin", c.reqOrigin)
		if got := b.checkOrigin(req); got != c.want {
			t.Fatalf("checkOrigin(cors=%q, origin=%q): have %v, want %v", c.corsOrigin, c.reqOrigin, got, c.want)
		}
	}
}
