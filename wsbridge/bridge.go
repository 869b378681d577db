// Package wsbridge exposes the matching engine's feed to browser clients
// over WebSocket as JSON, the way this codebase's HTTP-facing trade/book
// streams are built: one upgraded connection per subscriber, one
// goroutine relaying a matchserver.Feed subscription into outbound JSON
// frames.
package wsbridge

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/hackingsage/Quant-Trading-Simulator/matchserver"
	"github.com/hackingsage/Quant-Trading-Simulator/wire"
)

// outboundMessage is the JSON envelope every frame is wrapped in, so a
// browser client can dispatch on Type without decoding the binary wire
// format.
type outboundMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Bridge upgrades incoming HTTP requests to WebSocket connections and
// relays a matchserver.Feed's output to each of them as JSON.
type Bridge struct {
	feed       *matchserver.Feed
	upgrader   websocket.Upgrader
	corsOrigin string
	logger     *zap.Logger
}

// New constructs a Bridge over feed. corsOrigin controls which origins
// the WebSocket upgrade accepts; "*" (or "") accepts any origin, anything
// else must match the request's Origin header exactly.
func New(feed *matchserver.Feed, corsOrigin string, logger *zap.Logger) *Bridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Bridge{
		feed:       feed,
		corsOrigin: corsOrigin,
		logger:     logger,
	}
	b.upgrader = websocket.Upgrader{CheckOrigin: b.checkOrigin}
	return b
}

func (b *Bridge) checkOrigin(r *http.Request) bool {
	if b.corsOrigin == "*" || b.corsOrigin == "" {
		return true
	}
	return r.Header.Get("Origin") == b.corsOrigin
}

// ServeHTTP upgrades the connection and streams every engine message to
// it as JSON until the client disconnects or a write fails.
func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.Warn("wsbridge: upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	sub := b.feed.Subscribe()
	defer b.feed.Unsubscribe(sub)

	for msg := range sub.C() {
		if err := conn.WriteJSON(toOutbound(msg)); err != nil {
			return
		}
	}
}

func toOutbound(msg matchserver.ServerMessage) outboundMessage {
	switch msg.Type {
	case wire.TypeTrade:
		return outboundMessage{Type: "trade", Data: msg.Trade}
	case wire.TypeAck:
		return outboundMessage{Type: "ack", Data: msg.Ack}
	case wire.TypeTob:
		return outboundMessage{Type: "tob", Data: msg.Tob}
	case wire.TypeL2Update:
		return outboundMessage{Type: "l2_update", Data: msg.L2}
	case wire.TypePnLUpdate:
		return outboundMessage{Type: "pnl_update", Data: msg.PnL}
	default:
		return outboundMessage{Type: "unknown", Data: nil}
	}
}
