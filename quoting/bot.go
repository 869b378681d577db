package quoting

import (
	"context"
	"sync"
	"time"

	"github.com/hackingsage/Quant-Trading-Simulator/matchserver"
	"github.com/hackingsage/Quant-Trading-Simulator/wire"
)

// Config tunes Bot's quoting and inventory-skew behavior.
type Config struct {
	UserID         uint64
	IsCall         bool
	Strike         float64
	RiskFree       float64
	Vol            float64
	ExpirySeconds  float64
	QuoteSpread    float64
	QuoteSize      uint64
	UpdateInterval time.Duration
	InventorySkew  float64 // price shift applied per unit of signed inventory
	MinPrice       float64
	MaxPrice       float64
}

// Bot quotes two-sided markets around a Black-Scholes fair value derived
// from the engine's own top-of-book mid, and skews its quotes against its
// signed inventory from fills in place of a second hedge instrument (this
// engine is single-instrument; see the quoting package's grounding notes
// in DESIGN.md).
type Bot struct {
	feed *matchserver.Feed
	cfg  Config

	mu          sync.Mutex
	lastMid     float64
	inventory   float64
	activeIDs   []uint64
	pendingAcks int
}

// New constructs a Bot that will submit orders as cfg.UserID.
func New(feed *matchserver.Feed, cfg Config) *Bot {
	if cfg.UpdateInterval == 0 {
		cfg.UpdateInterval = 200 * time.Millisecond
	}
	if cfg.MaxPrice == 0 {
		cfg.MaxPrice = 1e7
	}
	return &Bot{feed: feed, cfg: cfg}
}

// Run subscribes to the engine's feed and requotes on cfg.UpdateInterval
// until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	sub := b.feed.Subscribe()
	defer b.feed.Unsubscribe(sub)

	go b.consumeFeed(ctx, sub)

	ticker := time.NewTicker(b.cfg.UpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.requote()
		}
	}
}

func (b *Bot) consumeFeed(ctx context.Context, sub *matchserver.Subscription[matchserver.ServerMessage]) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.C():
			if !ok {
				return
			}
			b.observe(msg)
		}
	}
}

func (b *Bot) observe(msg matchserver.ServerMessage) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch msg.Type {
	case wire.TypeTob:
		b.lastMid = midOf(msg.Tob)
	case wire.TypeTrade:
		tr := msg.Trade
		if tr.BuyUserID == b.cfg.UserID {
			b.inventory += float64(tr.Quantity)
		}
		if tr.SellUserID == b.cfg.UserID {
			b.inventory -= float64(tr.Quantity)
		}
	case wire.TypeAck:
		if msg.Ack.AckType == wire.TypeNewOrder && msg.Ack.Status == wire.AckOK && b.pendingAcks > 0 {
			b.pendingAcks--
			if msg.Ack.OrderID != 0 {
				b.activeIDs = append(b.activeIDs, msg.Ack.OrderID)
			}
		}
	}
}

func midOf(tob wire.TobMsg) float64 {
	switch {
	case tob.BidPrice > 0 && tob.AskPrice > 0:
		return 0.5 * (tob.BidPrice + tob.AskPrice)
	case tob.BidPrice > 0:
		return tob.BidPrice
	case tob.AskPrice > 0:
		return tob.AskPrice
	default:
		return 0
	}
}

func (b *Bot) requote() {
	b.mu.Lock()
	mid := b.lastMid
	inventory := b.inventory
	staleIDs := b.activeIDs
	b.activeIDs = nil
	b.mu.Unlock()

	for _, id := range staleIDs {
		b.feed.SubmitCancel(wire.CancelMsg{OrderID: id})
	}

	if mid <= 0 {
		return
	}

	tau := b.cfg.ExpirySeconds / (365 * 24 * 3600)
	if tau < 1e-9 {
		tau = 1e-9
	}
	theo := Price(Inputs{S: mid, K: b.cfg.Strike, R: b.cfg.RiskFree, Sigma: b.cfg.Vol, T: tau}, b.cfg.IsCall)

	skew := inventory * b.cfg.InventorySkew
	bidPrice := clamp(theo-b.cfg.QuoteSpread*0.5-skew, b.cfg.MinPrice, b.cfg.MaxPrice)
	askPrice := clamp(theo+b.cfg.QuoteSpread*0.5-skew, b.cfg.MinPrice, b.cfg.MaxPrice)
	if askPrice <= bidPrice {
		askPrice = bidPrice + b.cfg.QuoteSpread
	}

	qty := b.cfg.QuoteSize
	if qty == 0 {
		qty = 1
	}

	b.mu.Lock()
	b.pendingAcks += 2
	b.mu.Unlock()

	b.feed.SubmitNewOrder(wire.NewOrderMsg{UserID: b.cfg.UserID, Side: 0, Price: bidPrice, Quantity: qty})
	b.feed.SubmitNewOrder(wire.NewOrderMsg{UserID: b.cfg.UserID, Side: 1, Price: askPrice, Quantity: qty})
}

func clamp(x, lo, hi float64) float64 {
	if lo > 0 && x < lo {
		return lo
	}
	if hi > 0 && x > hi {
		return hi
	}
	return x
}
