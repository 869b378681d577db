package matchserver

import (
	"testing"
	"time"

	"github.com/hackingsage/Quant-Trading-Simulator/wire"
)

// drainAll collects every output message the engine produces, polling
// until a quiet window passes with nothing new arriving.
func drainAll(s *MatchingServer) []ServerMessage {
	var out []ServerMessage
	quiet := 0
	for quiet < 20 {
		m, ok := s.NextServerMessage()
		if !ok {
			quiet++
			time.Sleep(time.Millisecond)
			continue
		}
		quiet = 0
		out = append(out, m)
	}
	return out
}

func newTestServer() *MatchingServer {
	s := New(Config{PoolCapacity: 1024, InstrumentID: 1})
	s.Start()
	return s
}

func TestScenarioEmptyBookPassiveBuyRests(t *testing.T) {
	s := newTestServer()
	defer s.Stop()
	s.TrackUser(1)

	s.SubmitNewOrder(wire.NewOrderMsg{UserID: 1, Side: 0, Price: 100.00, Quantity: 10})
	msgs := drainAll(s)

	ack := findAck(msgs, wire.TypeNewOrder)
	if ack == nil || ack.Status != wire.AckOK || ack.OrderID != 1 {
		t.Fatalf("ACK: have %+v", ack)
	}

	tob := findTob(msgs)
	if tob == nil || tob.BidPrice != 100 || tob.BidQty != 10 || tob.AskPrice != 0 || tob.AskQty != 0 {
		t.Fatalf("TOB: have %+v", tob)
	}

	l2 := findL2(msgs, 0, 100)
	if l2 == nil || l2.Quantity != 10 {
		t.Fatalf("L2: have %+v", l2)
	}

	pu := findPnL(msgs, 1)
	if pu == nil || pu.Realized != 0 || pu.Unrealized != 0 || pu.Position != 0 {
		t.Fatalf("PnL: have %+v", pu)
	}
}

func TestScenarioImmediateCrossMakerPriceWins(t *testing.T) {
	s := newTestServer()
	defer s.Stop()
	s.TrackUser(1)
	s.TrackUser(7)

	s.SubmitNewOrder(wire.NewOrderMsg{UserID: 7, Side: 1, Price: 101.00, Quantity: 3})
	drainAll(s)

	s.SubmitNewOrder(wire.NewOrderMsg{UserID: 1, Side: 0, Price: 102.00, Quantity: 2})
	msgs := drainAll(s)

	trade := findTrade(msgs)
	if trade == nil || trade.Price != 101.00 || trade.Quantity != 2 || trade.BuyUserID != 1 || trade.SellUserID != 7 {
		t.Fatalf("Trade: have %+v", trade)
	}

	ack := findAck(msgs, wire.TypeNewOrder)
	if ack == nil || ack.OrderID != 0 {
		t.Fatalf("ACK (fully filled): have %+v", ack)
	}

	l2 := findL2(msgs, 1, 101.00)
	if l2 == nil || l2.Quantity != 1 {
		t.Fatalf("L2: have %+v", l2)
	}
}

func TestScenarioPartialFillThenRest(t *testing.T) {
	s := newTestServer()
	defer s.Stop()

	s.SubmitNewOrder(wire.NewOrderMsg{UserID: 7, Side: 1, Price: 101.00, Quantity: 3})
	drainAll(s)

	s.SubmitNewOrder(wire.NewOrderMsg{UserID: 1, Side: 0, Price: 101.00, Quantity: 5})
	msgs := drainAll(s)

	ack := findAck(msgs, wire.TypeNewOrder)
	if ack == nil || ack.OrderID == 0 {
		t.Fatalf("expected a resting ACK with nonzero id, have %+v", ack)
	}

	gone := findL2(msgs, 1, 101.00)
	if gone == nil || gone.Quantity != 0 {
		t.Fatalf("expected ask level at 101.00 to report qty 0, have %+v", gone)
	}
	rest := findL2(msgs, 0, 101.00)
	if rest == nil || rest.Quantity != 2 {
		t.Fatalf("expected bid level at 101.00 to report qty 2, have %+v", rest)
	}

	tob := findTob(msgs)
	if tob == nil || tob.BidPrice != 101.00 || tob.BidQty != 2 || tob.AskQty != 0 {
		t.Fatalf("TOB: have %+v", tob)
	}
}

func TestScenarioCancelUnknownID(t *testing.T) {
	s := newTestServer()
	defer s.Stop()

	s.SubmitCancel(wire.CancelMsg{OrderID: 424242})
	msgs := drainAll(s)

	if len(msgs) != 1 {
		t.Fatalf("expected exactly one frame, have %d: %+v", len(msgs), msgs)
	}
	ack := msgs[0]
	if ack.Type != wire.TypeAck || ack.Ack.Status != wire.AckErr || ack.Ack.AckType != wire.TypeCancel || ack.Ack.OrderID != 424242 {
		t.Fatalf("ACK: have %+v", ack)
	}
}

func TestScenarioPnLCloseAndFlip(t *testing.T) {
	s := newTestServer()
	defer s.Stop()
	s.TrackUser(1)
	s.TrackUser(2)

	s.SubmitNewOrder(wire.NewOrderMsg{UserID: 2, Side: 1, Price: 100, Quantity: 10})
	drainAll(s)
	s.SubmitNewOrder(wire.NewOrderMsg{UserID: 1, Side: 0, Price: 100, Quantity: 10})
	drainAll(s)

	s.SubmitNewOrder(wire.NewOrderMsg{UserID: 2, Side: 0, Price: 110, Quantity: 15})
	drainAll(s)
	s.SubmitNewOrder(wire.NewOrderMsg{UserID: 1, Side: 1, Price: 110, Quantity: 15})
	msgs := drainAll(s)

	pu := findPnL(msgs, 1)
	if pu == nil || pu.Realized != 100 || pu.Position != -5 || pu.AvgPrice != 110 {
		t.Fatalf("PnL for user 1: have %+v", pu)
	}
}

func TestScenarioDeterministicMultiCross(t *testing.T) {
	s := newTestServer()
	defer s.Stop()

	s.SubmitNewOrder(wire.NewOrderMsg{UserID: 7, Side: 1, Price: 100.00, Quantity: 2})
	s.SubmitNewOrder(wire.NewOrderMsg{UserID: 7, Side: 1, Price: 100.50, Quantity: 3})
	s.SubmitNewOrder(wire.NewOrderMsg{UserID: 7, Side: 1, Price: 101.00, Quantity: 4})
	drainAll(s)

	s.SubmitNewOrder(wire.NewOrderMsg{UserID: 1, Side: 0, Price: 101.00, Quantity: 8})
	msgs := drainAll(s)

	var trades []wire.TradeMsg
	for _, m := range msgs {
		if m.Type == wire.TypeTrade {
			trades = append(trades, m.Trade)
		}
	}
	if len(trades) != 3 {
		t.Fatalf("have %d trades, want 3: %+v", len(trades), trades)
	}
	wantPrices := []float64{100.00, 100.50, 101.00}
	wantQtys := []uint64{2, 3, 3}
	for i, tr := range trades {
		if tr.Price != wantPrices[i] || tr.Quantity != wantQtys[i] {
			t.Fatalf("trade %d: have price=%v qty=%v, want price=%v qty=%v", i, tr.Price, tr.Quantity, wantPrices[i], wantQtys[i])
		}
	}

	tob := findTob(msgs)
	if tob == nil || tob.AskPrice != 101.00 || tob.AskQty != 1 {
		t.Fatalf("final TOB: have %+v", tob)
	}
}

func TestNoDuplicateTOBEmittedWhenUnchanged(t *testing.T) {
	s := newTestServer()
	defer s.Stop()

	s.SubmitNewOrder(wire.NewOrderMsg{UserID: 1, Side: 0, Price: 100, Quantity: 10})
	drainAll(s)

	s.SubmitCancel(wire.CancelMsg{OrderID: 999999})
	msgs := drainAll(s)

	if tob := findTob(msgs); tob != nil {
		t.Fatalf("unexpected TOB emitted for an unrelated unknown cancel: %+v", tob)
	}
}

func findAck(msgs []ServerMessage, ackType wire.Type) *wire.AckMsg {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Type == wire.TypeAck && msgs[i].Ack.AckType == ackType {
			return &msgs[i].Ack
		}
	}
	return nil
}

func findTob(msgs []ServerMessage) *wire.TobMsg {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Type == wire.TypeTob {
			return &msgs[i].Tob
		}
	}
	return nil
}

func findTrade(msgs []ServerMessage) *wire.TradeMsg {
	for _, m := range msgs {
		if m.Type == wire.TypeTrade {
			return &m.Trade
		}
	}
	return nil
}

func findL2(msgs []ServerMessage, side uint8, price float64) *wire.L2UpdateMsg {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Type == wire.TypeL2Update && msgs[i].L2.Side == side && msgs[i].L2.Price == price {
			return &msgs[i].L2
		}
	}
	return nil
}

func findPnL(msgs []ServerMessage, userID uint32) *wire.PnLUpdateMsg {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Type == wire.TypePnLUpdate && msgs[i].PnL.UserID == userID {
			return &msgs[i].PnL
		}
	}
	return nil
}
