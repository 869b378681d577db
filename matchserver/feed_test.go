package matchserver

import (
	"testing"
	"time"

	"github.com/hackingsage/Quant-Trading-Simulator/wire"
)

func TestFeedBroadcastsToAllSubscribers(t *testing.T) {
	s := New(Config{PoolCapacity: 1024, InstrumentID: 1})
	s.Start()
	defer s.Stop()

	feed := NewFeed(s)
	go feed.Run()
	defer feed.CloseFeed()

	subA := feed.Subscribe()
	subB := feed.Subscribe()
	defer feed.Unsubscribe(subA)
	defer feed.Unsubscribe(subB)

	feed.SubmitNewOrder(wire.NewOrderMsg{UserID: 1, Side: 0, Price: 100, Quantity: 10})

	gotA := recvAck(t, subA)
	gotB := recvAck(t, subB)
	if gotA.OrderID != 1 || gotB.OrderID != 1 {
		t.Fatalf("have A=%+v B=%+v", gotA, gotB)
	}
}

func recvAck(t *testing.T, sub *Subscription[ServerMessage]) wire.AckMsg {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case msg := <-sub.C():
			if msg.Type == wire.TypeAck {
				return msg.Ack
			}
		case <-deadline:
			t.Fatal("timed out waiting for ACK")
		}
	}
}
