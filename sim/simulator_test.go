package sim

import (
	"context"
	"testing"
	"time"

	"github.com/hackingsage/Quant-Trading-Simulator/matchserver"
)

func TestMarketSimulatorProducesOrders(t *testing.T) {
	server := matchserver.New(matchserver.Config{PoolCapacity: 4096})
	server.Start()
	defer server.Stop()
	feed := matchserver.NewFeed(server)
	go feed.Run()
	defer feed.CloseFeed()

	m := New(feed, Config{
		UserID:     7,
		StartPrice: 100,
		Mu:         0,
		Sigma:      0.3,
		DtSeconds:  0.001,
		OrderSize:  5,
		Seed:       42,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	m.Run(ctx)

	deadline := time.Now().Add(500 * time.Millisecond)
	for server.Snapshot().OrderCount == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	if server.Snapshot().OrderCount == 0 {
		t.Fatal("simulator never rested any orders on the book")
	}
}

func TestRoundToTick(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{100.004, 100.0},
		{100.006, 100.01},
		{0, 0},
	}
	for _, c := range cases {
		if got := roundToTick(c.in); got != c.want {
			t.Fatalf("roundToTick(%v): have %v, want %v", c.in, got, c.want)
		}
	}
}
