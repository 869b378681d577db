package sim

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/hackingsage/Quant-Trading-Simulator/matchserver"
	"github.com/hackingsage/Quant-Trading-Simulator/wire"
)

// meanLevel and kappa drive the simulator's Ornstein-Uhlenbeck
// mean-reversion on log-price, keeping the synthetic spot from wandering
// off indefinitely the way a pure GBM drift would.
const (
	meanLevel = 100.0
	kappa     = 1.0
	tickSize  = 0.01
)

// Config tunes MarketSimulator.
type Config struct {
	UserID     uint64
	StartPrice float64
	Mu         float64
	Sigma      float64
	DtSeconds  float64
	OrderSize  uint64
	Seed       int64
}

// MarketSimulator drives synthetic order flow into a matchserver.Feed:
// each tick it advances a mean-reverting log-price process, posts
// passive depth around the new mid, and crosses a pair of orders against
// each other to generate trades.
type MarketSimulator struct {
	feed *matchserver.Feed
	cfg  Config

	spot float64
	rng  *rand.Rand
}

// New constructs a MarketSimulator that will submit orders as UserID.
func New(feed *matchserver.Feed, cfg Config) *MarketSimulator {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &MarketSimulator{
		feed: feed,
		cfg:  cfg,
		spot: cfg.StartPrice,
		rng:  rand.New(rand.NewSource(seed)),
	}
}

// Run drives the simulator's tick loop until ctx is cancelled.
func (m *MarketSimulator) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Duration(m.cfg.DtSeconds * float64(time.Second)))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.step()
		}
	}
}

func (m *MarketSimulator) step() {
	z := m.rng.NormFloat64()

	logS := math.Log(math.Max(m.spot, tickSize))
	logMean := math.Log(meanLevel)
	logS += kappa*(logMean-logS)*m.cfg.DtSeconds + m.cfg.Sigma*math.Sqrt(m.cfg.DtSeconds)*z
	m.spot = math.Exp(logS)

	mid := roundToTick(m.spot)
	if mid <= 0 {
		mid = tickSize
	}

	passiveBid := roundToTick(mid - 0.5)
	passiveAsk := roundToTick(mid + 0.5)

	if passiveBid > 0 {
		m.sendLimitOrder(0, passiveBid, m.randomQty())
	}
	m.sendLimitOrder(1, passiveAsk, m.randomQty())

	aggressiveBid := roundToTick(mid + 0.05)
	aggressiveAsk := roundToTick(mid - 0.05)
	if aggressiveAsk < aggressiveBid {
		qty := m.randomQty()
		m.sendLimitOrder(0, aggressiveBid, qty)
		m.sendLimitOrder(1, aggressiveAsk, qty)
	}
}

func (m *MarketSimulator) randomQty() uint64 {
	if m.cfg.OrderSize == 0 {
		return uint64(1 + m.rng.Intn(20))
	}
	return m.cfg.OrderSize
}

func (m *MarketSimulator) sendLimitOrder(side uint8, price float64, qty uint64) {
	m.feed.SubmitNewOrder(wire.NewOrderMsg{
		UserID:   m.cfg.UserID,
		Side:     side,
		Price:    price,
		Quantity: qty,
	})
}

func roundToTick(x float64) float64 {
	ticks := math.Round(x / tickSize)
	return ticks * tickSize
}
