// Package pnl implements per-user mark-to-market profit-and-loss
// attribution: realized PnL from fills, unrealized PnL marked to the last
// observed midprice.
package pnl

// Snapshot is the externally visible state of one user's PnL engine.
type Snapshot struct {
	UserID     uint64
	Realized   float64
	Unrealized float64
	Position   float64
	AvgPrice   float64
	Equity     float64
}

// Engine tracks one user's signed position, volume-weighted open price,
// realized PnL, and mid-marked unrealized PnL. The matching server owns
// one Engine per tracked user and calls it exclusively from the engine
// loop, so it carries no internal locking (§5: no locks held across
// message processing).
type Engine struct {
	userID uint64

	position   float64 // +long, -short
	avgPrice   float64 // VWAP of the open position
	realized   float64
	unrealized float64
	lastMid    float64
}

// New constructs a zeroed PnL engine for userID.
func New(userID uint64) *Engine {
	return &Engine{userID: userID}
}

// UserID returns the user this engine tracks.
func (e *Engine) UserID() uint64 { return e.userID }

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v float64) float64 {
	if v > 0 {
		return 1
	}
	if v < 0 {
		return -1
	}
	return 0
}

// OnTrade attributes a fill to this user. userIsBuy selects which side of
// the trade the user occupied; price and quantity are the trade's.
func (e *Engine) OnTrade(userIsBuy bool, price float64, quantity uint64) {
	signedQty := float64(quantity)
	if !userIsBuy {
		signedQty = -signedQty
	}

	// Closing branch: reduce (and realize PnL on) any existing position
	// that sits on the opposite side of this fill.
	if e.position != 0 && sign(e.position) != sign(signedQty) {
		closeQty := minF(abs(e.position), abs(signedQty))
		if e.position > 0 {
			e.realized += (price - e.avgPrice) * closeQty
		} else {
			e.realized += (e.avgPrice - price) * closeQty
		}

		if abs(e.position) <= closeQty {
			e.position = 0
			e.avgPrice = 0
		} else if e.position > 0 {
			e.position -= closeQty
		} else {
			e.position += closeQty
		}

		if abs(signedQty) > closeQty {
			if signedQty > 0 {
				signedQty -= closeQty
			} else {
				signedQty += closeQty
			}
		} else {
			signedQty = 0
		}
	}

	// Opening/growing branch: whatever signed quantity remains either
	// opens a flat position or grows the existing one, recomputing VWAP.
	if signedQty != 0 {
		if e.position == 0 {
			e.position = signedQty
			e.avgPrice = price
		} else {
			newPos := e.position + signedQty
			e.avgPrice = (e.avgPrice*abs(e.position) + price*abs(signedQty)) / abs(newPos)
			e.position = newPos
		}
	}

	e.markUnrealized()
}

// OnMidprice updates the cached reference mid and recomputes unrealized
// PnL against it.
func (e *Engine) OnMidprice(mid float64) {
	e.lastMid = mid
	e.markUnrealized()
}

func (e *Engine) markUnrealized() {
	switch {
	case e.position == 0:
		e.unrealized = 0
	case e.position > 0:
		e.unrealized = (e.lastMid - e.avgPrice) * e.position
	default:
		e.unrealized = (e.avgPrice - e.lastMid) * abs(e.position)
	}
}

// Snapshot returns a by-value copy of the current PnL state.
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		UserID:     e.userID,
		Realized:   e.realized,
		Unrealized: e.unrealized,
		Position:   e.position,
		AvgPrice:   e.avgPrice,
		Equity:     e.realized + e.unrealized,
	}
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
