// Package engine implements the price-time-priority limit order book:
// matching, cancellation, top-of-book, and L2 snapshots for a single
// instrument.
package engine

// Side identifies which side of the book an order or trade leg belongs to.
type Side uint8

// Buy and Sell mirror the wire encoding (§6): 0 = buy, 1 = sell.
const (
	Buy  Side = 0
	Sell Side = 1
)

// String implements fmt.Stringer.
func (s Side) String() string {
	if s == Buy {
		return "buy"
	}
	return "sell"
}

// Order is an incoming client order. OrderID == 0 means "let the book
// assign the next id"; Timestamp == 0 means "let the book assign one".
type Order struct {
	OrderID      uint64
	UserID       uint64
	InstrumentID uint64
	Side         Side
	Price        float64
	Quantity     uint64
	Timestamp    uint64
}

// Trade is produced during matching. Price is always the resting (maker)
// order's price, never the incoming (taker) order's limit.
type Trade struct {
	TradeID      uint64
	BuyOrderID   uint64
	SellOrderID  uint64
	BuyUserID    uint64
	SellUserID   uint64
	Price        float64
	Quantity     uint64
	InstrumentID uint64
}

// TopOfBook is the best bid/ask, each as a price and the aggregate resting
// quantity at that price. HasBid/HasAsk are false (and the corresponding
// price/quantity zero) when that side of the book is empty.
type TopOfBook struct {
	HasBid   bool
	BidPrice float64
	BidQty   uint64
	HasAsk   bool
	AskPrice float64
	AskQty   uint64
}

// Equal reports whether two TopOfBook values describe the same state —
// used by the matching server to decide whether to emit a TOB diff (§8:
// every emitted TOB must differ from the last one emitted).
func (t TopOfBook) Equal(o TopOfBook) bool {
	return t.HasBid == o.HasBid && t.HasAsk == o.HasAsk &&
		t.BidPrice == o.BidPrice && t.BidQty == o.BidQty &&
		t.AskPrice == o.AskPrice && t.AskQty == o.AskQty
}

// Level is one aggregated price level in an L2 snapshot.
type Level struct {
	Price float64
	Qty   uint64
}
