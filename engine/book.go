package engine

import (
	"github.com/goovo/binarytree"

	"github.com/hackingsage/Quant-Trading-Simulator/pool"
)

// priceLevel is a FIFO queue of resting orders at one price, encoded as
// head/tail indices into the pool's intrusive doubly-linked list. qty is
// the aggregate remaining quantity across the level, kept in lockstep with
// every mutation so TopOfBook/snapshots never have to walk the list.
type priceLevel struct {
	head pool.Index
	tail pool.Index
	qty  uint64
}

func newPriceLevel() *priceLevel {
	return &priceLevel{head: pool.NoIndex, tail: pool.NoIndex}
}

func (l *priceLevel) empty() bool { return l.head == pool.NoIndex }

// orderRef is the O(1) cancel-by-id index entry: which side and price the
// order rests at, and its slot in the pool.
type orderRef struct {
	side  Side
	price float64
	idx   pool.Index
}

// OrderBook is an in-memory limit order book for a single instrument with
// price-time priority. Bids are indexed descending, asks ascending; each
// price level is a FIFO queue of pool-backed resting orders.
type OrderBook struct {
	bids *binarytree.BinaryTree
	asks *binarytree.BinaryTree

	orderIndex map[uint64]orderRef
	orders     *pool.OrderPool

	nextOrderID   uint64
	nextTradeID   uint64
	nextTimestamp uint64
}

// New constructs an empty order book backed by a pool with room for
// poolCapacity resting orders.
func New(poolCapacity uint32) *OrderBook {
	bids := binarytree.NewBinaryTree()
	asks := binarytree.NewBinaryTree()
	bids.ToggleSplay(true)
	asks.ToggleSplay(true)

	return &OrderBook{
		bids:          bids,
		asks:          asks,
		orderIndex:    make(map[uint64]orderRef),
		orders:        pool.New(poolCapacity),
		nextOrderID:   1,
		nextTradeID:   1,
		nextTimestamp: 1,
	}
}

// Size returns the number of resting orders currently indexed.
func (ob *OrderBook) Size() int { return len(ob.orderIndex) }

func (ob *OrderBook) allocateOrderID() uint64 {
	id := ob.nextOrderID
	ob.nextOrderID++
	return id
}

func (ob *OrderBook) allocateTradeID() uint64 {
	id := ob.nextTradeID
	ob.nextTradeID++
	return id
}

func (ob *OrderBook) allocateTimestamp() uint64 {
	ts := ob.nextTimestamp
	ob.nextTimestamp++
	return ts
}

// SubmitLimitOrder runs the incoming order against the opposite side of the
// book and, if any quantity remains, rests it on its own side. It returns
// the id assigned to the resting remainder, or 0 if the order left no
// resting remainder (either it was fully filled, or it arrived with
// zero quantity, which is a no-op).
func (ob *OrderBook) SubmitLimitOrder(order Order) (uint64, []Trade) {
	if order.Quantity == 0 {
		return 0, nil
	}

	orderID := order.OrderID
	if orderID == 0 {
		orderID = ob.allocateOrderID()
	}
	ts := order.Timestamp
	if ts == 0 {
		ts = ob.allocateTimestamp()
	}

	incoming := pool.Order{
		OrderID:   orderID,
		UserID:    order.UserID,
		Side:      uint8(order.Side),
		Price:     order.Price,
		Remaining: order.Quantity,
		Timestamp: ts,
	}

	var trades []Trade
	if order.Side == Buy {
		trades = ob.matchBuy(&incoming, order.InstrumentID)
	} else {
		trades = ob.matchSell(&incoming, order.InstrumentID)
	}

	if incoming.Remaining == 0 {
		return 0, trades
	}

	ob.restOrder(order.Side, &incoming)
	return orderID, trades
}

func minU64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

// matchBuy crosses an incoming buy against resting asks, best price first,
// while the best ask is still at or below the incoming limit price.
func (ob *OrderBook) matchBuy(incoming *pool.Order, instrumentID uint64) []Trade {
	var trades []Trade
	for incoming.Remaining > 0 {
		node := ob.asks.Min()
		if node == nil || node.Key > incoming.Price {
			break
		}
		level := node.Data.(*priceLevel)
		trades = ob.drainLevel(level, incoming, instrumentID, trades, true)
		if level.empty() {
			ob.asks.Root = ob.asks.Root.Remove(node.Key)
		}
	}
	return trades
}

// matchSell crosses an incoming sell against resting bids, best price
// first, while the best bid is still at or above the incoming limit price.
func (ob *OrderBook) matchSell(incoming *pool.Order, instrumentID uint64) []Trade {
	var trades []Trade
	for incoming.Remaining > 0 {
		node := ob.bids.Max()
		if node == nil || node.Key < incoming.Price {
			break
		}
		level := node.Data.(*priceLevel)
		trades = ob.drainLevel(level, incoming, instrumentID, trades, false)
		if level.empty() {
			ob.bids.Root = ob.bids.Root.Remove(node.Key)
		}
	}
	return trades
}

// drainLevel walks the FIFO at a crossed price level, generating trades
// against the incoming order until either the incoming order is filled or
// the level is exhausted. incomingIsBuy selects which side of each Trade
// the incoming order occupies; each Trade's Price is always the resting
// (maker) order's price per §4.2.
func (ob *OrderBook) drainLevel(level *priceLevel, incoming *pool.Order, instrumentID uint64, trades []Trade, incomingIsBuy bool) []Trade {
	idx := level.head
	for idx != pool.NoIndex && incoming.Remaining > 0 {
		resting := ob.orders.Get(idx)
		next := resting.Next

		qty := minU64(incoming.Remaining, resting.Remaining)

		trade := Trade{
			TradeID:      ob.allocateTradeID(),
			Price:        resting.Price,
			Quantity:     qty,
			InstrumentID: instrumentID,
		}
		if incomingIsBuy {
			trade.BuyOrderID, trade.BuyUserID = incoming.OrderID, incoming.UserID
			trade.SellOrderID, trade.SellUserID = resting.OrderID, resting.UserID
		} else {
			trade.SellOrderID, trade.SellUserID = incoming.OrderID, incoming.UserID
			trade.BuyOrderID, trade.BuyUserID = resting.OrderID, resting.UserID
		}
		trades = append(trades, trade)

		incoming.Remaining -= qty
		resting.Remaining -= qty
		level.qty -= qty

		if resting.Remaining == 0 {
			delete(ob.orderIndex, resting.OrderID)
			ob.unlinkFromLevel(level, idx)
			ob.orders.Release(idx)
		}

		idx = next
	}
	return trades
}

// restOrder allocates a pool slot for the residual quantity of incoming
// and appends it to the tail of its price level, indexing it for cancel.
func (ob *OrderBook) restOrder(side Side, incoming *pool.Order) {
	idx := ob.orders.Allocate()
	*ob.orders.Get(idx) = *incoming

	var tree *binarytree.BinaryTree
	if side == Buy {
		tree = ob.bids
	} else {
		tree = ob.asks
	}

	level := ob.levelAt(tree, incoming.Price)
	ob.appendToLevel(level, idx)

	ob.orderIndex[incoming.OrderID] = orderRef{side: side, price: incoming.Price, idx: idx}
}

// levelAt returns the price level at price, creating and inserting an
// empty one if none exists yet.
func (ob *OrderBook) levelAt(tree *binarytree.BinaryTree, price float64) *priceLevel {
	if tree.Root != nil {
		if node := tree.Root.SearchSubTree(price); node != nil {
			return node.Data.(*priceLevel)
		}
	}
	level := newPriceLevel()
	tree.Insert(price, level)
	return level
}

func (ob *OrderBook) appendToLevel(level *priceLevel, idx pool.Index) {
	order := ob.orders.Get(idx)
	order.Prev = level.tail
	order.Next = pool.NoIndex
	if level.tail != pool.NoIndex {
		ob.orders.Get(level.tail).Next = idx
	} else {
		level.head = idx
	}
	level.tail = idx
	level.qty += order.Remaining
}

func (ob *OrderBook) unlinkFromLevel(level *priceLevel, idx pool.Index) {
	order := ob.orders.Get(idx)
	if order.Prev != pool.NoIndex {
		ob.orders.Get(order.Prev).Next = order.Next
	} else {
		level.head = order.Next
	}
	if order.Next != pool.NoIndex {
		ob.orders.Get(order.Next).Prev = order.Prev
	} else {
		level.tail = order.Prev
	}
	order.Prev = pool.NoIndex
	order.Next = pool.NoIndex
}

// CancelOrder removes a resting order by id. Returns false if the id is
// unknown, or if its indexed price level has gone missing from the tree
// (an internal inconsistency the spec treats as not-found rather than a
// panic). Never fails partially: either the order is fully removed and the
// index entry erased, or nothing changes.
func (ob *OrderBook) CancelOrder(orderID uint64) bool {
	ref, ok := ob.orderIndex[orderID]
	if !ok {
		return false
	}

	var tree *binarytree.BinaryTree
	if ref.side == Buy {
		tree = ob.bids
	} else {
		tree = ob.asks
	}

	if tree.Root == nil {
		return false
	}
	node := tree.Root.SearchSubTree(ref.price)
	if node == nil {
		return false
	}
	level := node.Data.(*priceLevel)

	order := ob.orders.Get(ref.idx)
	level.qty -= order.Remaining
	ob.unlinkFromLevel(level, ref.idx)
	ob.orders.Release(ref.idx)
	delete(ob.orderIndex, orderID)

	if level.empty() {
		tree.Root = tree.Root.Remove(ref.price)
	}
	return true
}

// TopOfBook returns the best bid/ask price and aggregate resting quantity
// at each, with HasBid/HasAsk false when a side is empty.
func (ob *OrderBook) TopOfBook() TopOfBook {
	var tob TopOfBook
	if node := ob.bids.Max(); node != nil {
		level := node.Data.(*priceLevel)
		tob.HasBid = true
		tob.BidPrice = node.Key
		tob.BidQty = level.qty
	}
	if node := ob.asks.Min(); node != nil {
		level := node.Data.(*priceLevel)
		tob.HasAsk = true
		tob.AskPrice = node.Key
		tob.AskQty = level.qty
	}
	return tob
}

// SnapshotBids returns aggregated (price, total_qty) levels in descending
// price order. Empty levels are never stored, so none are emitted.
func (ob *OrderBook) SnapshotBids() []Level {
	var levels []Level
	if ob.bids.Root != nil {
		ob.bids.Root.InReverseOrderTraverse(func(price float64) {
			node := ob.bids.Root.SearchSubTree(price)
			if node == nil {
				return
			}
			levels = append(levels, Level{Price: price, Qty: node.Data.(*priceLevel).qty})
		})
	}
	return levels
}

// SnapshotAsks returns aggregated (price, total_qty) levels in ascending
// price order. Empty levels are never stored, so none are emitted.
func (ob *OrderBook) SnapshotAsks() []Level {
	var levels []Level
	if ob.asks.Root != nil {
		ob.asks.Root.InOrderTraverse(func(price float64) {
			node := ob.asks.Root.SearchSubTree(price)
			if node == nil {
				return
			}
			levels = append(levels, Level{Price: price, Qty: node.Data.(*priceLevel).qty})
		})
	}
	return levels
}
