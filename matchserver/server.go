// Package matchserver implements the single-threaded cooperative event
// engine: it drains client messages from a bounded input queue, applies
// them to an engine.OrderBook, attributes trades to tracked users' PnL
// engines, and emits the resulting feed (Trades, ACKs, TOB diffs, L2
// diffs, PnL updates) onto a bounded output queue in the exact order
// required by the wire contract.
package matchserver

import (
	"sort"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/hackingsage/Quant-Trading-Simulator/engine"
	"github.com/hackingsage/Quant-Trading-Simulator/pnl"
	"github.com/hackingsage/Quant-Trading-Simulator/queue"
	"github.com/hackingsage/Quant-Trading-Simulator/wire"
)

// batchSize bounds how many input messages a single loop iteration will
// drain before yielding, per §4.4.
const batchSize = 1024

// idleBackoff is how long the loop sleeps when an iteration drained no
// work, to avoid busy-spinning on an empty queue.
const idleBackoff = 100 * time.Microsecond

// DefaultInCapacity and DefaultOutCapacity are the queue sizes the spec
// names as defaults.
const (
	DefaultInCapacity  = 4096
	DefaultOutCapacity = 4096
)

// ClientMessage is one World→Engine input: exactly one of NewOrder or
// Cancel is meaningful, selected by Type.
type ClientMessage struct {
	Type     wire.Type
	NewOrder wire.NewOrderMsg
	Cancel   wire.CancelMsg
}

// ServerMessage is one Engine→World output, selected by Type.
type ServerMessage struct {
	Type  wire.Type
	Trade wire.TradeMsg
	Ack   wire.AckMsg
	Tob   wire.TobMsg
	L2    wire.L2UpdateMsg
	PnL   wire.PnLUpdateMsg
}

// Encode renders a ServerMessage as the framed payload its Type expects
// (including the leading type tag), for handing to wire.WriteFrame.
func (m ServerMessage) Encode() []byte {
	switch m.Type {
	case wire.TypeTrade:
		return wire.EncodeTrade(m.Trade)
	case wire.TypeAck:
		return wire.EncodeAck(m.Ack)
	case wire.TypeTob:
		return wire.EncodeTob(m.Tob)
	case wire.TypeL2Update:
		return wire.EncodeL2Update(m.L2)
	case wire.TypePnLUpdate:
		return wire.EncodePnLUpdate(m.PnL)
	default:
		return nil
	}
}

// MatchingServer owns the order book, the per-user PnL engines it tracks,
// and the resting-order attribution map. Apart from TrackUser, which
// registers a user from the caller's goroutine, all of this state is
// mutated exclusively by the engine loop goroutine; everything else
// interacts through the two SPSC queues and Snapshot's request channel.
type MatchingServer struct {
	book         *engine.OrderBook
	instrumentID uint64

	inQueue  *queue.SPSCQueue[ClientMessage]
	outQueue *queue.SPSCQueue[ServerMessage]

	trackedUsers map[uint64]*pnl.Engine
	trackedOrder []uint64
	orderUser    map[uint64]uint64

	lastTOB engine.TopOfBook

	snapshotReqs chan snapshotRequest

	running atomic.Bool
	done    chan struct{}

	logger *zap.Logger
}

// BookSnapshot is a by-value copy of the book state an external caller
// (an admin endpoint, a test) may need. It never aliases anything the
// engine loop goroutine continues to mutate.
type BookSnapshot struct {
	Bids       []engine.Level
	Asks       []engine.Level
	Tob        engine.TopOfBook
	OrderCount int
}

// snapshotRequest is how a non-engine goroutine asks the engine loop to
// build and hand back a BookSnapshot, instead of reading *engine.OrderBook
// directly — the book is owned exclusively by the engine loop goroutine
// per §5, so every other reader goes through this channel.
type snapshotRequest struct {
	resp chan BookSnapshot
}

// snapshotReqCapacity bounds how many outstanding snapshot requests the
// engine loop will buffer before a caller's send blocks.
const snapshotReqCapacity = 64

// Config bundles the tunables a caller may want to override. Zero
// InCapacity/OutCapacity fall back to DefaultInCapacity/DefaultOutCapacity
// and a nil Logger to a no-op logger; PoolCapacity and InstrumentID are
// used as given.
type Config struct {
	PoolCapacity uint32
	InCapacity   int
	OutCapacity  int
	InstrumentID uint64
	Logger       *zap.Logger
}

// New constructs a MatchingServer with an empty book and no tracked
// users. Call TrackUser for every user whose PnL should be attributed.
func New(cfg Config) *MatchingServer {
	if cfg.InCapacity == 0 {
		cfg.InCapacity = DefaultInCapacity
	}
	if cfg.OutCapacity == 0 {
		cfg.OutCapacity = DefaultOutCapacity
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &MatchingServer{
		book:         engine.New(cfg.PoolCapacity),
		instrumentID: cfg.InstrumentID,
		inQueue:      queue.New[ClientMessage](cfg.InCapacity),
		outQueue:     queue.New[ServerMessage](cfg.OutCapacity),
		trackedUsers: make(map[uint64]*pnl.Engine),
		orderUser:    make(map[uint64]uint64),
		snapshotReqs: make(chan snapshotRequest, snapshotReqCapacity),
		done:         make(chan struct{}),
		logger:       cfg.Logger,
	}
}

// TrackUser registers userID for PnL attribution, creating its PnL engine
// if this is the first time it's seen, and returns that engine. The
// iteration order of trackedOrder (and therefore the order PNL_UPDATEs
// are emitted in whenever more than one tracked user is affected by the
// same trade or mid change) is first-tracked order, not map order, so
// identical submission streams always produce identical output order.
func (s *MatchingServer) TrackUser(userID uint64) *pnl.Engine {
	if e, ok := s.trackedUsers[userID]; ok {
		return e
	}
	e := pnl.New(userID)
	s.trackedUsers[userID] = e
	s.trackedOrder = append(s.trackedOrder, userID)
	return e
}

// Snapshot asks the engine loop for a by-value copy of the current book
// state and blocks until it answers. Safe to call from any goroutine:
// the book itself is owned exclusively by the engine loop (§5), so this
// never reads *engine.OrderBook directly — it hands a request across a
// channel and the engine loop builds the copy on its own turn.
func (s *MatchingServer) Snapshot() BookSnapshot {
	if !s.running.Load() {
		return s.buildSnapshot()
	}
	respCh := make(chan BookSnapshot, 1)
	s.snapshotReqs <- snapshotRequest{resp: respCh}
	return <-respCh
}

func (s *MatchingServer) buildSnapshot() BookSnapshot {
	return BookSnapshot{
		Bids:       s.book.SnapshotBids(),
		Asks:       s.book.SnapshotAsks(),
		Tob:        s.book.TopOfBook(),
		OrderCount: s.book.Size(),
	}
}

func (s *MatchingServer) drainSnapshotRequests() {
	for {
		select {
		case req := <-s.snapshotReqs:
			req.resp <- s.buildSnapshot()
		default:
			return
		}
	}
}

// Start launches the engine loop goroutine. Calling Start twice is a
// no-op.
func (s *MatchingServer) Start() {
	if !s.running.CompareAndSwap(false, true) {
		return
	}
	go s.engineLoop()
}

// Stop requests the engine loop to exit at its next iteration boundary
// and blocks until it has. Pending queued outputs are not drained.
func (s *MatchingServer) Stop() {
	if !s.running.CompareAndSwap(true, false) {
		return
	}
	<-s.done
}

// SubmitNewOrder enqueues a NEW_ORDER for the engine to process. Returns
// false if the input queue is full; the caller decides whether to retry
// or drop.
func (s *MatchingServer) SubmitNewOrder(m wire.NewOrderMsg) bool {
	return s.inQueue.Push(ClientMessage{Type: wire.TypeNewOrder, NewOrder: m})
}

// SubmitCancel enqueues a CANCEL for the engine to process. Returns false
// if the input queue is full.
func (s *MatchingServer) SubmitCancel(m wire.CancelMsg) bool {
	return s.inQueue.Push(ClientMessage{Type: wire.TypeCancel, Cancel: m})
}

// NextServerMessage pops the oldest pending output. Returns false if
// nothing is queued.
func (s *MatchingServer) NextServerMessage() (ServerMessage, bool) {
	return s.outQueue.Pop()
}

func (s *MatchingServer) engineLoop() {
	defer close(s.done)
	for s.running.Load() {
		processed := 0
		for processed < batchSize {
			cm, ok := s.inQueue.Pop()
			if !ok {
				break
			}
			processed++
			s.processMessage(cm)
		}
		s.drainSnapshotRequests()
		if processed == 0 {
			time.Sleep(idleBackoff)
		}
	}
	s.drainSnapshotRequests()
}

// pushOut enqueues an output message. While the output queue is full it
// logs a warning, sleeps idleBackoff and retries until the push succeeds,
// so a full queue stalls the engine loop but never drops a message.
func (s *MatchingServer) pushOut(m ServerMessage) {
	for !s.outQueue.Push(m) {
		s.logger.Warn("matchserver: output queue full, retrying", zap.Uint8("type", uint8(m.Type)))
		time.Sleep(idleBackoff)
	}
}

// processMessage implements §4.4's per-message processing order exactly:
// snapshot L2, apply, attribute PnL per trade, emit Trades, emit ACK,
// emit TOB diff (and PnL-on-mid-change), emit L2 diffs.
func (s *MatchingServer) processMessage(cm ClientMessage) {
	prevBids := s.book.SnapshotBids()
	prevAsks := s.book.SnapshotAsks()

	switch cm.Type {
	case wire.TypeNewOrder:
		s.handleNewOrder(cm.NewOrder)
	case wire.TypeCancel:
		s.handleCancel(cm.Cancel)
	}

	s.emitTOBAndPnLOnMid()
	s.emitL2Diffs(prevBids, prevAsks)
}

func (s *MatchingServer) handleNewOrder(m wire.NewOrderMsg) {
	order := engine.Order{
		UserID:       m.UserID,
		InstrumentID: s.instrumentID,
		Side:         engine.Side(m.Side),
		Price:        m.Price,
		Quantity:     m.Quantity,
	}

	assignedID, trades := s.book.SubmitLimitOrder(order)
	if assignedID != 0 {
		s.orderUser[assignedID] = m.UserID
	}

	for _, tr := range trades {
		s.attributeTrade(m.UserID, m.Side, tr)
	}

	for _, tr := range trades {
		s.pushOut(ServerMessage{Type: wire.TypeTrade, Trade: wire.TradeMsg{
			TradeID:     tr.TradeID,
			BuyOrderID:  tr.BuyOrderID,
			BuyUserID:   tr.BuyUserID,
			SellOrderID: tr.SellOrderID,
			SellUserID:  tr.SellUserID,
			Price:       tr.Price,
			Quantity:    tr.Quantity,
		}})
	}

	s.pushOut(ServerMessage{Type: wire.TypeAck, Ack: wire.AckMsg{
		Status:  wire.AckOK,
		AckType: wire.TypeNewOrder,
		OrderID: assignedID,
	}})
}

func (s *MatchingServer) handleCancel(m wire.CancelMsg) {
	ok := s.book.CancelOrder(m.OrderID)
	if ok {
		delete(s.orderUser, m.OrderID)
	}
	status := wire.AckOK
	if !ok {
		status = wire.AckErr
	}
	s.pushOut(ServerMessage{Type: wire.TypeAck, Ack: wire.AckMsg{
		Status:  status,
		AckType: wire.TypeCancel,
		OrderID: m.OrderID,
	}})
}

// attributeTrade determines, for every tracked user, whether they were
// the buyer or seller in tr — using the aggressor's declared side as the
// primary source and the order_id→user_id map (which covers the resting
// counterparty) to override it — and if so runs on_trade and emits a
// PNL_UPDATE for them.
func (s *MatchingServer) attributeTrade(aggressorUserID uint64, aggressorSide uint8, tr engine.Trade) {
	for _, userID := range s.trackedOrder {
		e := s.trackedUsers[userID]
		isBuy, isSell := false, false

		if aggressorUserID == userID {
			if aggressorSide == uint8(engine.Buy) {
				isBuy = true
			} else {
				isSell = true
			}
		}
		if s.orderUser[tr.BuyOrderID] == userID {
			isBuy, isSell = true, false
		}
		if s.orderUser[tr.SellOrderID] == userID {
			isSell, isBuy = true, false
		}

		if !isBuy && !isSell {
			continue
		}

		e.OnTrade(isBuy, tr.Price, tr.Quantity)
		s.emitPnL(e)
	}
}

func (s *MatchingServer) emitPnL(e *pnl.Engine) {
	snap := e.Snapshot()
	s.pushOut(ServerMessage{Type: wire.TypePnLUpdate, PnL: wire.PnLUpdateMsg{
		UserID:     uint32(snap.UserID),
		Realized:   snap.Realized,
		Unrealized: snap.Unrealized,
		Position:   snap.Position,
		AvgPrice:   snap.AvgPrice,
		Equity:     snap.Equity,
	}})
}

// emitTOBAndPnLOnMid compares the current top-of-book to the last one
// emitted (initially the empty book, so an empty book emits nothing),
// emits a TOB frame only on a genuine change, and — only when a
// mid price can be formed from that fresh TOB — marks every tracked
// user's PnL engine to the new mid and emits their PNL_UPDATE.
func (s *MatchingServer) emitTOBAndPnLOnMid() {
	tob := s.book.TopOfBook()
	if tob.Equal(s.lastTOB) {
		return
	}
	s.lastTOB = tob

	s.pushOut(ServerMessage{Type: wire.TypeTob, Tob: wire.TobMsg{
		BidPrice: tob.BidPrice,
		BidQty:   tob.BidQty,
		AskPrice: tob.AskPrice,
		AskQty:   tob.AskQty,
	}})

	mid, ok := midOf(tob)
	if !ok {
		return
	}
	for _, userID := range s.trackedOrder {
		e := s.trackedUsers[userID]
		e.OnMidprice(mid)
		s.emitPnL(e)
	}
}

func midOf(tob engine.TopOfBook) (float64, bool) {
	switch {
	case tob.HasBid && tob.HasAsk:
		return (tob.BidPrice + tob.AskPrice) / 2, true
	case tob.HasBid:
		return tob.BidPrice, true
	case tob.HasAsk:
		return tob.AskPrice, true
	default:
		return 0, false
	}
}

// emitL2Diffs re-snapshots both sides and emits an L2_UPDATE for every
// price that appears in either the previous or the new snapshot with a
// changed aggregate quantity (zero meaning the level is now gone).
func (s *MatchingServer) emitL2Diffs(prevBids, prevAsks []engine.Level) {
	s.diffSide(prevBids, s.book.SnapshotBids(), 0)
	s.diffSide(prevAsks, s.book.SnapshotAsks(), 1)
}

func (s *MatchingServer) diffSide(before, after []engine.Level, sideFlag uint8) {
	prevQty := make(map[float64]uint64, len(before))
	for _, l := range before {
		prevQty[l.Price] = l.Qty
	}
	newQty := make(map[float64]uint64, len(after))
	for _, l := range after {
		newQty[l.Price] = l.Qty
	}

	seen := make(map[float64]bool, len(prevQty)+len(newQty))
	prices := make([]float64, 0, len(prevQty)+len(newQty))
	for p := range prevQty {
		seen[p] = true
		prices = append(prices, p)
	}
	for p := range newQty {
		if !seen[p] {
			seen[p] = true
			prices = append(prices, p)
		}
	}
	sort.Float64s(prices)

	for _, price := range prices {
		oldQ := prevQty[price]
		newQ := newQty[price]
		if oldQ == newQ {
			continue
		}
		s.pushOut(ServerMessage{Type: wire.TypeL2Update, L2: wire.L2UpdateMsg{
			Side:     sideFlag,
			Price:    price,
			Quantity: newQ,
		}})
	}
}
