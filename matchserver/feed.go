package matchserver

import (
	"sync"
	"time"
)

// subscriberBuffer bounds how many unconsumed messages a single slow
// subscriber can accumulate before new ones are dropped for it.
const subscriberBuffer = 1024

// hub fans a stream of values out to however many subscribers are
// currently attached. A slow or absent subscriber never blocks the
// broadcaster — a full subscriber channel just drops that value for it.
type hub[T any] struct {
	mu   sync.RWMutex
	subs map[*Subscription[T]]struct{}
}

// Subscription is a single transport's view onto a Feed's broadcast
// stream.
type Subscription[T any] struct {
	ch chan T
}

// C returns the channel to range over; it is closed on Unsubscribe.
func (s *Subscription[T]) C() <-chan T { return s.ch }

func newHub[T any]() *hub[T] {
	return &hub[T]{subs: make(map[*Subscription[T]]struct{})}
}

func (h *hub[T]) subscribe(buffer int) *Subscription[T] {
	sub := &Subscription[T]{ch: make(chan T, buffer)}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

func (h *hub[T]) unsubscribe(sub *Subscription[T]) {
	h.mu.Lock()
	delete(h.subs, sub)
	h.mu.Unlock()
	close(sub.ch)
}

func (h *hub[T]) broadcast(value T) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs {
		select {
		case sub.ch <- value:
		default:
		}
	}
}

// Feed is the single permitted consumer of a MatchingServer's output
// queue (§5: exactly one thread may call pop). It drains that queue on
// its own goroutine and re-publishes every message to however many
// transports (TCP bridge, WebSocket bridge, in-process observers) have
// subscribed, so those transports never touch the SPSC queue directly.
type Feed struct {
	*MatchingServer
	hub      *hub[ServerMessage]
	done     chan struct{}
	closeDone sync.Once
}

// NewFeed wraps server with a Feed. The embedded MatchingServer's
// SubmitNewOrder/SubmitCancel remain the input path for transports.
func NewFeed(server *MatchingServer) *Feed {
	return &Feed{
		MatchingServer: server,
		hub:            newHub[ServerMessage](),
		done:           make(chan struct{}),
	}
}

// Subscribe registers a new transport-facing subscription.
func (f *Feed) Subscribe() *Subscription[ServerMessage] {
	return f.hub.subscribe(subscriberBuffer)
}

// Unsubscribe removes and closes a subscription.
func (f *Feed) Unsubscribe(sub *Subscription[ServerMessage]) {
	f.hub.unsubscribe(sub)
}

// Run drains the underlying MatchingServer's output queue and
// broadcasts every message until CloseFeed is called. Call this exactly
// once, from exactly one goroutine.
func (f *Feed) Run() {
	for {
		select {
		case <-f.done:
			return
		default:
		}
		msg, ok := f.MatchingServer.NextServerMessage()
		if !ok {
			time.Sleep(idleBackoff)
			continue
		}
		f.hub.broadcast(msg)
	}
}

// CloseFeed signals Run to exit at its next poll. It does not stop the
// underlying MatchingServer's engine loop — call MatchingServer.Stop for
// that (it remains reachable by promotion since Feed defines no Stop of
// its own).
func (f *Feed) CloseFeed() {
	f.closeDone.Do(func() { close(f.done) })
}
