// Package netserver bridges the matching engine's feed to the outside
// world over raw framed TCP: it accepts client connections, deframes
// NEW_ORDER/CANCEL messages into the engine, and relays every engine
// output frame from a shared matchserver.Feed to all connected clients.
package netserver

import (
	"net"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackingsage/Quant-Trading-Simulator/matchserver"
	"github.com/hackingsage/Quant-Trading-Simulator/wire"
)

// Server accepts TCP connections, feeds their frames into a
// matchserver.Feed's underlying engine, and relays that feed's output
// back to every connected client.
type Server struct {
	addr   string
	feed   *matchserver.Feed
	logger *zap.Logger

	listener net.Listener
	done     chan struct{}
}

// New constructs a Server that will bridge addr to feed once Start is
// called.
func New(addr string, feed *matchserver.Feed, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		addr:   addr,
		feed:   feed,
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Start binds the listening socket and launches the accept loop.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.listener = ln
	s.logger.Info("netserver: listening", zap.String("addr", s.addr))

	go s.acceptLoop()
	return nil
}

// Stop closes the listener, which unblocks the accept loop.
func (s *Server) Stop() {
	close(s.done)
	if s.listener != nil {
		s.listener.Close()
	}
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
				s.logger.Warn("netserver: accept failed", zap.Error(err))
				return
			}
		}
		sessionID := uuid.New()
		go s.handleConn(sessionID, conn)
	}
}

func (s *Server) handleConn(sessionID uuid.UUID, conn net.Conn) {
	logger := s.logger.With(zap.String("session", sessionID.String()), zap.String("peer", conn.RemoteAddr().String()))
	logger.Info("netserver: client connected")
	defer conn.Close()

	sub := s.feed.Subscribe()
	defer s.feed.Unsubscribe(sub)

	go s.writePump(conn, sub, logger)
	s.readLoop(conn, logger)
}

func (s *Server) writePump(conn net.Conn, sub *matchserver.Subscription[matchserver.ServerMessage], logger *zap.Logger) {
	for msg := range sub.C() {
		if err := wire.WriteFrame(conn, msg.Encode()); err != nil {
			logger.Warn("netserver: write failed, dropping client", zap.Error(err))
			conn.Close()
			return
		}
	}
}

func (s *Server) readLoop(conn net.Conn, logger *zap.Logger) {
	for {
		payload, err := wire.ReadFrame(conn)
		if err != nil {
			logger.Info("netserver: client disconnected", zap.Error(err))
			return
		}
		s.dispatch(payload, logger)
	}
}

func (s *Server) dispatch(payload []byte, logger *zap.Logger) {
	typ, err := wire.PeekType(payload)
	if err != nil {
		logger.Warn("netserver: malformed frame", zap.Error(err))
		return
	}
	switch typ {
	case wire.TypeNewOrder:
		m, err := wire.DecodeNewOrder(payload)
		if err != nil {
			logger.Warn("netserver: malformed NEW_ORDER", zap.Error(err))
			return
		}
		if !s.feed.SubmitNewOrder(m) {
			logger.Warn("netserver: input queue full, dropping NEW_ORDER", zap.Uint64("user_id", m.UserID))
		}
	case wire.TypeCancel:
		m, err := wire.DecodeCancel(payload)
		if err != nil {
			logger.Warn("netserver: malformed CANCEL", zap.Error(err))
			return
		}
		if !s.feed.SubmitCancel(m) {
			logger.Warn("netserver: input queue full, dropping CANCEL", zap.Uint64("order_id", m.OrderID))
		}
	default:
		logger.Warn("netserver: unknown message type", zap.Uint8("type", uint8(typ)))
	}
}
