package ws

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"gridsnake.io/internal/protocol"
	"gridsnake.io/internal/sim/world"
)

const (
	writeWait    = 5 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 25 * time.Second
	joinTimeout  = 5 * time.Second
	leaveTimeout = time.Second
	maxFrame     = 4 * 1024
)

type Server struct {
	world *world.World
	log   *log.Logger

	upgrader websocket.Upgrader

	accepted  atomic.Uint64
	active    atomic.Int64
	intents   atomic.Uint64
	malformed map[string]*atomic.Uint64
}

// Stats is a snapshot of transport counters for /metrics.
type Stats struct {
	Accepted  uint64            `json:"accepted_total"`
	Active    int64             `json:"active"`
	Intents   uint64            `json:"intents_total"`
	Malformed map[string]uint64 `json:"malformed_total"`
}

func NewServer(w *world.World, logger *log.Logger) *Server {
	s := &Server{
		world: w,
		log:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
		malformed: map[string]*atomic.Uint64{},
	}
	for _, code := range []string{protocol.ErrProtoBadRequest, protocol.ErrUnknownType, protocol.ErrSchema, protocol.ErrBadDirection} {
		s.malformed[code] = new(atomic.Uint64)
	}
	return s
}

func (s *Server) Stats() Stats {
	st := Stats{
		Accepted:  s.accepted.Load(),
		Active:    s.active.Load(),
		Intents:   s.intents.Load(),
		Malformed: make(map[string]uint64, len(s.malformed)),
	}
	for code, c := range s.malformed {
		st.Malformed[code] = c.Load()
	}
	return st
}

func (s *Server) countMalformed(code string) {
	if c := s.malformed[code]; c != nil {
		c.Add(1)
	}
}

// Handler upgrades the request and serves one player until the socket closes.
// Query params: name (display name), encoding (json|msgpack for world updates).
func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		enc, err := protocol.ParseEncoding(r.URL.Query().Get("encoding"))
		if err != nil {
			http.Error(rw, err.Error(), http.StatusBadRequest)
			return
		}
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.SetReadLimit(maxFrame)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		out := make(chan []byte, s.world.ClientQueue())
		playerID, err := s.join(ctx, r.URL.Query().Get("name"), enc, out)
		if err != nil {
			s.logf("join: %v", err)
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "server busy"), time.Now().Add(time.Second))
			return
		}
		s.accepted.Add(1)
		s.active.Add(1)
		defer s.active.Add(-1)

		// assign_id always precedes the first world update.
		if err := writeFrame(conn, enc, protocol.AssignIDMsg{Type: protocol.TypeAssignID, ID: playerID}); err != nil {
			s.leave(playerID)
			return
		}

		go s.writeLoop(ctx, cancel, conn, enc, out)

		s.readLoop(ctx, conn, playerID)
		cancel()

		// Cleanup.
		s.leave(playerID)
	}
}

func (s *Server) join(ctx context.Context, name string, enc protocol.Encoding, out chan []byte) (string, error) {
	resp := make(chan world.JoinResponse, 1)
	req := world.JoinRequest{Name: name, Encoding: enc, Out: out, Resp: resp}

	timer := time.NewTimer(joinTimeout)
	defer timer.Stop()

	select {
	case s.world.Join() <- req:
	case <-timer.C:
		return "", errors.New("join queue full")
	case <-ctx.Done():
		return "", ctx.Err()
	}

	select {
	case r := <-resp:
		return r.AssignID.ID, nil
	case <-timer.C:
	case <-ctx.Done():
	}
	// The world still owns the request; remove the player once it shows up.
	go func() {
		select {
		case r := <-resp:
			s.leave(r.AssignID.ID)
		case <-time.After(joinTimeout):
		}
	}()
	return "", errors.New("join not acknowledged")
}

func (s *Server) writeLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, enc protocol.Encoding, out <-chan []byte) {
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	msgType := websocket.TextMessage
	if enc.Binary() {
		msgType = websocket.BinaryMessage
	}
	for {
		select {
		case <-ctx.Done():
			return
		case b, ok := <-out:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(msgType, b); err != nil {
				cancel()
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				cancel()
				return
			}
		}
	}
}

func (s *Server) readLoop(ctx context.Context, conn *websocket.Conn, playerID string) {
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		mt, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		if mt != websocket.TextMessage {
			s.countMalformed(protocol.ErrProtoBadRequest)
			continue
		}
		m, err := protocol.DecodeClient(msg)
		if err != nil {
			var de *protocol.DecodeError
			if errors.As(err, &de) {
				s.countMalformed(de.Code)
			}
			continue
		}
		select {
		case s.world.Inbox() <- world.IntentEnvelope{PlayerID: playerID, Msg: m}:
			s.intents.Add(1)
		case <-ctx.Done():
			return
		}
	}
}

func writeFrame(conn *websocket.Conn, enc protocol.Encoding, v any) error {
	b, err := protocol.Marshal(enc, v)
	if err != nil {
		return err
	}
	msgType := websocket.TextMessage
	if enc.Binary() {
		msgType = websocket.BinaryMessage
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(msgType, b)
}

// leave queues a player removal. Once the world loop has stopped the queue
// is never drained, so the send gives up after leaveTimeout.
func (s *Server) leave(playerID string) bool {
	timer := time.NewTimer(leaveTimeout)
	defer timer.Stop()
	select {
	case s.world.Leave() <- playerID:
		return true
	case <-timer.C:
		s.logf("leave %s dropped: world not draining", playerID)
		return false
	}
}

func (s *Server) logf(format string, args ...any) {
	if s.log != nil {
		s.log.Printf(format, args...)
	}
}
