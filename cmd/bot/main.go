package main

import (
	"flag"
	"log"
	"net/url"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"

	"gridsnake.io/internal/protocol"
)

func main() {
	var (
		addr     = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name     = flag.String("name", "bot", "display name")
		encoding = flag.String("encoding", "json", "world_update encoding: json|msgpack")
		gridSize = flag.Int("grid", 20, "board size (must match the server tuning)")
		restart  = flag.Bool("restart", true, "send restart_game after dying")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)

	enc, err := protocol.ParseEncoding(*encoding)
	if err != nil {
		logger.Fatalf("%v", err)
	}
	u, err := url.Parse(*addr)
	if err != nil {
		logger.Fatalf("url: %v", err)
	}
	q := u.Query()
	q.Set("name", *name)
	q.Set("encoding", enc.String())
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	b := &bot{conn: conn, log: logger, gridSize: *gridSize, restart: *restart}
	if err := b.run(stop); err != nil {
		logger.Printf("disconnected: %v", err)
	}
}

type frame struct {
	mt  int
	msg []byte
}

// bot plays one connection. Only run's goroutine writes to conn; a separate
// goroutine reads.
type bot struct {
	conn     *websocket.Conn
	log      *log.Logger
	gridSize int
	restart  bool

	myID    string
	wasDead bool
}

// run returns nil after a clean shutdown on stop, or the read error that
// ended the connection.
func (b *bot) run(stop <-chan os.Signal) error {
	frames := make(chan frame, 16)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)

	go func() {
		for {
			mt, msg, err := b.conn.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}
			select {
			case frames <- frame{mt: mt, msg: msg}:
			case <-done:
				return
			}
		}
	}()

	for {
		select {
		case <-stop:
			_ = b.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))
			return nil
		case err := <-readErr:
			return err
		case f := <-frames:
			b.handle(f)
		}
	}
}

func (b *bot) handle(f frame) {
	frameEnc := protocol.EncodingJSON
	if f.mt == websocket.BinaryMessage {
		frameEnc = protocol.EncodingMsgpack
	}
	var base struct {
		Type string `json:"type" msgpack:"type"`
	}
	if err := protocol.Unmarshal(frameEnc, f.msg, &base); err != nil {
		return
	}
	switch base.Type {
	case protocol.TypeAssignID:
		var a protocol.AssignIDMsg
		if err := protocol.Unmarshal(frameEnc, f.msg, &a); err != nil {
			return
		}
		b.myID = a.ID
		b.log.Printf("assigned id=%s", b.myID)

	case protocol.TypeWorldUpdate:
		var upd protocol.WorldUpdateMsg
		if err := protocol.Unmarshal(frameEnc, f.msg, &upd); err != nil {
			return
		}
		self, found := findSelf(upd, b.myID)
		if !found {
			return
		}
		if self.IsDead {
			if !b.wasDead {
				b.log.Printf("died at tick=%d score=%d", upd.Tick, self.Score)
			}
			b.wasDead = true
			if b.restart {
				_ = b.conn.WriteJSON(protocol.RestartGame())
			}
			return
		}
		b.wasDead = false
		if d, ok := choose(self, upd, b.gridSize); ok {
			_ = b.conn.WriteJSON(protocol.DirectionChange(d.X, d.Z))
		}
	}
}

func findSelf(upd protocol.WorldUpdateMsg, id string) (protocol.PlayerState, bool) {
	for _, p := range upd.Players {
		if p.ID == id {
			return p, true
		}
	}
	return protocol.PlayerState{}, false
}
