package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"gridsnake.io/internal/protocol"
	"gridsnake.io/internal/sim/world"
)

func startServer(t *testing.T) (*world.World, *Server, string) {
	t.Helper()
	w, err := world.New(world.WorldConfig{
		ID:                 "test",
		Seed:               1,
		GridSize:           40,
		TickInterval:       10 * time.Millisecond,
		MoveInterval:       200 * time.Millisecond,
		SprintMoveInterval: 100 * time.Millisecond,
		ClientQueue:        4,
	})
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = w.Run(ctx) }()

	srv := NewServer(w, nil)
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/ws", srv.Handler())
	hs := httptest.NewServer(mux)
	t.Cleanup(func() {
		hs.Close()
		cancel()
	})
	return w, srv, "ws" + strings.TrimPrefix(hs.URL, "http") + "/v1/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	mt, b, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if mt != websocket.TextMessage {
		t.Fatalf("expected text frame, got %d", mt)
	}
	if err := json.Unmarshal(b, v); err != nil {
		t.Fatalf("decode %s: %v", b, err)
	}
}

// waitUpdate reads world updates until pred accepts one.
func waitUpdate(t *testing.T, conn *websocket.Conn, pred func(protocol.WorldUpdateMsg) bool) protocol.WorldUpdateMsg {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		var msg protocol.WorldUpdateMsg
		readJSON(t, conn, &msg)
		if msg.Type != protocol.TypeWorldUpdate {
			t.Fatalf("unexpected frame type %q", msg.Type)
		}
		if pred(msg) {
			return msg
		}
	}
	t.Fatalf("condition not met before deadline")
	return protocol.WorldUpdateMsg{}
}

func findPlayer(msg protocol.WorldUpdateMsg, id string) (protocol.PlayerState, bool) {
	for _, p := range msg.Players {
		if p.ID == id {
			return p, true
		}
	}
	return protocol.PlayerState{}, false
}

func TestServer_AssignIDThenWorldUpdates(t *testing.T) {
	_, _, url := startServer(t)
	conn := dial(t, url+"?name=alice")

	var assign protocol.AssignIDMsg
	readJSON(t, conn, &assign)
	if assign.Type != protocol.TypeAssignID || assign.ID == "" {
		t.Fatalf("first frame must be assign_id: %+v", assign)
	}

	msg := waitUpdate(t, conn, func(m protocol.WorldUpdateMsg) bool {
		_, ok := findPlayer(m, assign.ID)
		return ok
	})
	p, _ := findPlayer(msg, assign.ID)
	if p.Name != "alice" || len(p.Snake) != 1 || p.IsDead {
		t.Fatalf("player state: %+v", p)
	}
}

func TestServer_MalformedFramesIgnored(t *testing.T) {
	_, srv, url := startServer(t)
	conn := dial(t, url)

	var assign protocol.AssignIDMsg
	readJSON(t, conn, &assign)

	frames := []string{
		`not json`,
		`{"type":"teleport"}`,
		`{"type":"direction_change","direction":{"x":1,"z":1}}`,
		`{"type":"sprint_change"}`,
	}
	for _, f := range frames {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, []byte{0x01, 0x02}); err != nil {
		t.Fatalf("write binary: %v", err)
	}
	// A valid turn after the garbage still goes through on the same socket.
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"direction_change","direction":{"x":0,"y":0,"z":1}}`)); err != nil {
		t.Fatalf("write: %v", err)
	}

	waitUpdate(t, conn, func(m protocol.WorldUpdateMsg) bool {
		p, ok := findPlayer(m, assign.ID)
		return ok && p.Direction == protocol.Vec3{Z: 1}
	})

	st := srv.Stats()
	if st.Malformed[protocol.ErrProtoBadRequest] != 2 || st.Malformed[protocol.ErrUnknownType] != 1 ||
		st.Malformed[protocol.ErrBadDirection] != 1 || st.Malformed[protocol.ErrSchema] != 1 {
		t.Fatalf("malformed counters: %+v", st.Malformed)
	}
	if st.Intents != 1 || st.Active != 1 {
		t.Fatalf("stats: %+v", st)
	}
}

func TestServer_DisconnectRemovesPlayer(t *testing.T) {
	w, _, url := startServer(t)
	conn := dial(t, url)
	var assign protocol.AssignIDMsg
	readJSON(t, conn, &assign)
	waitUpdate(t, conn, func(protocol.WorldUpdateMsg) bool { return true })

	_ = conn.Close()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		m := w.Metrics()
		if m.Leaves == 1 && m.Players == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("player not removed after disconnect: %+v", w.Metrics())
}

func TestServer_MsgpackEncoding(t *testing.T) {
	_, _, url := startServer(t)
	conn := dial(t, url+"?encoding=msgpack&name=bot")

	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	mt, b, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if mt != websocket.BinaryMessage {
		t.Fatalf("expected binary frame, got %d", mt)
	}
	var assign protocol.AssignIDMsg
	if err := protocol.Unmarshal(protocol.EncodingMsgpack, b, &assign); err != nil || assign.Type != protocol.TypeAssignID {
		t.Fatalf("assign_id: %+v err=%v", assign, err)
	}

	_, b, err = conn.ReadMessage()
	if err != nil {
		t.Fatalf("read update: %v", err)
	}
	var msg protocol.WorldUpdateMsg
	if err := protocol.Unmarshal(protocol.EncodingMsgpack, b, &msg); err != nil || msg.Type != protocol.TypeWorldUpdate {
		t.Fatalf("world_update: %+v err=%v", msg, err)
	}
}

func TestServer_RejectsUnknownEncoding(t *testing.T) {
	_, _, url := startServer(t)
	_, resp, err := websocket.DefaultDialer.Dial(url+"?encoding=xml", nil)
	if err == nil {
		t.Fatalf("expected dial failure")
	}
	if resp == nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %+v", resp)
	}
}

func TestServer_LeaveGivesUpWhenWorldStopped(t *testing.T) {
	w, err := world.New(world.WorldConfig{ID: "stopped", Seed: 1})
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	srv := NewServer(w, nil)
	// No loop drains the queue: fill it, then the next send must time out.
	for i := 0; i < cap(w.Leave()); i++ {
		if !srv.leave(fmt.Sprintf("p%d", i)) {
			t.Fatalf("leave %d should fit in the queue", i)
		}
	}
	done := make(chan bool, 1)
	go func() { done <- srv.leave("late") }()
	select {
	case ok := <-done:
		if ok {
			t.Fatalf("leave should not be queued past capacity")
		}
	case <-time.After(5 * leaveTimeout):
		t.Fatalf("leave blocked after the world stopped")
	}
}
