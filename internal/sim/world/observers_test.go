package world

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"gridsnake.io/internal/protocol"
)

func TestObserver_ReceivesJSONWithoutJoining(t *testing.T) {
	w := newTestWorld(t, testConfig())
	ticks := make(chan time.Time)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.RunTicks(ctx, ticks) }()

	obs := make(chan []byte, 4)
	w.ObserverJoin() <- ObserverJoinRequest{SessionID: "O1", Out: obs}
	w.Join() <- JoinRequest{Name: "bob", Out: make(chan []byte, 4), Encoding: protocol.EncodingMsgpack}

	deadline := time.After(2 * time.Second)
	var msg protocol.WorldUpdateMsg
	for len(msg.Players) == 0 {
		select {
		case ticks <- time.Now():
		case b := <-obs:
			if err := json.Unmarshal(b, &msg); err != nil {
				t.Fatalf("observer frame is not JSON: %v", err)
			}
		case <-deadline:
			t.Fatalf("observer never saw the joined player")
		}
	}
	if msg.Players[0].Name != "bob" {
		t.Fatalf("unexpected players: %+v", msg.Players)
	}

	deadline = time.After(2 * time.Second)
	for w.Metrics().Players != 1 {
		select {
		case ticks <- time.Now():
		case <-obs:
		case <-deadline:
			t.Fatalf("metrics never caught up")
		}
	}
	if m := w.Metrics(); m.Clients != 1 || m.Observers != 1 {
		t.Fatalf("observer must not count as a player: %+v", m)
	}

	w.ObserverLeave() <- "O1"
	deadline = time.After(2 * time.Second)
	for w.Metrics().Observers != 0 {
		select {
		case ticks <- time.Now():
		case <-obs:
		case <-deadline:
			t.Fatalf("observer never removed")
		}
	}
}

func TestObserver_IgnoresIncompleteRequest(t *testing.T) {
	w := newTestWorld(t, testConfig())
	w.handleObserverJoin(ObserverJoinRequest{SessionID: "", Out: make(chan []byte, 1)})
	w.handleObserverJoin(ObserverJoinRequest{SessionID: "O2"})
	if len(w.observers) != 0 {
		t.Fatalf("incomplete requests registered: %d", len(w.observers))
	}
}
