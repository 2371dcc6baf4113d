package world

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"gridsnake.io/internal/persistence/snapshot"
	"gridsnake.io/internal/protocol"
	"gridsnake.io/internal/sim/grid"
)

func TestRunTicks_JoinBroadcastAndLeave(t *testing.T) {
	w := newTestWorld(t, testConfig())
	ticks := make(chan time.Time)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.RunTicks(ctx, ticks) }()

	out := make(chan []byte, 4)
	resp := make(chan JoinResponse, 1)
	w.Join() <- JoinRequest{Name: "alice", Out: out, Resp: resp}

	var id string
	deadline := time.After(2 * time.Second)
	for id == "" {
		select {
		case ticks <- time.Now():
		case r := <-resp:
			id = r.AssignID.ID
		case <-deadline:
			t.Fatalf("join never acknowledged")
		}
	}

	var msg protocol.WorldUpdateMsg
	select {
	case b := <-out:
		if err := json.Unmarshal(b, &msg); err != nil {
			t.Fatalf("decode world_update: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no world_update")
	}
	if msg.Type != protocol.TypeWorldUpdate || len(msg.Players) != 1 || msg.Players[0].ID != id || msg.Players[0].Name != "alice" {
		t.Fatalf("unexpected update: %+v", msg)
	}

	w.Leave() <- id
	deadline = time.After(2 * time.Second)
	for w.Metrics().Leaves == 0 {
		select {
		case ticks <- time.Now():
		case <-deadline:
			t.Fatalf("leave never applied")
		}
	}

	cancel()
	if err := <-done; err != context.Canceled {
		t.Fatalf("run returned %v", err)
	}
}

func TestRunTicks_StopAndClosedTicks(t *testing.T) {
	w := newTestWorld(t, testConfig())
	ticks := make(chan time.Time)
	done := make(chan error, 1)
	go func() { done <- w.RunTicks(context.Background(), ticks) }()
	close(ticks)
	if err := <-done; err != nil {
		t.Fatalf("closed tick source: %v", err)
	}

	w2 := newTestWorld(t, testConfig())
	go func() { done <- w2.RunTicks(context.Background(), make(chan time.Time)) }()
	w2.Stop()
	if err := <-done; err != nil {
		t.Fatalf("stop: %v", err)
	}
}

func TestBroadcast_EncodesPerClientEncoding(t *testing.T) {
	w := newTestWorld(t, testConfig())
	jsonOut := make(chan []byte, 1)
	mpOut := make(chan []byte, 1)
	w.StepOnce([]JoinRequest{
		{PlayerID: "j", Out: jsonOut},
		{PlayerID: "m", Out: mpOut, Encoding: protocol.EncodingMsgpack},
	}, nil, nil)

	var viaJSON, viaMsgpack protocol.WorldUpdateMsg
	if err := json.Unmarshal(<-jsonOut, &viaJSON); err != nil {
		t.Fatalf("json: %v", err)
	}
	if err := protocol.Unmarshal(protocol.EncodingMsgpack, <-mpOut, &viaMsgpack); err != nil {
		t.Fatalf("msgpack: %v", err)
	}
	if len(viaJSON.Players) != 2 || len(viaMsgpack.Players) != 2 {
		t.Fatalf("players: %d / %d", len(viaJSON.Players), len(viaMsgpack.Players))
	}
	if viaJSON.Players[0].ID != "j" || viaJSON.Players[1].ID != "m" {
		t.Fatalf("players must be sorted by id: %+v", viaJSON.Players)
	}
	if viaJSON.Food != viaMsgpack.Food || viaJSON.Tick != 0 {
		t.Fatalf("encodings disagree: %+v vs %+v", viaJSON.Food, viaMsgpack.Food)
	}
}

func TestBroadcast_DeadPlayersIncluded(t *testing.T) {
	w := newTestWorld(t, testConfig())
	out := make(chan []byte, 1)
	w.StepOnce([]JoinRequest{{PlayerID: "a", Out: out}}, nil, nil)
	<-out
	place(w.players["a"], grid.Right, cells(9, 0, 8, 0)...)
	w.StepOnce(nil, nil, nil)

	var msg protocol.WorldUpdateMsg
	if err := json.Unmarshal(<-out, &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	p := msg.Players[0]
	if !p.IsDead || len(p.Snake) != 2 || p.Snake[0] != (protocol.Vec3{X: 9}) {
		t.Fatalf("dead player state: %+v", p)
	}
}

func TestSendLatest_DropsOldest(t *testing.T) {
	ch := make(chan []byte, 2)
	sendLatest(ch, []byte("1"))
	sendLatest(ch, []byte("2"))
	sendLatest(ch, []byte("3"))
	if got := string(<-ch); got != "2" {
		t.Fatalf("first=%s want 2", got)
	}
	if got := string(<-ch); got != "3" {
		t.Fatalf("second=%s want 3", got)
	}
}

func TestStep_TickLogAndAudit(t *testing.T) {
	log := &captureLogger{}
	w := newTestWorld(t, testConfig())
	w.SetTickLogger(log)
	w.SetAuditLogger(log)

	w.StepOnce([]JoinRequest{{Name: "a", PlayerID: "a"}}, nil, nil)
	place(w.players["a"], grid.Right, cells(9, 0)...)
	_, digest := w.StepOnce(nil, nil, []IntentEnvelope{intent("a", protocol.SprintChange(true))})

	if len(log.ticks) != 2 {
		t.Fatalf("tick entries=%d", len(log.ticks))
	}
	e := log.ticks[1]
	if e.Tick != 1 || e.Digest != digest || len(e.Intents) != 1 {
		t.Fatalf("entry: %+v", e)
	}
	if len(e.Deaths) != 1 || e.Deaths[0].Cause != CauseWall || e.Deaths[0].Head != [2]int{9, 0} {
		t.Fatalf("deaths: %+v", e.Deaths)
	}
	if log.ticks[0].Joins[0].PlayerID != "a" {
		t.Fatalf("joins: %+v", log.ticks[0].Joins)
	}
	var actions []string
	for _, a := range log.audits {
		actions = append(actions, a.Action)
	}
	if len(actions) != 2 || actions[0] != "JOIN" || actions[1] != "DEATH" {
		t.Fatalf("audit actions: %v", actions)
	}
	m := w.Metrics()
	if m.Tick != 2 || m.Deaths != 1 || m.DeathsByCause[CauseWall] != 1 || m.Alive != 0 {
		t.Fatalf("metrics: %+v", m)
	}
}

func TestSnapshotSink_PeriodicAndAdmin(t *testing.T) {
	cfg := testConfig()
	cfg.SnapshotEveryTicks = 3
	w := newTestWorld(t, cfg)
	sink := make(chan snapshot.SnapshotV1, 4)
	w.SetSnapshotSink(sink)

	w.StepOnce([]JoinRequest{{Name: "a", PlayerID: "a"}}, nil, nil)
	for i := 0; i < 3; i++ {
		w.StepOnce(nil, nil, nil)
	}
	select {
	case s := <-sink:
		if s.Header.Tick != 3 || len(s.Players) != 1 || s.Players[0].ID != "a" || s.GridSize != 20 {
			t.Fatalf("snapshot: %+v", s)
		}
		if s.Digest != w.stateDigest(3) {
			t.Fatalf("snapshot digest mismatch")
		}
	default:
		t.Fatalf("no periodic snapshot at tick 3")
	}

	// Only the admin request should produce snapshots from here on.
	w.cfg.SnapshotEveryTicks = 0
	ticks := make(chan time.Time)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.RunTicks(ctx, ticks) }()

	got := make(chan SnapshotAck, 1)
	go func() {
		ack, err := w.RequestSnapshot(ctx)
		if err != nil {
			t.Errorf("request snapshot: %v", err)
		}
		got <- ack
	}()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ticks <- time.Now():
			continue
		case ack := <-got:
			s := <-sink
			if s.Header.Tick != ack.Tick || s.Digest != ack.Digest || len(s.Players) != ack.Players {
				t.Fatalf("admin snapshot %+v does not match ack %+v", s.Header, ack)
			}
			return
		case <-deadline:
			t.Fatalf("admin snapshot never completed")
		}
	}
}

func TestRequestSnapshot_WithoutSink(t *testing.T) {
	w := newTestWorld(t, testConfig())
	ticks := make(chan time.Time)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.RunTicks(ctx, ticks) }()

	errc := make(chan error, 1)
	go func() {
		_, err := w.RequestSnapshot(ctx)
		errc <- err
	}()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ticks <- time.Now():
		case err := <-errc:
			if err != errNoSnapshotSink {
				t.Fatalf("err=%v want %v", err, errNoSnapshotSink)
			}
			return
		case <-deadline:
			t.Fatalf("request never answered")
		}
	}
}
