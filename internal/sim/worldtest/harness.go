package worldtest

import (
	"encoding/json"
	"testing"

	"gridsnake.io/internal/protocol"
	"gridsnake.io/internal/sim/world"
)

// Harness drives a world through its exported API only: joins, intents and
// ticks go through StepOnce, and every session keeps the last world_update it
// was sent. Tests that live outside the world package use it.
type Harness struct {
	T *testing.T
	W *world.World

	sessions map[string]*session
	pending  []world.IntentEnvelope
	digest   string
}

type session struct {
	ID   string
	Out  chan []byte
	last protocol.WorldUpdateMsg
}

func NewHarness(t *testing.T, cfg world.WorldConfig) *Harness {
	t.Helper()
	w, err := world.New(cfg)
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	return &Harness{T: t, W: w, sessions: map[string]*session{}}
}

// Join adds a player with a server-assigned id and runs the joining tick.
func (h *Harness) Join(name string) string {
	h.T.Helper()
	return h.JoinAs("", name)
}

// JoinAs requests a fixed player id so two harnesses stay comparable.
func (h *Harness) JoinAs(id, name string) string {
	h.T.Helper()
	out := make(chan []byte, 16)
	resp := make(chan world.JoinResponse, 1)
	h.step([]world.JoinRequest{{Name: name, PlayerID: id, Out: out, Resp: resp}}, nil)
	jr := <-resp
	if jr.AssignID.ID == "" {
		h.T.Fatalf("join returned empty id")
	}
	s := &session{ID: jr.AssignID.ID, Out: out}
	h.sessions[s.ID] = s
	h.drain(s)
	return s.ID
}

// Leave removes a player at the next tick.
func (h *Harness) Leave(id string) {
	h.T.Helper()
	h.step(nil, []string{id})
	delete(h.sessions, id)
}

// Steer, Sprint and Restart queue an intent for the next Step, in call order.
func (h *Harness) Steer(id string, x, z int) { h.queue(id, protocol.DirectionChange(x, z)) }
func (h *Harness) Sprint(id string, on bool) { h.queue(id, protocol.SprintChange(on)) }
func (h *Harness) Restart(id string)         { h.queue(id, protocol.RestartGame()) }

func (h *Harness) queue(id string, m protocol.ClientMsg) {
	h.pending = append(h.pending, world.IntentEnvelope{PlayerID: id, Msg: m})
}

// Step runs one tick with the queued intents.
func (h *Harness) Step() {
	h.T.Helper()
	h.step(nil, nil)
}

func (h *Harness) StepN(n int) {
	h.T.Helper()
	for i := 0; i < n; i++ {
		h.step(nil, nil)
	}
}

// Digest is the state digest of the last tick.
func (h *Harness) Digest() string { return h.digest }

// Update returns the last world_update received by a session.
func (h *Harness) Update(id string) protocol.WorldUpdateMsg {
	h.T.Helper()
	s := h.sessions[id]
	if s == nil {
		h.T.Fatalf("unknown session %q", id)
	}
	return s.last
}

// Player returns id's own entry from the last update its session received.
func (h *Harness) Player(id string) protocol.PlayerState {
	h.T.Helper()
	for _, p := range h.Update(id).Players {
		if p.ID == id {
			return p
		}
	}
	h.T.Fatalf("player %q missing from its own update", id)
	return protocol.PlayerState{}
}

func (h *Harness) step(joins []world.JoinRequest, leaves []string) {
	h.T.Helper()
	intents := h.pending
	h.pending = nil
	_, h.digest = h.W.StepOnce(joins, leaves, intents)
	for _, s := range h.sessions {
		h.drain(s)
	}
}

func (h *Harness) drain(s *session) {
	h.T.Helper()
	var last []byte
	for {
		select {
		case b := <-s.Out:
			last = b
			continue
		default:
		}
		break
	}
	if len(last) == 0 {
		return
	}
	var upd protocol.WorldUpdateMsg
	if err := json.Unmarshal(last, &upd); err != nil {
		h.T.Fatalf("unmarshal world_update: %v", err)
	}
	s.last = upd
}
