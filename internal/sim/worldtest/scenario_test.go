package worldtest

import (
	"testing"
	"time"

	"gridsnake.io/internal/protocol"
	"gridsnake.io/internal/sim/tuning"
	"gridsnake.io/internal/sim/world"
)

func cfg(seed int64) world.WorldConfig {
	return world.WorldConfig{
		ID:                 "scenario",
		Seed:               seed,
		GridSize:           20,
		TickInterval:       150 * time.Millisecond,
		MoveInterval:       150 * time.Millisecond,
		SprintMoveInterval: 75 * time.Millisecond,
		RespawnPolicy:      tuning.RespawnRestart,
	}
}

func TestScenario_RunIntoWallThenRestart(t *testing.T) {
	h := NewHarness(t, cfg(5))
	id := h.Join("runner")

	died := false
	for i := 0; i < 25 && !died; i++ {
		h.Step()
		died = h.Player(id).IsDead
	}
	if !died {
		t.Fatalf("a snake heading straight never hit the wall")
	}
	dead := h.Player(id)

	// Dead snakes stay on the board unchanged until restarted.
	h.StepN(3)
	if got := h.Player(id); len(got.Snake) != len(dead.Snake) || got.Snake[0] != dead.Snake[0] {
		t.Fatalf("dead snake changed: %+v -> %+v", dead.Snake, got.Snake)
	}

	h.Restart(id)
	h.Step()
	p := h.Player(id)
	if p.IsDead || p.Score != 0 || len(p.Snake) != 1 || p.Direction != (protocol.Vec3{X: 1}) {
		t.Fatalf("after restart: %+v", p)
	}
}

func TestScenario_ReversalIgnoredTurnApplied(t *testing.T) {
	h := NewHarness(t, cfg(6))
	id := h.Join("turner")

	h.Steer(id, -1, 0)
	h.Step()
	if d := h.Player(id).Direction; d != (protocol.Vec3{X: 1}) {
		t.Fatalf("reversal applied: %+v", d)
	}
	h.Steer(id, 0, 1)
	h.Step()
	if d := h.Player(id).Direction; d != (protocol.Vec3{Z: 1}) {
		t.Fatalf("turn not applied: %+v", d)
	}
}

func TestScenario_RestartWhileAliveIgnored(t *testing.T) {
	h := NewHarness(t, cfg(7))
	id := h.Join("alive")
	// Turn toward the far side along z so the next moves cannot reach a wall.
	if h.Player(id).Snake[0].Z >= 0 {
		h.Steer(id, 0, -1)
	} else {
		h.Steer(id, 0, 1)
	}
	h.Step()
	before := h.Player(id)
	if before.IsDead {
		t.Fatalf("snake died moving away from the wall: %+v", before)
	}
	h.Restart(id)
	h.Step()
	after := h.Player(id)
	if after.IsDead || len(after.Snake) < len(before.Snake) {
		t.Fatalf("restart affected a living snake: %+v -> %+v", before, after)
	}
}

func TestScenario_LeaveRemovesFromOthers(t *testing.T) {
	h := NewHarness(t, cfg(8))
	a := h.Join("a")
	b := h.Join("b")
	if n := len(h.Update(a).Players); n != 2 {
		t.Fatalf("players=%d want 2", n)
	}
	h.Leave(b)
	for _, p := range h.Update(a).Players {
		if p.ID == b {
			t.Fatalf("departed player still broadcast")
		}
	}
}

func TestScenario_SameInputsSameDigests(t *testing.T) {
	h1 := NewHarness(t, cfg(42))
	h2 := NewHarness(t, cfg(42))
	for _, h := range []*Harness{h1, h2} {
		h.JoinAs("p1", "one")
		h.JoinAs("p2", "two")
	}
	script := func(h *Harness, i int) {
		switch i % 11 {
		case 2:
			h.Steer("p1", 0, 1)
		case 5:
			h.Sprint("p2", true)
		case 7:
			h.Steer("p1", -1, 0)
			h.Steer("p2", 0, -1)
		case 9:
			h.Restart("p1")
			h.Restart("p2")
		}
	}
	for i := 0; i < 200; i++ {
		script(h1, i)
		script(h2, i)
		h1.Step()
		h2.Step()
		if h1.Digest() != h2.Digest() {
			t.Fatalf("digest diverged at step %d", i)
		}
	}

	h3 := NewHarness(t, cfg(43))
	h3.JoinAs("p1", "one")
	h3.JoinAs("p2", "two")
	for i := 0; i < 200; i++ {
		script(h3, i)
		h3.Step()
	}
	if h3.Digest() == h1.Digest() {
		t.Fatalf("different seeds produced the same final digest")
	}
}
