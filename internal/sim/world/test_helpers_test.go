package world

import (
	"testing"
	"time"

	"gridsnake.io/internal/protocol"
	"gridsnake.io/internal/sim/grid"
	"gridsnake.io/internal/sim/tuning"
)

func testConfig() WorldConfig {
	return WorldConfig{
		ID:                 "test",
		Seed:               42,
		GridSize:           20,
		TickInterval:       150 * time.Millisecond,
		MoveInterval:       150 * time.Millisecond,
		SprintMoveInterval: 75 * time.Millisecond,
		SprintShrinkEvery:  5,
		MinSprintLength:    2,
		RespawnPolicy:      tuning.RespawnRestart,
		RespawnDelay:       300 * time.Millisecond,
	}
}

func newTestWorld(t *testing.T, cfg WorldConfig) *World {
	t.Helper()
	w, err := New(cfg)
	if err != nil {
		t.Fatalf("new world: %v", err)
	}
	// Park food in a corner so it does not interfere unless a test wants it.
	w.food = grid.Cell{X: -w.grid.Half(), Z: -w.grid.Half()}
	return w
}

// joinPlayers adds players with fixed ids in a single tick. The join tick
// itself never moves anyone, so callers can place snakes afterwards.
func joinPlayers(t *testing.T, w *World, ids ...string) []*Player {
	t.Helper()
	reqs := make([]JoinRequest, 0, len(ids))
	for _, id := range ids {
		reqs = append(reqs, JoinRequest{Name: id, PlayerID: id})
	}
	w.StepOnce(reqs, nil, nil)
	out := make([]*Player, 0, len(ids))
	for _, id := range ids {
		p := w.players[id]
		if p == nil {
			t.Fatalf("player %s not joined", id)
		}
		out = append(out, p)
	}
	return out
}

func joinAt(t *testing.T, w *World, id string, dir grid.Direction, body ...grid.Cell) *Player {
	t.Helper()
	p := joinPlayers(t, w, id)[0]
	place(p, dir, body...)
	return p
}

func place(p *Player, dir grid.Direction, body ...grid.Cell) {
	if len(body) > 0 {
		p.Snake = append([]grid.Cell(nil), body...)
	}
	p.Direction = dir
	p.Heading = dir
}

func steerMsg(d grid.Direction) protocol.ClientMsg {
	return protocol.DirectionChange(d.DX, d.DZ)
}

func intent(id string, m protocol.ClientMsg) IntentEnvelope {
	return IntentEnvelope{PlayerID: id, Msg: m}
}

func cells(xz ...int) []grid.Cell {
	out := make([]grid.Cell, 0, len(xz)/2)
	for i := 0; i+1 < len(xz); i += 2 {
		out = append(out, grid.Cell{X: xz[i], Z: xz[i+1]})
	}
	return out
}

func sameCells(a, b []grid.Cell) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

type captureLogger struct {
	ticks  []TickLogEntry
	audits []AuditEntry
}

func (c *captureLogger) WriteTick(e TickLogEntry) error {
	c.ticks = append(c.ticks, e)
	return nil
}

func (c *captureLogger) WriteAudit(e AuditEntry) error {
	c.audits = append(c.audits, e)
	return nil
}
