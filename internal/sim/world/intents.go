package world

import (
	"gridsnake.io/internal/protocol"
	"gridsnake.io/internal/sim/grid"
	"gridsnake.io/internal/sim/tuning"
)

// applyIntent mutates p according to one client intent and reports whether
// it had any effect. Rejected intents are dropped silently.
func (w *World) applyIntent(p *Player, m protocol.ClientMsg, nowTick uint64) bool {
	switch m.Type {
	case protocol.TypeDirectionChange:
		if m.Direction == nil {
			return false
		}
		return p.steer(grid.Direction{DX: m.Direction.X, DZ: m.Direction.Z})
	case protocol.TypeSprintChange:
		if m.IsSprinting == nil {
			return false
		}
		changed := p.Sprinting != *m.IsSprinting
		p.Sprinting = *m.IsSprinting
		return changed
	case protocol.TypeRestartGame:
		if !p.Dead || w.cfg.RespawnPolicy != tuning.RespawnRestart {
			return false
		}
		w.respawn(p, nowTick)
		return true
	}
	return false
}

// steer sets a new direction unless it would reverse the snake onto itself,
// measured against both the pending direction and the last executed move.
func (p *Player) steer(d grid.Direction) bool {
	if !d.Valid() {
		return false
	}
	if d == p.Direction.Opposite() || d == p.Heading.Opposite() {
		return false
	}
	if d == p.Direction {
		return false
	}
	p.Direction = d
	return true
}
