package main

import (
	"gridsnake.io/internal/protocol"
)

var headings = []protocol.Vec3{{X: 1}, {X: -1}, {Z: 1}, {Z: -1}}

type cell struct{ x, z int }

// choose picks the next heading for self: never a reversal, never off the
// board or into a body when a safe option exists, and otherwise the step that
// closes the Manhattan distance to food. ok is false when nothing changes.
func choose(self protocol.PlayerState, upd protocol.WorldUpdateMsg, gridSize int) (dir protocol.Vec3, ok bool) {
	if len(self.Snake) == 0 {
		return protocol.Vec3{}, false
	}
	head := self.Snake[0]
	half := gridSize / 2

	blocked := map[cell]bool{}
	for _, p := range upd.Players {
		if p.IsDead {
			continue
		}
		for _, c := range p.Snake {
			blocked[cell{c.X, c.Z}] = true
		}
	}

	best, bestScore := protocol.Vec3{}, -1<<31
	for _, d := range headings {
		if d.X == -self.Direction.X && d.Z == -self.Direction.Z {
			continue
		}
		nx, nz := head.X+d.X, head.Z+d.Z
		score := 0
		if nx < -half || nx >= half || nz < -half || nz >= half {
			score -= 1000
		}
		if blocked[cell{nx, nz}] {
			score -= 500
		}
		score -= abs(upd.Food.X-nx) + abs(upd.Food.Z-nz)
		if d == self.Direction {
			// Prefer going straight on ties.
			score++
		}
		if score > bestScore {
			best, bestScore = d, score
		}
	}
	if best == self.Direction {
		return best, false
	}
	return best, true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
