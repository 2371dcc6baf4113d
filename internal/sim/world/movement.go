package world

import (
	"time"

	"gridsnake.io/internal/sim/grid"
	"gridsnake.io/internal/sim/tuning"
)

type plannedMove struct {
	p    *Player
	head grid.Cell
}

func (w *World) moveInterval(p *Player) time.Duration {
	if p.Sprinting {
		return w.cfg.SprintMoveInterval
	}
	return w.cfg.MoveInterval
}

// systemRespawn revives dead players under the timer policy.
func (w *World) systemRespawn(nowTick uint64) []string {
	if w.cfg.RespawnPolicy != tuning.RespawnTimer {
		return nil
	}
	now := w.now(nowTick)
	var out []string
	for _, p := range w.sortedPlayers() {
		if p.Dead && now-p.DiedAt >= w.cfg.RespawnDelay {
			w.respawn(p, nowTick)
			out = append(out, p.ID)
		}
	}
	return out
}

// systemMovement advances every due player by one cell. Collisions are judged
// against the occupancy from before anyone moved, so the result does not
// depend on the order players are visited in.
func (w *World) systemMovement(nowTick uint64) []RecordedDeath {
	now := w.now(nowTick)
	players := w.sortedPlayers()
	ix := BuildCollisionIndex(players)

	var deaths []RecordedDeath
	die := func(p *Player, cause string) {
		p.kill(cause, now)
		deaths = append(deaths, RecordedDeath{
			PlayerID: p.ID,
			Cause:    cause,
			Score:    p.Score,
			Length:   p.Len(),
			Head:     cellPos(p.Head()),
		})
	}

	moves := make([]plannedMove, 0, len(players))
	for _, p := range players {
		if p.Dead || now-p.LastMove < w.moveInterval(p) {
			continue
		}
		head := p.Head().Add(p.Direction)
		if !w.grid.InBounds(head) {
			die(p, CauseWall)
			continue
		}
		if occ := ix.Occupants(head); len(occ) > 0 {
			cause := CauseCollision
			for _, id := range occ {
				if id == p.ID {
					cause = CauseSelf
					break
				}
			}
			die(p, cause)
			continue
		}
		moves = append(moves, plannedMove{p: p, head: head})
	}

	targets := make(map[grid.Cell]int, len(moves))
	for _, m := range moves {
		targets[m.head]++
	}

	eaten := false
	for _, m := range moves {
		if targets[m.head] > 1 {
			die(m.p, CauseHeadOn)
			continue
		}
		if w.advance(m.p, m.head, now) {
			eaten = true
			w.totals.FoodEaten++
			w.audit(AuditEntry{Tick: nowTick, Actor: m.p.ID, Action: "FOOD", Pos: cellPos(m.head), Details: map[string]any{"score": m.p.Score}})
		}
	}
	if eaten {
		w.replaceFood()
	}

	for _, d := range deaths {
		w.totals.Deaths++
		w.totals.DeathsByCause[d.Cause]++
		w.audit(AuditEntry{Tick: nowTick, Actor: d.PlayerID, Action: "DEATH", Pos: d.Head, Reason: d.Cause, Details: map[string]any{"score": d.Score, "length": d.Length}})
	}
	return deaths
}

// advance moves p onto head and reports whether it ate the food.
func (w *World) advance(p *Player, head grid.Cell, now time.Duration) bool {
	p.Snake = append(p.Snake, grid.Cell{})
	copy(p.Snake[1:], p.Snake)
	p.Snake[0] = head
	p.Heading = p.Direction
	p.LastMove = now
	if p.Sprinting {
		p.SprintMoves++
	}

	if head == w.food {
		p.Score++
		return true
	}
	p.Snake = p.Snake[:len(p.Snake)-1]
	every := w.cfg.SprintShrinkEvery
	if p.Sprinting && every > 0 && p.SprintMoves%every == 0 && len(p.Snake) > w.cfg.MinSprintLength {
		p.Snake = p.Snake[:len(p.Snake)-1]
	}
	return false
}

// replaceFood draws a new food cell. Occupancy is not checked, but the new
// cell always differs from the one just eaten.
func (w *World) replaceFood() {
	old := w.food
	for w.food == old {
		w.food = w.grid.RandomCell(w.rng)
	}
}
