package world

import (
	"time"

	"gridsnake.io/internal/persistence/snapshot"
	"gridsnake.io/internal/sim/grid"
)

// ExportSnapshot captures the current world as a debug snapshot labelled nowTick.
// It must be called from the world loop goroutine or while the world is stopped.
func (w *World) ExportSnapshot(nowTick uint64) snapshot.SnapshotV1 {
	ms := func(d time.Duration) int64 { return d.Milliseconds() }
	dir := func(d grid.Direction) [2]int { return [2]int{d.DX, d.DZ} }

	players := make([]snapshot.PlayerV1, 0, len(w.players))
	for _, p := range w.sortedPlayers() {
		body := make([][2]int, len(p.Snake))
		for i, c := range p.Snake {
			body[i] = cellPos(c)
		}
		players = append(players, snapshot.PlayerV1{
			ID:          p.ID,
			Name:        p.Name,
			Color:       p.Color,
			Snake:       body,
			Direction:   dir(p.Direction),
			Heading:     dir(p.Heading),
			Sprinting:   p.Sprinting,
			Dead:        p.Dead,
			Score:       p.Score,
			LastMoveMs:  ms(p.LastMove),
			SprintMoves: p.SprintMoves,
			DiedAtMs:    ms(p.DiedAt),
			DeathCause:  p.DeathCause,
		})
	}

	return snapshot.SnapshotV1{
		Header: snapshot.Header{
			Version: snapshot.Version,
			WorldID: w.cfg.ID,
			Tick:    nowTick,
		},
		Seed:                 w.cfg.Seed,
		GridSize:             w.cfg.GridSize,
		Digest:               w.stateDigest(nowTick),
		TickIntervalMs:       ms(w.cfg.TickInterval),
		MoveIntervalMs:       ms(w.cfg.MoveInterval),
		SprintMoveIntervalMs: ms(w.cfg.SprintMoveInterval),
		SprintShrinkEvery:    w.cfg.SprintShrinkEvery,
		MinSprintLength:      w.cfg.MinSprintLength,
		RespawnPolicy:        w.cfg.RespawnPolicy,
		RespawnDelayMs:       ms(w.cfg.RespawnDelay),
		SnapshotEveryTicks:   w.cfg.SnapshotEveryTicks,
		Food:                 cellPos(w.food),
		Players:              players,
		Counters: snapshot.CountersV1{
			FoodEaten: w.totals.FoodEaten,
			Deaths:    w.totals.Deaths,
			Respawns:  w.totals.Respawns,
			Joins:     w.totals.Joins,
			Leaves:    w.totals.Leaves,
		},
	}
}
