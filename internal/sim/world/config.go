package world

import (
	"time"

	"gridsnake.io/internal/sim/tuning"
)

type WorldConfig struct {
	ID   string
	Seed int64

	GridSize     int
	TickInterval time.Duration

	MoveInterval       time.Duration
	SprintMoveInterval time.Duration
	SprintShrinkEvery  int
	MinSprintLength    int

	RespawnPolicy string
	RespawnDelay  time.Duration

	ClientQueue        int
	SnapshotEveryTicks int
}

// ConfigFromTuning maps a validated tuning file onto a world config.
func ConfigFromTuning(id string, seed int64, t tuning.Tuning) WorldConfig {
	ms := func(v int) time.Duration { return time.Duration(v) * time.Millisecond }
	return WorldConfig{
		ID:                 id,
		Seed:               seed,
		GridSize:           t.GridSize,
		TickInterval:       ms(t.TickDurationMs),
		MoveInterval:       ms(t.MoveIntervalMs),
		SprintMoveInterval: ms(t.SprintMoveIntervalMs),
		SprintShrinkEvery:  t.SprintShrinkEvery,
		MinSprintLength:    t.MinSprintLength,
		RespawnPolicy:      t.Respawn.Policy,
		RespawnDelay:       ms(t.Respawn.DelayMs),
		ClientQueue:        t.ClientQueue,
		SnapshotEveryTicks: t.SnapshotEveryTicks,
	}
}

func (cfg *WorldConfig) applyDefaults() {
	d := tuning.Defaults()
	if cfg.ID == "" {
		cfg.ID = "world_1"
	}
	if cfg.GridSize <= 0 {
		cfg.GridSize = d.GridSize
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Duration(d.TickDurationMs) * time.Millisecond
	}
	if cfg.MoveInterval <= 0 {
		cfg.MoveInterval = time.Duration(d.MoveIntervalMs) * time.Millisecond
	}
	if cfg.SprintMoveInterval <= 0 {
		cfg.SprintMoveInterval = time.Duration(d.SprintMoveIntervalMs) * time.Millisecond
	}
	if cfg.SprintShrinkEvery < 0 {
		cfg.SprintShrinkEvery = 0
	}
	if cfg.MinSprintLength < 2 {
		cfg.MinSprintLength = d.MinSprintLength
	}
	switch cfg.RespawnPolicy {
	case tuning.RespawnRestart, tuning.RespawnTimer:
	default:
		cfg.RespawnPolicy = tuning.RespawnRestart
	}
	if cfg.RespawnDelay <= 0 {
		cfg.RespawnDelay = time.Duration(d.Respawn.DelayMs) * time.Millisecond
	}
	if cfg.ClientQueue <= 0 {
		cfg.ClientQueue = d.ClientQueue
	}
	if cfg.SnapshotEveryTicks < 0 {
		cfg.SnapshotEveryTicks = 0
	}
}
