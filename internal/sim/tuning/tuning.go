package tuning

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	RespawnRestart = "restart"
	RespawnTimer   = "timer"
)

type Tuning struct {
	GridSize       int `yaml:"grid_size"`
	TickDurationMs int `yaml:"tick_duration_ms"`

	MoveIntervalMs       int `yaml:"move_interval_ms"`
	SprintMoveIntervalMs int `yaml:"sprint_move_interval_ms"`
	SprintShrinkEvery    int `yaml:"sprint_shrink_every"`
	MinSprintLength      int `yaml:"min_sprint_length"`

	Respawn Respawn `yaml:"respawn"`

	ClientQueue        int `yaml:"client_queue"`
	SnapshotEveryTicks int `yaml:"snapshot_every_ticks"`
}

type Respawn struct {
	Policy  string `yaml:"policy"`
	DelayMs int    `yaml:"delay_ms"`
}

// Defaults mirrors configs/tuning.yaml.
func Defaults() Tuning {
	return Tuning{
		GridSize:             20,
		TickDurationMs:       50,
		MoveIntervalMs:       150,
		SprintMoveIntervalMs: 75,
		SprintShrinkEvery:    5,
		MinSprintLength:      2,
		Respawn: Respawn{
			Policy:  RespawnRestart,
			DelayMs: 3000,
		},
		ClientQueue:        8,
		SnapshotEveryTicks: 6000,
	}
}

// Load reads a tuning file. Keys absent from the file keep their default.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	t.Respawn.Policy = strings.ToLower(strings.TrimSpace(t.Respawn.Policy))
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

// TicksPerMove is the number of ticks a move interval of ms actually takes.
func (t Tuning) TicksPerMove(ms int) int {
	return (ms + t.TickDurationMs - 1) / t.TickDurationMs
}

func (t Tuning) Validate() error {
	if t.GridSize < 2 || t.GridSize%2 != 0 {
		return fmt.Errorf("grid_size must be an even number >= 2 (got %d)", t.GridSize)
	}
	if t.TickDurationMs <= 0 {
		return fmt.Errorf("tick_duration_ms must be > 0")
	}
	if t.MoveIntervalMs <= 0 || t.SprintMoveIntervalMs <= 0 {
		return fmt.Errorf("move intervals must be > 0")
	}
	if t.SprintMoveIntervalMs >= t.MoveIntervalMs {
		return fmt.Errorf("sprint_move_interval_ms (%d) must be smaller than move_interval_ms (%d)", t.SprintMoveIntervalMs, t.MoveIntervalMs)
	}
	// Moves land on tick boundaries, so sprint must be faster in whole ticks.
	if sprint, move := t.TicksPerMove(t.SprintMoveIntervalMs), t.TicksPerMove(t.MoveIntervalMs); sprint >= move {
		return fmt.Errorf("sprint_move_interval_ms (%d) and move_interval_ms (%d) both take %d ticks of %dms; sprint must take fewer", t.SprintMoveIntervalMs, t.MoveIntervalMs, move, t.TickDurationMs)
	}
	if t.SprintShrinkEvery < 0 {
		return fmt.Errorf("sprint_shrink_every must be >= 0")
	}
	if t.MinSprintLength < 2 {
		return fmt.Errorf("min_sprint_length must be >= 2 (got %d)", t.MinSprintLength)
	}
	switch t.Respawn.Policy {
	case RespawnRestart:
	case RespawnTimer:
		if t.Respawn.DelayMs <= 0 {
			return fmt.Errorf("respawn.delay_ms must be > 0 for the timer policy")
		}
	default:
		return fmt.Errorf("unknown respawn.policy %q", t.Respawn.Policy)
	}
	return nil
}
