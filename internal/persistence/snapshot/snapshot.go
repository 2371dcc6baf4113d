package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

const Version = 1

type Header struct {
	Version int    `json:"version"`
	WorldID string `json:"world_id"`
	Tick    uint64 `json:"tick"`
}

// SnapshotV1 is a point-in-time dump of a snake world for debugging and
// offline inspection. Servers never resume from it.
type SnapshotV1 struct {
	Header Header `json:"header"`

	Seed     int64  `json:"seed"`
	GridSize int    `json:"grid_size"`
	Digest   string `json:"digest"`

	// Operational parameters in effect when the snapshot was taken.
	TickIntervalMs       int64  `json:"tick_interval_ms"`
	MoveIntervalMs       int64  `json:"move_interval_ms"`
	SprintMoveIntervalMs int64  `json:"sprint_move_interval_ms"`
	SprintShrinkEvery    int    `json:"sprint_shrink_every"`
	MinSprintLength      int    `json:"min_sprint_length"`
	RespawnPolicy        string `json:"respawn_policy"`
	RespawnDelayMs       int64  `json:"respawn_delay_ms,omitempty"`
	SnapshotEveryTicks   int    `json:"snapshot_every_ticks,omitempty"`

	Food    [2]int     `json:"food"`
	Players []PlayerV1 `json:"players"`

	Counters CountersV1 `json:"counters"`
}

type PlayerV1 struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`

	Snake     [][2]int `json:"snake"`
	Direction [2]int   `json:"direction"`
	Heading   [2]int   `json:"heading"`

	Sprinting bool `json:"sprinting"`
	Dead      bool `json:"dead"`
	Score     int  `json:"score"`

	LastMoveMs  int64  `json:"last_move_ms"`
	SprintMoves int    `json:"sprint_moves"`
	DiedAtMs    int64  `json:"died_at_ms,omitempty"`
	DeathCause  string `json:"death_cause,omitempty"`
}

type CountersV1 struct {
	FoodEaten uint64 `json:"food_eaten"`
	Deaths    uint64 `json:"deaths"`
	Respawns  uint64 `json:"respawns"`
	Joins     uint64 `json:"joins"`
	Leaves    uint64 `json:"leaves"`
}

// Path returns the canonical file name for a snapshot of tick.
func Path(dir string, tick uint64) string {
	return filepath.Join(dir, fmt.Sprintf("%d.snap.zst", tick))
}

func WriteSnapshot(path string, snap SnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer enc.Close()

	bw := bufio.NewWriterSize(enc, 256*1024)
	defer bw.Flush()

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}

	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	return nil
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	// Read header line (ignore it for now, gob also contains header).
	_, _ = br.ReadBytes('\n')

	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	return snap, nil
}
