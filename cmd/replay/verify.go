package main

import (
	"errors"
	"fmt"
	"path/filepath"

	persistlog "gridsnake.io/internal/persistence/log"
	"gridsnake.io/internal/persistence/runmeta"
	"gridsnake.io/internal/persistence/snapshot"
	"gridsnake.io/internal/sim/world"
)

type options struct {
	FromTick uint64 // first tick whose digest is compared
	ToTick   uint64 // 0 = until the end of the journal
	Snapshot string // optional .snap.zst to compare against once reached
}

type result struct {
	Meta        runmeta.Meta
	Stepped     uint64
	Checked     uint64
	LastTick    uint64
	SnapshotHit bool
}

var errStop = errors.New("stop")

// verifyRun rebuilds the world recorded in runDir from its seed and tuning
// and re-executes the tick journal, comparing every digest.
func verifyRun(runDir string, opts options) (result, error) {
	meta, err := runmeta.Read(runDir)
	if err != nil {
		return result{}, fmt.Errorf("run meta: %w", err)
	}
	res := result{Meta: meta}

	w, err := world.New(world.ConfigFromTuning(meta.WorldID, meta.Seed, meta.Tuning))
	if err != nil {
		return res, fmt.Errorf("world: %w", err)
	}

	var snap *snapshot.SnapshotV1
	if opts.Snapshot != "" {
		s, err := snapshot.ReadSnapshot(opts.Snapshot)
		if err != nil {
			return res, fmt.Errorf("read snapshot: %w", err)
		}
		if s.Header.WorldID != meta.WorldID || s.Seed != meta.Seed {
			return res, fmt.Errorf("snapshot belongs to world=%s seed=%d, run is world=%s seed=%d", s.Header.WorldID, s.Seed, meta.WorldID, meta.Seed)
		}
		snap = &s
	}

	err = persistlog.ReadTicks(filepath.Join(runDir, "events"), func(entry world.TickLogEntry) error {
		if opts.ToTick != 0 && entry.Tick > opts.ToTick {
			return errStop
		}
		if entry.Tick != w.CurrentTick() {
			return fmt.Errorf("tick gap: journal has %d, world is at %d", entry.Tick, w.CurrentTick())
		}

		joins := make([]world.JoinRequest, 0, len(entry.Joins))
		for _, j := range entry.Joins {
			joins = append(joins, world.JoinRequest{Name: j.Name, PlayerID: j.PlayerID})
		}
		intents := make([]world.IntentEnvelope, 0, len(entry.Intents))
		for _, ri := range entry.Intents {
			intents = append(intents, world.IntentEnvelope{PlayerID: ri.PlayerID, Msg: ri.Msg})
		}

		tick, digest := w.StepOnce(joins, entry.Leaves, intents)
		res.Stepped++
		res.LastTick = tick
		if tick >= opts.FromTick {
			res.Checked++
			if digest != entry.Digest {
				return fmt.Errorf("digest mismatch at tick %d: got=%s want=%s", tick, digest, entry.Digest)
			}
		}
		if snap != nil && tick == snap.Header.Tick {
			res.SnapshotHit = true
			if digest != snap.Digest {
				return fmt.Errorf("snapshot digest mismatch at tick %d: got=%s want=%s", tick, digest, snap.Digest)
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, errStop) {
		return res, err
	}
	if snap != nil && !res.SnapshotHit {
		return res, fmt.Errorf("journal ended at tick %d before snapshot tick %d", res.LastTick, snap.Header.Tick)
	}
	return res, nil
}
