package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gridsnake.io/internal/persistence/indexdb"
	"gridsnake.io/internal/persistence/snapshot"
	"gridsnake.io/internal/sim/tuning"
	"gridsnake.io/internal/sim/world"
)

type runtimeIndex interface {
	world.TickLogger
	world.AuditLogger
	Close() error
	Stats() indexdb.Stats
	UpsertRunMeta(worldID string, seed int64, tune tuning.Tuning) error
	RecordSnapshot(path string, snap snapshot.SnapshotV1)
}

func openRuntimeIndex(runDir string, disableDB bool) (runtimeIndex, error) {
	if disableDB {
		return nil, nil
	}

	backend := strings.ToLower(strings.TrimSpace(os.Getenv("GS_INDEX_BACKEND")))
	if backend == "" {
		backend = "sqlite"
	}

	switch backend {
	case "none", "off", "disabled":
		return nil, nil
	case "sqlite":
		return indexdb.OpenSQLite(filepath.Join(runDir, "index", "world.sqlite"))
	default:
		return nil, fmt.Errorf("unsupported GS_INDEX_BACKEND: %s", backend)
	}
}
