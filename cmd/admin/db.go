package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gridsnake.io/internal/persistence/indexdb"
)

func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "world_1", "world id")
	run := fs.String("run", "", "run name (default: latest)")
	dbPath := fs.String("db", "", "sqlite db path (overrides -world/-run)")
	limit := fs.Int("limit", 20, "result limit")
	_ = fs.Parse(args)

	q := "snapshots"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}

	path := strings.TrimSpace(*dbPath)
	if path == "" {
		runDir, err := resolveRun(*dataDir, *worldID, *run)
		if err != nil {
			fmt.Fprintln(os.Stderr, "run:", err)
			os.Exit(1)
		}
		path = filepath.Join(runDir, "index", "world.sqlite")
	}

	db, err := indexdb.OpenReader(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var rows any
	switch q {
	case "snapshots":
		rows, err = indexdb.LatestSnapshots(ctx, db, *limit)
	case "deaths":
		rows, err = indexdb.RecentDeaths(ctx, db, *limit)
	case "leaderboard":
		rows, err = indexdb.Leaderboard(ctx, db, *limit)
	case "causes":
		rows, err = indexdb.DeathCauses(ctx, db)
	default:
		fmt.Fprintf(os.Stderr, "unknown query %q (snapshots|deaths|leaderboard|causes)\n", q)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
	if err := printJSONLines(rows); err != nil {
		fmt.Fprintln(os.Stderr, "print:", err)
		os.Exit(1)
	}
}

// printJSONLines prints one JSON object per row.
func printJSONLines(rows any) error {
	b, err := json.Marshal(rows)
	if err != nil {
		return err
	}
	var items []json.RawMessage
	if err := json.Unmarshal(b, &items); err != nil {
		return err
	}
	for _, it := range items {
		fmt.Println(string(it))
	}
	return nil
}
