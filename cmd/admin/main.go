package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	persistlog "gridsnake.io/internal/persistence/log"
	"gridsnake.io/internal/persistence/runmeta"
	"gridsnake.io/internal/persistence/snapshot"
	"gridsnake.io/internal/sim/world"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "runs":
			runsCmd(os.Args[2:])
			return
		case "inspect":
			inspectCmd(os.Args[2:])
			return
		case "audit":
			auditCmd(os.Args[2:])
			return
		case "db":
			dbCmd(os.Args[2:])
			return
		case "state":
			stateCmd(os.Args[2:])
			return
		case "snapshot":
			snapshotCmd(os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	_ = fs.Parse(args)

	entries, err := os.ReadDir(filepath.Join(*dataDir, "worlds"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
	for _, e := range entries {
		if e.IsDir() {
			fmt.Println(e.Name())
		}
	}
}

func runsCmd(args []string) {
	fs := flag.NewFlagSet("runs", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "world_1", "world id")
	_ = fs.Parse(args)

	runs, err := listRuns(filepath.Join(*dataDir, "worlds", *worldID))
	if err != nil {
		fmt.Fprintln(os.Stderr, "runs:", err)
		os.Exit(1)
	}
	for _, dir := range runs {
		m, err := runmeta.Read(dir)
		if err != nil {
			fmt.Printf("%s\t(unreadable run.yaml: %v)\n", filepath.Base(dir), err)
			continue
		}
		fmt.Printf("%s\tseed=%d grid=%d respawn=%s started=%s\n",
			filepath.Base(dir), m.Seed, m.Tuning.GridSize, m.Tuning.Respawn.Policy, m.StartedAt.Format("2006-01-02T15:04:05Z"))
	}
}

// listRuns returns run directories of a world, oldest first. Run names are
// UTC timestamps so lexical order is chronological.
func listRuns(worldDir string) ([]string, error) {
	ents, err := os.ReadDir(filepath.Join(worldDir, "runs"))
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range ents {
		if e.IsDir() {
			out = append(out, filepath.Join(worldDir, "runs", e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}

// resolveRun picks the named run, or the latest one when run is empty.
func resolveRun(dataDir, worldID, run string) (string, error) {
	worldDir := filepath.Join(dataDir, "worlds", worldID)
	if run = strings.TrimSpace(run); run != "" {
		dir := filepath.Join(worldDir, "runs", run)
		if _, err := os.Stat(dir); err != nil {
			return "", err
		}
		return dir, nil
	}
	runs, err := listRuns(worldDir)
	if err != nil {
		return "", err
	}
	if len(runs) == 0 {
		return "", fmt.Errorf("no runs under %s", worldDir)
	}
	return runs[len(runs)-1], nil
}

func inspectCmd(args []string) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "print the whole snapshot as JSON")
	board := fs.Bool("board", true, "draw the board")
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: admin inspect [-json] [-board=false] <file.snap.zst>")
		os.Exit(2)
	}
	snap, err := snapshot.ReadSnapshot(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, "read snapshot:", err)
		os.Exit(1)
	}
	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(snap)
		return
	}
	fmt.Print(summarize(snap))
	if *board {
		fmt.Print(renderBoard(snap))
	}
}

func summarize(snap snapshot.SnapshotV1) string {
	var b strings.Builder
	fmt.Fprintf(&b, "snapshot v%d world=%s tick=%d seed=%d grid=%d respawn=%s players=%d food=%v digest=%s\n",
		snap.Header.Version, snap.Header.WorldID, snap.Header.Tick, snap.Seed, snap.GridSize,
		snap.RespawnPolicy, len(snap.Players), snap.Food, snap.Digest)
	fmt.Fprintf(&b, "totals food=%d deaths=%d respawns=%d joins=%d leaves=%d\n",
		snap.Counters.FoodEaten, snap.Counters.Deaths, snap.Counters.Respawns, snap.Counters.Joins, snap.Counters.Leaves)
	for _, p := range snap.Players {
		state := "alive"
		if p.Dead {
			state = "dead(" + p.DeathCause + ")"
		}
		fmt.Fprintf(&b, "  %s %-12q len=%d score=%d %s sprint=%v\n", p.ID, p.Name, len(p.Snake), p.Score, state, p.Sprinting)
	}
	return b.String()
}

// renderBoard draws the board with +z at the top. Player i is drawn with
// letter i: upper case head, lower case body. Food is '*'.
func renderBoard(snap snapshot.SnapshotV1) string {
	n := snap.GridSize
	if n <= 0 || n > 200 {
		return ""
	}
	half := n / 2
	rows := make([][]byte, n)
	for i := range rows {
		rows[i] = []byte(strings.Repeat(".", n))
	}
	put := func(c [2]int, ch byte) {
		x, z := c[0]+half, c[1]+half
		if x < 0 || x >= n || z < 0 || z >= n {
			return
		}
		rows[n-1-z][x] = ch
	}
	put(snap.Food, '*')
	for i, p := range snap.Players {
		if p.Dead || len(p.Snake) == 0 {
			continue
		}
		letter := byte('a' + i%26)
		for _, c := range p.Snake[1:] {
			put(c, letter)
		}
		put(p.Snake[0], letter-'a'+'A')
	}
	var b strings.Builder
	for _, r := range rows {
		b.Write(r)
		b.WriteByte('\n')
	}
	return b.String()
}

func auditCmd(args []string) {
	fs := flag.NewFlagSet("audit", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "world_1", "world id")
	run := fs.String("run", "", "run name (default: latest)")
	actor := fs.String("actor", "", "player id filter")
	action := fs.String("action", "", "action filter: JOIN, LEAVE, DEATH, RESPAWN, FOOD")
	since := fs.Uint64("since_tick", 0, "first tick (inclusive)")
	to := fs.Uint64("to_tick", 0, "last tick (inclusive, 0 = no limit)")
	_ = fs.Parse(args)

	runDir, err := resolveRun(*dataDir, *worldID, *run)
	if err != nil {
		fmt.Fprintln(os.Stderr, "run:", err)
		os.Exit(1)
	}
	f := auditFilter{Actor: *actor, Action: strings.ToUpper(*action), Since: *since, To: *to}
	enc := json.NewEncoder(os.Stdout)
	n, err := readAudit(filepath.Join(runDir, "audit"), f, func(e world.AuditEntry) error { return enc.Encode(e) })
	if err != nil {
		fmt.Fprintln(os.Stderr, "audit:", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "%d entries\n", n)
}

type auditFilter struct {
	Actor  string
	Action string
	Since  uint64
	To     uint64
}

func (f auditFilter) match(e world.AuditEntry) bool {
	if f.Actor != "" && e.Actor != f.Actor {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if e.Tick < f.Since {
		return false
	}
	return f.To == 0 || e.Tick <= f.To
}

func readAudit(dir string, f auditFilter, fn func(world.AuditEntry) error) (int, error) {
	files, err := persistlog.ListFiles(dir, "audit")
	if err != nil {
		return 0, err
	}
	n := 0
	for _, path := range files {
		err := persistlog.ReadJSONL(path, func(e world.AuditEntry) error {
			if !f.match(e) {
				return nil
			}
			n++
			return fn(e)
		})
		if err != nil {
			return n, err
		}
	}
	return n, nil
}
