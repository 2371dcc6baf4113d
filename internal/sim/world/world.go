package world

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"gridsnake.io/internal/persistence/snapshot"
	"gridsnake.io/internal/protocol"
	"gridsnake.io/internal/sim/grid"
)

const maxNameLen = 32

// World is a single-threaded authoritative simulation.
// All state must be accessed only from the world loop goroutine.
type World struct {
	cfg  WorldConfig
	grid grid.Grid
	rng  *rand.Rand

	tick atomic.Uint64

	players map[string]*Player
	clients map[string]*clientState
	food    grid.Cell

	observers map[string]chan []byte

	inbox chan IntentEnvelope
	join  chan JoinRequest
	leave chan string
	admin chan adminSnapshotReq
	stop  chan struct{}

	observerJoin  chan ObserverJoinRequest
	observerLeave chan string

	// Optional loggers (may be nil). Implemented in internal/persistence/*.
	tickLogger  TickLogger
	auditLogger AuditLogger

	// Optional snapshot sink (may be nil). Snapshot writing should be off-thread.
	snapshotSink chan<- snapshot.SnapshotV1

	totals  runTotals
	metrics atomic.Value // WorldMetrics
}

type clientState struct {
	Out      chan []byte
	Encoding protocol.Encoding
}

type runTotals struct {
	FoodEaten     uint64
	Deaths        uint64
	DeathsByCause map[string]uint64
	Respawns      uint64
	Joins         uint64
	Leaves        uint64
}

func New(cfg WorldConfig) (*World, error) {
	cfg.applyDefaults()
	g := grid.Grid{Size: cfg.GridSize}
	if g.Size < 2 || g.Size%2 != 0 {
		return nil, fmt.Errorf("grid size must be an even number >= 2 (got %d)", g.Size)
	}
	if cfg.SprintMoveInterval >= cfg.MoveInterval {
		return nil, fmt.Errorf("sprint move interval %s must be shorter than move interval %s", cfg.SprintMoveInterval, cfg.MoveInterval)
	}
	w := &World{
		cfg:     cfg,
		grid:    g,
		rng:     rand.New(rand.NewSource(cfg.Seed)),
		players: map[string]*Player{},
		clients: map[string]*clientState{},
		inbox:   make(chan IntentEnvelope, 1024),
		join:    make(chan JoinRequest, 64),
		leave:   make(chan string, 64),
		admin:   make(chan adminSnapshotReq, 8),
		stop:    make(chan struct{}),
		totals:  runTotals{DeathsByCause: map[string]uint64{}},

		observers:     map[string]chan []byte{},
		observerJoin:  make(chan ObserverJoinRequest, 32),
		observerLeave: make(chan string, 32),
	}
	w.food = g.RandomCell(w.rng)
	w.metrics.Store(WorldMetrics{})
	return w, nil
}

func (w *World) SetTickLogger(l TickLogger)                    { w.tickLogger = l }
func (w *World) SetAuditLogger(l AuditLogger)                  { w.auditLogger = l }
func (w *World) SetSnapshotSink(ch chan<- snapshot.SnapshotV1) { w.snapshotSink = ch }

func (w *World) Inbox() chan<- IntentEnvelope { return w.inbox }
func (w *World) Join() chan<- JoinRequest     { return w.join }
func (w *World) Leave() chan<- string         { return w.leave }

func (w *World) CurrentTick() uint64 { return w.tick.Load() }

func (w *World) ID() string {
	if w == nil {
		return ""
	}
	return w.cfg.ID
}

func (w *World) Config() WorldConfig { return w.cfg }

// ClientQueue is the outbound buffer size transports should allocate per client.
func (w *World) ClientQueue() int { return w.cfg.ClientQueue }

// now is the virtual simulation time of a tick.
func (w *World) now(tick uint64) time.Duration {
	return time.Duration(tick) * w.cfg.TickInterval
}

func (w *World) sortedPlayerIDs() []string {
	ids := make([]string, 0, len(w.players))
	for id := range w.players {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (w *World) sortedPlayers() []*Player {
	ids := w.sortedPlayerIDs()
	out := make([]*Player, 0, len(ids))
	for _, id := range ids {
		out = append(out, w.players[id])
	}
	return out
}

func (w *World) joinPlayer(req JoinRequest, nowTick uint64) (*Player, JoinResponse) {
	id := strings.TrimSpace(req.PlayerID)
	if id == "" || w.players[id] != nil {
		id = uuid.NewString()
	}
	name := cleanName(req.Name)
	color := fmt.Sprintf("hsl(%d, 100%%, 50%%)", w.rng.Intn(360))
	p := newPlayer(id, name, color, w.grid.RandomCell(w.rng), w.now(nowTick))
	w.players[id] = p
	if req.Out != nil {
		w.clients[id] = &clientState{Out: req.Out, Encoding: req.Encoding}
	}
	w.totals.Joins++
	w.audit(AuditEntry{Tick: nowTick, Actor: id, Action: "JOIN", Pos: cellPos(p.Head()), Details: map[string]any{"name": name}})
	return p, JoinResponse{AssignID: protocol.AssignIDMsg{Type: protocol.TypeAssignID, ID: id}}
}

func (w *World) handleLeave(id string, nowTick uint64) bool {
	p := w.players[id]
	if p == nil {
		return false
	}
	delete(w.players, id)
	delete(w.clients, id)
	w.totals.Leaves++
	w.audit(AuditEntry{Tick: nowTick, Actor: id, Action: "LEAVE", Pos: cellPos(p.Head()), Details: map[string]any{"score": p.Score, "length": p.Len()}})
	return true
}

func (w *World) respawn(p *Player, nowTick uint64) {
	p.reset(w.grid.RandomCell(w.rng), w.now(nowTick))
	w.totals.Respawns++
	w.audit(AuditEntry{Tick: nowTick, Actor: p.ID, Action: "RESPAWN", Pos: cellPos(p.Head())})
}

func (w *World) audit(e AuditEntry) {
	if w.auditLogger == nil {
		return
	}
	_ = w.auditLogger.WriteAudit(e)
}

func cleanName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "snake"
	}
	if utf8.RuneCountInString(s) > maxNameLen {
		r := []rune(s)
		s = string(r[:maxNameLen])
	}
	return s
}

func cellPos(c grid.Cell) [2]int { return [2]int{c.X, c.Z} }

func mustf(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf("world invariant: "+format, args...))
	}
}
