package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/http/pprof"
	"sort"
	"strings"
	"time"

	"gridsnake.io/internal/persistence/mirror"
	"gridsnake.io/internal/sim/world"
	"gridsnake.io/internal/transport/observer"
	"gridsnake.io/internal/transport/ws"
)

type serverRuntime struct {
	worldID  string
	world    *world.World
	ws       *ws.Server
	observer *observer.Server
	index    runtimeIndex
	mirror   *mirror.Mirror
	logger   *log.Logger
}

func (rt *serverRuntime) routes(enableAdmin, enablePprof bool) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", rt.handleMetrics)

	// Browser clients dial the bare origin; /v1/ws is the canonical path.
	wsHandler := rt.ws.Handler()
	mux.HandleFunc("/v1/ws", wsHandler)
	mux.HandleFunc("/", func(rw http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(rw, r)
			return
		}
		wsHandler(rw, r)
	})

	mux.HandleFunc("/v1/observer/bootstrap", rt.observer.BootstrapHandler())
	mux.HandleFunc("/v1/observer/ws", rt.observer.WSHandler())

	if enableAdmin {
		// Local-only admin endpoints (do not affect simulation determinism).
		mux.HandleFunc("/admin/v1/state", rt.handleAdminState)
		mux.HandleFunc("/admin/v1/snapshot", rt.handleAdminSnapshot)
	} else {
		rt.logf("admin endpoints disabled (GS_ENABLE_ADMIN_HTTP=false)")
	}
	if enablePprof {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	} else {
		rt.logf("pprof endpoints disabled (GS_ENABLE_PPROF_HTTP=false)")
	}
	return mux
}

// adminState is the body of GET /admin/v1/state.
type adminState struct {
	WorldID   string             `json:"world_id"`
	Tick      uint64             `json:"tick"`
	Metrics   world.WorldMetrics `json:"metrics"`
	Transport ws.Stats           `json:"transport"`
	Observers int64              `json:"observers"`
	Index     any                `json:"index,omitempty"`
	Mirror    *mirror.Stats      `json:"mirror,omitempty"`
}

func (rt *serverRuntime) handleAdminState(rw http.ResponseWriter, r *http.Request) {
	if !isLoopbackRemote(r.RemoteAddr) {
		http.Error(rw, "forbidden", http.StatusForbidden)
		return
	}
	resp := adminState{
		WorldID:   rt.worldID,
		Tick:      rt.world.CurrentTick(),
		Metrics:   rt.world.Metrics(),
		Transport: rt.ws.Stats(),
		Observers: rt.observer.Active(),
	}
	if rt.index != nil {
		resp.Index = rt.index.Stats()
	}
	if rt.mirror != nil {
		s := rt.mirror.Stats()
		resp.Mirror = &s
	}
	rw.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(rw).Encode(resp)
}

func (rt *serverRuntime) handleAdminSnapshot(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		rw.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !isLoopbackRemote(r.RemoteAddr) {
		http.Error(rw, "forbidden", http.StatusForbidden)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	ack, err := rt.world.RequestSnapshot(ctx)
	rw.Header().Set("Content-Type", "application/json")
	if err != nil {
		rw.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(rw).Encode(map[string]any{"ok": false, "tick": ack.Tick, "error": err.Error()})
		return
	}
	_ = json.NewEncoder(rw).Encode(map[string]any{"ok": true, "tick": ack.Tick, "players": ack.Players, "digest": ack.Digest})
}

func (rt *serverRuntime) handleMetrics(rw http.ResponseWriter, r *http.Request) {
	rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

	m := rt.world.Metrics()
	tick := rt.world.CurrentTick()
	if m.Tick != 0 {
		tick = m.Tick
	}
	id := rt.worldID

	// Minimal Prometheus exposition format.
	gauge(rw, "gridsnake_world_tick", "Current world tick.")
	fmt.Fprintf(rw, "gridsnake_world_tick{world=%q} %d\n", id, tick)

	gauge(rw, "gridsnake_world_players", "Players in the world, dead or alive.")
	fmt.Fprintf(rw, "gridsnake_world_players{world=%q} %d\n", id, m.Players)

	gauge(rw, "gridsnake_world_alive", "Living snakes.")
	fmt.Fprintf(rw, "gridsnake_world_alive{world=%q} %d\n", id, m.Alive)

	gauge(rw, "gridsnake_world_clients", "Connected player sessions.")
	fmt.Fprintf(rw, "gridsnake_world_clients{world=%q} %d\n", id, m.Clients)

	gauge(rw, "gridsnake_world_observers", "Connected observer sessions.")
	fmt.Fprintf(rw, "gridsnake_world_observers{world=%q} %d\n", id, m.Observers)

	gauge(rw, "gridsnake_world_queue_depth", "Channel backlog depth.")
	fmt.Fprintf(rw, "gridsnake_world_queue_depth{world=%q,queue=%q} %d\n", id, "inbox", m.QueueDepths.Inbox)
	fmt.Fprintf(rw, "gridsnake_world_queue_depth{world=%q,queue=%q} %d\n", id, "join", m.QueueDepths.Join)
	fmt.Fprintf(rw, "gridsnake_world_queue_depth{world=%q,queue=%q} %d\n", id, "leave", m.QueueDepths.Leave)

	gauge(rw, "gridsnake_world_step_ms", "Last tick step duration in milliseconds.")
	fmt.Fprintf(rw, "gridsnake_world_step_ms{world=%q} %.3f\n", id, m.StepMS)

	gauge(rw, "gridsnake_world_top_score", "Highest score among current players.")
	fmt.Fprintf(rw, "gridsnake_world_top_score{world=%q} %d\n", id, m.TopScore)

	counter(rw, "gridsnake_food_eaten_total", "Food items eaten.")
	fmt.Fprintf(rw, "gridsnake_food_eaten_total{world=%q} %d\n", id, m.FoodEaten)

	counter(rw, "gridsnake_deaths_total", "Snake deaths by cause.")
	for _, cause := range sortedKeys(m.DeathsByCause) {
		fmt.Fprintf(rw, "gridsnake_deaths_total{world=%q,cause=%q} %d\n", id, cause, m.DeathsByCause[cause])
	}

	counter(rw, "gridsnake_respawns_total", "Respawns.")
	fmt.Fprintf(rw, "gridsnake_respawns_total{world=%q} %d\n", id, m.Respawns)

	counter(rw, "gridsnake_joins_total", "Players joined.")
	fmt.Fprintf(rw, "gridsnake_joins_total{world=%q} %d\n", id, m.Joins)

	counter(rw, "gridsnake_leaves_total", "Players left.")
	fmt.Fprintf(rw, "gridsnake_leaves_total{world=%q} %d\n", id, m.Leaves)

	ts := rt.ws.Stats()
	counter(rw, "gridsnake_ws_accepted_total", "Accepted websocket sessions.")
	fmt.Fprintf(rw, "gridsnake_ws_accepted_total %d\n", ts.Accepted)
	counter(rw, "gridsnake_ws_intents_total", "Intents forwarded to the world.")
	fmt.Fprintf(rw, "gridsnake_ws_intents_total %d\n", ts.Intents)
	counter(rw, "gridsnake_ws_malformed_total", "Inbound frames discarded, by rejection code.")
	for _, code := range sortedKeys(ts.Malformed) {
		fmt.Fprintf(rw, "gridsnake_ws_malformed_total{code=%q} %d\n", code, ts.Malformed[code])
	}

	if rt.index != nil {
		s := rt.index.Stats()
		gauge(rw, "gridsnake_index_queue_depth", "Index writer backlog.")
		fmt.Fprintf(rw, "gridsnake_index_queue_depth %d\n", s.QueueDepth)
		counter(rw, "gridsnake_index_dropped_total", "Index rows dropped under backpressure.")
		fmt.Fprintf(rw, "gridsnake_index_dropped_total{kind=%q} %d\n", "tick", s.DropTickTotal)
		fmt.Fprintf(rw, "gridsnake_index_dropped_total{kind=%q} %d\n", "audit", s.DropAuditTotal)
		fmt.Fprintf(rw, "gridsnake_index_dropped_total{kind=%q} %d\n", "snapshot", s.DropSnapshotTotal)
	}

	if rt.mirror != nil {
		s := rt.mirror.Stats()
		gauge(rw, "gridsnake_mirror_queue_depth", "Offsite mirror queue depth.")
		fmt.Fprintf(rw, "gridsnake_mirror_queue_depth %d\n", s.QueueDepth)
		counter(rw, "gridsnake_mirror_uploaded_total", "Files uploaded offsite.")
		fmt.Fprintf(rw, "gridsnake_mirror_uploaded_total %d\n", s.Uploaded)
		counter(rw, "gridsnake_mirror_failed_total", "Uploads that failed after retries.")
		fmt.Fprintf(rw, "gridsnake_mirror_failed_total %d\n", s.Failed)
		counter(rw, "gridsnake_mirror_dropped_total", "Files dropped because the queue stayed full.")
		fmt.Fprintf(rw, "gridsnake_mirror_dropped_total %d\n", s.Dropped)
	}
}

func gauge(rw http.ResponseWriter, name, help string) {
	fmt.Fprintf(rw, "# HELP %s %s\n# TYPE %s gauge\n", name, help, name)
}

func counter(rw http.ResponseWriter, name, help string) {
	fmt.Fprintf(rw, "# HELP %s %s\n# TYPE %s counter\n", name, help, name)
}

func sortedKeys(m map[string]uint64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (rt *serverRuntime) logf(format string, args ...any) {
	if rt.logger != nil {
		rt.logger.Printf(format, args...)
	}
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
