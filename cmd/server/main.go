package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	persistlog "gridsnake.io/internal/persistence/log"
	"gridsnake.io/internal/persistence/runmeta"
	"gridsnake.io/internal/persistence/snapshot"
	"gridsnake.io/internal/sim/tuning"
	"gridsnake.io/internal/sim/world"
	"gridsnake.io/internal/transport/observer"
	"gridsnake.io/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", defaultAddr(), "http listen address (default from PORT)")
		worldID    = flag.String("world", "world_1", "world id")
		seed       = flag.Int64("seed", 0, "world seed (0 picks one from the clock)")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "./configs/tuning.yaml", "path to tuning.yaml")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite read-model index")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	tune, err := tuning.Load(*tuningPath)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", *tuningPath)
		tune = tuning.Defaults()
	}

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	startedAt := time.Now().UTC()
	runDir := filepath.Join(*dataDir, "worlds", *worldID, "runs", startedAt.Format("20060102T150405Z"))
	if err := runmeta.Write(runDir, runmeta.Meta{WorldID: *worldID, Seed: *seed, StartedAt: startedAt, Tuning: tune}); err != nil {
		logger.Fatalf("write run meta: %v", err)
	}

	offsite, err := buildMirror(*dataDir, logger)
	if err != nil {
		logger.Fatalf("init mirror: %v", err)
	}
	defer offsite.Close()
	offsite.Enqueue(filepath.Join(runDir, runmeta.FileName))

	// Optional read-model index (does not affect sim determinism).
	idx, err := openRuntimeIndex(runDir, *disableDB)
	if err != nil {
		logger.Fatalf("open index backend: %v", err)
	}
	if idx != nil {
		defer idx.Close()
		if err := idx.UpsertRunMeta(*worldID, *seed, tune); err != nil {
			logger.Printf("index backend: upsert run meta: %v", err)
		}
	}

	w, err := world.New(world.ConfigFromTuning(*worldID, *seed, tune))
	if err != nil {
		logger.Fatalf("world: %v", err)
	}
	logger.Printf("world=%s seed=%d grid=%d run=%s", *worldID, *seed, tune.GridSize, runDir)

	ctx, cancel := signalContext()
	defer cancel()

	logOpts := persistlog.LoggerOptions{OnClose: offsite.Enqueue}
	tickLog := persistlog.NewTickLoggerWithOptions(runDir, logOpts)
	auditLog := persistlog.NewAuditLoggerWithOptions(runDir, logOpts)
	defer tickLog.Close()
	defer auditLog.Close()
	var tickIdx world.TickLogger
	var auditIdx world.AuditLogger
	if idx != nil {
		tickIdx, auditIdx = idx, idx
	}
	w.SetTickLogger(multiTickLogger{a: tickLog, b: tickIdx})
	w.SetAuditLogger(multiAuditLogger{a: auditLog, b: auditIdx})

	// Snapshot writer.
	snapCh := make(chan snapshot.SnapshotV1, 2)
	w.SetSnapshotSink(snapCh)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case snap := <-snapCh:
				path := snapshot.Path(filepath.Join(runDir, "snapshots"), snap.Header.Tick)
				if err := snapshot.WriteSnapshot(path, snap); err != nil {
					logger.Printf("snapshot write: %v", err)
					continue
				}
				offsite.Enqueue(path)
				if idx != nil {
					idx.RecordSnapshot(path, snap)
				}
			}
		}
	}()

	worldDone := make(chan struct{})
	go func() {
		defer close(worldDone)
		if err := w.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("world stopped: %v", err)
		}
	}()

	obs := observer.NewServer(w, logger)
	obs.AllowRemote = envBool("GS_OBSERVER_PUBLIC", false)
	rt := &serverRuntime{
		worldID:  *worldID,
		world:    w,
		ws:       ws.NewServer(w, logger),
		observer: obs,
		index:    idx,
		mirror:   offsite,
		logger:   logger,
	}
	mux := rt.routes(envBool("GS_ENABLE_ADMIN_HTTP", defaultEnableAdminHTTP()), envBool("GS_ENABLE_PPROF_HTTP", false))

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
	// Let the last tick finish before the deferred journal closes run.
	cancel()
	<-worldDone
	logger.Printf("stopped at tick %d", w.CurrentTick())
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func defaultAddr() string {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}
	return ":" + port
}

func defaultEnableAdminHTTP() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DEPLOY_ENV"))) {
	case "staging", "production":
		return false
	default:
		return true
	}
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

type multiTickLogger struct {
	a world.TickLogger
	b world.TickLogger
}

func (m multiTickLogger) WriteTick(entry world.TickLogEntry) error {
	if m.a != nil {
		_ = m.a.WriteTick(entry)
	}
	if m.b != nil {
		_ = m.b.WriteTick(entry)
	}
	return nil
}

type multiAuditLogger struct {
	a world.AuditLogger
	b world.AuditLogger
}

func (m multiAuditLogger) WriteAudit(entry world.AuditEntry) error {
	if m.a != nil {
		_ = m.a.WriteAudit(entry)
	}
	if m.b != nil {
		_ = m.b.WriteAudit(entry)
	}
	return nil
}
