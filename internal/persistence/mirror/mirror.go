package mirror

import (
	"context"
	"fmt"
	"log"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Uploader stores one local file under an object key.
type Uploader interface {
	PutFile(ctx context.Context, key, localPath string) error
}

type Options struct {
	Prefix      string
	Workers     int
	Queue       int
	EnqueueWait time.Duration
	Attempts    int
	// Backoff is the base delay between attempts; attempt n waits n*n*Backoff.
	Backoff time.Duration
}

type Stats struct {
	QueueDepth    int    `json:"queue_depth"`
	QueueCapacity int    `json:"queue_capacity"`
	Enqueued      uint64 `json:"enqueued_total"`
	Saturated     uint64 `json:"saturated_total"`
	Dropped       uint64 `json:"dropped_total"`
	Uploaded      uint64 `json:"uploaded_total"`
	Failed        uint64 `json:"failed_total"`
	LastSuccess   int64  `json:"last_success_unix"`
	LastError     int64  `json:"last_error_unix"`
}

// Mirror copies finished run artifacts (rotated journal segments, snapshots,
// run.yaml) off the host. Files are keyed by their path relative to root.
// Enqueue never blocks longer than EnqueueWait, so it is safe to call from
// the logger rotation path.
type Mirror struct {
	up     Uploader
	root   string
	opts   Options
	logger *log.Logger

	jobs chan string
	wg   sync.WaitGroup
	once sync.Once

	enqueued  atomic.Uint64
	saturated atomic.Uint64
	dropped   atomic.Uint64
	uploaded  atomic.Uint64
	failed    atomic.Uint64
	lastOK    atomic.Int64
	lastErr   atomic.Int64
}

func New(up Uploader, root string, opts Options, logger *log.Logger) *Mirror {
	if opts.Workers <= 0 {
		opts.Workers = 2
	}
	if opts.Queue <= 0 {
		opts.Queue = 1024
	}
	if opts.EnqueueWait <= 0 {
		opts.EnqueueWait = 25 * time.Millisecond
	}
	if opts.Attempts <= 0 {
		opts.Attempts = 4
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 200 * time.Millisecond
	}
	opts.Prefix = strings.Trim(strings.ReplaceAll(opts.Prefix, "\\", "/"), "/")

	m := &Mirror{
		up:     up,
		root:   root,
		opts:   opts,
		logger: logger,
		jobs:   make(chan string, opts.Queue),
	}
	for i := 0; i < opts.Workers; i++ {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			for p := range m.jobs {
				m.upload(p)
			}
		}()
	}
	return m
}

// Enqueue schedules localPath for upload. A nil Mirror ignores the call.
func (m *Mirror) Enqueue(localPath string) {
	if m == nil {
		return
	}
	m.enqueued.Add(1)
	select {
	case m.jobs <- localPath:
		return
	default:
	}
	m.saturated.Add(1)
	timer := time.NewTimer(m.opts.EnqueueWait)
	defer timer.Stop()
	select {
	case m.jobs <- localPath:
	case <-timer.C:
		n := m.dropped.Add(1)
		m.printf("mirror drop %s: queue saturated (dropped_total=%d)", localPath, n)
	}
}

// Close drains queued uploads and stops the workers.
func (m *Mirror) Close() {
	if m == nil {
		return
	}
	m.once.Do(func() {
		close(m.jobs)
		m.wg.Wait()
	})
}

func (m *Mirror) Stats() Stats {
	if m == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:    len(m.jobs),
		QueueCapacity: cap(m.jobs),
		Enqueued:      m.enqueued.Load(),
		Saturated:     m.saturated.Load(),
		Dropped:       m.dropped.Load(),
		Uploaded:      m.uploaded.Load(),
		Failed:        m.failed.Load(),
		LastSuccess:   m.lastOK.Load(),
		LastError:     m.lastErr.Load(),
	}
}

func (m *Mirror) upload(localPath string) {
	key, err := m.Key(localPath)
	if err != nil {
		m.failed.Add(1)
		m.lastErr.Store(time.Now().Unix())
		m.printf("mirror skip %s: %v", localPath, err)
		return
	}
	var lastErr error
	for attempt := 1; attempt <= m.opts.Attempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		lastErr = m.up.PutFile(ctx, key, localPath)
		cancel()
		if lastErr == nil {
			break
		}
		if attempt < m.opts.Attempts {
			time.Sleep(time.Duration(attempt*attempt) * m.opts.Backoff)
		}
	}
	if lastErr != nil {
		m.failed.Add(1)
		m.lastErr.Store(time.Now().Unix())
		m.printf("mirror upload %s failed: %v", key, lastErr)
		return
	}
	m.uploaded.Add(1)
	m.lastOK.Store(time.Now().Unix())
}

// Key maps a file under root to its object key.
func (m *Mirror) Key(localPath string) (string, error) {
	if localPath == "" {
		return "", fmt.Errorf("empty path")
	}
	absRoot, err := filepath.Abs(m.root)
	if err != nil {
		return "", err
	}
	absLocal, err := filepath.Abs(localPath)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(absRoot, absLocal)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("%s is outside %s", absLocal, absRoot)
	}
	if m.opts.Prefix != "" {
		rel = path.Join(m.opts.Prefix, rel)
	}
	return rel, nil
}

func (m *Mirror) printf(format string, args ...any) {
	if m.logger != nil {
		m.logger.Printf(format, args...)
	}
}
