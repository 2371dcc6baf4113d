package mirror

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeUploader struct {
	mu    sync.Mutex
	keys  []string
	fails int
}

func (f *fakeUploader) PutFile(_ context.Context, key, localPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fails > 0 {
		f.fails--
		return errors.New("transient")
	}
	if _, err := os.Stat(localPath); err != nil {
		return err
	}
	f.keys = append(f.keys, key)
	return nil
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestMirror_UploadsWithPrefixAndRetries(t *testing.T) {
	root := t.TempDir()
	p := filepath.Join(root, "worlds", "w1", "runs", "r1", "snapshots", "100.snap.zst")
	writeFile(t, p)

	up := &fakeUploader{fails: 2}
	m := New(up, root, Options{Prefix: "/backups/", Workers: 1, Backoff: time.Millisecond}, nil)
	m.Enqueue(p)
	m.Close()

	if len(up.keys) != 1 || up.keys[0] != "backups/worlds/w1/runs/r1/snapshots/100.snap.zst" {
		t.Fatalf("keys=%v", up.keys)
	}
	s := m.Stats()
	if s.Uploaded != 1 || s.Failed != 0 || s.Enqueued != 1 {
		t.Fatalf("stats=%+v", s)
	}
}

func TestMirror_GivesUpAfterAttempts(t *testing.T) {
	root := t.TempDir()
	p := filepath.Join(root, "a.jsonl.zst")
	writeFile(t, p)

	up := &fakeUploader{fails: 10}
	m := New(up, root, Options{Workers: 1, Attempts: 2, Backoff: time.Millisecond}, nil)
	m.Enqueue(p)
	m.Close()
	if s := m.Stats(); s.Failed != 1 || s.Uploaded != 0 || s.LastError == 0 {
		t.Fatalf("stats=%+v", s)
	}
}

func TestMirror_KeyRejectsOutsideRoot(t *testing.T) {
	root := t.TempDir()
	m := New(&fakeUploader{}, root, Options{}, nil)
	defer m.Close()
	if _, err := m.Key(filepath.Join(root, "..", "elsewhere")); err == nil {
		t.Fatalf("expected error for a path outside root")
	}
	if _, err := m.Key(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestMirror_NilIsNoop(t *testing.T) {
	var m *Mirror
	m.Enqueue("x")
	m.Close()
	if s := m.Stats(); s != (Stats{}) {
		t.Fatalf("stats=%+v", s)
	}
}

func TestS3Client_SignedPut(t *testing.T) {
	var gotPath, gotAuth, gotHash string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotAuth = r.Header.Get("Authorization")
		gotHash = r.Header.Get("x-amz-content-sha256")
		buf := make([]byte, 64)
		n, _ := r.Body.Read(buf)
		gotBody = buf[:n]
		rw.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, err := NewS3Client(S3Config{Endpoint: srv.URL, Bucket: "runs", AccessKeyID: "AK", SecretAccessKey: "SK"})
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	p := filepath.Join(t.TempDir(), "run.yaml")
	if err := os.WriteFile(p, []byte("abc"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := c.PutFile(context.Background(), "w 1/run.yaml", p); err != nil {
		t.Fatalf("put: %v", err)
	}
	if gotPath != "/runs/w%201/run.yaml" {
		t.Fatalf("path=%q", gotPath)
	}
	if !strings.HasPrefix(gotAuth, "AWS4-HMAC-SHA256 Credential=AK/") || !strings.Contains(gotAuth, "/auto/s3/aws4_request") {
		t.Fatalf("auth=%q", gotAuth)
	}
	// sha256("abc")
	if gotHash != "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad" {
		t.Fatalf("payload hash=%q", gotHash)
	}
	if string(gotBody) != "abc" {
		t.Fatalf("body=%q", gotBody)
	}
}

func TestS3Client_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		http.Error(rw, "denied", http.StatusForbidden)
	}))
	defer srv.Close()
	c, err := NewS3Client(S3Config{Endpoint: srv.URL, Bucket: "b", AccessKeyID: "a", SecretAccessKey: "s"})
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	p := filepath.Join(t.TempDir(), "f")
	if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := c.PutFile(context.Background(), "f", p); err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected 403 error, got %v", err)
	}
	if _, err := NewS3Client(S3Config{Endpoint: "x"}); err == nil {
		t.Fatalf("missing credentials accepted")
	}
}
