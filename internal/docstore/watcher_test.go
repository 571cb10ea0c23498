package docstore

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/starford/vfxhub/internal/storage"
)

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func TestWatch_ReportsAtomicWriteOnce(t *testing.T) {
	dir := t.TempDir()
	fs, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	store := NewFiles(fs)
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var events []string
	go Watch(ctx, dir, logger, func(kind, key string) {
		mu.Lock()
		events = append(events, kind+":"+key)
		mu.Unlock()
	})
	time.Sleep(100 * time.Millisecond)

	if err := store.Put(ctx, "assets", []byte("[]")); err != nil {
		t.Fatal(err)
	}

	eventually(t, 3*time.Second, 50*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(events) > 0
	}, "expected a change event for assets")

	time.Sleep(2 * settleDelay)
	mu.Lock()
	defer mu.Unlock()
	if len(events) != 1 || events[0] != ChangeWritten+":assets" {
		t.Errorf("events = %v, want [written:assets]", events)
	}
}

func TestWatch_ReportsRemoval(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "projects.json"), []byte("[]"), 0o644); err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	got := map[string]string{}
	go Watch(ctx, dir, logger, func(kind, key string) {
		mu.Lock()
		got[key] = kind
		mu.Unlock()
	})
	time.Sleep(100 * time.Millisecond)

	_ = os.Remove(filepath.Join(dir, "projects.json"))
	_ = os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("ignored"), 0o644)

	eventually(t, 3*time.Second, 50*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return got["projects"] == ChangeRemoved
	}, "expected removal of projects")

	mu.Lock()
	defer mu.Unlock()
	if _, ok := got["readme"]; ok {
		t.Error("non-document files should be ignored")
	}
}
