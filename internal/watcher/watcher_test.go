package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"lrcsync/internal/index"
)

func openTestStore(t *testing.T) *index.Store {
	t.Helper()
	store, err := index.Open(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("index.Open() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOptionsNormalizedAppliesDefaults(t *testing.T) {
	got := Options{}.normalized()
	if got.Debounce != defaultDebounce {
		t.Fatalf("Debounce = %v, want %v", got.Debounce, defaultDebounce)
	}
	if got.BatchSize != defaultBatchSize {
		t.Fatalf("BatchSize = %d, want %d", got.BatchSize, defaultBatchSize)
	}
	if got.QueueCapacity != defaultQueueCapacity {
		t.Fatalf("QueueCapacity = %d, want %d", got.QueueCapacity, defaultQueueCapacity)
	}
	if got.ReconcileInterval != defaultReconcileEvery {
		t.Fatalf("ReconcileInterval = %v, want %v", got.ReconcileInterval, defaultReconcileEvery)
	}
}

func TestPromoteDueDropsOldestOnOverflow(t *testing.T) {
	store := openTestStore(t)
	root := t.TempDir()
	ctx := context.Background()
	dirID, err := store.AddDirectory(ctx, root)
	if err != nil {
		t.Fatalf("AddDirectory() error = %v", err)
	}

	w := &Watcher{
		Store:   store,
		opts:    Options{Debounce: 0, BatchSize: 10, QueueCapacity: 2}.normalized(),
		pending: make(map[pendingKey]time.Time),
	}
	w.opts.QueueCapacity = 2
	w.dirs = []watchedDir{{directoryID: dirID, path: root}}

	past := time.Now().Add(-time.Minute)
	w.mu.Lock()
	w.pending[pendingKey{directoryID: dirID, relative: "a.mp3"}] = past
	w.pending[pendingKey{directoryID: dirID, relative: "b.mp3"}] = past
	w.pending[pendingKey{directoryID: dirID, relative: "c.mp3"}] = past
	w.mu.Unlock()

	w.promoteDue()

	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.queue) != 2 {
		t.Fatalf("len(queue) = %d, want 2 after overflow", len(w.queue))
	}
	if w.droppedEvents != 1 {
		t.Fatalf("droppedEvents = %d, want 1", w.droppedEvents)
	}
}

func TestTakeBatchRespectsBatchSize(t *testing.T) {
	w := &Watcher{opts: Options{BatchSize: 2}}
	w.queue = []pendingKey{
		{relative: "a"}, {relative: "b"}, {relative: "c"},
	}

	batch := w.takeBatch()
	if len(batch) != 2 {
		t.Fatalf("len(batch) = %d, want 2", len(batch))
	}
	if len(w.queue) != 1 {
		t.Fatalf("len(remaining queue) = %d, want 1", len(w.queue))
	}
}

func TestProcessBatchRescansAndTransitionsNothingWithoutOrchestrator(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "song.mp3"), []byte("fake"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	store := openTestStore(t)
	ctx := context.Background()
	dirID, err := store.AddDirectory(ctx, root)
	if err != nil {
		t.Fatalf("AddDirectory() error = %v", err)
	}

	w := &Watcher{
		Store: store,
		dirs:  []watchedDir{{directoryID: dirID, path: root}},
	}

	w.processBatch(ctx, []pendingKey{{directoryID: dirID, relative: "song.mp3"}})

	track, err := store.GetTrackByPath(ctx, dirID, "song.mp3")
	if err != nil {
		t.Fatalf("GetTrackByPath() error = %v, want song.mp3 upserted by rescan", err)
	}
	if track.RelativePath != "song.mp3" {
		t.Fatalf("RelativePath = %q, want song.mp3", track.RelativePath)
	}
}

func TestResolvePathRejectsPathsOutsideRoots(t *testing.T) {
	w := &Watcher{dirs: []watchedDir{{directoryID: 1, path: "/library/one"}}}

	if _, _, ok := w.resolvePath("/elsewhere/file.mp3"); ok {
		t.Fatal("resolvePath() matched a path outside every watched root")
	}
	if _, rel, ok := w.resolvePath("/library/one/song.mp3"); !ok || rel != "song.mp3" {
		t.Fatalf("resolvePath() = rel=%q ok=%v, want song.mp3/true", rel, ok)
	}
}
