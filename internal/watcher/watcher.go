// Package watcher subscribes to filesystem events under configured library
// directories, debounces bursts of activity per path, and feeds the
// resulting batches through the Scanner and then the Orchestrator scoped
// to a missing-lyrics filter over just those paths' track ids. A periodic
// reconciliation scan guards against events dropped by debounce-queue
// overflow or missed while the process was not running.
package watcher

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"lrcsync/internal/hooks"
	"lrcsync/internal/index"
	"lrcsync/internal/logging"
	"lrcsync/internal/orchestrator"
	"lrcsync/internal/scanner"
)

const (
	defaultDebounce       = 10 * time.Second
	defaultBatchSize      = 50
	defaultQueueCapacity  = 10000
	defaultReconcileEvery = 6 * time.Hour
	pollInterval          = 1 * time.Second
)

// Options configures a Watcher.
type Options struct {
	Debounce          time.Duration
	BatchSize         int
	QueueCapacity     int
	ReconcileInterval time.Duration
}

func (o Options) normalized() Options {
	if o.Debounce <= 0 {
		o.Debounce = defaultDebounce
	}
	if o.BatchSize <= 0 {
		o.BatchSize = defaultBatchSize
	}
	if o.QueueCapacity <= 0 {
		o.QueueCapacity = defaultQueueCapacity
	}
	if o.ReconcileInterval <= 0 {
		o.ReconcileInterval = defaultReconcileEvery
	}
	return o
}

// watchedDir is one registered library root being monitored.
type watchedDir struct {
	directoryID int64
	path        string
}

// Watcher ties an fsnotify subscription to the Scanner and Orchestrator.
type Watcher struct {
	Store        *index.Store
	Orchestrator *orchestrator.Orchestrator
	Logger       *slog.Logger
	// Hooks fires EventPreScan/EventPostScan around each debounced rescan.
	// Nil is treated as a Manager with nothing registered.
	Hooks *hooks.Manager
	opts  Options

	fsWatcher *fsnotify.Watcher
	dirs      []watchedDir

	mu            sync.Mutex
	pending       map[pendingKey]time.Time
	queue         []pendingKey
	droppedEvents int64
}

type pendingKey struct {
	directoryID int64
	relative    string
}

func (w *Watcher) fire(ctx context.Context, event hooks.Event, hookCtx hooks.Context) {
	if w.Hooks == nil {
		return
	}
	w.Hooks.Fire(ctx, event, hookCtx)
}

// New builds a Watcher over the given directories (already registered in
// the Index) and starts its fsnotify subscription.
func New(store *index.Store, orch *orchestrator.Orchestrator, logger *slog.Logger, dirs []index.Directory, opts Options) (*Watcher, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		Store:        store,
		Orchestrator: orch,
		Logger:       logger,
		opts:         opts.normalized(),
		fsWatcher:    fsWatcher,
		pending:      make(map[pendingKey]time.Time),
	}
	for _, d := range dirs {
		w.dirs = append(w.dirs, watchedDir{directoryID: d.ID, path: d.Path})
	}
	if err := w.addRoots(); err != nil {
		_ = fsWatcher.Close()
		return nil, err
	}
	return w, nil
}

// addRoots recursively subscribes to every directory under each watched
// root; fsnotify only watches the directories explicitly added to it, not
// their descendants.
func (w *Watcher) addRoots() error {
	for _, d := range w.dirs {
		if err := addRecursive(w.fsWatcher, d.path); err != nil {
			return err
		}
	}
	return nil
}

// Run drives the watcher's three concurrent loops (event intake, debounce
// drain, periodic reconciliation) until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		w.watchEvents(ctx)
	}()
	go func() {
		defer wg.Done()
		w.drainLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		w.reconcileLoop(ctx)
	}()

	wg.Wait()
	return w.fsWatcher.Close()
}

// DroppedEvents returns the running count of debounce-queue overflow drops.
func (w *Watcher) DroppedEvents() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.droppedEvents
}

func (w *Watcher) watchEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			logging.WarnWithContext(w.Logger, "watcher error", "watch_error", logging.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return
	}

	if event.Op&fsnotify.Create != 0 {
		if info, err := osStatDir(event.Name); err == nil && info {
			_ = addRecursive(w.fsWatcher, event.Name)
		}
	}

	dir, rel, ok := w.resolvePath(event.Name)
	if !ok {
		return
	}

	w.mu.Lock()
	w.pending[pendingKey{directoryID: dir.directoryID, relative: rel}] = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) resolvePath(absPath string) (watchedDir, string, bool) {
	for _, d := range w.dirs {
		if rel, err := filepath.Rel(d.path, absPath); err == nil && !isOutsideRoot(rel) {
			return d, rel, true
		}
	}
	return watchedDir{}, "", false
}

func isOutsideRoot(rel string) bool {
	return len(rel) >= 2 && rel[:2] == ".."
}

// drainLoop moves paths whose debounce window has elapsed into the ready
// queue, then periodically flushes ready batches through the Scanner and
// Orchestrator.
func (w *Watcher) drainLoop(ctx context.Context) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.promoteDue()
			w.flushBatches(ctx)
		}
	}
}

// promoteDue moves any pending path whose debounce window has elapsed into
// the bounded ready queue, dropping the oldest entry and incrementing the
// overflow counter when the queue is full.
func (w *Watcher) promoteDue() {
	now := time.Now()
	w.mu.Lock()
	defer w.mu.Unlock()

	for key, last := range w.pending {
		if now.Sub(last) < w.opts.Debounce {
			continue
		}
		delete(w.pending, key)
		if len(w.queue) >= w.opts.QueueCapacity {
			w.queue = w.queue[1:]
			w.droppedEvents++
		}
		w.queue = append(w.queue, key)
	}
}

func (w *Watcher) flushBatches(ctx context.Context) {
	for {
		batch := w.takeBatch()
		if len(batch) == 0 {
			return
		}
		w.processBatch(ctx, batch)
	}
}

func (w *Watcher) takeBatch() []pendingKey {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.queue) == 0 {
		return nil
	}
	n := w.opts.BatchSize
	if n > len(w.queue) {
		n = len(w.queue)
	}
	batch := append([]pendingKey(nil), w.queue[:n]...)
	w.queue = w.queue[n:]
	return batch
}

// processBatch groups a batch by directory, re-probes just those paths via
// Scanner.ScanPaths, then runs the Orchestrator over the resulting tracks
// restricted to a missing-lyrics filter.
func (w *Watcher) processBatch(ctx context.Context, batch []pendingKey) {
	ctx = logging.WithCorrelationID(ctx, uuid.NewString())
	logging.WithContext(ctx, w.Logger).Info("processing debounced batch", logging.Int("batch_size", len(batch)))

	byDir := make(map[int64][]string)
	for _, key := range batch {
		byDir[key.directoryID] = append(byDir[key.directoryID], key.relative)
	}

	w.fire(ctx, hooks.EventPreScan, hooks.Context{Metadata: map[string]any{"batch_size": len(batch)}})

	var ids []int64
	for _, d := range w.dirs {
		rels, ok := byDir[d.directoryID]
		if !ok {
			continue
		}
		if _, err := scanner.ScanPaths(ctx, w.Store, d.directoryID, d.path, rels, w.Logger, scanner.Options{}); err != nil {
			logging.WarnWithContext(w.Logger, "watcher rescan failed", "watch_rescan_failed",
				logging.String("directory", d.path), logging.Error(err))
			continue
		}
		for _, rel := range rels {
			track, err := w.Store.GetTrackByPath(ctx, d.directoryID, rel)
			if err == nil {
				ids = append(ids, track.ID)
			}
		}
	}
	w.fire(ctx, hooks.EventPostScan, hooks.Context{Metadata: map[string]any{"rescanned": len(ids)}})
	if len(ids) == 0 || w.Orchestrator == nil {
		return
	}

	tracks, err := w.Store.ListTracks(ctx, index.TrackFilter{IDs: ids, MissingLyrics: true})
	if err != nil || len(tracks) == 0 {
		return
	}
	resolvePath := func(directoryID int64) (string, bool) {
		for _, d := range w.dirs {
			if d.directoryID == directoryID {
				return d.path, true
			}
		}
		return "", false
	}
	_, _ = w.Orchestrator.Run(ctx, tracks, resolvePath, orchestrator.Options{}, nil)
}

// reconcileLoop re-walks every watched root on a fixed interval, the
// correctness backstop for events dropped by queue overflow or missed
// while the process was not running.
func (w *Watcher) reconcileLoop(ctx context.Context) {
	ticker := time.NewTicker(w.opts.ReconcileInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, d := range w.dirs {
				if _, err := scanner.Scan(ctx, w.Store, d.directoryID, d.path, w.Logger, scanner.Options{}); err != nil {
					logging.WarnWithContext(w.Logger, "reconciliation scan failed", "reconcile_failed",
						logging.String("directory", d.path), logging.Error(err))
				}
			}
		}
	}
}
