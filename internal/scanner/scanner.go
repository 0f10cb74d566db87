// Package scanner walks configured library directories, probes candidate
// audio files for metadata, and upserts the result into the index. The
// filesystem walk itself is single-threaded; probing fans out across a
// bounded worker pool.
package scanner

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"lrcsync/internal/index"
	"lrcsync/internal/logging"
	"lrcsync/internal/lrcerrors"
	"lrcsync/internal/metadataprobe"
	"lrcsync/internal/workerpool"
)

// maxProbeWorkers bounds the probe pool regardless of num_cpus, since
// probing shells out to an external process per file.
const maxProbeWorkers = 8

// DefaultExtensions is the case-insensitive set of audio file extensions the
// Scanner considers candidates.
var DefaultExtensions = []string{"mp3", "m4a", "flac", "ogg", "opus", "wav"}

// Summary reports the outcome of one Scan call.
type Summary struct {
	Scanned int
	New     int
	Updated int
	Failed  int
}

// Options configures one Scan invocation.
type Options struct {
	Force         bool
	Extensions    []string
	FFProbeBinary string
	ProgressFunc  func(relPath string, done, total int)
}

func (o Options) extensionSet() map[string]struct{} {
	exts := o.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	set := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		set[strings.ToLower(strings.TrimPrefix(e, "."))] = struct{}{}
	}
	return set
}

type candidate struct {
	relativePath string
	absolutePath string
	modifiedAt   time.Time
}

// Scan walks directoryPath (already registered under directoryID) and
// upserts every candidate audio file into store.
func Scan(ctx context.Context, store *index.Store, directoryID int64, directoryPath string, logger *slog.Logger, opts Options) (Summary, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logging.WithContext(ctx, logger)

	candidates, err := walk(directoryPath, opts.extensionSet())
	if err != nil {
		return Summary{}, lrcerrors.Wrap(lrcerrors.ErrIO, "scanner", "walk", directoryPath, err)
	}

	total := len(candidates)
	var (
		mu                                 sync.Mutex
		scanned, created, updated, failed int
	)
	reportProgress := func(relPath string) {
		if opts.ProgressFunc != nil {
			opts.ProgressFunc(relPath, scanned, total)
		}
	}

	workers := workerpool.Clamp(runtime.NumCPU(), maxProbeWorkers)
	runErr := workerpool.Run(ctx, workers, candidates, func(ctx context.Context, c candidate) error {
		probeOne(ctx, store, directoryID, c, opts, logger, &mu, &scanned, &created, &updated, &failed, reportProgress)
		return nil
	})

	summary := Summary{Scanned: scanned, New: created, Updated: updated, Failed: failed}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return summary, lrcerrors.Wrap(lrcerrors.ErrIO, "scanner", "probe_pool", directoryPath, runErr)
	}
	return summary, nil
}

// ScanPaths re-probes a specific, already-known set of relative paths under
// directoryPath rather than walking the whole tree, for the Watcher's
// debounced per-file updates: a filesystem event names exactly which files
// changed, so there is no need to re-walk the entire directory to find them.
func ScanPaths(ctx context.Context, store *index.Store, directoryID int64, directoryPath string, relativePaths []string, logger *slog.Logger, opts Options) (Summary, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logging.WithContext(ctx, logger)

	candidates := make([]candidate, 0, len(relativePaths))
	for _, rel := range relativePaths {
		abs := filepath.Join(directoryPath, rel)
		info, err := osStat(abs)
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{relativePath: rel, absolutePath: abs, modifiedAt: info})
	}

	var (
		mu                                 sync.Mutex
		scanned, created, updated, failed int
	)
	workers := workerpool.Clamp(runtime.NumCPU(), maxProbeWorkers)
	runErr := workerpool.Run(ctx, workers, candidates, func(ctx context.Context, c candidate) error {
		probeOne(ctx, store, directoryID, c, opts, logger, &mu, &scanned, &created, &updated, &failed, nil)
		return nil
	})

	summary := Summary{Scanned: scanned, New: created, Updated: updated, Failed: failed}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return summary, lrcerrors.Wrap(lrcerrors.ErrIO, "scanner", "probe_pool", directoryPath, runErr)
	}
	return summary, nil
}

// probeOne runs the probe-or-skip-then-upsert logic shared by Scan and
// ScanPaths for a single candidate file, updating the caller's counters
// under mu.
func probeOne(
	ctx context.Context,
	store *index.Store,
	directoryID int64,
	c candidate,
	opts Options,
	logger *slog.Logger,
	mu *sync.Mutex,
	scanned, created, updated, failed *int,
	reportProgress func(relPath string),
) {
	report := func(relPath string) {
		if reportProgress != nil {
			reportProgress(relPath)
		}
	}

	if !opts.Force {
		existing, lookupErr := store.GetTrackByPath(ctx, directoryID, c.relativePath)
		if lookupErr == nil && existing.FileModifiedAt.Equal(c.modifiedAt.UTC()) {
			mu.Lock()
			*scanned++
			report(c.relativePath)
			mu.Unlock()
			return
		}
	}

	tags, probeErr := metadataprobe.Probe(ctx, c.absolutePath, metadataprobe.Options{FFProbeBinary: opts.FFProbeBinary})
	if probeErr != nil {
		mu.Lock()
		*scanned++
		*failed++
		report(c.relativePath)
		mu.Unlock()
		logger.Warn("probe failed", slog.String("path", c.relativePath), slog.Any("error", probeErr))
		return
	}

	_, wasNew, upsertErr := store.UpsertTrack(ctx, directoryID, c.relativePath, tags.ToTrackTags(), c.modifiedAt)

	mu.Lock()
	*scanned++
	switch {
	case upsertErr != nil:
		*failed++
		logger.Error("upsert track failed", slog.String("path", c.relativePath), slog.Any("error", upsertErr))
	case wasNew:
		*created++
	default:
		*updated++
	}
	report(c.relativePath)
	mu.Unlock()
}

func osStat(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

func walk(root string, extensions map[string]struct{}) ([]candidate, error) {
	var out []candidate
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
		if _, ok := extensions[ext]; !ok {
			return nil
		}
		info, infoErr := d.Info()
		if infoErr != nil {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		out = append(out, candidate{
			relativePath: rel,
			absolutePath: path,
			modifiedAt:   info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
