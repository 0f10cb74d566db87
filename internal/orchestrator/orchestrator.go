// Package orchestrator drives the bounded-concurrency download pipeline: a
// worker pool pulls tracks from the caller's filter selection, resolves
// each one, writes the winning sidecar, and transitions the Index row,
// emitting a per-track event plus a final summary so the CLI and the
// future UI collaborator can render progress.
package orchestrator

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"lrcsync/internal/hooks"
	"lrcsync/internal/index"
	"lrcsync/internal/logging"
	"lrcsync/internal/lyricfile"
	"lrcsync/internal/metadataprobe"
	"lrcsync/internal/resolver"
	"lrcsync/internal/workerpool"
)

const (
	defaultParallel = 4
	minParallel     = 1
	maxParallel     = 100
)

// Options configures one Run.
type Options struct {
	MaxParallel int
	DryRun      bool
	Force       bool
	SkipSynced  bool
	SkipPlain   bool
	TryEmbed    bool
}

func (o Options) parallel() int {
	requested := o.MaxParallel
	if requested <= 0 {
		requested = defaultParallel
	}
	if requested < minParallel {
		requested = minParallel
	}
	return workerpool.Clamp(requested, maxParallel)
}

// Event reports one track's outcome for the CLI/UI collaborator.
type Event struct {
	TrackID   int64
	Outcome   string
	ElapsedMs int64
	Reason    string
	// Source names which tier answered ("cache", "db", "api"), empty when
	// the track was skipped, not found, or failed before a tier answered.
	Source string
}

// Summary totals outcomes across a Run.
type Summary struct {
	Counts map[string]int
}

func newSummary() Summary {
	return Summary{Counts: make(map[string]int)}
}

func (s *Summary) record(outcome string) {
	s.Counts[outcome]++
}

// AnyFailed reports whether the run should exit non-zero, per the rule that
// any Failed(_) track makes the whole invocation a partial failure.
func (s Summary) AnyFailed() bool {
	return s.Counts["failed"] > 0
}

// PathResolver maps a track's directory id to that directory's root path.
type PathResolver func(directoryID int64) (string, bool)

// Orchestrator wires the Index store and Resolver into the download loop.
type Orchestrator struct {
	Store    *index.Store
	Resolver *resolver.Resolver
	Logger   *slog.Logger
	// Hooks fires lifecycle events (pre/post download, per-track, lyrics
	// found/not found, error) to operator-configured shell commands. Nil is
	// treated as a Manager with nothing registered.
	Hooks *hooks.Manager
}

func (o *Orchestrator) fire(ctx context.Context, event hooks.Event, hookCtx hooks.Context) {
	if o.Hooks == nil {
		return
	}
	o.Hooks.Fire(ctx, event, hookCtx)
}

// Run resolves every track in tracks, writing sidecars and transitioning
// Index rows as it goes, and reports progress via onEvent (which may be
// nil). It returns once every track has been processed or ctx is
// cancelled.
func (o *Orchestrator) Run(ctx context.Context, tracks []*index.Track, resolvePath PathResolver, opts Options, onEvent func(Event)) (Summary, error) {
	logger := o.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.WithContext(ctx, logger)

	o.fire(ctx, hooks.EventPreDownload, hooks.Context{Metadata: map[string]any{"track_count": len(tracks)}})

	summary := newSummary()
	var mu sync.Mutex

	fn := func(ctx context.Context, track *index.Track) error {
		o.fire(ctx, hooks.EventPreTrackDownload, hooks.Context{TrackID: track.ID})

		start := time.Now()
		event := o.processTrack(ctx, track, resolvePath, opts, logger)
		event.ElapsedMs = time.Since(start).Milliseconds()

		o.fire(ctx, hooks.EventPostTrackDownload, hooks.Context{
			TrackID:  track.ID,
			Metadata: map[string]any{"outcome": event.Outcome, "elapsed_ms": event.ElapsedMs},
		})
		switch event.Outcome {
		case "synced", "plain", "instrumental":
			o.fire(ctx, hooks.EventLyricsFound, hooks.Context{TrackID: track.ID, Metadata: map[string]any{"outcome": event.Outcome}})
		case "not_found":
			o.fire(ctx, hooks.EventLyricsNotFound, hooks.Context{TrackID: track.ID})
		case "failed":
			o.fire(ctx, hooks.EventError, hooks.Context{TrackID: track.ID, Metadata: map[string]any{"reason": event.Reason}})
		}

		mu.Lock()
		summary.record(event.Outcome)
		mu.Unlock()

		if onEvent != nil {
			onEvent(event)
		}
		return nil
	}

	err := workerpool.Run(ctx, opts.parallel(), tracks, fn)

	counts := make(map[string]any, len(summary.Counts))
	for k, v := range summary.Counts {
		counts[k] = v
	}
	o.fire(ctx, hooks.EventPostDownload, hooks.Context{Metadata: counts})

	return summary, err
}

// processTrack resolves one track and applies the resulting sidecar write
// and state transition. It never returns an error to the caller: per-track
// failures are recorded as a Failed outcome so one bad track never aborts
// the pool.
func (o *Orchestrator) processTrack(ctx context.Context, track *index.Track, resolvePath PathResolver, opts Options, logger *slog.Logger) Event {
	if ctx.Err() != nil {
		return o.finish(ctx, track, index.StateFailed, "cancelled", "failed", "", opts)
	}

	if !opts.Force {
		if state, skip := resolver.SkipState(track.LyricState, opts.Force, opts.SkipSynced, opts.SkipPlain); skip {
			return Event{TrackID: track.ID, Outcome: outcomeName(state)}
		}
	}

	dirPath, ok := resolvePath(track.DirectoryID)
	if !ok {
		return o.finish(ctx, track, index.StateFailed, "unknown directory", "failed", "", opts)
	}
	audioPath := filepath.Join(dirPath, track.RelativePath)

	result, err := o.Resolver.Resolve(ctx, resolver.Query{
		Title:           track.Title,
		Artist:          track.Artist,
		Album:           track.Album,
		DurationSeconds: track.DurationSec,
	})
	if err != nil {
		logging.ErrorWithContext(logger, "resolve failed", "resolve_failed",
			logging.Int64("track_id", track.ID), logging.Error(err))
		return o.finish(ctx, track, index.StateFailed, err.Error(), "failed", "", opts)
	}

	if opts.DryRun {
		return Event{TrackID: track.ID, Outcome: result.Outcome.String(), Source: result.Source}
	}

	switch result.Outcome {
	case resolver.OutcomeFound:
		return o.applyFound(ctx, track, audioPath, result, opts, logger)
	case resolver.OutcomeInstrumental:
		if err := lyricfile.WriteInstrumental(audioPath); err != nil {
			return o.finish(ctx, track, index.StateFailed, err.Error(), "failed", "", opts)
		}
		return o.finish(ctx, track, index.StateInstrumental, "", "instrumental", result.Source, opts)
	case resolver.OutcomeNotFound:
		return o.finish(ctx, track, index.StateNotFound, "", "not_found", "", opts)
	default:
		return o.finish(ctx, track, index.StateFailed, result.Reason, "failed", "", opts)
	}
}

func (o *Orchestrator) applyFound(ctx context.Context, track *index.Track, audioPath string, result resolver.Result, opts Options, logger *slog.Logger) Event {
	payload := result.Payload
	switch {
	case payload.SyncedLyrics != "":
		if err := lyricfile.WriteSynced(audioPath, payload.SyncedLyrics); err != nil {
			return o.finish(ctx, track, index.StateFailed, err.Error(), "failed", "", opts)
		}
		_ = removeStalePlain(audioPath)
		o.maybeEmbed(audioPath, payload.SyncedLyrics, opts, logger)
		return o.finish(ctx, track, index.StateSyncedPresent, "", "synced", result.Source, opts)
	case payload.PlainLyrics != "":
		if lyricfile.Exists(audioPath, lyricfile.KindSynced) {
			return o.finish(ctx, track, index.StatePlainPresent, "", "plain_skipped_existing_synced", result.Source, opts)
		}
		if err := lyricfile.WritePlain(audioPath, payload.PlainLyrics); err != nil {
			return o.finish(ctx, track, index.StateFailed, err.Error(), "failed", "", opts)
		}
		o.maybeEmbed(audioPath, payload.PlainLyrics, opts, logger)
		return o.finish(ctx, track, index.StatePlainPresent, "", "plain", result.Source, opts)
	default:
		return o.finish(ctx, track, index.StateNotFound, "", "not_found", "", opts)
	}
}

func (o *Orchestrator) maybeEmbed(audioPath, lyrics string, opts Options, logger *slog.Logger) {
	if !opts.TryEmbed {
		return
	}
	if err := metadataprobe.EmbedLyrics(audioPath, lyrics); err != nil {
		logging.WarnWithContext(logger, "embed lyrics failed, sidecar still written", "embed_failed",
			logging.String("path", audioPath), logging.Error(err))
	}
}

// finish transitions the Index row and builds the event. If the transition
// fails, the event reports outcome "failed" with the transition error as its
// reason; the failure is not logged here.
func (o *Orchestrator) finish(ctx context.Context, track *index.Track, newState index.LyricState, reason, outcome, source string, opts Options) Event {
	if _, err := o.Store.SetLyricState(ctx, track.ID, newState, reason, opts.Force); err != nil {
		return Event{TrackID: track.ID, Outcome: "failed", Reason: err.Error()}
	}
	return Event{TrackID: track.ID, Outcome: outcome, Reason: reason, Source: source}
}

func outcomeName(state index.LyricState) string {
	switch state {
	case index.StateSyncedPresent:
		return "synced"
	case index.StatePlainPresent:
		return "plain"
	case index.StateInstrumental:
		return "instrumental"
	case index.StateNotFound:
		return "not_found"
	case index.StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func removeStalePlain(audioPath string) error {
	if !lyricfile.Exists(audioPath, lyricfile.KindPlain) {
		return nil
	}
	return os.Remove(lyricfile.SidecarPath(audioPath, lyricfile.KindPlain))
}
