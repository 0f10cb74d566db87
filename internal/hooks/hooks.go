// Package hooks runs operator-configured shell commands at lifecycle points
// in the scan and download pipelines (scan start/end, a track's download
// start/end, lyrics found/not found, error), so a library can be wired into
// external tooling — backups, desktop notifications, a downstream re-index —
// without lrcsync knowing anything about any of it.
package hooks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"

	"lrcsync/internal/logging"
)

// Event identifies a point in the scan/download pipeline a hook can bind to.
type Event string

const (
	EventPreScan           Event = "pre_scan"
	EventPostScan          Event = "post_scan"
	EventPreDownload       Event = "pre_download"
	EventPostDownload      Event = "post_download"
	EventPreTrackDownload  Event = "pre_track_download"
	EventPostTrackDownload Event = "post_track_download"
	EventLyricsFound       Event = "lyrics_found"
	EventLyricsNotFound    Event = "lyrics_not_found"
	EventError             Event = "error"
)

// KnownEvents lists every Event in a stable order, for `hooks list`/`hooks test`.
var KnownEvents = []Event{
	EventPreScan, EventPostScan,
	EventPreDownload, EventPostDownload,
	EventPreTrackDownload, EventPostTrackDownload,
	EventLyricsFound, EventLyricsNotFound,
	EventError,
}

// Hook is one configured shell command bound to an Event.
type Hook struct {
	Name           string   `toml:"name"`
	Command        string   `toml:"command"`
	Args           []string `toml:"args"`
	WorkingDir     string   `toml:"working_dir"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
	Enabled        bool     `toml:"enabled"`
	Async          bool     `toml:"async_execution"`
}

// Context is delivered to every hook invocation as JSON, both on stdin and
// in the LRCSYNC_HOOK_CONTEXT environment variable.
type Context struct {
	Event     Event          `json:"event"`
	TrackID   int64          `json:"track_id,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Timestamp string         `json:"timestamp"`
}

type fileConfig struct {
	Hooks map[Event][]Hook `toml:"hooks"`
}

// Manager dispatches Events to the Hooks registered for them.
type Manager struct {
	logger *slog.Logger

	mu    sync.RWMutex
	hooks map[Event][]Hook
}

// NewManager returns an empty Manager; call Load to populate it.
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{logger: logger, hooks: make(map[Event][]Hook)}
}

// Load reads a hooks.toml configuration file, replacing any previously
// loaded hooks. A missing file is not an error: it leaves the Manager with
// no hooks registered, so the download/scan pipelines fire events into a
// no-op.
func (m *Manager) Load(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read hooks config: %w", err)
	}

	var cfg fileConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parse hooks config: %w", err)
	}

	hooks := make(map[Event][]Hook, len(cfg.Hooks))
	for event, bound := range cfg.Hooks {
		for _, h := range bound {
			if h.Enabled {
				hooks[event] = append(hooks[event], h)
			}
		}
	}

	m.mu.Lock()
	m.hooks = hooks
	m.mu.Unlock()
	return nil
}

// Registered returns the enabled hooks bound to event, for `hooks list`.
func (m *Manager) Registered(event Event) []Hook {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Hook(nil), m.hooks[event]...)
}

// Fire runs every enabled hook bound to event. Synchronous hooks are waited
// on in registration order before Fire returns; async hooks are launched
// without blocking the caller. A hook's failure is logged, never returned:
// hook execution is best-effort and must never abort the pipeline that
// fired it.
func (m *Manager) Fire(ctx context.Context, event Event, hookCtx Context) {
	m.mu.RLock()
	bound := append([]Hook(nil), m.hooks[event]...)
	m.mu.RUnlock()
	if len(bound) == 0 {
		return
	}

	hookCtx.Event = event
	hookCtx.Timestamp = time.Now().UTC().Format(time.RFC3339)
	payload, err := json.Marshal(hookCtx)
	if err != nil {
		logging.WarnWithContext(m.logger, "encode hook context failed", "hook_context_encode_failed", logging.Error(err))
		return
	}

	for _, h := range bound {
		if h.Async {
			go m.run(detach(ctx), h, payload)
			continue
		}
		m.run(ctx, h, payload)
	}
}

// detach strips ctx's cancellation so an async hook outlives the call that
// fired it, while still carrying its structured-logging fields.
func detach(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}

func (m *Manager) run(ctx context.Context, h Hook, payload []byte) {
	runCtx := ctx
	if h.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, time.Duration(h.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, h.Command, h.Args...)
	if h.WorkingDir != "" {
		cmd.Dir = h.WorkingDir
	}
	cmd.Stdin = bytes.NewReader(payload)
	cmd.Env = append(os.Environ(), "LRCSYNC_HOOK_CONTEXT="+string(payload))
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		logging.WarnWithContext(m.logger, "hook failed", "hook_failed",
			logging.String("hook", h.Name), logging.Error(err), logging.String("stderr", strings.TrimSpace(stderr.String())))
		return
	}
	logging.WithContext(ctx, m.logger).Debug("hook completed", logging.String("hook", h.Name))
}

// SampleConfig is written by `hooks init`, every command disabled so an
// operator opts in explicitly before anything actually runs.
const SampleConfig = `# Sample hooks configuration for lrcsync.
# A hook runs a shell command at a lifecycle event. Context (event name,
# track id, metadata, timestamp) is delivered as JSON on stdin and in the
# LRCSYNC_HOOK_CONTEXT environment variable. Every sample hook below ships
# disabled; set enabled = true once you've reviewed the command.

[hooks]

pre_scan = []

post_scan = [
  { name = "notify_scan_complete", command = "notify-send", args = ["lrcsync", "scan complete"], enabled = false, async_execution = true }
]

pre_download = []

post_download = [
  { name = "notify_download_complete", command = "notify-send", args = ["lrcsync", "download complete"], enabled = false, async_execution = true }
]

pre_track_download = []

post_track_download = []

lyrics_found = []

lyrics_not_found = [
  { name = "log_missing", command = "logger", args = ["-t", "lrcsync", "missing lyrics"], enabled = false, async_execution = true }
]

error = [
  { name = "error_notification", command = "notify-send", args = ["-u", "critical", "lrcsync error"], enabled = false, async_execution = true }
]
`
