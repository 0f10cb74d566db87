// Package logging assembles structured slog loggers and formatting helpers used
// across lrcsync's scanner, resolver, cache, and orchestrator components.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so pipeline code can automatically
// tag log lines with track IDs, stages, and correlation IDs. The package also
// provides a no-op logger for tests and wiring code that cannot fail, dated
// log archive retention, and a per-component debug level override for
// `--debug-component`.
//
// Prefer these constructors over hand-rolled slog setup to ensure new
// components emit data with the same shape and routing guarantees as the rest
// of the system.
package logging
