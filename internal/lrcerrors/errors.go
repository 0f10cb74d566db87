// Package lrcerrors defines the typed error kinds that flow through the
// scanner, cache, remote client, resolver, and orchestrator, and the
// propagation rules attached to each: what gets recovered locally, what
// gets persisted as a per-track failure, and what is fatal.
package lrcerrors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel error kinds. Use errors.Is against these to classify a wrapped
// error; use Wrap to attach one to a detail message.
var (
	ErrIO                = errors.New("io error")
	ErrProbeFailed       = errors.New("probe failed")
	ErrIndex             = errors.New("index error")
	ErrCache             = errors.New("cache error")
	ErrRemote            = errors.New("remote error")
	ErrCatalog           = errors.New("catalog error")
	ErrCancelled         = errors.New("cancelled")
	ErrConfig            = errors.New("config error")
	ErrInvariantViolation = errors.New("invariant violation")
)

// RemoteKind further classifies ErrRemote for retry and backoff decisions.
type RemoteKind string

const (
	RemoteTimeout     RemoteKind = "timeout"
	RemoteHTTP4xx     RemoteKind = "http_4xx"
	RemoteHTTP5xx     RemoteKind = "http_5xx"
	RemoteRateLimited RemoteKind = "rate_limited"
	RemoteNetwork     RemoteKind = "network"
)

// RemoteError carries the sub-kind needed to decide whether the remote
// client should retry, back off on a Retry-After, or fall through to the
// next resolver strategy.
type RemoteError struct {
	Kind    RemoteKind
	Message string
	Err     error
}

func (e *RemoteError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("remote error (%s): %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("remote error (%s): %s", e.Kind, e.Message)
}

func (e *RemoteError) Unwrap() error { return ErrRemote }

func (e *RemoteError) Is(target error) bool { return target == ErrRemote }

// NewRemoteError builds a RemoteError of the given sub-kind.
func NewRemoteError(kind RemoteKind, message string, err error) *RemoteError {
	return &RemoteError{Kind: kind, Message: message, Err: err}
}

// Retryable reports whether a RemoteError's sub-kind should be retried by
// the remote client's own backoff loop, as opposed to surfaced immediately
// to the resolver's fallback chain.
func (e *RemoteError) Retryable() bool {
	switch e.Kind {
	case RemoteTimeout, RemoteHTTP5xx, RemoteRateLimited, RemoteNetwork:
		return true
	default:
		return false
	}
}

// Wrap attaches a sentinel marker to a detail message built from stage,
// operation, and message fragments, optionally wrapping an underlying cause.
func Wrap(marker error, stage, operation, message string, cause error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrIO
	}
	if cause != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, cause)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "unspecified failure"
	}
	return strings.Join(parts, ": ")
}

// Fatal reports whether an error should abort the process rather than be
// recovered locally or persisted as a per-track failure. Only invariant
// violations are fatal; everything else is recoverable at some layer.
func Fatal(err error) bool {
	return errors.Is(err, ErrInvariantViolation)
}

// ExitCode maps a top-level error to the process exit code lrcsync commands
// should return. Config errors surface before any work begins; invariant
// violations are the only fatal-mid-run class.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrInvariantViolation):
		return 3
	case errors.Is(err, ErrConfig):
		return 2
	default:
		return 1
	}
}

// Recoverable reports whether an error should be swallowed at its layer
// (cache miss, fall through to the next resolver strategy) rather than
// propagated as a per-track failure.
func Recoverable(err error) bool {
	return errors.Is(err, ErrCache) || errors.Is(err, ErrRemote)
}
