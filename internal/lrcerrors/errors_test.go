package lrcerrors_test

import (
	"errors"
	"strings"
	"testing"

	"lrcsync/internal/lrcerrors"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := lrcerrors.Wrap(lrcerrors.ErrIndex, "index", "upsert_track", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, lrcerrors.ErrIndex) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"index", "upsert_track", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestRemoteErrorIsAndRetryable(t *testing.T) {
	rateLimited := lrcerrors.NewRemoteError(lrcerrors.RemoteRateLimited, "too many requests", nil)
	if !errors.Is(rateLimited, lrcerrors.ErrRemote) {
		t.Fatalf("expected RemoteError to satisfy errors.Is(ErrRemote)")
	}
	if !rateLimited.Retryable() {
		t.Fatalf("expected rate-limited remote error to be retryable")
	}

	http4xx := lrcerrors.NewRemoteError(lrcerrors.RemoteHTTP4xx, "not found", nil)
	if http4xx.Retryable() {
		t.Fatalf("expected 4xx remote error to not be retryable")
	}
}

func TestExitCodeMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"invariant", lrcerrors.Wrap(lrcerrors.ErrInvariantViolation, "resolver", "state", "impossible", nil), 3},
		{"config", lrcerrors.Wrap(lrcerrors.ErrConfig, "config", "load", "bad toml", nil), 2},
		{"other", lrcerrors.Wrap(lrcerrors.ErrIO, "scanner", "walk", "denied", nil), 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := lrcerrors.ExitCode(tc.err); got != tc.want {
				t.Fatalf("ExitCode() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestFatalOnlyForInvariantViolation(t *testing.T) {
	if lrcerrors.Fatal(lrcerrors.Wrap(lrcerrors.ErrCache, "cache", "get", "miss", nil)) {
		t.Fatal("expected cache error to not be fatal")
	}
	if !lrcerrors.Fatal(lrcerrors.Wrap(lrcerrors.ErrInvariantViolation, "resolver", "state", "impossible", nil)) {
		t.Fatal("expected invariant violation to be fatal")
	}
}

func TestRecoverableCacheAndRemote(t *testing.T) {
	if !lrcerrors.Recoverable(lrcerrors.Wrap(lrcerrors.ErrCache, "cache", "get", "miss", nil)) {
		t.Fatal("expected cache error to be recoverable")
	}
	if !lrcerrors.Recoverable(lrcerrors.NewRemoteError(lrcerrors.RemoteNetwork, "dial failed", nil)) {
		t.Fatal("expected remote error to be recoverable")
	}
	if lrcerrors.Recoverable(lrcerrors.Wrap(lrcerrors.ErrIndex, "index", "upsert", "failed", nil)) {
		t.Fatal("expected index error to not be recoverable")
	}
}
