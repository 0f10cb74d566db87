package workerpool

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
)

func TestRunProcessesAllItems(t *testing.T) {
	var count int32
	items := []int{1, 2, 3, 4, 5}

	err := Run(context.Background(), 2, items, func(context.Context, int) error {
		atomic.AddInt32(&count, 1)
		return nil
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := atomic.LoadInt32(&count); got != int32(len(items)) {
		t.Fatalf("processed %d items, want %d", got, len(items))
	}
}

func TestRunJoinsPerItemErrors(t *testing.T) {
	errA := errors.New("item a failed")
	errB := errors.New("item b failed")

	err := Run(context.Background(), 2, []string{"a", "b", "c"}, func(_ context.Context, item string) error {
		switch item {
		case "a":
			return errA
		case "b":
			return errB
		default:
			return nil
		}
	})
	if err == nil {
		t.Fatal("Run() error = nil, want joined error")
	}
	msg := err.Error()
	if !strings.Contains(msg, errA.Error()) || !strings.Contains(msg, errB.Error()) {
		t.Fatalf("Run() error = %q, want both item errors present", msg)
	}
}

func TestRunReturnsContextErrorWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Run(ctx, 1, []int{1}, func(context.Context, int) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
}

func TestClampBounds(t *testing.T) {
	if got := Clamp(0, 8); got != 1 {
		t.Fatalf("Clamp(0, 8) = %d, want 1", got)
	}
	if got := Clamp(100, 8); got != 8 {
		t.Fatalf("Clamp(100, 8) = %d, want 8", got)
	}
	if got := Clamp(4, 8); got != 4 {
		t.Fatalf("Clamp(4, 8) = %d, want 4", got)
	}
}
