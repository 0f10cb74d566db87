package logging_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lrcsync/internal/logging"
)

func TestConsoleLoggerLabelsTrackSubject(t *testing.T) {
	tempDir := t.TempDir()
	logPath := filepath.Join(tempDir, "console-track.log")

	logger, err := logging.New(logging.Options{
		Format:           "console",
		Level:            "info",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := logging.WithItemID(context.Background(), 42)
	ctx = logging.WithStage(ctx, "resolve")
	logging.WithContext(ctx, logger).Info("resolving lyrics")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "Track #42 (resolve)") {
		t.Fatalf("expected console header to label the track, got %q", content)
	}
}
