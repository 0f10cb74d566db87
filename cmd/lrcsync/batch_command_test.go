package main

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestReadBatchFileSkipsBlankAndCommentLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "batch.txt")
	content := "/music/a.flac\n\n# a comment\n  /music/b.flac  \n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write batch file: %v", err)
	}

	got, err := readBatchFile(path)
	if err != nil {
		t.Fatalf("readBatchFile() error = %v", err)
	}
	want := []string{"/music/a.flac", "/music/b.flac"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("readBatchFile() = %v, want %v", got, want)
	}
}

func TestReadBatchFileMissing(t *testing.T) {
	if _, err := readBatchFile(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Fatal("readBatchFile() error = nil, want error for missing file")
	}
}
