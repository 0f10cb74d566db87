package lyricfile_test

import (
	"os"
	"path/filepath"
	"testing"

	"lrcsync/internal/lyricfile"
)

func TestWriteSyncedProducesLFLineEndings(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "song.flac")

	if err := lyricfile.WriteSynced(audio, "[00:01.00]line one\r\n[00:02.00]line two\r\n"); err != nil {
		t.Fatalf("WriteSynced() error = %v", err)
	}

	data, err := os.ReadFile(lyricfile.SidecarPath(audio, lyricfile.KindSynced))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "[00:01.00]line one\n[00:02.00]line two\n" {
		t.Fatalf("sidecar content = %q, want LF-only line endings", data)
	}

	if _, err := os.Stat(audio + ".lrc.tmp"); !os.IsNotExist(err) {
		t.Fatalf("expected temp file to be removed after rename, stat err = %v", err)
	}
}

func TestWriteInstrumentalMarker(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "song.flac")

	if err := lyricfile.WriteInstrumental(audio); err != nil {
		t.Fatalf("WriteInstrumental() error = %v", err)
	}
	if !lyricfile.IsInstrumental(audio) {
		t.Fatal("IsInstrumental() = false after WriteInstrumental()")
	}
}

func TestSidecarPathReplacesExtension(t *testing.T) {
	got := lyricfile.SidecarPath("/music/a/song.mp3", lyricfile.KindPlain)
	want := "/music/a/song.txt"
	if got != want {
		t.Fatalf("SidecarPath() = %q, want %q", got, want)
	}
}

func TestExistsReflectsWrittenSidecar(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "song.flac")
	if lyricfile.Exists(audio, lyricfile.KindSynced) {
		t.Fatal("Exists() = true before any write")
	}
	if err := lyricfile.WritePlain(audio, "plain lyrics"); err != nil {
		t.Fatalf("WritePlain() error = %v", err)
	}
	if !lyricfile.Exists(audio, lyricfile.KindPlain) {
		t.Fatal("Exists() = false after WritePlain()")
	}
}
