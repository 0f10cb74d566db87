package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"lrcsync/internal/index"
)

func openTestStore(t *testing.T) *index.Store {
	t.Helper()
	store, err := index.Open(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("index.Open() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(path, []byte("fake audio bytes"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

func TestScanUpsertsCandidateFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Artist", "Album", "song.mp3"))
	writeFile(t, filepath.Join(root, "Artist", "Album", "cover.jpg"))

	store := openTestStore(t)
	dirID, err := store.AddDirectory(context.Background(), root)
	if err != nil {
		t.Fatalf("AddDirectory() error = %v", err)
	}

	summary, err := Scan(context.Background(), store, dirID, root, nil, Options{FFProbeBinary: "definitely-not-a-real-binary"})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if summary.Scanned != 1 {
		t.Fatalf("Summary.Scanned = %d, want 1 (non-audio file excluded)", summary.Scanned)
	}
	if summary.New != 1 {
		t.Fatalf("Summary.New = %d, want 1", summary.New)
	}

	tracks, err := store.ListTracks(context.Background(), index.TrackFilter{})
	if err != nil {
		t.Fatalf("ListTracks() error = %v", err)
	}
	if len(tracks) != 1 || tracks[0].RelativePath != filepath.Join("Artist", "Album", "song.mp3") {
		t.Fatalf("ListTracks() = %+v, want single song.mp3 row", tracks)
	}
}

func TestScanSkipsUnchangedFilesWithoutForce(t *testing.T) {
	root := t.TempDir()
	songPath := filepath.Join(root, "song.flac")
	writeFile(t, songPath)

	store := openTestStore(t)
	dirID, err := store.AddDirectory(context.Background(), root)
	if err != nil {
		t.Fatalf("AddDirectory() error = %v", err)
	}

	if _, err := Scan(context.Background(), store, dirID, root, nil, Options{}); err != nil {
		t.Fatalf("Scan() (first pass) error = %v", err)
	}
	id, err := store.GetTrackByPath(context.Background(), dirID, "song.flac")
	if err != nil {
		t.Fatalf("GetTrackByPath() error = %v", err)
	}
	if _, err := store.SetLyricState(context.Background(), id.ID, index.StateSyncedPresent, "", false); err != nil {
		t.Fatalf("SetLyricState() error = %v", err)
	}

	if _, err := Scan(context.Background(), store, dirID, root, nil, Options{}); err != nil {
		t.Fatalf("Scan() (second pass) error = %v", err)
	}
	track, err := store.GetTrack(context.Background(), id.ID)
	if err != nil {
		t.Fatalf("GetTrack() error = %v", err)
	}
	if track.LyricState != index.StateSyncedPresent {
		t.Fatalf("LyricState = %v after unchanged rescan, want preserved StateSyncedPresent", track.LyricState)
	}

	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(songPath, future, future); err != nil {
		t.Fatalf("Chtimes() error = %v", err)
	}
	summary, err := Scan(context.Background(), store, dirID, root, nil, Options{})
	if err != nil {
		t.Fatalf("Scan() (third pass) error = %v", err)
	}
	if summary.Updated != 1 {
		t.Fatalf("Summary.Updated = %d, want 1 after mtime change", summary.Updated)
	}
}

func TestScanPathsProbesOnlyNamedFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.mp3"))
	writeFile(t, filepath.Join(root, "b.mp3"))

	store := openTestStore(t)
	dirID, err := store.AddDirectory(context.Background(), root)
	if err != nil {
		t.Fatalf("AddDirectory() error = %v", err)
	}

	summary, err := ScanPaths(context.Background(), store, dirID, root, []string{"a.mp3"}, nil, Options{})
	if err != nil {
		t.Fatalf("ScanPaths() error = %v", err)
	}
	if summary.Scanned != 1 || summary.New != 1 {
		t.Fatalf("ScanPaths() summary = %+v, want exactly one new track", summary)
	}

	if _, err := store.GetTrackByPath(context.Background(), dirID, "b.mp3"); err == nil {
		t.Fatal("GetTrackByPath(b.mp3) = nil error, want ErrTrackNotFound (ScanPaths must not touch unnamed files)")
	}
}
