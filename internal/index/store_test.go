package index

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "index.db")
	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestAddDirectoryDuplicateAndNesting(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	root := t.TempDir()
	if _, err := store.AddDirectory(ctx, root); err != nil {
		t.Fatalf("AddDirectory() error = %v", err)
	}
	if _, err := store.AddDirectory(ctx, root); err != ErrDuplicateDirectory {
		t.Fatalf("AddDirectory() duplicate error = %v, want ErrDuplicateDirectory", err)
	}

	nested := filepath.Join(root, "child")
	if _, err := store.AddDirectory(ctx, nested); err != ErrNestedDirectory {
		t.Fatalf("AddDirectory() nested error = %v, want ErrNestedDirectory", err)
	}
}

func TestUpsertTrackReprobesOnModTimeChange(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	dirID, err := store.AddDirectory(ctx, t.TempDir())
	if err != nil {
		t.Fatalf("AddDirectory() error = %v", err)
	}

	mtime := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	id, wasNew, err := store.UpsertTrack(ctx, dirID, "song.flac", TrackTags{Title: "Song", Artist: "Artist"}, mtime)
	if err != nil {
		t.Fatalf("UpsertTrack() error = %v", err)
	}
	if !wasNew {
		t.Fatalf("UpsertTrack() wasNew = false, want true")
	}

	_, err = store.SetLyricState(ctx, id, StateSyncedPresent, "", false)
	if err != nil {
		t.Fatalf("SetLyricState() error = %v", err)
	}

	sameID, wasNewAgain, err := store.UpsertTrack(ctx, dirID, "song.flac", TrackTags{Title: "Song", Artist: "Artist"}, mtime)
	if err != nil {
		t.Fatalf("UpsertTrack() (same mtime) error = %v", err)
	}
	if wasNewAgain {
		t.Fatalf("UpsertTrack() wasNew = true on unchanged mtime, want false")
	}
	track, err := store.GetTrack(ctx, sameID)
	if err != nil {
		t.Fatalf("GetTrack() error = %v", err)
	}
	if track.LyricState != StateSyncedPresent {
		t.Fatalf("LyricState = %v after no-op reprobe, want unchanged StateSyncedPresent", track.LyricState)
	}

	newMtime := mtime.Add(time.Hour)
	_, wasNewOnChange, err := store.UpsertTrack(ctx, dirID, "song.flac", TrackTags{Title: "Song Renamed", Artist: "Artist"}, newMtime)
	if err != nil {
		t.Fatalf("UpsertTrack() (changed mtime) error = %v", err)
	}
	if wasNewOnChange {
		t.Fatalf("UpsertTrack() wasNew = true on mtime change, want false (update not insert)")
	}
	track, err = store.GetTrack(ctx, id)
	if err != nil {
		t.Fatalf("GetTrack() error = %v", err)
	}
	if track.Title != "Song Renamed" {
		t.Fatalf("Title = %q after reprobe, want %q", track.Title, "Song Renamed")
	}
}

func TestSetLyricStateRejectsDowngradeWithoutForce(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	dirID, err := store.AddDirectory(ctx, t.TempDir())
	if err != nil {
		t.Fatalf("AddDirectory() error = %v", err)
	}
	id, _, err := store.UpsertTrack(ctx, dirID, "song.flac", TrackTags{}, time.Now())
	if err != nil {
		t.Fatalf("UpsertTrack() error = %v", err)
	}

	if _, err := store.SetLyricState(ctx, id, StateSyncedPresent, "", false); err != nil {
		t.Fatalf("SetLyricState() to synced_present error = %v", err)
	}

	if _, err := store.SetLyricState(ctx, id, StateNotFound, "", false); err != ErrInvalidTransition {
		t.Fatalf("SetLyricState() downgrade error = %v, want ErrInvalidTransition", err)
	}

	prior, err := store.SetLyricState(ctx, id, StateNotFound, "forced", true)
	if err != nil {
		t.Fatalf("SetLyricState() forced error = %v", err)
	}
	if prior != StateSyncedPresent {
		t.Fatalf("SetLyricState() prior = %v, want StateSyncedPresent", prior)
	}
}

func TestListTracksFiltersByMissingLyrics(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	dirID, err := store.AddDirectory(ctx, t.TempDir())
	if err != nil {
		t.Fatalf("AddDirectory() error = %v", err)
	}

	resolvedID, _, err := store.UpsertTrack(ctx, dirID, "a.flac", TrackTags{Artist: "A"}, time.Now())
	if err != nil {
		t.Fatalf("UpsertTrack() error = %v", err)
	}
	if _, err := store.SetLyricState(ctx, resolvedID, StateSyncedPresent, "", false); err != nil {
		t.Fatalf("SetLyricState() error = %v", err)
	}
	if _, _, err := store.UpsertTrack(ctx, dirID, "b.flac", TrackTags{Artist: "B"}, time.Now()); err != nil {
		t.Fatalf("UpsertTrack() error = %v", err)
	}

	missing, err := store.ListTracks(ctx, TrackFilter{MissingLyrics: true})
	if err != nil {
		t.Fatalf("ListTracks() error = %v", err)
	}
	if len(missing) != 1 || missing[0].RelativePath != "b.flac" {
		t.Fatalf("ListTracks(MissingLyrics) = %+v, want only b.flac", missing)
	}
}

func TestListTracksArtistAndAlbumFilterIsCaseInsensitive(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	dirID, err := store.AddDirectory(ctx, t.TempDir())
	if err != nil {
		t.Fatalf("AddDirectory() error = %v", err)
	}

	if _, _, err := store.UpsertTrack(ctx, dirID, "bohemian.flac", TrackTags{Artist: "Queen", Album: "A Night at the Opera"}, time.Now()); err != nil {
		t.Fatalf("UpsertTrack() error = %v", err)
	}
	if _, _, err := store.UpsertTrack(ctx, dirID, "other.flac", TrackTags{Artist: "Someone Else", Album: "Other Album"}, time.Now()); err != nil {
		t.Fatalf("UpsertTrack() error = %v", err)
	}

	byArtist, err := store.ListTracks(ctx, TrackFilter{Artist: "queen"})
	if err != nil {
		t.Fatalf("ListTracks(Artist) error = %v", err)
	}
	if len(byArtist) != 1 || byArtist[0].RelativePath != "bohemian.flac" {
		t.Fatalf("ListTracks(Artist=\"queen\") = %+v, want only bohemian.flac", byArtist)
	}

	byAlbum, err := store.ListTracks(ctx, TrackFilter{Album: "a night at the opera"})
	if err != nil {
		t.Fatalf("ListTracks(Album) error = %v", err)
	}
	if len(byAlbum) != 1 || byAlbum[0].RelativePath != "bohemian.flac" {
		t.Fatalf("ListTracks(Album=\"a night at the opera\") = %+v, want only bohemian.flac", byAlbum)
	}
}

func TestStatsCountsByLyricState(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	dirID, err := store.AddDirectory(ctx, t.TempDir())
	if err != nil {
		t.Fatalf("AddDirectory() error = %v", err)
	}
	if _, _, err := store.UpsertTrack(ctx, dirID, "a.flac", TrackTags{}, time.Now()); err != nil {
		t.Fatalf("UpsertTrack() error = %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.TotalTracks != 1 || stats.TotalDirs != 1 {
		t.Fatalf("Stats() = %+v, want 1 track, 1 directory", stats)
	}
	if stats.ByLyricState[StateUnknown] != 1 {
		t.Fatalf("Stats().ByLyricState[unknown] = %d, want 1", stats.ByLyricState[StateUnknown])
	}
}
