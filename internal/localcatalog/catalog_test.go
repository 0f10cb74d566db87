package localcatalog

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"lrcsync/internal/fuzzymatch"
)

func seedCatalog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.db")

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open() error = %v", err)
	}
	defer db.Close()

	schema := `CREATE TABLE tracks (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		artist_name TEXT NOT NULL,
		album_name TEXT NOT NULL,
		duration REAL NOT NULL,
		synced_lyrics TEXT,
		plain_lyrics TEXT,
		instrumental INTEGER NOT NULL DEFAULT 0
	)`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("create schema error = %v", err)
	}

	rows := []struct {
		id                  int64
		title, artist, album string
		duration            float64
		synced, plain       string
	}{
		{1, "Bohemian Rhapsody", "Queen", "A Night at the Opera", 355, "[00:00.00]line", ""},
		{2, "Thriller", "Michael Jackson", "Thriller", 357, "", "plain body"},
	}
	for _, r := range rows {
		if _, err := db.Exec(
			`INSERT INTO tracks (id, name, artist_name, album_name, duration, synced_lyrics, plain_lyrics, instrumental)
			 VALUES (?, ?, ?, ?, ?, ?, ?, 0)`,
			r.id, r.title, r.artist, r.album, r.duration, r.synced, r.plain); err != nil {
			t.Fatalf("insert row error = %v", err)
		}
	}
	return path
}

func TestFindExactMatch(t *testing.T) {
	catalog, err := Open(seedCatalog(t))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer catalog.Close()

	entry, ok := catalog.Find("Bohemian Rhapsody", "Queen", 355)
	if !ok {
		t.Fatal("Find() ok = false, want true for exact match")
	}
	if entry.ID != 1 {
		t.Fatalf("Find() entry.ID = %d, want 1", entry.ID)
	}
}

func TestFindToleratesDurationWithinTwoSeconds(t *testing.T) {
	catalog, err := Open(seedCatalog(t))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer catalog.Close()

	// The catalog row is stored at 355s. A query 1.8s away (356.8s) is within
	// the spec's ±2s window but would round to a different whole second than
	// the catalog row's own rounding, so a plain fingerprint-keyed lookup
	// would miss it; Find's own tolerance check must not.
	entry, ok := catalog.Find("Bohemian Rhapsody", "Queen", 356.8)
	if !ok {
		t.Fatal("Find() ok = false, want true for a near-miss duration within tolerance")
	}
	if entry.ID != 1 {
		t.Fatalf("Find() entry.ID = %d, want 1", entry.ID)
	}

	if _, ok := catalog.Find("Bohemian Rhapsody", "Queen", 360); ok {
		t.Fatal("Find() ok = true, want false for a duration outside the ±2s tolerance")
	}
}

func TestFindIsCaseAndPunctuationInsensitive(t *testing.T) {
	catalog, err := Open(seedCatalog(t))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer catalog.Close()

	entry, ok := catalog.Find("bohemian  rhapsody!", "QUEEN", 355)
	if !ok {
		t.Fatal("Find() ok = false, want true for a differently-cased/punctuated match")
	}
	if entry.ID != 1 {
		t.Fatalf("Find() entry.ID = %d, want 1", entry.ID)
	}
}

func TestSearchRanksMisspelledQuery(t *testing.T) {
	catalog, err := Open(seedCatalog(t))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer catalog.Close()

	results := catalog.Search(fuzzymatch.Query{Title: "Bohemain Rhapody", Artist: "Quen"}, 0.55, 5)
	if len(results) == 0 {
		t.Fatal("Search() returned no results for a near misspelling")
	}
	if results[0].Candidate.ID != 1 {
		t.Fatalf("Search()[0].ID = %d, want 1", results[0].Candidate.ID)
	}
}

func TestSearchPrefilterExcludesUnrelatedEntryWithExactTokenOverlap(t *testing.T) {
	catalog, err := Open(seedCatalog(t))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer catalog.Close()

	// "Thriller" shares no terms with "Bohemian Rhapsody"/"Queen", so the
	// TF-IDF pre-filter should drop it before the composite score even
	// looks at it; confirm it never surfaces for an unrelated query.
	results := catalog.Search(fuzzymatch.Query{Title: "Bohemian Rhapsody", Artist: "Queen"}, 0.55, 5)
	for _, r := range results {
		if r.Candidate.ID == 2 {
			t.Fatalf("Search() unexpectedly returned unrelated entry %d", r.Candidate.ID)
		}
	}
	if len(results) == 0 || results[0].Candidate.ID != 1 {
		t.Fatalf("Search() = %+v, want entry 1 ranked first", results)
	}
}
