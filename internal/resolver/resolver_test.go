package resolver

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"lrcsync/internal/cache"
	"lrcsync/internal/index"
	"lrcsync/internal/localcatalog"
	"lrcsync/internal/remoteclient"
)

func seedCatalog(t *testing.T, rows [][2]string) *localcatalog.Catalog {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open() error = %v", err)
	}
	if _, err := db.Exec(`CREATE TABLE tracks (
		id INTEGER PRIMARY KEY, name TEXT NOT NULL, artist_name TEXT NOT NULL,
		album_name TEXT NOT NULL, duration REAL NOT NULL,
		synced_lyrics TEXT, plain_lyrics TEXT, instrumental INTEGER NOT NULL DEFAULT 0)`); err != nil {
		t.Fatalf("create schema error = %v", err)
	}
	for i, r := range rows {
		if _, err := db.Exec(`INSERT INTO tracks (id, name, artist_name, album_name, duration, synced_lyrics) VALUES (?,?,?,?,?,?)`,
			i+1, r[0], r[1], "", 300, "[00:00.00]line"); err != nil {
			t.Fatalf("insert row error = %v", err)
		}
	}
	db.Close()

	catalog, err := localcatalog.Open(path)
	if err != nil {
		t.Fatalf("localcatalog.Open() error = %v", err)
	}
	t.Cleanup(func() { _ = catalog.Close() })
	return catalog
}

func newTier(t *testing.T) *cache.Tier {
	t.Helper()
	file, err := cache.NewFileTier(t.TempDir(), 0, 0)
	if err != nil {
		t.Fatalf("NewFileTier() error = %v", err)
	}
	return cache.NewTier(nil, file)
}

func TestResolveHitsLocalCatalogExact(t *testing.T) {
	catalog := seedCatalog(t, [][2]string{{"Bohemian Rhapsody", "Queen"}})
	r := &Resolver{Cache: newTier(t), Catalog: catalog}

	result, err := r.Resolve(context.Background(), Query{Title: "Bohemian Rhapsody", Artist: "Queen", DurationSeconds: 300})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if result.Outcome != OutcomeFound {
		t.Fatalf("Resolve().Outcome = %v, want Found", result.Outcome)
	}
	if result.Source != SourceDB {
		t.Fatalf("Resolve().Source = %q, want %q", result.Source, SourceDB)
	}
}

func TestResolveSecondCallIsServedFromCache(t *testing.T) {
	catalog := seedCatalog(t, [][2]string{{"Bohemian Rhapsody", "Queen"}})
	r := &Resolver{Cache: newTier(t), Catalog: catalog}
	q := Query{Title: "Bohemian Rhapsody", Artist: "Queen", DurationSeconds: 300}

	if _, err := r.Resolve(context.Background(), q); err != nil {
		t.Fatalf("Resolve() (first) error = %v", err)
	}
	result, err := r.Resolve(context.Background(), q)
	if err != nil {
		t.Fatalf("Resolve() (second) error = %v", err)
	}
	if result.Source != SourceCache {
		t.Fatalf("Resolve() (second).Source = %q, want %q", result.Source, SourceCache)
	}
}

func TestResolveFallsThroughToRemoteSearchOnMisspelling(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		switch req.URL.Path {
		case "/get":
			w.WriteHeader(http.StatusNotFound)
		case "/search":
			_ = json.NewEncoder(w).Encode([]map[string]any{
				{"id": 9, "trackName": "Bohemian Rhapsody", "artistName": "Queen", "duration": 354, "syncedLyrics": "[00:00.00]line"},
			})
		}
	}))
	defer server.Close()

	remote, err := remoteclient.New(remoteclient.Config{BaseURL: server.URL, RequestsPerSecond: 1000})
	if err != nil {
		t.Fatalf("remoteclient.New() error = %v", err)
	}

	r := &Resolver{Cache: newTier(t), Remote: remote}
	result, err := r.Resolve(context.Background(), Query{Title: "Bohemain Rhapody", Artist: "Quen", DurationSeconds: 354})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if result.Outcome != OutcomeFound || result.Payload.SourceID != 9 {
		t.Fatalf("Resolve() = %+v, want Found with SourceID=9", result)
	}
	if result.Source != SourceAPI {
		t.Fatalf("Resolve().Source = %q, want %q", result.Source, SourceAPI)
	}
}

func TestResolveReturnsNotFoundAndCachesNegative(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	remote, err := remoteclient.New(remoteclient.Config{BaseURL: server.URL, RequestsPerSecond: 1000})
	if err != nil {
		t.Fatalf("remoteclient.New() error = %v", err)
	}

	tier := newTier(t)
	r := &Resolver{Cache: tier, Remote: remote}
	result, err := r.Resolve(context.Background(), Query{Title: "Unknown Song", Artist: "Nobody", DurationSeconds: 120})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if result.Outcome != OutcomeNotFound {
		t.Fatalf("Resolve().Outcome = %v, want NotFound", result.Outcome)
	}

	second, err := r.Resolve(context.Background(), Query{Title: "Unknown Song", Artist: "Nobody", DurationSeconds: 120})
	if err != nil {
		t.Fatalf("Resolve() (second) error = %v", err)
	}
	if second.Outcome != OutcomeNotFound {
		t.Fatalf("Resolve() (second).Outcome = %v, want NotFound from negative cache", second.Outcome)
	}
}

func TestSkipStateHonorsLatticeAndFlags(t *testing.T) {
	cases := []struct {
		name       string
		state      index.LyricState
		force      bool
		skipPlain  bool
		wantSkip   bool
	}{
		{"unknown never skips", index.StateUnknown, false, false, false},
		{"synced always terminal", index.StateSyncedPresent, false, false, true},
		{"plain proceeds by default", index.StatePlainPresent, false, false, false},
		{"plain skips when flagged", index.StatePlainPresent, false, true, true},
		{"force overrides everything", index.StateSyncedPresent, true, false, false},
		{"not_found terminal", index.StateNotFound, false, false, true},
		{"failed terminal", index.StateFailed, false, false, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, skip := SkipState(tc.state, tc.force, false, tc.skipPlain)
			if skip != tc.wantSkip {
				t.Fatalf("SkipState(%v, force=%v, skipPlain=%v) skip = %v, want %v", tc.state, tc.force, tc.skipPlain, skip, tc.wantSkip)
			}
		})
	}
}
