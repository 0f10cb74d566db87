// Package localcatalog provides read-only access to a snapshot of the
// remote lyrics corpus, configured as a local SQLite file. It is an optional
// acceleration tier the Resolver consults before falling through to the
// network: a normalized title/artist lookup with duration tolerance, and a
// fuzzy search used both as a resolver fallback and directly by the search
// command.
package localcatalog

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	_ "modernc.org/sqlite"

	"lrcsync/internal/fingerprint"
	"lrcsync/internal/fuzzymatch"
	"lrcsync/internal/textutil"
)

// prefilterThreshold is the minimum TF-IDF cosine similarity a catalog entry
// must clear against the query text before it is handed to the full
// Levenshtein-based scoring function. It is deliberately low: the pre-filter
// only needs to cut the O(n) scoring pass down for a large snapshot, not to
// make an acceptance decision of its own.
const prefilterThreshold = 0.05

// durationToleranceSeconds is the window Find uses when comparing a query's
// duration against a catalog entry's, independent of the cache tier's
// fingerprint key, which rounds duration to the nearest whole second and
// would otherwise miss entries up to ~2s apart that round to different
// seconds.
const durationToleranceSeconds = 2.0

// Entry is one row of the catalog snapshot.
type Entry struct {
	ID              int64
	Title           string
	Artist          string
	Album           string
	DurationSeconds float64
	SyncedLyrics    string
	PlainLyrics     string
	Instrumental    bool
}

func (e Entry) candidate() fuzzymatch.Candidate {
	return fuzzymatch.Candidate{
		ID:              e.ID,
		Title:           e.Title,
		Artist:          e.Artist,
		Album:           e.Album,
		DurationSeconds: e.DurationSeconds,
		Synced:          e.SyncedLyrics != "",
		LyricBodyLength: len(e.SyncedLyrics) + len(e.PlainLyrics),
	}
}

// Catalog is a read-only in-memory index over the snapshot, built once at
// Open time. The snapshot is expected to be small enough (a lyrics corpus
// mirror, not the full remote catalog) to hold its fingerprint index and
// search candidates in memory.
type Catalog struct {
	db *sql.DB

	// byTitleArtist buckets entries by normalized (title, artist), the key
	// Find matches on per spec; Find then scans the (small) bucket for a
	// duration within durationToleranceSeconds rather than trusting a single
	// exact key, since two real-world probes of the same track rarely agree
	// on duration down to the millisecond.
	byTitleArtist map[titleArtistKey][]Entry
	allEntries    []Entry

	// textIndex parallels allEntries: textIndex[i] is the TF-IDF-weighted
	// text fingerprint of allEntries[i], used to cheaply narrow the
	// candidate set before the full composite scoring pass. nil entries
	// (text too short to tokenize) always pass through the pre-filter.
	textIndex []*textutil.Fingerprint
	idf       map[string]float64
}

// Open loads a catalog snapshot from a SQLite file at path and builds its
// in-memory indexes.
func Open(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro&immutable=1")
	if err != nil {
		return nil, fmt.Errorf("open local catalog: %w", err)
	}

	c := &Catalog{db: db, byTitleArtist: make(map[titleArtistKey][]Entry)}
	if err := c.buildIndexes(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return c, nil
}

// Close releases the underlying database handle.
func (c *Catalog) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

func (c *Catalog) buildIndexes(ctx context.Context) error {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, name, artist_name, album_name, duration, synced_lyrics, plain_lyrics, instrumental FROM tracks`)
	if err != nil {
		return fmt.Errorf("load local catalog entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			e             Entry
			synced, plain sql.NullString
			instrumental  sql.NullBool
		)
		if err := rows.Scan(&e.ID, &e.Title, &e.Artist, &e.Album, &e.DurationSeconds, &synced, &plain, &instrumental); err != nil {
			return fmt.Errorf("scan local catalog entry: %w", err)
		}
		e.SyncedLyrics = synced.String
		e.PlainLyrics = plain.String
		e.Instrumental = instrumental.Bool

		c.allEntries = append(c.allEntries, e)
		key := normalizedKey(e.Title, e.Artist)
		c.byTitleArtist[key] = append(c.byTitleArtist[key], e)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	c.buildTextIndex()
	return nil
}

// buildTextIndex computes a TF-IDF corpus over every entry's combined
// title/artist/album text, then weights each entry's term-frequency
// fingerprint against it. Search uses cosine similarity over these vectors
// as a cheap pre-filter ahead of the composite edit-distance scoring pass.
func (c *Catalog) buildTextIndex() {
	corpus := textutil.NewCorpus()
	raw := make([]*textutil.Fingerprint, len(c.allEntries))
	for i, e := range c.allEntries {
		fp := textutil.NewFingerprint(entryText(e))
		raw[i] = fp
		corpus.Add(fp)
	}
	c.idf = corpus.IDF()
	c.textIndex = make([]*textutil.Fingerprint, len(raw))
	for i, fp := range raw {
		c.textIndex[i] = fp.WithIDF(c.idf)
	}
}

func entryText(e Entry) string {
	return e.Title + " " + e.Artist + " " + e.Album
}

// betterExact breaks ties between catalog rows sharing a fingerprint the
// same way the Resolver's search tie-break does: synced over plain, longer
// lyric body, lower id.
func betterExact(candidate, current Entry) bool {
	cs, cc := candidate.candidate(), current.candidate()
	if cs.Synced != cc.Synced {
		return cs.Synced
	}
	if cs.LyricBodyLength != cc.LyricBodyLength {
		return cs.LyricBodyLength > cc.LyricBodyLength
	}
	return cs.ID < cc.ID
}

// titleArtistKey is the normalized (title, artist) pair Find buckets
// entries under, independent of album and duration.
type titleArtistKey string

func normalizedKey(title, artist string) titleArtistKey {
	return titleArtistKey(fingerprint.Canonicalize(title) + "\x1f" + fingerprint.Canonicalize(artist))
}

// Find matches on normalized (title, artist) with duration tolerance
// ±durationToleranceSeconds, per spec §4.4 — a distinct rule from the cache
// tier's fingerprint key, which rounds duration to the nearest whole second.
// Among entries within tolerance, ties break the same way betterExact does
// for an exact fingerprint collision: synced over plain, longer lyric body,
// lower id.
func (c *Catalog) Find(title, artist string, durationSeconds float64) (Entry, bool) {
	bucket := c.byTitleArtist[normalizedKey(title, artist)]
	var best Entry
	found := false
	for _, e := range bucket {
		if math.Abs(e.DurationSeconds-durationSeconds) > durationToleranceSeconds {
			continue
		}
		if !found || betterExact(e, best) {
			best = e
			found = true
		}
	}
	return best, found
}

// Search narrows the catalog to entries whose TF-IDF text vector shares any
// term-level similarity with the query (cutting the full scoring pass down
// on a large snapshot), then runs the weighted fuzzy scoring function over
// the survivors and returns the top-K results at or above threshold.
//
// The pre-filter is token-exact, so it cannot itself tolerate misspellings
// (spec §8 requires the composite edit-distance score to do that, e.g. a
// "Bohemain Rhapody"/"Quen" query must still reach "Bohemian Rhapsody"/
// "Queen"). When a misspelling leaves zero token overlap across the whole
// catalog, the pre-filtered set is empty and Search falls back to scoring
// every entry, so the pre-filter can only ever narrow the candidate set
// when it is safe to, never cause a miss.
func (c *Catalog) Search(q fuzzymatch.Query, threshold float64, limit int) []fuzzymatch.Scored {
	queryFP := textutil.NewFingerprint(q.Title + " " + q.Artist + " " + q.Album).WithIDF(c.idf)

	candidates := make([]fuzzymatch.Candidate, 0, len(c.allEntries))
	for i, e := range c.allEntries {
		if !c.passesPrefilter(queryFP, c.textIndex[i]) {
			continue
		}
		candidates = append(candidates, e.candidate())
	}
	if len(candidates) == 0 {
		candidates = make([]fuzzymatch.Candidate, len(c.allEntries))
		for i, e := range c.allEntries {
			candidates[i] = e.candidate()
		}
	}
	return fuzzymatch.Rank(q, candidates, threshold, limit)
}

// passesPrefilter reports whether an entry should be scored by the full
// composite function. A nil query or entry fingerprint (text too short to
// tokenize, e.g. a one- or two-letter title) always passes through, since
// the TF-IDF vector carries no signal to filter on in that case.
func (c *Catalog) passesPrefilter(query, entry *textutil.Fingerprint) bool {
	if query == nil || entry == nil {
		return true
	}
	return textutil.CosineSimilarity(query, entry) >= prefilterThreshold
}

// EntryByID resolves a candidate id back to its full catalog entry, for
// pulling the lyric payload once Search has picked a winner.
func (c *Catalog) EntryByID(id int64) (Entry, bool) {
	for _, e := range c.allEntries {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}
