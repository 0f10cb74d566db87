// Package fuzzymatch implements the composite scoring function shared by the
// Local Catalog's search and the Resolver's remote-search and local-fuzzy
// fallback strategies: normalized edit distance on title, artist, and album,
// plus a duration term, combined with fixed weights.
package fuzzymatch

import (
	"math"
	"sort"

	"github.com/agnivade/levenshtein"

	"lrcsync/internal/fingerprint"
)

const (
	weightTitle    = 0.5
	weightArtist   = 0.3
	weightAlbum    = 0.1
	weightDuration = 0.1

	// durationToleranceSeconds caps how far apart two durations can be before
	// the duration term bottoms out at zero.
	durationToleranceSeconds = 10.0
)

// Query is the set of tags being searched for.
type Query struct {
	Title           string
	Artist          string
	Album           string
	DurationSeconds float64
}

// Candidate is one scoreable record from the local catalog or a remote
// search response.
type Candidate struct {
	ID              int64
	Title           string
	Artist          string
	Album           string
	DurationSeconds float64
	Synced          bool
	LyricBodyLength int
}

// Scored pairs a Candidate with its composite score.
type Scored struct {
	Candidate Candidate
	Score     float64
}

// Score computes the composite similarity between a query and a candidate:
// 0.5*title + 0.3*artist + 0.1*album + 0.1*duration, each a normalized
// similarity in [0, 1].
func Score(q Query, c Candidate) float64 {
	titleSim := similarity(q.Title, c.Title)
	artistSim := similarity(q.Artist, c.Artist)
	albumSim := similarity(q.Album, c.Album)
	durationTerm := durationSimilarity(q.DurationSeconds, c.DurationSeconds)

	return weightTitle*titleSim + weightArtist*artistSim + weightAlbum*albumSim + weightDuration*durationTerm
}

func similarity(a, b string) float64 {
	a = fingerprint.Canonicalize(a)
	b = fingerprint.Canonicalize(b)
	if a == "" && b == "" {
		return 1
	}
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1
	}
	distance := levenshtein.ComputeDistance(a, b)
	return 1 - float64(distance)/float64(maxLen)
}

func durationSimilarity(a, b float64) float64 {
	delta := math.Abs(a - b)
	if delta > durationToleranceSeconds {
		return 0
	}
	return 1 - delta/durationToleranceSeconds
}

// Rank scores every candidate against the query, keeps those at or above
// threshold, and returns the top K ordered by score descending. Ties break
// by: synced over plain, longer lyric body, lower id — matching the search
// tie-break rule used by both the Local Catalog and the Resolver.
func Rank(q Query, candidates []Candidate, threshold float64, topK int) []Scored {
	scored := make([]Scored, 0, len(candidates))
	for _, c := range candidates {
		s := Score(q, c)
		if s >= threshold {
			scored = append(scored, Scored{Candidate: c, Score: s})
		}
	}

	sort.Slice(scored, func(i, j int) bool {
		return less(scored[j], scored[i])
	})

	if topK > 0 && len(scored) > topK {
		scored = scored[:topK]
	}
	return scored
}

// Best returns the highest-ranked candidate at or above threshold, or false
// if none qualify.
func Best(q Query, candidates []Candidate, threshold float64) (Scored, bool) {
	ranked := Rank(q, candidates, threshold, 1)
	if len(ranked) == 0 {
		return Scored{}, false
	}
	return ranked[0], true
}

// less reports whether a ranks below b under the composite ordering: higher
// score wins, then synced-over-plain, then longer lyric body, then lower id.
// Rank calls it with its arguments swapped so the best candidate sorts first.
func less(a, b Scored) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	if a.Candidate.Synced != b.Candidate.Synced {
		return !a.Candidate.Synced
	}
	if a.Candidate.LyricBodyLength != b.Candidate.LyricBodyLength {
		return a.Candidate.LyricBodyLength < b.Candidate.LyricBodyLength
	}
	return a.Candidate.ID > b.Candidate.ID
}
