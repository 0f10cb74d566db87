package fuzzymatch_test

import (
	"testing"

	"lrcsync/internal/fuzzymatch"
)

func TestScoreExactMatchIsOne(t *testing.T) {
	q := fuzzymatch.Query{Title: "Bohemian Rhapsody", Artist: "Queen", Album: "A Night at the Opera", DurationSeconds: 355}
	c := fuzzymatch.Candidate{Title: "Bohemian Rhapsody", Artist: "Queen", Album: "A Night at the Opera", DurationSeconds: 355}

	if score := fuzzymatch.Score(q, c); score < 0.999 {
		t.Fatalf("Score() = %v, want ~1.0 for exact match", score)
	}
}

func TestScoreMisspellingsStillAboveThreshold(t *testing.T) {
	q := fuzzymatch.Query{Title: "Bohemain Rhapody", Artist: "Quen", Album: "A Night at the Opera", DurationSeconds: 355}
	c := fuzzymatch.Candidate{Title: "Bohemian Rhapsody", Artist: "Queen", Album: "A Night at the Opera", DurationSeconds: 355}

	score := fuzzymatch.Score(q, c)
	if score < 0.7 {
		t.Fatalf("Score() = %v, want >= 0.7 for near misspelling", score)
	}
}

func TestRankOrdersByScoreThenTieBreak(t *testing.T) {
	q := fuzzymatch.Query{Title: "Song", Artist: "Artist", Album: "Album", DurationSeconds: 200}
	candidates := []fuzzymatch.Candidate{
		{ID: 1, Title: "Song", Artist: "Artist", Album: "Album", DurationSeconds: 200, Synced: false, LyricBodyLength: 500},
		{ID: 2, Title: "Song", Artist: "Artist", Album: "Album", DurationSeconds: 200, Synced: true, LyricBodyLength: 100},
		{ID: 3, Title: "Song", Artist: "Artist", Album: "Album", DurationSeconds: 200, Synced: true, LyricBodyLength: 900},
	}

	ranked := fuzzymatch.Rank(q, candidates, 0.55, 5)
	if len(ranked) != 3 {
		t.Fatalf("Rank() returned %d candidates, want 3", len(ranked))
	}
	if ranked[0].Candidate.ID != 3 {
		t.Fatalf("Rank()[0].ID = %d, want 3 (synced, longest body wins tie)", ranked[0].Candidate.ID)
	}
}

func TestRankRespectsTopK(t *testing.T) {
	q := fuzzymatch.Query{Title: "Song", Artist: "Artist"}
	var candidates []fuzzymatch.Candidate
	for i := int64(1); i <= 10; i++ {
		candidates = append(candidates, fuzzymatch.Candidate{ID: i, Title: "Song", Artist: "Artist"})
	}

	ranked := fuzzymatch.Rank(q, candidates, 0.0, 5)
	if len(ranked) != 5 {
		t.Fatalf("Rank() returned %d candidates, want top 5", len(ranked))
	}
}

func TestBestReturnsFalseBelowThreshold(t *testing.T) {
	q := fuzzymatch.Query{Title: "Completely Unrelated Title", Artist: "Nobody"}
	candidates := []fuzzymatch.Candidate{{ID: 1, Title: "Song", Artist: "Artist"}}

	if _, ok := fuzzymatch.Best(q, candidates, 0.9); ok {
		t.Fatal("Best() returned ok=true for a clearly non-matching candidate")
	}
}
