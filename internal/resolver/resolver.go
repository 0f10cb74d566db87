// Package resolver implements the per-track lookup algorithm: cache probe,
// local catalog exact match, remote exact match, remote search fallback,
// local catalog fuzzy fallback, in that order, short-circuiting on the
// first acceptable hit and publishing it to both cache tiers before
// returning.
package resolver

import (
	"context"
	"time"

	"lrcsync/internal/cache"
	"lrcsync/internal/fingerprint"
	"lrcsync/internal/fuzzymatch"
	"lrcsync/internal/index"
	"lrcsync/internal/localcatalog"
	"lrcsync/internal/lrcerrors"
	"lrcsync/internal/remoteclient"
)

// searchThreshold is the minimum composite score a fuzzy candidate (remote
// search or local catalog search) must reach to be accepted.
const searchThreshold = 0.7

// Outcome classifies how a resolve attempt ended.
type Outcome int

const (
	OutcomeFound Outcome = iota
	OutcomeInstrumental
	OutcomeNotFound
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFound:
		return "found"
	case OutcomeInstrumental:
		return "instrumental"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is what Resolve returns: the outcome plus, on Found, the winning
// payload.
type Result struct {
	Outcome Outcome
	Payload cache.Payload
	Reason  string
	// Source names which tier actually answered this call: "cache" when an
	// existing cache entry served it, "db" when the local catalog matched,
	// "api" when the remote client answered. Empty on NotFound/Failed.
	Source string
}

const (
	SourceCache = "cache"
	SourceDB    = "db"
	SourceAPI   = "api"
)

// Query identifies the track being resolved.
type Query struct {
	Title           string
	Artist          string
	Album           string
	DurationSeconds float64
}

// Resolver wires the cache tier, local catalog, and remote client together
// behind the single-flight coordinator. Catalog may be nil when no local
// snapshot is configured.
type Resolver struct {
	Cache   *cache.Tier
	Catalog *localcatalog.Catalog
	Remote  *remoteclient.Client
}

// Resolve runs the full lookup algorithm for one track's tags, holding the
// cache tier's single-flight slot for the query's fingerprint across the
// entire pipeline so concurrent resolves for the same song share one
// upstream lookup regardless of which tier eventually answers it.
func (r *Resolver) Resolve(ctx context.Context, q Query) (Result, error) {
	fp := fingerprint.Compute(q.Title, q.Artist, q.Album, q.DurationSeconds)

	entry, err, _ := r.Cache.Resolve(fp, func() (cache.Entry, error) {
		return r.resolveUncached(ctx, fp, q)
	})
	if err != nil {
		return Result{Outcome: OutcomeFailed, Reason: err.Error()}, err
	}
	return entryToResult(entry), nil
}

// resolveUncached runs steps 2-7 of the lookup algorithm; it is only
// invoked once per fingerprint among concurrent callers, by Resolve's
// single-flight wrapper.
func (r *Resolver) resolveUncached(ctx context.Context, fp fingerprint.Fingerprint, q Query) (cache.Entry, error) {
	if hit, ok := r.Cache.Get(ctx, fp); ok {
		hit.Payload.Source = SourceCache
		return hit, nil
	}

	if r.Catalog != nil {
		if entry, ok := r.Catalog.Find(q.Title, q.Artist, q.DurationSeconds); ok {
			return r.publish(ctx, fp, catalogEntryToPayload(entry)), nil
		}
	}

	if r.Remote != nil {
		payload, err := r.Remote.GetSigned(ctx, q.Title, q.Artist, q.Album, q.DurationSeconds)
		if err != nil && !lrcerrors.Recoverable(err) {
			return cache.Entry{}, err
		}
		if payload != nil {
			return r.publish(ctx, fp, remotePayloadToPayload(*payload)), nil
		}

		candidates, err := r.Remote.Search(ctx, q.Title, q.Artist, q.Album)
		if err != nil && !lrcerrors.Recoverable(err) {
			return cache.Entry{}, err
		}
		if best, ok := bestRemoteCandidate(q, candidates); ok {
			return r.publish(ctx, fp, remotePayloadToPayload(best)), nil
		}
	}

	if r.Catalog != nil {
		fq := fuzzymatch.Query{Title: q.Title, Artist: q.Artist, Album: q.Album, DurationSeconds: q.DurationSeconds}
		if scored := r.Catalog.Search(fq, searchThreshold, 5); len(scored) > 0 {
			if entry, ok := r.Catalog.EntryByID(scored[0].Candidate.ID); ok {
				return r.publish(ctx, fp, catalogEntryToPayload(entry)), nil
			}
		}
	}

	r.Cache.Negative(ctx, fp)
	return cache.Entry{Kind: cache.KindNegative, RecordedAt: time.Now().UTC()}, nil
}

// publish writes the winning payload to both cache tiers and returns the
// Hit entry to hand back to the caller.
func (r *Resolver) publish(ctx context.Context, fp fingerprint.Fingerprint, payload cache.Payload) cache.Entry {
	r.Cache.Put(ctx, fp, payload)
	return cache.Entry{Kind: cache.KindHit, Payload: payload, RecordedAt: time.Now().UTC()}
}

// bestRemoteCandidate ranks remote search results with the same composite
// scoring function as the local catalog and accepts the winner only if it
// reaches searchThreshold.
func bestRemoteCandidate(q Query, candidates []remoteclient.LyricPayload) (remoteclient.LyricPayload, bool) {
	if len(candidates) == 0 {
		return remoteclient.LyricPayload{}, false
	}
	byID := make(map[int64]remoteclient.LyricPayload, len(candidates))
	scoreable := make([]fuzzymatch.Candidate, 0, len(candidates))
	for _, c := range candidates {
		byID[c.ID] = c
		scoreable = append(scoreable, fuzzymatch.Candidate{
			ID:              c.ID,
			Title:           c.TrackName,
			Artist:          c.ArtistName,
			Album:           c.AlbumName,
			DurationSeconds: c.Duration,
			Synced:          c.SyncedLyrics != "",
			LyricBodyLength: len(c.SyncedLyrics) + len(c.PlainLyrics),
		})
	}
	best, ok := fuzzymatch.Best(fuzzymatch.Query{
		Title: q.Title, Artist: q.Artist, Album: q.Album, DurationSeconds: q.DurationSeconds,
	}, scoreable, searchThreshold)
	if !ok {
		return remoteclient.LyricPayload{}, false
	}
	return byID[best.Candidate.ID], true
}

func catalogEntryToPayload(e localcatalog.Entry) cache.Payload {
	return cache.Payload{
		SourceID:     e.ID,
		SyncedLyrics: e.SyncedLyrics,
		PlainLyrics:  e.PlainLyrics,
		Instrumental: e.Instrumental,
		Source:       SourceDB,
	}
}

func remotePayloadToPayload(p remoteclient.LyricPayload) cache.Payload {
	return cache.Payload{
		SourceID:     p.ID,
		SyncedLyrics: p.SyncedLyrics,
		PlainLyrics:  p.PlainLyrics,
		Instrumental: p.Instrumental,
		Source:       SourceAPI,
	}
}

func entryToResult(entry cache.Entry) Result {
	switch entry.Kind {
	case cache.KindHit:
		if entry.Payload.Instrumental {
			return Result{Outcome: OutcomeInstrumental, Payload: entry.Payload, Source: entry.Payload.Source}
		}
		return Result{Outcome: OutcomeFound, Payload: entry.Payload, Source: entry.Payload.Source}
	case cache.KindNegative:
		return Result{Outcome: OutcomeNotFound}
	default:
		return Result{Outcome: OutcomeNotFound}
	}
}

// SkipState reports the terminal state a track should short-circuit to
// without running the pipeline, honoring the configured extension of the
// terminal set for already-synced or already-plain tracks, per the skip
// policy that precedes step 1 of the algorithm.
func SkipState(current index.LyricState, force, skipSynced, skipPlain bool) (index.LyricState, bool) {
	if force {
		return "", false
	}
	switch current {
	case index.StateSyncedPresent:
		return current, true
	case index.StatePlainPresent:
		if skipPlain {
			return current, true
		}
		return "", false
	case index.StateInstrumental, index.StateNotFound, index.StateFailed:
		return current, true
	default:
		return "", false
	}
}
