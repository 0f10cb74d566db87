package cache

import (
	"context"
	"sync/atomic"
	"time"

	"lrcsync/internal/fingerprint"
)

// Tier combines the optional shared KV tier and the local file tier behind
// the four operations the Resolver drives: get, put, negative, invalidate.
// The shared tier is consulted first; a miss or fault there falls through to
// the local tier.
type Tier struct {
	KV         *KVTier
	File       *FileTier
	Coordinator Coordinator

	totalRequests uint64
	cacheHits     uint64
}

// NewTier builds a Tier. kv may be nil if no shared cache is configured.
func NewTier(kv *KVTier, file *FileTier) *Tier {
	return &Tier{KV: kv, File: file}
}

// Get returns the freshest entry for fp across both tiers, or a KindMiss
// entry and false if neither tier has one, accounting for TTL expiry.
func (t *Tier) Get(ctx context.Context, fp fingerprint.Fingerprint) (Entry, bool) {
	atomic.AddUint64(&t.totalRequests, 1)
	if t.KV != nil {
		if entry, ok := t.KV.Get(ctx, fp); ok && !t.expired(entry) {
			atomic.AddUint64(&t.cacheHits, 1)
			return entry, true
		}
	}
	if entry, ok := t.File.Get(ctx, fp); ok && !t.expired(entry) {
		atomic.AddUint64(&t.cacheHits, 1)
		return entry, true
	}
	return Entry{}, false
}

func (t *Tier) expired(entry Entry) bool {
	ttl := DefaultHitTTL
	if entry.Kind == KindNegative {
		ttl = DefaultNegativeTTL
	}
	return entry.Expired(ttl, time.Now())
}

// Put writes a Hit entry to both tiers.
func (t *Tier) Put(ctx context.Context, fp fingerprint.Fingerprint, payload Payload) {
	entry := Entry{Kind: KindHit, Payload: payload, RecordedAt: time.Now().UTC()}
	if t.KV != nil {
		t.KV.Put(ctx, fp, entry, DefaultHitTTL)
	}
	_ = t.File.Put(ctx, fp, entry)
}

// Negative writes a NegativeHit entry to both tiers.
func (t *Tier) Negative(ctx context.Context, fp fingerprint.Fingerprint) {
	entry := Entry{Kind: KindNegative, RecordedAt: time.Now().UTC()}
	if t.KV != nil {
		t.KV.Put(ctx, fp, entry, DefaultNegativeTTL)
	}
	_ = t.File.Put(ctx, fp, entry)
}

// Invalidate removes any entry for fp from both tiers, used by --force.
func (t *Tier) Invalidate(ctx context.Context, fp fingerprint.Fingerprint) {
	if t.KV != nil {
		t.KV.Invalidate(ctx, fp)
	}
	_ = t.File.Invalidate(fp)
}

// Resolve wraps fn in the single-flight coordinator for fp.
func (t *Tier) Resolve(fp fingerprint.Fingerprint, fn func() (Entry, error)) (Entry, error, bool) {
	return t.Coordinator.Do(fp, fn)
}

// Stats summarizes cache effectiveness across both tiers since process
// start, mirroring the hit-rate bookkeeping the resolver used to keep
// privately: total lookups, lookups served without a remote call, and the
// derived hit rate.
type Stats struct {
	TotalRequests  uint64
	CacheHits      uint64
	HitRatePercent float64
	SharedMisses   uint64
	FileEntries    int
	FileBytes      int64
}

// Stats reports cumulative hit-rate counters plus a snapshot of the local
// file tier's on-disk footprint.
func (t *Tier) Stats() (Stats, error) {
	total := atomic.LoadUint64(&t.totalRequests)
	hits := atomic.LoadUint64(&t.cacheHits)
	stats := Stats{
		TotalRequests: total,
		CacheHits:     hits,
		SharedMisses:  t.KV.Misses(),
	}
	if total > 0 {
		stats.HitRatePercent = float64(hits) / float64(total) * 100
	}
	entries, bytes, err := t.File.Footprint()
	if err != nil {
		return stats, err
	}
	stats.FileEntries = entries
	stats.FileBytes = bytes
	return stats, nil
}

// Clear removes every on-disk shard, discarding the entire local cache.
// The shared tier is left untouched since it is not owned by this process.
func (t *Tier) Clear() error {
	return t.File.ClearAll()
}

// Cleanup compacts every on-disk shard, dropping expired and superseded
// records, then evicts the oldest live entries if the local tier is still
// over its byte budget.
func (t *Tier) Cleanup() error {
	return t.File.CompactAll()
}
