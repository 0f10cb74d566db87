package cache

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"lrcsync/internal/fingerprint"
)

// KVTier is the optional shared cache tier. A network fault degrades to a
// miss rather than propagating an error, matching the rule that Resolver
// treats a remote cache error as a miss and records a counter.
type KVTier struct {
	client    *redis.Client
	namespace string
	logger    *slog.Logger
	misses    uint64
}

// NewKVTier dials a Redis server. addr is host:port; namespace prefixes every
// key so multiple lrcsync libraries can share one Redis instance.
func NewKVTier(addr, namespace string, logger *slog.Logger) *KVTier {
	if logger == nil {
		logger = slog.Default()
	}
	return &KVTier{
		client:    redis.NewClient(&redis.Options{Addr: addr}),
		namespace: namespace,
		logger:    logger,
	}
}

// Ping verifies connectivity at startup so configuration errors surface
// before any work begins rather than silently degrading every lookup.
func (t *KVTier) Ping(ctx context.Context) error {
	if t == nil || t.client == nil {
		return errors.New("kv tier not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return t.client.Ping(ctx).Err()
}

// Close releases the Redis connection.
func (t *KVTier) Close() error {
	if t == nil || t.client == nil {
		return nil
	}
	return t.client.Close()
}

// Get fetches an entry. Any Redis error, including a connection fault, is
// treated as a miss: the Resolver falls through to the next tier.
func (t *KVTier) Get(ctx context.Context, fp fingerprint.Fingerprint) (Entry, bool) {
	if t == nil || t.client == nil {
		return Entry{}, false
	}
	data, err := t.client.Get(ctx, fp.CacheKey(t.namespace)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			t.misses++
			t.logger.Debug("shared cache unavailable, treating as miss", slog.Any("error", err))
		}
		return Entry{}, false
	}
	entry, decodeErr := decodeEntry(data)
	if decodeErr != nil {
		t.logger.Warn("shared cache entry corrupt, treating as miss", slog.Any("error", decodeErr))
		return Entry{}, false
	}
	return entry, true
}

// Put writes an entry with the given TTL. Failures are logged, not
// propagated: the shared tier is an accelerator, never a source of truth.
func (t *KVTier) Put(ctx context.Context, fp fingerprint.Fingerprint, entry Entry, ttl time.Duration) {
	if t == nil || t.client == nil {
		return
	}
	data, err := encodeEntry(entry)
	if err != nil {
		t.logger.Warn("encode cache entry failed", slog.Any("error", err))
		return
	}
	if err := t.client.Set(ctx, fp.CacheKey(t.namespace), data, ttl).Err(); err != nil {
		t.logger.Debug("shared cache write failed", slog.Any("error", err))
	}
}

// Invalidate deletes an entry, used by --force.
func (t *KVTier) Invalidate(ctx context.Context, fp fingerprint.Fingerprint) {
	if t == nil || t.client == nil {
		return
	}
	if err := t.client.Del(ctx, fp.CacheKey(t.namespace)).Err(); err != nil {
		t.logger.Debug("shared cache invalidate failed", slog.Any("error", err))
	}
}

// Misses returns the running count of shared-cache faults treated as misses.
func (t *KVTier) Misses() uint64 {
	if t == nil {
		return 0
	}
	return t.misses
}

func encodeEntry(entry Entry) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(entry); err != nil {
		return nil, fmt.Errorf("encode cache entry: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeEntry(data []byte) (Entry, error) {
	var entry Entry
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&entry); err != nil {
		return Entry{}, fmt.Errorf("decode cache entry: %w", err)
	}
	return entry, nil
}
