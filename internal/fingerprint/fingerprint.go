// Package fingerprint computes the canonical RequestFingerprint used as the
// cache key across both cache tiers and as the lookup key into the local
// catalog's exact-match index. Canonicalization is the one place the system
// fixes a normalization form: NFKC, casefold, strip punctuation, collapse
// whitespace. Fingerprints must stay stable across platforms and processes,
// since cache entries survive across runs.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Fingerprint is the canonical key derived from a track's identifying tags.
type Fingerprint string

var (
	punctuationPattern = regexp.MustCompile(`\p{P}+`)
	whitespacePattern  = regexp.MustCompile(`\s+`)
	folder             = cases.Fold()
)

// Canonicalize normalizes a single tag value: NFKC normalize, casefold,
// strip punctuation, collapse whitespace, trim. Two strings that differ only
// in case, whitespace, or punctuation canonicalize identically.
func Canonicalize(value string) string {
	normalized := norm.NFKC.String(value)
	folded := folder.String(normalized)
	stripped := punctuationPattern.ReplaceAllString(folded, "")
	collapsed := whitespacePattern.ReplaceAllString(stripped, " ")
	return strings.TrimSpace(collapsed)
}

// Compute derives a RequestFingerprint from a track's title, artist, album,
// and duration. Duration is rounded to the nearest second so sub-second
// probe jitter does not fragment the cache key space.
func Compute(title, artist, album string, durationSeconds float64) Fingerprint {
	rounded := int64(math.Round(durationSeconds))
	return Fingerprint(fmt.Sprintf("%s\x1f%s\x1f%s\x1f%d",
		Canonicalize(title), Canonicalize(artist), Canonicalize(album), rounded))
}

// String returns the fingerprint's canonical string form.
func (f Fingerprint) String() string { return string(f) }

// hashHex returns the fingerprint's SHA-256 hash as lowercase hex, used as
// the source of the local cache's shard fan-out prefix.
func (f Fingerprint) hashHex() string {
	sum := sha256.Sum256([]byte(f))
	return hex.EncodeToString(sum[:])
}

// ShardKey returns the first two hex characters of the fingerprint's hash,
// used to fan out the local file cache into shard files.
func (f Fingerprint) ShardKey() string {
	hash := f.hashHex()
	if len(hash) < 2 {
		return "00"
	}
	return hash[:2]
}

// CacheKey returns the namespaced key used in the shared KV cache tier.
func (f Fingerprint) CacheKey(namespace string) string {
	if namespace == "" {
		return "lrcsync:" + string(f)
	}
	return namespace + ":" + string(f)
}
