package cache

import (
	"golang.org/x/sync/singleflight"

	"lrcsync/internal/fingerprint"
)

// Coordinator ensures concurrent resolves for the same fingerprint share one
// upstream lookup. The lock is held across the Resolver's entire pipeline
// for that fingerprint, not just the network call, so concurrent queries
// benefit even when the answer comes from the local catalog.
type Coordinator struct {
	group singleflight.Group
}

// Do runs fn at most once per fingerprint among concurrent callers, and
// broadcasts its result to every caller waiting on that fingerprint.
func (c *Coordinator) Do(fp fingerprint.Fingerprint, fn func() (Entry, error)) (Entry, error, bool) {
	v, err, shared := c.group.Do(string(fp), func() (any, error) {
		return fn()
	})
	if v == nil {
		return Entry{}, err, shared
	}
	return v.(Entry), err, shared
}

// Forget releases any in-flight marker for fp, so the next Do for fp starts
// a fresh call instead of joining one already running.
func (c *Coordinator) Forget(fp fingerprint.Fingerprint) {
	c.group.Forget(string(fp))
}
