package index

import (
	"strings"
	"time"
)

// LyricState represents the lyric-acquisition state attached to a Track.
type LyricState string

const (
	StateUnknown       LyricState = "unknown"
	StateSyncedPresent LyricState = "synced_present"
	StatePlainPresent  LyricState = "plain_present"
	StateInstrumental  LyricState = "instrumental"
	StateNotFound      LyricState = "not_found"
	StateFailed        LyricState = "failed"
)

var allStates = []LyricState{
	StateUnknown,
	StateSyncedPresent,
	StatePlainPresent,
	StateInstrumental,
	StateNotFound,
	StateFailed,
}

var stateSet = func() map[LyricState]struct{} {
	set := make(map[LyricState]struct{}, len(allStates))
	for _, s := range allStates {
		set[s] = struct{}{}
	}
	return set
}()

// terminalStates holds states that require --force to transition away from,
// per the monotonic upgrade lattice in the data model.
var terminalStates = map[LyricState]struct{}{
	StateSyncedPresent: {},
	StateInstrumental:  {},
}

// AllLyricStates returns the ordered list of known lyric states.
func AllLyricStates() []LyricState {
	cp := make([]LyricState, len(allStates))
	copy(cp, allStates)
	return cp
}

// ParseLyricState converts a string into a known LyricState.
func ParseLyricState(value string) (LyricState, bool) {
	normalized := LyricState(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := stateSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a state is terminal absent --force, per §3.
func (s LyricState) IsTerminal() bool {
	_, ok := terminalStates[s]
	return ok
}

// allowedTransition reports whether moving from `from` to `to` respects the
// monotonic upgrade lattice: Unknown -> anything; PlainPresent -> SyncedPresent;
// any state -> itself (idempotent re-application); everything else requires force.
func allowedTransition(from, to LyricState) bool {
	if from == to {
		return true
	}
	if from == StateUnknown {
		return true
	}
	if from == StatePlainPresent && to == StateSyncedPresent {
		return true
	}
	return false
}

// Directory is a configured library root.
type Directory struct {
	ID        int64
	Path      string
	CreatedAt time.Time
}

// Track is one audio file known to the library.
type Track struct {
	ID             int64
	DirectoryID    int64
	RelativePath   string
	Title          string
	Artist         string
	Album          string
	AlbumArtist    string
	DurationSec    float64
	FileModifiedAt time.Time
	LastScannedAt  time.Time
	LyricState     LyricState
	FailureReason  string
}

// DefaultTitle derives a fallback title from a relative path basename, per the
// Track invariant: missing tag data defaults to the file's basename.
func DefaultTitle(relativePath string) string {
	base := relativePath
	if idx := strings.LastIndexAny(base, `/\`); idx >= 0 {
		base = base[idx+1:]
	}
	if idx := strings.LastIndex(base, "."); idx > 0 {
		base = base[:idx]
	}
	base = strings.TrimSpace(base)
	if base == "" {
		return "Unknown Title"
	}
	return base
}

// DefaultArtist is the fallback artist name when tag data is missing.
const DefaultArtist = "Unknown Artist"

// TrackFilter selects a subset of tracks for list_tracks/Orchestrator work sets.
// Zero-value fields are treated as "no constraint".
type TrackFilter struct {
	MissingLyrics bool
	Artist        string
	Album         string
	IDs           []int64
	DirectoryID   int64
}
