package index

import "errors"

// ErrDuplicateDirectory indicates a directory's canonical path is already registered.
var ErrDuplicateDirectory = errors.New("directory already registered")

// ErrNestedDirectory indicates a directory contains, or is contained by, an
// already-registered directory. Directories may not nest per the data model.
var ErrNestedDirectory = errors.New("directory overlaps an existing root")

// ErrInvalidTransition indicates a set_lyric_state call attempted to move a
// track's lyric state in a way the monotonic upgrade lattice forbids without
// --force.
var ErrInvalidTransition = errors.New("lyric state transition not allowed without --force")

// ErrSchemaMismatch indicates the database carries a newer schema than this
// build understands.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// ErrTrackNotFound indicates a track id does not exist in the index.
var ErrTrackNotFound = errors.New("track not found")
