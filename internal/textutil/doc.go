// Package textutil provides the token-fingerprint machinery used to narrow
// down local-catalog search candidates before the weighted edit-distance
// score in package fuzzymatch ranks the shortlist.
//
// The primary use cases are:
//   - Creating token-based fingerprints from track tags for cheap pre-filtering
//     of a large local catalog before the weighted edit-distance score in
//     package fuzzymatch ranks the shortlist
//   - Computing cosine similarity between fingerprints
//
// Fingerprints use term frequency vectors normalized for efficient comparison.
// The tokenization process lowercases text, splits on non-alphanumeric characters,
// and filters tokens shorter than 3 characters.
package textutil
