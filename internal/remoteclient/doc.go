// Package remoteclient is the HTTPS client against the remote lyrics
// catalog API. It exposes the two operations the resolver needs — an exact
// signature lookup and a fuzzy search — behind a shared retry/backoff loop
// and a process-wide rate limiter, so every caller gets the same
// Retry-After handling and the same RPS ceiling regardless of which
// worker pool issued the request.
package remoteclient
