// Package logstore owns the in-memory cache of a campaign's activity log
// and mediates every read and write against the backing resource.
//
// The cache moves through three states. It starts Unloaded, becomes Fresh
// after a rebuild, and drops to Stale when the change notifier reports an
// external edit; any operation that needs the cache rebuilds a stale one
// first. Writes are optimistic: the store remembers the resource's
// modification marker and refuses to write over a marker it has not seen,
// surfacing ErrConcurrentModification instead.
//
// Appends splice one pre-rendered block after the header and leave the rest
// of the file untouched. Note updates regenerate the entire document from
// the cache, which also drops any blocks the last rebuild found corrupted —
// by then the user has had their repair report.
package logstore
