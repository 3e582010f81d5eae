// Package id generates sortable event identifiers.
//
// Event ids double as stable tie-breakers when entries share a timestamp,
// so they are time-prefixed and lexicographically ordered rather than
// random UUIDs.
package id
