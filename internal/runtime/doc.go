// Package runtime assembles the engine for a single process: configuration,
// the campaign registry, and a cached log store per campaign. Hosts embed a
// Runtime and hand the stores to whatever produces or displays events.
package runtime
