// Package storage defines the backing-resource seam the log store persists
// through. The engine never performs partial writes: a resource is read and
// written whole.
package storage

// Subscription is a handle on an active change watch.
type Subscription interface {
	Close() error
}

// Resource is a single external text store holding one activity log.
type Resource interface {
	// Exists reports whether the resource is present.
	Exists() (bool, error)

	// ReadAll returns the full current text.
	ReadAll() (string, error)

	// WriteAll replaces the full text.
	WriteAll(text string) error

	// Create brings the resource into existence with initial text. It fails
	// if the resource already exists.
	Create(initial string) error

	// ModMarker returns an opaque token that changes whenever the resource's
	// content changes. An absent resource yields the empty marker. Marker
	// comparison is the engine's only concurrent-edit defense and is
	// best-effort by contract.
	ModMarker() (string, error)

	// Watch invokes onChange after the resource is modified, from any
	// writer. Implementations may coalesce bursts. The subscription must be
	// closed to release the watch.
	Watch(onChange func()) (Subscription, error)
}
