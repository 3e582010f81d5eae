// Package memory implements storage.Resource in process memory. It backs
// tests and the engine's ephemeral mode, and its Touch method simulates an
// external editor for exercising change notification and conflict paths.
package memory

import (
	"fmt"
	"os"
	"sync"

	"github.com/DubyaFM/quartermaster/internal/storage"
)

// Resource is an in-memory storage.Resource.
type Resource struct {
	mu      sync.Mutex
	text    string
	present bool
	version int
	subs    map[int]func()
	nextSub int
}

// New returns an absent in-memory resource.
func New() *Resource { return &Resource{subs: map[int]func(){}} }

// NewWithText returns a present resource holding text.
func NewWithText(text string) *Resource {
	r := New()
	r.present = true
	r.text = text
	r.version = 1
	return r
}

// Exists implements storage.Resource.
func (r *Resource) Exists() (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.present, nil
}

// ReadAll implements storage.Resource.
func (r *Resource) ReadAll() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.present {
		return "", os.ErrNotExist
	}
	return r.text, nil
}

// WriteAll implements storage.Resource.
func (r *Resource) WriteAll(text string) error {
	r.mu.Lock()
	r.text = text
	r.present = true
	r.version++
	r.mu.Unlock()
	return nil
}

// Create implements storage.Resource.
func (r *Resource) Create(initial string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.present {
		return os.ErrExist
	}
	r.text = initial
	r.present = true
	r.version++
	return nil
}

// ModMarker implements storage.Resource.
func (r *Resource) ModMarker() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.present {
		return "", nil
	}
	return fmt.Sprintf("v%d", r.version), nil
}

type sub struct {
	r  *Resource
	id int
}

func (s *sub) Close() error {
	s.r.mu.Lock()
	delete(s.r.subs, s.id)
	s.r.mu.Unlock()
	return nil
}

// Watch implements storage.Resource. Only Touch fires notifications: the
// engine's own writes are not "external" changes.
func (r *Resource) Watch(onChange func()) (storage.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextSub
	r.nextSub++
	r.subs[id] = onChange
	return &sub{r: r, id: id}, nil
}

// Touch replaces the text as an external editor would and notifies watchers.
func (r *Resource) Touch(text string) {
	r.mu.Lock()
	r.text = text
	r.present = true
	r.version++
	fns := make([]func(), 0, len(r.subs))
	for _, fn := range r.subs {
		fns = append(fns, fn)
	}
	r.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}
