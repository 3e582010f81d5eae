package logstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/DubyaFM/quartermaster/internal/codec"
	"github.com/DubyaFM/quartermaster/internal/document"
	"github.com/DubyaFM/quartermaster/internal/event"
	"github.com/DubyaFM/quartermaster/internal/query"
	"github.com/DubyaFM/quartermaster/internal/storage"
	logpkg "github.com/DubyaFM/quartermaster/pkg/log"
)

// Operation errors surfaced to callers.
var (
	// ErrNotFound reports an UpdateNotes target missing from the cache.
	ErrNotFound = errors.New("event not found")

	// ErrConcurrentModification reports that the backing resource changed
	// between the store's last read and an attempted write. The caller
	// decides whether to reload and retry; the store never retries itself.
	ErrConcurrentModification = errors.New("log modified during edit")
)

// State tracks the cache lifecycle.
type State int

const (
	// StateUnloaded means the cache has never been built.
	StateUnloaded State = iota
	// StateFresh means the cache matches the last text the store read or wrote.
	StateFresh
	// StateStale means an external change was detected; the next operation
	// that needs the cache rebuilds first.
	StateStale
)

// CorruptedEntry describes one block that failed to decode during the last
// rebuild, with enough context for a person to repair it by hand.
type CorruptedEntry struct {
	Line    int    // approximate 1-based line where the block starts
	Preview string // raw block text, truncated
	Err     string
}

// previewMaxLen bounds CorruptedEntry.Preview.
const previewMaxLen = 160

// Store owns the in-memory cache of one campaign's activity log. The cache
// is always sorted descending by timestamp; that ordering is the default of
// every read.
//
// All operations serialize on one mutex. The store tolerates concurrent
// callers but never interleaves two regenerations of the document.
type Store struct {
	mu    sync.Mutex
	res   storage.Resource
	codec *codec.Codec
	log   logpkg.Logger

	state     State
	cache     []event.Event
	byID      map[string]int
	corrupted []CorruptedEntry
	marker    string

	sub storage.Subscription
}

// Open returns a Store over res. Nothing is read until the first operation
// that needs the cache.
func Open(res storage.Resource, logger logpkg.Logger) *Store {
	return &Store{
		res:   res,
		codec: codec.New(logger),
		log:   logger.WithComponent("logstore"),
		byID:  map[string]int{},
	}
}

// Watch subscribes to external-change notifications from the backing
// resource. A detected change only marks the cache stale; the rebuild
// happens on the next read or write.
func (s *Store) Watch() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sub != nil {
		return nil
	}
	sub, err := s.res.Watch(s.onExternalChange)
	if err != nil {
		return err
	}
	s.sub = sub
	return nil
}

func (s *Store) onExternalChange() {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.res.ModMarker()
	if err == nil && m == s.marker {
		// Our own write echoing back through the watcher.
		return
	}
	if s.state == StateFresh {
		s.log.Debug("external change detected, cache marked stale")
	}
	s.state = StateStale
}

// Close releases the change watch, if any.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sub == nil {
		return nil
	}
	err := s.sub.Close()
	s.sub = nil
	return err
}

// State returns the cache state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Append encodes ev and splices its block immediately after the document
// header, so file order matches the cache's newest-first convention. The
// existing entry text is preserved byte-for-byte, including blocks the last
// rebuild reported as corrupted.
func (s *Store) Append(ctx context.Context, ev event.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoadedLocked(); err != nil {
		return err
	}

	block, err := s.codec.Encode(ev)
	if err != nil {
		return err
	}

	doc, err := s.readOrCreateLocked()
	if err != nil {
		return err
	}
	if err := s.writeLocked(document.Prepend(doc, block)); err != nil {
		return err
	}

	s.cache = append([]event.Event{ev}, s.cache...)
	sort.SliceStable(s.cache, func(i, j int) bool {
		return s.cache[i].Timestamp > s.cache[j].Timestamp
	})
	s.reindexLocked()
	s.log.Debug("appended event",
		logpkg.F("event", ev.ID), logpkg.F("type", string(ev.Type)))
	return nil
}

// UpdateNotes sets the notes and notesLastUpdated of the event with the
// given id, then regenerates the whole document from the cache. Notes can
// change on any entry, not just the newest, and the format has no in-place
// patch; full regeneration trades write cost for correctness.
func (s *Store) UpdateNotes(ctx context.Context, id, notes string, updatedAt int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoadedLocked(); err != nil {
		return err
	}

	idx, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	updated := s.cache[idx]
	updated.Notes = notes
	updated.NotesLastUpdated = updatedAt

	blocks := make([]string, len(s.cache))
	for i, ev := range s.cache {
		if i == idx {
			ev = updated
		}
		block, err := s.codec.Encode(ev)
		if err != nil {
			return fmt.Errorf("re-encode %s: %w", ev.ID, err)
		}
		blocks[i] = block
	}

	if err := s.writeLocked(document.Assemble(blocks)); err != nil {
		return err
	}
	s.cache[idx] = updated
	return nil
}

// Rebuild re-derives the cache from the backing resource's current text.
// Corrupted blocks are collected, logged, and excluded; they never abort the
// load. A missing resource is created with the minimal valid header.
func (s *Store) Rebuild(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rebuildLocked()
}

// EnsureLoaded rebuilds only if the cache is unloaded or stale.
func (s *Store) EnsureLoaded(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureLoadedLocked()
}

// Events returns a copy of the cached events, newest first.
func (s *Store) Events(ctx context.Context) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoadedLocked(); err != nil {
		return nil, err
	}
	out := make([]event.Event, len(s.cache))
	copy(out, s.cache)
	return out, nil
}

// Corrupted returns the blocks that failed to decode during the last
// rebuild, for surfacing to the user as repair instructions.
func (s *Store) Corrupted() []CorruptedEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]CorruptedEntry, len(s.corrupted))
	copy(out, s.corrupted)
	return out
}

// Query runs q against the cache.
func (s *Store) Query(ctx context.Context, q query.Query) (query.Result, error) {
	events, err := s.Events(ctx)
	if err != nil {
		return query.Result{}, err
	}
	return query.Run(events, q)
}

// Search runs a free-text query against the cache. It returns exactly what
// Query would with the same SearchText.
func (s *Store) Search(ctx context.Context, text string, q query.Query) (query.Result, error) {
	events, err := s.Events(ctx)
	if err != nil {
		return query.Result{}, err
	}
	return query.Search(events, text, q)
}

func (s *Store) ensureLoadedLocked() error {
	if s.state == StateFresh {
		return nil
	}
	return s.rebuildLocked()
}

func (s *Store) rebuildLocked() error {
	doc, err := s.readOrCreateLocked()
	if err != nil {
		return err
	}

	blocks := document.Split(doc)
	cache := make([]event.Event, 0, len(blocks))
	var corrupted []CorruptedEntry
	for _, b := range blocks {
		ev, err := s.codec.Decode(b.Text)
		if err != nil {
			corrupted = append(corrupted, CorruptedEntry{
				Line:    b.Line,
				Preview: truncate(b.Text, previewMaxLen),
				Err:     err.Error(),
			})
			continue
		}
		cache = append(cache, ev)
	}

	sort.SliceStable(cache, func(i, j int) bool {
		return cache[i].Timestamp > cache[j].Timestamp
	})

	s.cache = cache
	s.corrupted = corrupted
	s.reindexLocked()
	if m, err := s.res.ModMarker(); err == nil {
		s.marker = m
	}
	s.state = StateFresh

	if len(corrupted) > 0 {
		s.log.Warn("rebuild found corrupted entries",
			logpkg.F("events", len(cache)), logpkg.F("corrupted", len(corrupted)))
	} else {
		s.log.Debug("rebuilt cache", logpkg.F("events", len(cache)))
	}
	return nil
}

// readOrCreateLocked reads the full document, lazily creating an absent
// resource with the minimal valid header.
func (s *Store) readOrCreateLocked() (string, error) {
	exists, err := s.res.Exists()
	if err != nil {
		return "", err
	}
	if !exists {
		if err := s.res.Create(document.Empty()); err != nil {
			return "", err
		}
		if m, err := s.res.ModMarker(); err == nil {
			s.marker = m
		}
		return document.Empty(), nil
	}
	return s.res.ReadAll()
}

// writeLocked persists text after the optimistic conflict check: if the
// resource's marker moved since our last read or write, someone else edited
// the log and this write would clobber them.
func (s *Store) writeLocked(text string) error {
	if s.marker != "" {
		m, err := s.res.ModMarker()
		if err != nil {
			return err
		}
		if m != s.marker {
			s.state = StateStale
			return ErrConcurrentModification
		}
	}
	if err := s.res.WriteAll(text); err != nil {
		return err
	}
	if m, err := s.res.ModMarker(); err == nil {
		s.marker = m
	}
	return nil
}

func (s *Store) reindexLocked() {
	s.byID = make(map[string]int, len(s.cache))
	for i, ev := range s.cache {
		s.byID[ev.ID] = i
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
