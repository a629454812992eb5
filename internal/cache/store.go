// Package cache is the read-through entity cache. Concurrent fetches of the
// same key share one remote call, explicit invalidation forces the next fetch
// back to the remote, and failures are handed to the callers of the failed
// call without being remembered as values.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/julianstephens/goaltrack/internal/constants"
	apperrors "github.com/julianstephens/goaltrack/internal/errors"
	"github.com/julianstephens/goaltrack/internal/logger"
)

// Status is the presentation state of a cache entry.
type Status int

const (
	// StatusIdle means nothing has been fetched yet.
	StatusIdle Status = iota
	// StatusLoading means the first fetch is in flight.
	StatusLoading
	// StatusReady means a value is available.
	StatusReady
	// StatusError means the most recent fetch failed.
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// Loader fetches the collection for a key from the remote.
type Loader func(ctx context.Context) (any, error)

// Snapshot is a point-in-time view of an entry.
type Snapshot struct {
	Status    Status
	Value     any
	HasValue  bool
	Err       error
	FetchedAt time.Time
	Stale     bool
	Loading   bool
	// Waiters is the number of callers blocked on the in-flight fetch.
	Waiters int
}

type entry struct {
	value     any
	hasValue  bool
	fetchedAt time.Time
	stale     bool
	err       error
	loading   bool
	waiters   int
	// gen advances on every new flight and every invalidation. Results
	// from an older generation are discarded.
	gen uint64
}

// Options configures a Store.
type Options struct {
	// Freshness is the window a fetched value is served without refetching.
	// A kind without a window stays fresh until invalidated.
	Freshness map[Kind]time.Duration
	Now       func() time.Time
}

// DefaultOptions returns the standard freshness windows.
func DefaultOptions() Options {
	return Options{
		Freshness: map[Kind]time.Duration{
			KindCategories: constants.CategoriesFreshness,
			KindGoals:      constants.GoalsFreshness,
		},
	}
}

// Store is safe for concurrent use.
type Store struct {
	mu        sync.Mutex
	entries   map[Key]*entry
	group     singleflight.Group
	freshness map[Kind]time.Duration
	now       func() time.Time
}

// New creates an empty store.
func New(opts Options) *Store {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	freshness := make(map[Kind]time.Duration, len(opts.Freshness))
	for k, v := range opts.Freshness {
		freshness[k] = v
	}
	return &Store{
		entries:   make(map[Key]*entry),
		freshness: freshness,
		now:       now,
	}
}

func (s *Store) entryLocked(key Key) *entry {
	e, ok := s.entries[key]
	if !ok {
		e = &entry{}
		s.entries[key] = e
	}
	return e
}

func (s *Store) freshLocked(key Key, e *entry) bool {
	if !e.hasValue || e.stale {
		return false
	}
	window, ok := s.freshness[key.Kind]
	if !ok || window <= 0 {
		return true
	}
	return s.now().Sub(e.fetchedAt) < window
}

func flightKey(key Key, gen uint64) string {
	return fmt.Sprintf("%s#%d", key, gen)
}

// Fetch returns the cached value for key when fresh, and otherwise calls
// load. Callers arriving while a load for key is in flight wait for it
// instead of issuing another. Cancelling ctx abandons the wait; the load
// itself finishes and its result is stored for the next caller.
func (s *Store) Fetch(ctx context.Context, key Key, load Loader) (any, error) {
	s.mu.Lock()
	e := s.entryLocked(key)
	if s.freshLocked(key, e) {
		v := e.value
		s.mu.Unlock()
		return v, nil
	}

	if !e.loading {
		e.gen++
		e.loading = true
		logger.Debug("Cache miss", "key", key.String(), "gen", e.gen)
	} else {
		logger.Debug("Joining in-flight fetch", "key", key.String(), "gen", e.gen)
	}
	gen := e.gen
	loadCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(flightKey(key, gen), func() (any, error) {
		v, err := load(loadCtx)
		s.store(key, gen, v, err)
		return v, err
	})
	e.waiters++
	s.mu.Unlock()

	defer s.release(key)

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		// The caller gave up waiting; the load carries on for the next one.
		return nil, apperrors.Wrap(apperrors.KindNetwork, "fetch "+key.String(), ctx.Err())
	}
}

func (s *Store) release(key Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok && e.waiters > 0 {
		e.waiters--
	}
}

func (s *Store) store(key Key, gen uint64, v any, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entryLocked(key)
	if e.gen != gen {
		logger.Debug("Discarding superseded fetch", "key", key.String(), "gen", gen, "current", e.gen)
		return
	}
	e.loading = false
	if err != nil {
		logger.Warn("Fetch failed", "key", key.String(), "error", err)
		e.err = err
		e.stale = true
		return
	}
	e.value = v
	e.hasValue = true
	e.fetchedAt = s.now()
	e.stale = false
	e.err = nil
}

// Invalidate marks every entry matched by patterns stale. A fetch issued
// after Invalidate returns always reaches the remote; a load already in
// flight still answers its own callers but is not stored.
func (s *Store) Invalidate(patterns ...Pattern) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for key, e := range s.entries {
		for _, p := range patterns {
			if !p.Matches(key) {
				continue
			}
			e.gen++
			e.stale = true
			e.loading = false
			n++
			break
		}
	}
	if n > 0 {
		logger.Debug("Invalidated cache entries", "patterns", fmt.Sprint(patterns), "count", n)
	}
	return n
}

// Snapshot reports the state of key without fetching.
func (s *Store) Snapshot(key Key) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return Snapshot{Status: StatusIdle}
	}

	snap := Snapshot{
		Value:     e.value,
		HasValue:  e.hasValue,
		Err:       e.err,
		FetchedAt: e.fetchedAt,
		Stale:     e.stale,
		Loading:   e.loading,
		Waiters:   e.waiters,
	}
	switch {
	case e.err != nil && !e.loading:
		snap.Status = StatusError
	case e.hasValue:
		snap.Status = StatusReady
	case e.loading:
		snap.Status = StatusLoading
	default:
		snap.Status = StatusIdle
	}
	return snap
}

// Keys lists the keys the store has seen.
func (s *Store) Keys() []Key {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]Key, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	return keys
}
