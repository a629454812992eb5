// Package mutation applies user writes optimistically. A mutation validates
// locally, applies a delta keyed by its target, calls the remote, then either
// invalidates the affected cache keys and clears the delta, or reverts
// exactly that delta. Mutations are never retried.
package mutation

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/julianstephens/goaltrack/internal/cache"
	apperrors "github.com/julianstephens/goaltrack/internal/errors"
	"github.com/julianstephens/goaltrack/internal/logger"
)

// Invalidator marks cache entries stale.
type Invalidator interface {
	Invalidate(patterns ...cache.Pattern) int
}

// Mutation describes one optimistic write.
type Mutation struct {
	// Key identifies the target. Only one mutation per key may be pending.
	Key  string
	Name string
	// Validate runs before anything else; an error stops the mutation.
	Validate func() error
	// Apply installs the optimistic delta.
	Apply func()
	// Revert removes exactly the delta Apply installed.
	Revert func()
	// Remote performs the write.
	Remote func(ctx context.Context) error
	// Invalidates lists the cache keys the write may have changed.
	Invalidates []cache.Pattern
	// Refetch optionally reloads invalidated data before Settle so views
	// move straight from the delta to fresh data.
	Refetch func(ctx context.Context) error
	// Settle clears the delta after a successful write.
	Settle func()
}

// Coordinator tracks pending mutations by key.
type Coordinator struct {
	cache Invalidator

	mu      sync.Mutex
	pending map[string]string
}

// NewCoordinator creates a coordinator that invalidates c on success.
func NewCoordinator(c Invalidator) *Coordinator {
	return &Coordinator{cache: c, pending: make(map[string]string)}
}

// IsPending reports whether a mutation for key is in flight.
func (c *Coordinator) IsPending(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.pending[key]
	return ok
}

// Begin validates m, reserves its key and applies its delta. The returned
// Pending must be executed or discarded.
func (c *Coordinator) Begin(m Mutation) (*Pending, error) {
	if m.Key == "" {
		return nil, apperrors.Validation(m.Name, "mutation has no target key")
	}
	if m.Remote == nil {
		return nil, apperrors.Validation(m.Name, "mutation has no remote call")
	}
	if m.Validate != nil {
		if err := m.Validate(); err != nil {
			return nil, err
		}
	}

	id := uuid.NewString()
	c.mu.Lock()
	if _, busy := c.pending[m.Key]; busy {
		c.mu.Unlock()
		return nil, apperrors.Newf(apperrors.KindValidation, m.Name, "a change to %s is already in progress", m.Key)
	}
	c.pending[m.Key] = id
	c.mu.Unlock()

	if m.Apply != nil {
		m.Apply()
	}
	logger.Debug("Mutation applied optimistically", "mutation", m.Name, "key", m.Key, "id", id)

	return &Pending{c: c, m: m, ID: id}, nil
}

// Run is Begin followed by Execute.
func (c *Coordinator) Run(ctx context.Context, m Mutation) error {
	p, err := c.Begin(m)
	if err != nil {
		return err
	}
	return p.Execute(ctx)
}

func (c *Coordinator) release(key, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending[key] == id {
		delete(c.pending, key)
	}
}

// Pending is a mutation whose delta is applied and whose remote call has not
// finished.
type Pending struct {
	c  *Coordinator
	m  Mutation
	ID string

	once        sync.Once
	settleOnce  sync.Once
	deferSettle bool
	committed   bool
}

// Key returns the mutation's target key.
func (p *Pending) Key() string { return p.m.Key }

// Execute performs the remote write and reverts the delta on failure. On
// success the delta is settled unless DeferSettle was called.
func (p *Pending) Execute(ctx context.Context) error {
	var err error = apperrors.Validation(p.m.Name, "mutation already finished")
	p.once.Do(func() {
		err = p.execute(ctx)
	})
	return err
}

// DeferSettle keeps the delta and the key reservation after a successful
// write until Settle is called. Callers that hold their own copy of the
// data use it to swap in refetched data before the delta goes away.
// It must be called before Execute.
func (p *Pending) DeferSettle() {
	p.deferSettle = true
}

// Settle clears the delta of a committed mutation and frees its key. It
// does nothing before a successful Execute and after the first call.
func (p *Pending) Settle() {
	if !p.committed {
		return
	}
	p.settleOnce.Do(func() {
		if p.m.Settle != nil {
			p.m.Settle()
		}
		p.c.release(p.m.Key, p.ID)
	})
}

func (p *Pending) execute(ctx context.Context) error {
	if err := p.m.Remote(ctx); err != nil {
		if p.m.Revert != nil {
			p.m.Revert()
		}
		p.c.release(p.m.Key, p.ID)
		logger.Warn("Mutation failed, rolled back",
			"mutation", p.m.Name,
			"key", p.m.Key,
			"id", p.ID,
			"kind", apperrors.KindOf(err),
			"error", err)
		return err
	}

	if p.c.cache != nil && len(p.m.Invalidates) > 0 {
		p.c.cache.Invalidate(p.m.Invalidates...)
	}
	if p.m.Refetch != nil {
		if err := p.m.Refetch(ctx); err != nil {
			logger.Warn("Refetch after mutation failed", "mutation", p.m.Name, "error", err)
		}
	}
	p.committed = true
	logger.Debug("Mutation committed", "mutation", p.m.Name, "key", p.m.Key, "id", p.ID, "deferred", p.deferSettle)
	if !p.deferSettle {
		p.Settle()
	}
	return nil
}

// Discard reverts the delta without calling the remote.
func (p *Pending) Discard() {
	p.once.Do(func() {
		if p.m.Revert != nil {
			p.m.Revert()
		}
		p.c.release(p.m.Key, p.ID)
		logger.Debug("Mutation discarded", "mutation", p.m.Name, "key", p.m.Key, "id", p.ID)
	})
}
