package mutation

import "sync"

// Overlay holds optimistic deltas by mutation key. It is never merged into
// the cache; views apply it at render time.
type Overlay[V any] struct {
	mu     sync.Mutex
	deltas map[string]V
	order  []string
}

// NewOverlay creates an empty overlay.
func NewOverlay[V any]() *Overlay[V] {
	return &Overlay[V]{deltas: make(map[string]V)}
}

// Set installs the delta for key.
func (o *Overlay[V]) Set(key string, v V) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.deltas[key]; !ok {
		o.order = append(o.order, key)
	}
	o.deltas[key] = v
}

// Delete removes the delta for key.
func (o *Overlay[V]) Delete(key string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.deltas[key]; !ok {
		return
	}
	delete(o.deltas, key)
	for i, k := range o.order {
		if k == key {
			o.order = append(o.order[:i], o.order[i+1:]...)
			break
		}
	}
}

// Get returns the delta for key.
func (o *Overlay[V]) Get(key string) (V, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	v, ok := o.deltas[key]
	return v, ok
}

// Values returns the deltas in the order they were first set.
func (o *Overlay[V]) Values() []V {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]V, 0, len(o.order))
	for _, k := range o.order {
		out = append(out, o.deltas[k])
	}
	return out
}

// Len returns the number of deltas.
func (o *Overlay[V]) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.deltas)
}
