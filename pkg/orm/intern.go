package orm

import "sync"

// Interner keeps one value per key so repeated occurrences share an instance.
// It is safe for concurrent use.
type Interner[K comparable, V any] struct {
	mu    sync.Mutex
	items map[K]V
}

// NewInterner returns an empty interner.
func NewInterner[K comparable, V any]() *Interner[K, V] {
	return &Interner[K, V]{items: make(map[K]V)}
}

// GetOrCreate returns the value cached under key, calling create and caching
// its result when there is none. A failed create caches nothing.
func (in *Interner[K, V]) GetOrCreate(key K, create func() (V, error)) (V, error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	if v, ok := in.items[key]; ok {
		return v, nil
	}
	v, err := create()
	if err != nil {
		return v, err
	}
	in.items[key] = v
	return v, nil
}

// Lookup returns the value cached under key.
func (in *Interner[K, V]) Lookup(key K) (V, bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	v, ok := in.items[key]
	return v, ok
}

// Len returns the number of cached values.
func (in *Interner[K, V]) Len() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.items)
}
