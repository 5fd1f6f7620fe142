// Package args holds the shared key/value argument store a scenario reads its
// options from, and the scoped override used to inject a scenario's extra
// arguments for the duration of one run.
//
// A Bundle is shared by every scenario of a suite. Only one scenario may hold an
// override at a time; suites run scenarios sequentially, so the store does not
// try to arbitrate between concurrent scenarios. The internal lock only keeps
// reads from an abandoned (timed out) journey memory-safe.
package args

import (
	"sort"
	"sync"
)

// Pair is a single key/value argument.
type Pair struct {
	Key   string `json:"key" yaml:"key" toml:"key"`
	Value string `json:"value" yaml:"value" toml:"value"`
}

// Bundle is a mutable string key/value store.
type Bundle struct {
	mu     sync.RWMutex
	values map[string]string
}

// New creates an empty bundle.
func New() *Bundle {
	return &Bundle{values: make(map[string]string)}
}

// FromMap creates a bundle holding a copy of m.
func FromMap(m map[string]string) *Bundle {
	b := New()
	for k, v := range m {
		b.values[k] = v
	}
	return b
}

// Get returns the value stored at key and whether it was present.
func (b *Bundle) Get(key string) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.values[key]
	return v, ok
}

// GetString returns the value stored at key, or def when the key is absent.
func (b *Bundle) GetString(key, def string) string {
	if v, ok := b.Get(key); ok {
		return v
	}
	return def
}

// Set stores value at key, replacing any previous value.
func (b *Bundle) Set(key, value string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.values[key] = value
}

// Delete removes key. Deleting a missing key is a no-op.
func (b *Bundle) Delete(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.values, key)
}

// Len returns the number of keys.
func (b *Bundle) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.values)
}

// Keys returns all keys in sorted order.
func (b *Bundle) Keys() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	keys := make([]string, 0, len(b.values))
	for k := range b.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Map returns a copy of the bundle contents.
func (b *Bundle) Map() map[string]string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return copyMap(b.values)
}

// Clone returns an independent copy of the bundle.
func (b *Bundle) Clone() *Bundle {
	return &Bundle{values: b.Map()}
}

// Equal reports whether both bundles hold the same key/value pairs.
// Insertion order is irrelevant.
func (b *Bundle) Equal(other *Bundle) bool {
	if b == other {
		return true
	}
	if b == nil || other == nil {
		return false
	}
	mine := b.Map()
	theirs := other.Map()
	if len(mine) != len(theirs) {
		return false
	}
	for k, v := range mine {
		if ov, ok := theirs[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
