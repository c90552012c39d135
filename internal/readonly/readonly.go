// Package readonly implements spec §4.K's read-only wrapper: given any
// container, return a proxy that permits reads and iteration but rejects
// writes. Per spec §9's own Design Notes ("the read-only wrapper pattern of
// the source becomes structural immutability in the new language; no proxy
// is needed" / "become newtypes with only immutable accessors; iteration is
// provided via standard traits"), this package is deliberately thin: two
// generic newtypes over a copied backing slice/map, with no mutator methods
// at all: Go has no way to "reject a write" on a value type at runtime, so
// the wrapper's immutability comes from never exposing one.
package readonly

import (
	"fmt"
	"sort"
)

// Slice is an immutable, ordered, indexable view over a sequence.
type Slice[T any] struct {
	items []T
}

// NewSlice copies items into a Slice; later mutation of the source slice
// does not affect the wrapper.
func NewSlice[T any](items []T) Slice[T] {
	cp := make([]T, len(items))
	copy(cp, items)
	return Slice[T]{items: cp}
}

// Len reports the number of elements.
func (s Slice[T]) Len() int { return len(s.items) }

// At returns the element at a 0-based index.
func (s Slice[T]) At(i int) (T, bool) {
	var zero T
	if i < 0 || i >= len(s.items) {
		return zero, false
	}
	return s.items[i], true
}

// Range calls fn for every element in order, stopping early if fn returns
// false.
func (s Slice[T]) Range(fn func(i int, v T) bool) {
	for i, v := range s.items {
		if !fn(i, v) {
			return
		}
	}
}

// ToSlice returns a fresh copy of the wrapped elements, safe for the caller
// to mutate.
func (s Slice[T]) ToSlice() []T {
	cp := make([]T, len(s.items))
	copy(cp, s.items)
	return cp
}

// Map is an immutable, keyed view over a map, with deterministic iteration
// order (keys sorted by their string form) so callers relying on Range get
// the same sequence across runs.
type Map[K comparable, V any] struct {
	entries map[K]V
	order   []K
}

// NewMap copies entries into a Map; keyOrder, if non-nil, fixes iteration
// order (used when insertion order matters, e.g. a package's declared file
// list); otherwise Range visits keys sorted by their string form.
func NewMap[K comparable, V any](entries map[K]V, keyOrder []K) Map[K, V] {
	cp := make(map[K]V, len(entries))
	for k, v := range entries {
		cp[k] = v
	}
	var order []K
	if keyOrder != nil {
		order = append(order, keyOrder...)
	} else {
		for k := range cp {
			order = append(order, k)
		}
		sort.Slice(order, func(i, j int) bool {
			return fmt.Sprint(order[i]) < fmt.Sprint(order[j])
		})
	}
	return Map[K, V]{entries: cp, order: order}
}

// Get looks up a value by key.
func (m Map[K, V]) Get(key K) (V, bool) {
	v, ok := m.entries[key]
	return v, ok
}

// Len reports the number of entries.
func (m Map[K, V]) Len() int { return len(m.entries) }

// Range calls fn for every entry in the Map's fixed iteration order,
// stopping early if fn returns false.
func (m Map[K, V]) Range(fn func(k K, v V) bool) {
	for _, k := range m.order {
		if !fn(k, m.entries[k]) {
			return
		}
	}
}

// SortedStringMap is a convenience constructor for the common case of a
// string-keyed Map with no meaningful insertion order: keys are sorted
// lexically so iteration is still deterministic without the caller having
// to track an explicit order.
func SortedStringMap[V any](entries map[string]V) Map[string, V] {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return NewMap(entries, keys)
}
