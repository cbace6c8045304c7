// Package omap implements a map that remembers insertion order.
//
// Every key gets a sequence number when it's first inserted. Updating
// a value keeps the number (and therefore the position), deleting a key
// only drops it from the lookup table. Sequence numbers are never reused
// or renumbered, so the order of the remaining keys is stable.
//
// The zero value is an empty map ready to use. Map is not safe for
// concurrent use.
package omap

import (
	"iter"
	"slices"
)

type entry[K comparable, V any] struct {
	key K
	val V
	seq uint64
}

// Map is an insertion-ordered map
type Map[K comparable, V any] struct {
	m       map[K]*entry[K, V]
	nextSeq uint64

	// entries sorted by seq, rebuilt lazily after a delete
	order      []*entry[K, V]
	orderStale bool
}

// New creates an empty Map
func New[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{}
}

// Len returns number of keys
func (m *Map[K, V]) Len() int {
	return len(m.m)
}

// Has returns true if key is in the map
func (m *Map[K, V]) Has(key K) bool {
	_, ok := m.m[key]
	return ok
}

// Get returns value for a key
func (m *Map[K, V]) Get(key K) (V, bool) {
	e, ok := m.m[key]
	if !ok {
		var zero V
		return zero, false
	}
	return e.val, true
}

// Set inserts or updates the value for key. New keys go at the end,
// existing keys keep their position. Returns true if key was added.
func (m *Map[K, V]) Set(key K, val V) bool {
	if e, ok := m.m[key]; ok {
		e.val = val
		return false
	}
	if m.m == nil {
		m.m = map[K]*entry[K, V]{}
	}
	e := &entry[K, V]{
		key: key,
		val: val,
		seq: m.nextSeq,
	}
	m.nextSeq++
	m.m[key] = e
	if !m.orderStale {
		// new entry has the highest seq so order stays sorted
		m.order = append(m.order, e)
	}
	return true
}

// Delete removes key. Returns false if key wasn't there.
func (m *Map[K, V]) Delete(key K) bool {
	if _, ok := m.m[key]; !ok {
		return false
	}
	delete(m.m, key)
	m.order = nil
	m.orderStale = true
	return true
}

// Clear removes all keys
func (m *Map[K, V]) Clear() {
	m.m = nil
	m.order = nil
	m.orderStale = false
}

func (m *Map[K, V]) sorted() []*entry[K, V] {
	if !m.orderStale {
		return m.order
	}
	order := make([]*entry[K, V], 0, len(m.m))
	for _, e := range m.m {
		order = append(order, e)
	}
	slices.SortFunc(order, func(a, b *entry[K, V]) int {
		if a.seq < b.seq {
			return -1
		}
		if a.seq > b.seq {
			return 1
		}
		return 0
	})
	m.order = order
	m.orderStale = false
	return order
}

// Keys returns keys in insertion order
func (m *Map[K, V]) Keys() []K {
	order := m.sorted()
	res := make([]K, len(order))
	for i, e := range order {
		res[i] = e.key
	}
	return res
}

// All iterates over key / value pairs in insertion order.
// The map must not be modified during iteration.
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, e := range m.sorted() {
			if !yield(e.key, e.val) {
				return
			}
		}
	}
}

