package omap

import (
	"testing"

	"github.com/alecthomas/assert"
)

func collect[K comparable, V any](m *Map[K, V]) ([]K, []V) {
	var keys []K
	var vals []V
	for k, v := range m.All() {
		keys = append(keys, k)
		vals = append(vals, v)
	}
	return keys, vals
}

func TestZeroValue(t *testing.T) {
	var m Map[string, int]
	assert.Equal(t, 0, m.Len())
	assert.False(t, m.Has("a"))
	_, ok := m.Get("a")
	assert.False(t, ok)
	assert.False(t, m.Delete("a"))
	assert.Equal(t, 0, len(m.Keys()))
}

func TestInsertionOrder(t *testing.T) {
	m := New[string, int]()
	for i, k := range []string{"c", "a", "b", "z"} {
		assert.True(t, m.Set(k, i))
	}
	assert.Equal(t, []string{"c", "a", "b", "z"}, m.Keys())

	// update doesn't move the key
	assert.False(t, m.Set("a", 100))
	keys, vals := collect(m)
	assert.Equal(t, []string{"c", "a", "b", "z"}, keys)
	assert.Equal(t, []int{0, 100, 2, 3}, vals)
}

func TestDeleteKeepsOrder(t *testing.T) {
	m := New[string, int]()
	m.Set("a", 1)
	m.Set("b", 2)
	m.Set("c", 3)
	m.Set("d", 4)
	assert.True(t, m.Delete("b"))
	assert.False(t, m.Delete("b"))
	assert.Equal(t, []string{"a", "c", "d"}, m.Keys())
	assert.Equal(t, 3, m.Len())

	// re-inserted key goes to the end
	m.Set("b", 5)
	assert.Equal(t, []string{"a", "c", "d", "b"}, m.Keys())
	m.Delete("a")
	assert.Equal(t, "c", m.Keys()[0])

	// appending after a delete, before the order was rebuilt
	m.Delete("c")
	m.Set("e", 6)
	assert.Equal(t, []string{"d", "b", "e"}, m.Keys())
}

func TestStableIteration(t *testing.T) {
	m := New[int, string]()
	for i := 0; i < 100; i++ {
		m.Set(i*7%101, "")
	}
	for i := 0; i < 100; i += 3 {
		m.Delete(i * 7 % 101)
	}
	k1 := m.Keys()
	k2 := m.Keys()
	assert.Equal(t, k1, k2)
	for i := 1; i < len(k1); i++ {
		// inserted in order of i so seq order == order of i
		assert.True(t, (k1[i-1]*29)%101 < (k1[i]*29)%101, "%d before %d", k1[i-1], k1[i])
	}
}

func TestEarlyBreak(t *testing.T) {
	m := New[string, int]()
	m.Set("a", 1)
	m.Set("b", 2)
	m.Set("c", 3)
	var seen []string
	for k := range m.All() {
		seen = append(seen, k)
		if k == "b" {
			break
		}
	}
	assert.Equal(t, []string{"a", "b"}, seen)
}

func TestClear(t *testing.T) {
	m := New[string, int]()
	m.Set("a", 1)
	m.Delete("a")
	m.Set("b", 2)
	m.Clear()
	assert.Equal(t, 0, m.Len())
	m.Set("c", 3)
	assert.Equal(t, []string{"c"}, m.Keys())
}
