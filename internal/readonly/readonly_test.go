package readonly

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSliceIsolatesSource(t *testing.T) {
	src := []int{1, 2, 3}
	s := NewSlice(src)
	src[0] = 99

	v, ok := s.At(0)
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 3, s.Len())

	_, ok = s.At(3)
	assert.False(t, ok)
}

func TestSliceRangeStopsEarly(t *testing.T) {
	s := NewSlice([]string{"a", "b", "c"})
	var seen []string
	s.Range(func(i int, v string) bool {
		seen = append(seen, v)
		return v != "b"
	})
	assert.Equal(t, []string{"a", "b"}, seen)
}

func TestSortedStringMapDeterministicOrder(t *testing.T) {
	m := SortedStringMap(map[string]int{"z": 1, "a": 2, "m": 3})
	var keys []string
	m.Range(func(k string, v int) bool {
		keys = append(keys, k)
		return true
	})
	assert.Equal(t, []string{"a", "m", "z"}, keys)
}

func TestMapGetAndLen(t *testing.T) {
	m := NewMap(map[string]int{"a": 1}, []string{"a"})
	v, ok := m.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 1, m.Len())

	_, ok = m.Get("missing")
	assert.False(t, ok)
}
