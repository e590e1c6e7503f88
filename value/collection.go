package value

import (
	"iter"
	"math"
	"reflect"
	"slices"
)

// nanKey stands in for every NaN so that NaN members compare equal.
type nanKey struct{}

// refKey identifies a Go map or slice by its backing storage.
type refKey struct {
	ptr uintptr
	n   int
}

// uniqueKey is assigned to members that have neither a value nor an identity
// usable as a Go map key.
type uniqueKey struct {
	n int
}

// keyOf maps v to the Go map key used for SameValueZero membership:
// numbers compare by value across Go kinds, NaN equals NaN, composites
// compare by identity.
func keyOf(v any, uniq *int) any {
	switch x := v.(type) {
	case nil, bool, string:
		return v
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case int64:
		return x
	case uint:
		return uintKey(uint64(x))
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return uintKey(x)
	case float32:
		return floatKey(float64(x))
	case float64:
		return floatKey(x)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() { //nolint:exhaustive
	case reflect.Map:
		if !rv.IsNil() {
			return refKey{ptr: rv.Pointer()}
		}
	case reflect.Slice:
		// Every empty slice may point at the same zero-size allocation.
		if rv.Len() > 0 {
			return refKey{ptr: rv.Pointer(), n: rv.Len()}
		}
	default:
		// Value.Comparable also inspects interface fields, which a type
		// check alone would miss.
		if rv.Comparable() {
			return v
		}
	}

	*uniq++

	return uniqueKey{n: *uniq}
}

func uintKey(u uint64) any {
	if u <= math.MaxInt64 {
		return int64(u)
	}

	return u
}

func floatKey(f float64) any {
	if math.IsNaN(f) {
		return nanKey{}
	}
	if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
		return int64(f)
	}

	return f
}

// Set is a collection of unique values that remembers insertion order.
type Set struct {
	items []any
	index map[any]int
	uniq  int
}

// NewSet creates a set holding the unique values of items.
func NewSet(items ...any) *Set {
	s := &Set{index: make(map[any]int, len(items))}
	for _, it := range items {
		s.Add(it)
	}

	return s
}

// Add inserts v and reports whether it was not already present.
func (s *Set) Add(v any) bool {
	if s.index == nil {
		s.index = make(map[any]int)
	}

	k := keyOf(v, &s.uniq)
	if _, ok := s.index[k]; ok {
		return false
	}
	s.index[k] = len(s.items)
	s.items = append(s.items, v)

	return true
}

// Has reports whether v is a member.
func (s *Set) Has(v any) bool {
	uniq := s.uniq
	_, ok := s.index[keyOf(v, &uniq)]

	return ok
}

// Delete removes v and reports whether it was present.
func (s *Set) Delete(v any) bool {
	uniq := s.uniq
	k := keyOf(v, &uniq)
	i, ok := s.index[k]
	if !ok {
		return false
	}

	delete(s.index, k)
	s.items = slices.Delete(s.items, i, i+1)
	for key, j := range s.index {
		if j > i {
			s.index[key] = j - 1
		}
	}

	return true
}

// Len returns the number of members.
func (s *Set) Len() int {
	return len(s.items)
}

// Values returns a copy of the members in insertion order.
func (s *Set) Values() []any {
	return slices.Clone(s.items)
}

// All iterates over the members in insertion order.
func (s *Set) All() iter.Seq[any] {
	return func(yield func(any) bool) {
		for _, v := range s.items {
			if !yield(v) {
				return
			}
		}
	}
}

// Map is a collection of key/value pairs with unique keys of any kind that
// remembers insertion order.
type Map struct {
	keys  []any
	vals  []any
	index map[any]int
	uniq  int
}

// NewMap creates an empty map.
func NewMap() *Map {
	return &Map{index: make(map[any]int)}
}

// Set stores v under k and returns the map for chaining.
func (m *Map) Set(k, v any) *Map {
	if m.index == nil {
		m.index = make(map[any]int)
	}

	key := keyOf(k, &m.uniq)
	if i, ok := m.index[key]; ok {
		m.vals[i] = v
		return m
	}
	m.index[key] = len(m.keys)
	m.keys = append(m.keys, k)
	m.vals = append(m.vals, v)

	return m
}

// Get returns the value stored under k.
func (m *Map) Get(k any) (any, bool) {
	uniq := m.uniq
	i, ok := m.index[keyOf(k, &uniq)]
	if !ok {
		return nil, false
	}

	return m.vals[i], true
}

// Has reports whether k is present.
func (m *Map) Has(k any) bool {
	_, ok := m.Get(k)
	return ok
}

// Delete removes k and reports whether it was present.
func (m *Map) Delete(k any) bool {
	uniq := m.uniq
	key := keyOf(k, &uniq)
	i, ok := m.index[key]
	if !ok {
		return false
	}

	delete(m.index, key)
	m.keys = slices.Delete(m.keys, i, i+1)
	m.vals = slices.Delete(m.vals, i, i+1)
	for kk, j := range m.index {
		if j > i {
			m.index[kk] = j - 1
		}
	}

	return true
}

// Len returns the number of entries.
func (m *Map) Len() int {
	return len(m.keys)
}

// Keys returns a copy of the keys in insertion order.
func (m *Map) Keys() []any {
	return slices.Clone(m.keys)
}

// All iterates over key/value pairs in insertion order.
func (m *Map) All() iter.Seq2[any, any] {
	return func(yield func(any, any) bool) {
		for i, k := range m.keys {
			if !yield(k, m.vals[i]) {
				return
			}
		}
	}
}
