package value

import "iter"

// Record is a string-keyed collection that remembers insertion order.
//
// Setting an existing key replaces its value in place without moving it.
type Record struct {
	keys []string
	vals map[string]any
}

// NewRecord creates an empty record.
func NewRecord() *Record {
	return &Record{vals: make(map[string]any)}
}

// Set stores v under key and returns the record for chaining.
func (r *Record) Set(key string, v any) *Record {
	if r.vals == nil {
		r.vals = make(map[string]any)
	}
	if _, ok := r.vals[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.vals[key] = v

	return r
}

// Get returns the value stored under key.
func (r *Record) Get(key string) (any, bool) {
	v, ok := r.vals[key]
	return v, ok
}

// Delete removes key and reports whether it was present.
func (r *Record) Delete(key string) bool {
	if _, ok := r.vals[key]; !ok {
		return false
	}
	delete(r.vals, key)

	for i, k := range r.keys {
		if k == key {
			r.keys = append(r.keys[:i], r.keys[i+1:]...)
			break
		}
	}

	return true
}

// Len returns the number of keys.
func (r *Record) Len() int {
	return len(r.keys)
}

// Keys returns a copy of the keys in insertion order.
func (r *Record) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)

	return out
}

// All iterates over key/value pairs in insertion order.
func (r *Record) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		for _, k := range r.keys {
			if !yield(k, r.vals[k]) {
				return
			}
		}
	}
}

// List is an ordered sequence of values.
type List struct {
	Items []any
}

// NewList creates a list holding items.
func NewList(items ...any) *List {
	return &List{Items: items}
}

// Append adds items to the end of the list.
func (l *List) Append(items ...any) *List {
	l.Items = append(l.Items, items...)
	return l
}

// Len returns the number of items.
func (l *List) Len() int {
	return len(l.Items)
}
