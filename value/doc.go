// Package value defines the runtime value model strpack serializes.
//
// Primitives are plain Go values: nil (null), Undefined, bool, string, the Go
// integer kinds, float32 and float64. Composites are pointer types so that
// they carry an identity; sharing a pointer in two places of a value tree, or
// pointing back at an ancestor, is preserved through a round trip:
//
//	shared := value.NewRecord().Set("a", int64(1))
//	list := value.NewList(shared, shared)
//
//	s, _ := strpack.Serialize(list)
//	v, _ := strpack.Deserialize(s)
//	out := v.(*value.List)
//	out.Items[0] == out.Items[1] // true
//
// Decoded numbers are int64 for integral values (uint64 above math.MaxInt64)
// and float64 otherwise.
package value
